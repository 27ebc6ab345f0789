package workflow

// WorkflowError categorizes every failure the orchestrator can surface so the
// CLI layer can map each kind to a distinct user-facing message. Storage
// failures never appear here; the quota tracker recovers from them internally.
type WorkflowError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// ErrorKind identifies the failure category of a WorkflowError.
type ErrorKind int

const (
	// ErrKindValidation indicates invalid workflow input (e.g. an empty prompt).
	ErrKindValidation ErrorKind = iota
	// ErrKindQuota indicates the daily generation ceiling has been reached.
	ErrKindQuota
	// ErrKindService indicates a generation service or network failure.
	ErrKindService
	// ErrKindFormat indicates a malformed image reference during chaining.
	ErrKindFormat
	// ErrKindBusy indicates a generation is already in flight.
	ErrKindBusy
)

func (e *WorkflowError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func validationErr(msg string) *WorkflowError {
	return &WorkflowError{Kind: ErrKindValidation, Message: msg}
}

func quotaErr(msg string) *WorkflowError {
	return &WorkflowError{Kind: ErrKindQuota, Message: msg}
}

func serviceErr(msg string, err error) *WorkflowError {
	return &WorkflowError{Kind: ErrKindService, Message: msg, Err: err}
}

func formatErr(msg string, err error) *WorkflowError {
	return &WorkflowError{Kind: ErrKindFormat, Message: msg, Err: err}
}
