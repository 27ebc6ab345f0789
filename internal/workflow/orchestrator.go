package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fpang/gemini-canvas-cli/internal/dataurl"
	"github.com/rs/zerolog/log"
)

// Service performs the actual image synthesis. Implementations return a
// Result with a base64 payload, or a descriptive error.
type Service interface {
	// Create generates an image from the composed instruction alone.
	Create(ctx context.Context, instruction string) (*Result, error)
	// Edit transforms the source image guided by the composed instruction.
	Edit(ctx context.Context, source *SourceImage, instruction string) (*Result, error)
}

// Quota gates generation attempts. Checking never mutates; consuming
// records one successful generation.
type Quota interface {
	CheckAvailable() bool
	Consume()
	Remaining() int
}

// State is the orchestrator's position in the generation lifecycle.
type State int

const (
	// StateIdle means no request is in flight.
	StateIdle State = iota
	// StateValidating means inputs and quota are being checked.
	StateValidating
	// StateGenerating means a service call is outstanding.
	StateGenerating
	// StateSucceeded is the terminal state of a successful attempt.
	StateSucceeded
	// StateFailed is the terminal state of a failed attempt.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateGenerating:
		return "generating"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// createdAtFormat is the human-readable timestamp on history entries.
const createdAtFormat = "Jan 2, 2006 3:04:05 PM"

// Orchestrator owns the session state and drives every generation attempt
// through the same path: validate, check quota, build the request, call the
// service, and on success consume quota and append to the history ledger.
// Quota is consumed only on confirmed success; a failed attempt changes
// neither quota nor history.
//
// Only one generation may be in flight at a time. A second Generate, Retry,
// or Extend while one is outstanding fails with a busy error instead of
// dispatching.
type Orchestrator struct {
	service Service
	quota   Quota
	now     func() time.Time

	mu       sync.Mutex
	inFlight bool
	state    State

	prompt         string
	negativePrompt string
	aspect         AspectRatio
	source         *SourceImage
	generated      string
	lastErr        string
	rating         int
	lastRequest    *Request
	ledger         Ledger
}

// NewOrchestrator creates an Orchestrator in the Idle state with the default
// aspect ratio. A nil clock defaults to time.Now.
func NewOrchestrator(service Service, quota Quota, now func() time.Time) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		service: service,
		quota:   quota,
		now:     now,
		aspect:  AspectSquare,
	}
}

// --- Session state accessors ---

// SetPrompt replaces the user prompt.
func (o *Orchestrator) SetPrompt(prompt string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prompt = prompt
}

// SetNegativePrompt replaces the user negative prompt.
func (o *Orchestrator) SetNegativePrompt(negative string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.negativePrompt = negative
}

// SetAspectRatio replaces the requested aspect ratio.
func (o *Orchestrator) SetAspectRatio(aspect AspectRatio) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.aspect = aspect
}

// SetSourceImage replaces the active source image wholesale. A nil source
// switches the next generation back to create mode.
func (o *Orchestrator) SetSourceImage(source *SourceImage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.source = source
}

// Prompt returns the current user prompt.
func (o *Orchestrator) Prompt() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.prompt
}

// NegativePrompt returns the current negative prompt.
func (o *Orchestrator) NegativePrompt() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.negativePrompt
}

// AspectRatio returns the current aspect ratio.
func (o *Orchestrator) AspectRatio() AspectRatio {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.aspect
}

// Source returns the active source image, or nil in create mode.
func (o *Orchestrator) Source() *SourceImage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.source
}

// GeneratedRef returns the data URL of the latest generated image, or the
// empty string if none is active.
func (o *Orchestrator) GeneratedRef() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generated
}

// LastError returns the message of the most recent failure, cleared on the
// next success.
func (o *Orchestrator) LastError() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Rating returns the star rating of the latest generation (0 = unset).
func (o *Orchestrator) Rating() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rating
}

// LastRequest returns a copy of the most recently dispatched request, or
// nil if nothing has been dispatched yet.
func (o *Orchestrator) LastRequest() *Request {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastRequest == nil {
		return nil
	}
	cp := *o.lastRequest
	return &cp
}

// History returns a newest-first snapshot of the session ledger.
func (o *Orchestrator) History() []HistoryEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ledger.Entries()
}

// ClearHistory empties the ledger. The caller must have confirmed with the
// user; this operation is irreversible.
func (o *Orchestrator) ClearHistory() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ledger.Clear()
	log.Info().Msg("Session history cleared")
}

// Rate records a 1-5 star rating for the latest generation.
func (o *Orchestrator) Rate(stars int) error {
	if stars < 1 || stars > 5 {
		return validationErr("rating must be between 1 and 5")
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generated == "" {
		return validationErr("no generated image to rate")
	}
	o.rating = stars
	return nil
}

// Reset unconditionally returns the session to its initial state: source
// and generated images, prompt, negative prompt, error, and rating are
// cleared, the aspect ratio returns to the default, and the entire history
// ledger is emptied. The caller must have confirmed with the user first.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.prompt = ""
	o.negativePrompt = ""
	o.aspect = AspectSquare
	o.source = nil
	o.generated = ""
	o.lastErr = ""
	o.rating = 0
	o.lastRequest = nil
	o.ledger.Clear()
	o.state = StateIdle

	log.Info().Msg("Session reset")
}

// --- Generation operations ---

// Generate runs one generation attempt from the current session inputs.
// On success it returns the appended history entry; on failure it returns a
// typed WorkflowError and leaves quota and history untouched.
func (o *Orchestrator) Generate(ctx context.Context) (*HistoryEntry, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.finish()

	o.mu.Lock()
	req, err := BuildRequest(o.prompt, o.negativePrompt, o.aspect, o.source)
	o.mu.Unlock()
	if err != nil {
		return nil, o.fail(err)
	}

	return o.dispatch(ctx, req)
}

// Retry re-runs the identical last request through the same state machine.
func (o *Orchestrator) Retry(ctx context.Context) (*HistoryEntry, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.finish()

	o.mu.Lock()
	var req *Request
	if o.lastRequest != nil {
		cp := *o.lastRequest
		req = &cp
	}
	o.mu.Unlock()

	if req == nil {
		return nil, o.fail(validationErr("nothing to retry yet"))
	}
	return o.dispatch(ctx, *req)
}

// Extend reinterprets the latest generated image as the next source image
// and immediately re-runs generation in edit mode with the fixed
// continuation prompt. The chain advances exactly one step per call; it is
// never automatic. A malformed generated reference fails with a format
// error before any session state changes.
func (o *Orchestrator) Extend(ctx context.Context) (*HistoryEntry, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.finish()

	o.mu.Lock()
	generated := o.generated
	name := o.extendBaseNameLocked()
	o.mu.Unlock()

	if generated == "" {
		return nil, o.fail(validationErr("no generated image to extend"))
	}

	source, err := chainSource(generated, name)
	if err != nil {
		return nil, o.fail(err)
	}

	o.mu.Lock()
	o.source = source
	o.generated = ""
	o.prompt = ContinuationPrompt
	o.negativePrompt = ""
	req, berr := BuildRequest(o.prompt, o.negativePrompt, o.aspect, o.source)
	o.mu.Unlock()
	if berr != nil {
		return nil, o.fail(berr)
	}

	log.Info().Str("source", source.DisplayName).Msg("Extending generated image")
	return o.dispatch(ctx, req)
}

// extendBaseNameLocked picks the name the extended source derives from:
// the active source image if present, otherwise the latest history entry.
// Callers must hold o.mu.
func (o *Orchestrator) extendBaseNameLocked() string {
	if o.source != nil {
		return o.source.DisplayName
	}
	if entries := o.ledger.Entries(); len(entries) > 0 {
		return entries[0].FileName
	}
	return "image.png"
}

// dispatch runs the quota gate, the service call, and success bookkeeping.
// The quota check happens before dispatch and the consume only after a
// successful response; the single-in-flight guard is what keeps the two
// from racing across the awaited call.
func (o *Orchestrator) dispatch(ctx context.Context, req Request) (*HistoryEntry, error) {
	o.mu.Lock()
	cp := req
	o.lastRequest = &cp
	o.mu.Unlock()

	if !o.quota.CheckAvailable() {
		return nil, o.fail(quotaErr("daily generation limit reached; quota resets tomorrow"))
	}

	o.setState(StateGenerating)
	log.Info().
		Str("mode", req.Mode.String()).
		Str("aspect", string(req.AspectRatio)).
		Int("prompt_length", len(req.Prompt)).
		Msg("Dispatching generation request")

	var result *Result
	var err error
	if req.Mode == ModeEdit {
		result, err = o.service.Edit(ctx, req.Source, req.Instruction)
	} else {
		result, err = o.service.Create(ctx, req.Instruction)
	}
	if err != nil {
		return nil, o.fail(serviceErr("image generation failed", err))
	}

	ref := dataurl.Encode(result.MediaType, result.EncodedBytes)
	o.quota.Consume()

	now := o.now()
	entry := HistoryEntry{
		ID:        strconv.FormatInt(now.UnixNano(), 10),
		ImageRef:  ref,
		FileName:  fileNameFor(req, now),
		CreatedAt: now.Format(createdAtFormat),
	}

	o.mu.Lock()
	o.ledger.Append(entry)
	o.generated = ref
	o.lastErr = ""
	o.rating = 0
	o.state = StateSucceeded
	o.mu.Unlock()

	log.Info().
		Str("file_name", entry.FileName).
		Int("remaining_quota", o.quota.Remaining()).
		Msg("Generation succeeded")

	return &entry, nil
}

// begin claims the single in-flight slot or fails with a busy error.
func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight {
		return &WorkflowError{Kind: ErrKindBusy, Message: "a generation is already in flight"}
	}
	o.inFlight = true
	o.state = StateValidating
	return nil
}

// finish releases the in-flight slot and returns the machine to Idle.
func (o *Orchestrator) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false
	o.state = StateIdle
}

// fail records the failure message and surfaces the typed error.
func (o *Orchestrator) fail(err error) error {
	o.mu.Lock()
	o.lastErr = err.Error()
	o.state = StateFailed
	o.mu.Unlock()

	log.Warn().Err(err).Msg("Generation attempt failed")
	return err
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// fileNameFor derives the history file name: edits keep the source's name
// with an "edited-" prefix, creations get a slug of the prompt plus a
// timestamp.
func fileNameFor(req Request, now time.Time) string {
	if req.Mode == ModeEdit && req.Source != nil {
		return "edited-" + req.Source.DisplayName
	}
	slug := slugify(req.Prompt)
	if slug == "" {
		slug = "image"
	}
	return fmt.Sprintf("created-%s-%d.png", slug, now.Unix())
}

// slugMaxLen caps the prompt slug in generated file names.
const slugMaxLen = 40

// slugify lowercases the prompt and reduces it to hyphen-separated
// alphanumeric runs, truncated to slugMaxLen.
func slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
		if b.Len() >= slugMaxLen {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}
