package logging

import (
	"github.com/rs/zerolog/log"
)

// StartupLogger collects session identity, configuration, and feature flags,
// then emits a single structured zerolog event summarising the state the
// session started with. One event instead of a scatter of init logs makes it
// easy to see exactly how a session was configured when reading a report.
type StartupLogger struct {
	name     string
	config   map[string]string
	features map[string]bool
}

// NewStartupLogger creates a StartupLogger for the given component name
// (e.g. "canvas-cli").
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:     name,
		config:   make(map[string]string),
		features: make(map[string]bool),
	}
}

// Config registers a configuration value.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	s.config[key] = value
	return s
}

// Feature registers a feature flag state.
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

// Log emits the collected state as a single structured event.
func (s *StartupLogger) Log() {
	event := log.Info().Str("component", s.name)
	for k, v := range s.config {
		event = event.Str(k, v)
	}
	for k, v := range s.features {
		event = event.Bool(k, v)
	}
	event.Msg("Session starting")
}
