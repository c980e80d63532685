package config

import "fmt"

// Reasons carried by ConfigError.
const (
	ReasonModeNotSpecified   = "mode not specified"
	ReasonTokenNotSpecified  = "github-token not specified"
	ReasonMissingStartInputs = "missing start-mode inputs"
	ReasonMissingStopInputs  = "missing stop-mode inputs"
	ReasonInvalidMode        = "invalid mode"
)

// MissingInputError reports a required input that was absent or empty.
type MissingInputError struct {
	Key string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("input required and not supplied: %s", e.Key)
}

// MalformedValueError reports an input that does not match its grammar
// (size, integer or owner/repo).
type MalformedValueError struct {
	Key    string
	Value  string
	Reason string
}

func (e *MalformedValueError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("malformed value %q: %s", e.Value, e.Reason)
	}
	return fmt.Sprintf("%s: malformed value %q: %s", e.Key, e.Value, e.Reason)
}

// ConfigError reports inputs that are individually well-formed but
// inconsistent with the selected mode.
type ConfigError struct {
	// Reason is one of the Reason* constants.
	Reason string
	// Detail names the offending inputs, if any.
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return e.Reason
	}
	return e.Reason + ": " + e.Detail
}
