package config

import "fmt"

// Reason classifies configuration failures.
type Reason string

const (
	ReasonMissingProfileName Reason = "missing profile name"
	ReasonMissingFile        Reason = "missing file"
	ReasonMalformed          Reason = "malformed document"
	ReasonMissingProfile     Reason = "missing profile"
	ReasonMissingKey         Reason = "missing key"
)

// Error is a fatal configuration failure. It always occurs before any
// remote action.
type Error struct {
	Reason  Reason
	Path    string
	Profile string
	Key     string
	Err     error
}

func (e *Error) Error() string {
	msg := "configuration error: " + string(e.Reason)
	if e.Path != "" {
		msg += fmt.Sprintf(" (document %q)", e.Path)
	}
	if e.Profile != "" {
		msg += fmt.Sprintf(" (profile %q)", e.Profile)
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" (key %q)", e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
