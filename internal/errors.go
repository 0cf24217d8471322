package internal

import "fmt"

// AcquisitionError represents a failure to acquire the audio input device
type AcquisitionError struct {
	Device string
	Err    error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("audio device unavailable [%s]: %v", e.Device, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// EmptyCaptureError represents a recording that produced zero bytes
type EmptyCaptureError struct {
	AttemptID string
}

func (e *EmptyCaptureError) Error() string {
	return fmt.Sprintf("recording %s captured no audio", e.AttemptID)
}

// TranscriptionError represents a non-success response from the
// speech-to-text collaborator. Detail and Hint carry the server's
// explanation verbatim.
type TranscriptionError struct {
	Status int
	Detail string
	Hint   string
}

func (e *TranscriptionError) Error() string {
	msg := fmt.Sprintf("transcription failed (HTTP %d)", e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// NetworkError represents a fetch or decode failure on a REST call
type NetworkError struct {
	Op   string // "GET", "POST", "PATCH", "decode"
	Path string
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError represents a non-2xx REST response with the server's error body
type ServerError struct {
	Status int
	Path   string
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server error [%d] %s: %s", e.Status, e.Path, e.Detail)
	}
	return fmt.Sprintf("server error [%d] %s", e.Status, e.Path)
}

// ChannelError represents a push-channel failure. It is never surfaced to
// the user; the channel reconnects silently.
type ChannelError struct {
	Epoch int
	Err   error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("push channel error (epoch %d): %v", e.Epoch, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// ValidationError represents a local precondition failure; no network call
// is issued for the action that produced it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// ParseError represents errors parsing data from a collaborator or the
// local state store
type ParseError struct {
	Source string // "push-channel", "statestore", "api"
	Key    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
