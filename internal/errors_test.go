package internal

import (
	"errors"
	"strings"
	"testing"
)

func TestAcquisitionError(t *testing.T) {
	originalErr := errors.New("device busy")
	err := &AcquisitionError{
		Device: "audio input",
		Err:    originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "audio device unavailable") {
		t.Errorf("AcquisitionError.Error() should name the device failure, got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "audio input") {
		t.Errorf("AcquisitionError.Error() should contain the device, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("AcquisitionError.Unwrap() should return original error")
	}
}

func TestEmptyCaptureError(t *testing.T) {
	err := &EmptyCaptureError{AttemptID: "attempt-1"}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "captured no audio") {
		t.Errorf("EmptyCaptureError.Error() should describe the empty capture, got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "attempt-1") {
		t.Errorf("EmptyCaptureError.Error() should contain the attempt id, got: %q", errorMsg)
	}
}

func TestTranscriptionError(t *testing.T) {
	err := &TranscriptionError{
		Status: 502,
		Detail: "upstream model unavailable",
		Hint:   "retry in a minute",
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "502") {
		t.Errorf("TranscriptionError.Error() should contain the status, got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "upstream model unavailable") {
		t.Errorf("TranscriptionError.Error() should carry detail verbatim, got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "retry in a minute") {
		t.Errorf("TranscriptionError.Error() should carry hint verbatim, got: %q", errorMsg)
	}

	bare := &TranscriptionError{Status: 500}
	if strings.Contains(bare.Error(), "()") {
		t.Errorf("Bare TranscriptionError should omit empty hint, got: %q", bare.Error())
	}
}

func TestNetworkError(t *testing.T) {
	originalErr := errors.New("connection refused")
	err := &NetworkError{
		Op:   "GET",
		Path: "/api/message-threads/",
		Err:  originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "network error") {
		t.Errorf("NetworkError.Error() should contain 'network error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "/api/message-threads/") {
		t.Errorf("NetworkError.Error() should contain the path, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("NetworkError.Unwrap() should return original error")
	}
}

func TestServerError(t *testing.T) {
	err := &ServerError{
		Status: 404,
		Path:   "/api/profiles/99/",
		Detail: "profile not found",
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "404") {
		t.Errorf("ServerError.Error() should contain the status, got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "profile not found") {
		t.Errorf("ServerError.Error() should contain the detail, got: %q", errorMsg)
	}

	noDetail := &ServerError{Status: 500, Path: "/api/meetups/"}
	if noDetail.Error() == "" {
		t.Error("ServerError.Error() without detail returned empty string")
	}
}

func TestChannelError(t *testing.T) {
	originalErr := errors.New("connection reset")
	err := &ChannelError{Epoch: 3, Err: originalErr}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "epoch 3") {
		t.Errorf("ChannelError.Error() should contain the epoch, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("ChannelError.Unwrap() should return original error")
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:  "display_name",
		Reason: "name must not be empty",
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "validation error") {
		t.Errorf("ValidationError.Error() should contain 'validation error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "display_name") {
		t.Errorf("ValidationError.Error() should contain the field, got: %q", errorMsg)
	}
}
