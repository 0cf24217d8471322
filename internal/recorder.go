package internal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MaxRecordingSeconds is the hard cap on voice pitch length. Capture is
// force-stopped at the cap.
const MaxRecordingSeconds = 21

// RecorderState represents the voice capture pipeline state
type RecorderState int

const (
	StateIdle RecorderState = iota
	StateRecording
	StateStopping
	StateTranscribing
	StateDone
	StateFailed
)

// String returns the state name
func (s RecorderState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	case StateTranscribing:
		return "transcribing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// CaptureDevice is an acquired audio input. Stop releases the device and
// returns whatever was captured; it must be safe to call exactly once.
type CaptureDevice interface {
	Stop() (data []byte, mimeType string, err error)
}

// DeviceOpener acquires an audio input device. Implementations wrap real
// hardware access so the pipeline is testable without it.
type DeviceOpener interface {
	Acquire(ctx context.Context) (CaptureDevice, error)
}

// Transcriber converts captured audio to text
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Recorder is the bounded-duration audio-capture state machine:
// idle -> recording -> stopping -> transcribing -> done, with failures
// landing in failed. Only one capture attempt is active at a time, and the
// device is released on every exit path.
type Recorder struct {
	opener      DeviceOpener
	transcriber Transcriber

	state      RecorderState
	attemptID  string
	elapsed    int
	device     CaptureDevice
	captured   []byte
	mimeType   string
	transcript string
}

// NewRecorder creates a recorder over the given device opener and transcriber
func NewRecorder(opener DeviceOpener, transcriber Transcriber) *Recorder {
	return &Recorder{opener: opener, transcriber: transcriber}
}

// State returns the current pipeline state
func (r *Recorder) State() RecorderState {
	return r.state
}

// ElapsedSeconds returns the tick count of the active attempt
func (r *Recorder) ElapsedSeconds() int {
	return r.elapsed
}

// Transcript returns the transcript of the last completed attempt. It is
// settable only by this pipeline; starting a new recording replaces it.
func (r *Recorder) Transcript() string {
	return r.transcript
}

// Start acquires the audio device and begins a new capture attempt. It is
// rejected while another attempt is active. A failed acquisition leaves the
// state at idle.
func (r *Recorder) Start(ctx context.Context) error {
	switch r.state {
	case StateRecording, StateStopping, StateTranscribing:
		return &ValidationError{Field: "recording", Reason: "a recording is already in progress"}
	}

	device, err := r.opener.Acquire(ctx)
	if err != nil {
		r.state = StateIdle
		return &AcquisitionError{Device: "audio input", Err: err}
	}

	r.device = device
	r.state = StateRecording
	r.attemptID = uuid.NewString()
	r.elapsed = 0
	r.captured = nil
	r.mimeType = ""
	r.transcript = ""
	LogDebug("Recording %s started", r.attemptID)
	return nil
}

// Tick advances the 1-second recording clock. At the cap the pipeline
// force-stops capture and transitions to stopping; Tick reports whether
// that happened.
func (r *Recorder) Tick() bool {
	if r.state != StateRecording {
		return false
	}
	r.elapsed++
	if r.elapsed >= MaxRecordingSeconds {
		LogDebug("Recording %s hit the %ds cap, force-stopping", r.attemptID, MaxRecordingSeconds)
		r.stopCapture()
		return true
	}
	return false
}

// Stop ends capture early at the user's request
func (r *Recorder) Stop() error {
	if r.state != StateRecording {
		return &ValidationError{Field: "recording", Reason: "no recording in progress"}
	}
	r.stopCapture()
	return nil
}

// stopCapture releases the device unconditionally and moves to stopping
func (r *Recorder) stopCapture() {
	data, mimeType, err := r.device.Stop()
	r.device = nil
	if err != nil {
		LogWarn("Capture device stop reported: %v", err)
	}
	r.captured = data
	r.mimeType = mimeType
	r.state = StateStopping
}

// Finish packages the captured audio and sends it once to the transcription
// collaborator. An empty capture fails without calling the collaborator;
// a collaborator error is surfaced verbatim and not retried.
func (r *Recorder) Finish(ctx context.Context) (string, error) {
	if r.state != StateStopping {
		return "", &ValidationError{Field: "recording", Reason: fmt.Sprintf("cannot finish from state %s", r.state)}
	}

	if len(r.captured) == 0 {
		r.state = StateFailed
		return "", &EmptyCaptureError{AttemptID: r.attemptID}
	}

	r.state = StateTranscribing
	text, err := r.transcriber.Transcribe(ctx, r.captured, r.filename())
	if err != nil {
		r.state = StateFailed
		return "", err
	}

	r.transcript = text
	r.state = StateDone
	return text, nil
}

// Abort releases any held device and returns the pipeline to idle. Used on
// teardown so a device handle is never leaked.
func (r *Recorder) Abort() {
	if r.device != nil {
		_, _, _ = r.device.Stop()
		r.device = nil
	}
	r.state = StateIdle
	r.captured = nil
	r.elapsed = 0
}

func (r *Recorder) filename() string {
	ext := ".wav"
	switch r.mimeType {
	case "audio/webm":
		ext = ".webm"
	case "audio/ogg":
		ext = ".ogg"
	case "audio/mpeg":
		ext = ".mp3"
	}
	return "pitch-" + r.attemptID + ext
}
