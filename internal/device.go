package internal

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

// MicOpener acquires the system microphone by spawning a recording process
// (arecord on ALSA systems, ffmpeg elsewhere) that writes WAV to a
// temporary file until stopped.
type MicOpener struct{}

// Acquire starts a capture process. It fails when no supported recorder
// binary is installed or the process cannot start.
func (MicOpener) Acquire(ctx context.Context) (CaptureDevice, error) {
	tmp, err := os.CreateTemp("", "expo-session-pitch-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()

	cmd, err := captureCommand(ctx, path)
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to start recorder: %w", err)
	}

	return &micDevice{cmd: cmd, path: path}, nil
}

// captureCommand picks the first available recorder binary
func captureCommand(ctx context.Context, path string) (*exec.Cmd, error) {
	if _, err := exec.LookPath("arecord"); err == nil {
		return exec.CommandContext(ctx, "arecord", "-f", "S16_LE", "-r", "16000", "-c", "1", path), nil
	}
	if _, err := exec.LookPath("ffmpeg"); err == nil {
		args := []string{"-hide_banner", "-loglevel", "error", "-y"}
		switch {
		case fileExists("/dev/snd"):
			args = append(args, "-f", "alsa", "-i", "default")
		default:
			args = append(args, "-f", "avfoundation", "-i", ":0")
		}
		args = append(args, "-ac", "1", "-ar", "16000", path)
		return exec.CommandContext(ctx, "ffmpeg", args...), nil
	}
	return nil, fmt.Errorf("no audio recorder found (install arecord or ffmpeg)")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type micDevice struct {
	cmd  *exec.Cmd
	path string
}

// Stop terminates the capture process, reads the captured bytes and removes
// the temporary file. The process handle is released on every path.
func (d *micDevice) Stop() ([]byte, string, error) {
	defer os.Remove(d.path)

	// Interrupt first so the recorder finalizes the WAV header; kill if it
	// does not exit promptly.
	_ = d.cmd.Process.Signal(syscall.SIGINT)
	done := make(chan error, 1)
	go func() { done <- d.cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		_ = d.cmd.Process.Kill()
		<-done
	}

	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read capture file %s: %w", filepath.Base(d.path), err)
	}
	return data, "audio/wav", nil
}
