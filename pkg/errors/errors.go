package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrNoSongs       = errors.New("no MP3 files found")
	ErrNoSession     = errors.New("no song loaded")
	ErrShuttingDown  = errors.New("player is shutting down")
	ErrInvalidVolume = errors.New("volume must be between 0.0 and 1.0")
)

// LoadError reports a song that could not be opened or decoded. It is fatal
// to that load attempt only; the caller decides whether to retry or move on.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a new LoadError
func NewLoadError(path string, err error) *LoadError {
	return &LoadError{Path: path, Err: err}
}

// SeekError reports a seek rejected by the decoder. Playback state is left
// unchanged when it occurs.
type SeekError struct {
	Offset int64 // requested sample offset
	Err    error
}

func (e *SeekError) Error() string {
	return fmt.Sprintf("seek to sample %d: %v", e.Offset, e.Err)
}

func (e *SeekError) Unwrap() error {
	return e.Err
}

// NewSeekError creates a new SeekError
func NewSeekError(offset int64, err error) *SeekError {
	return &SeekError{Offset: offset, Err: err}
}

// DeviceError wraps failures of the audio output device.
type DeviceError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewDeviceError creates a new DeviceError
func NewDeviceError(op string, err error) *DeviceError {
	return &DeviceError{Op: op, Err: err}
}
