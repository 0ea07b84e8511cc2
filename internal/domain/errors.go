package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies non-fatal session failures.
type ErrorKind string

const (
	ErrorKindPermissionDenied    ErrorKind = "permission_denied"
	ErrorKindDeviceUnavailable   ErrorKind = "device_unavailable"
	ErrorKindGraphCreationFailed ErrorKind = "graph_creation_failed"
	ErrorKindInputNodeFailed     ErrorKind = "input_node_failed"
	ErrorKindOutputNodeFailed    ErrorKind = "output_node_failed"
	ErrorKindAudioInitFailed     ErrorKind = "audio_init_failed"
	ErrorKindTeardownFailure     ErrorKind = "teardown_failure"
)

var (
	ErrPermissionDenied    = errors.New("permission denied")
	ErrDeviceUnavailable   = errors.New("device unavailable")
	ErrGraphCreationFailed = errors.New("audio graph creation failed")
	ErrInputNodeFailed     = errors.New("audio input node creation failed")
	ErrOutputNodeFailed    = errors.New("audio output node creation failed")
	ErrAudioInitFailed     = errors.New("audio initialization failed")
	ErrTeardownFailure     = errors.New("teardown failure")
)

var sentinels = map[ErrorKind]error{
	ErrorKindPermissionDenied:    ErrPermissionDenied,
	ErrorKindDeviceUnavailable:   ErrDeviceUnavailable,
	ErrorKindGraphCreationFailed: ErrGraphCreationFailed,
	ErrorKindInputNodeFailed:     ErrInputNodeFailed,
	ErrorKindOutputNodeFailed:    ErrOutputNodeFailed,
	ErrorKindAudioInitFailed:     ErrAudioInitFailed,
	ErrorKindTeardownFailure:     ErrTeardownFailure,
}

// SessionError is a classified failure reported by a video or audio session.
// It matches both its kind sentinel and the underlying cause with errors.Is.
type SessionError struct {
	Kind  ErrorKind
	Stage string
	Err   error
}

func NewSessionError(kind ErrorKind, stage string, err error) *SessionError {
	return &SessionError{Kind: kind, Stage: stage, Err: err}
}

func (e *SessionError) Error() string {
	msg := string(e.Kind)
	if sentinel, ok := sentinels[e.Kind]; ok {
		msg = sentinel.Error()
	}
	if e.Stage != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Stage)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SessionError) Unwrap() []error {
	out := make([]error, 0, 2)
	if sentinel, ok := sentinels[e.Kind]; ok {
		out = append(out, sentinel)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// KindOf returns the error kind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var sessionErr *SessionError
	if errors.As(err, &sessionErr) {
		return sessionErr.Kind, true
	}
	return "", false
}
