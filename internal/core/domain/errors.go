package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrUnknownModule      = errors.New("unknown module")
	ErrInvalidRoute       = errors.New("invalid route table")
)

// ModuleError reports a module name outside the declared enum.
type ModuleError struct {
	Name string
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("unknown module %q", e.Name)
}

func (e *ModuleError) Unwrap() error { return ErrUnknownModule }

// BackendErrorKind classifies a failed call to the Sinergy API.
type BackendErrorKind string

const (
	// KindNetwork: no HTTP response was obtained (dial, timeout, cancel).
	KindNetwork BackendErrorKind = "network"
	// KindStatus: the API answered with a non-2xx status.
	KindStatus BackendErrorKind = "status"
	// KindDecode: the API answered 2xx with a body we could not read.
	KindDecode BackendErrorKind = "decode"
)

// BackendError is the error half of every backend call result.
type BackendError struct {
	Op     string
	Kind   BackendErrorKind
	Status int
	Detail string
	Err    error
}

func (e *BackendError) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Detail != "" {
			return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Detail)
		}
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *BackendError) Unwrap() error { return e.Err }

// BackendKind returns the kind of a backend failure, or "" when err is not one.
func BackendKind(err error) BackendErrorKind {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// IsStatus reports whether err is a non-OK API response.
func IsStatus(err error) bool { return BackendKind(err) == KindStatus }

// IsNetwork reports whether err means the API could not be reached.
func IsNetwork(err error) bool { return BackendKind(err) == KindNetwork }

// StatusCode returns the HTTP status carried by a KindStatus error, or 0.
func StatusCode(err error) int {
	var be *BackendError
	if errors.As(err, &be) && be.Kind == KindStatus {
		return be.Status
	}
	return 0
}

var (
	ErrNoPartner      = errors.New("no conversation partner selected")
	ErrChatNotRunning = errors.New("chat session is not running")
)
