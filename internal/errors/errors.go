// Package errors provides the error taxonomy shared by the download and
// model packages.
//
// Every failure is fatal to the operation that raised it. The structured
// types carry enough context (operation, address, path, symbol) for callers
// to report the failure without re-deriving it.
package errors

import (
	"errors"
	"fmt"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrSessionClosed      = errors.New("session is closed")
	ErrNotConnected       = errors.New("connect handshake has not completed")
	ErrAlreadyConnected   = errors.New("connect handshake already performed")
	ErrVersionMismatch    = errors.New("controller version mismatch")
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrAlreadyLoaded      = errors.New("model library already loaded")
	ErrInvalidFrame       = errors.New("invalid frame given")
	ErrLibraryClosed      = errors.New("model library is closed")
)

// ── Structured error types ───────────────────────────────────────────

// ConnectionError reports a transport that could not be opened or was lost
// mid-exchange.
type ConnectionError struct {
	Op   string // "dial", "write", "read"
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("connection %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("connection %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError reports a response that violates the command/response
// contract: version mismatch, malformed frame, wrong id or kind.
type ProtocolError struct {
	Op  string // "connect", "load_model_library", "receive"
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// DownloadError reports a LoadModelLibrary response with a non-success
// status.
type DownloadError struct {
	Status fmt.Stringer
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download: server reports error when loading model library (status=%s)", e.Status)
}

// IOError reports a failure persisting an artifact.
type IOError struct {
	Op   string // "stat", "write", "verify", "remove"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// LoadError reports an artifact that could not be opened as a module.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load model library %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SymbolNotFoundError names the exported symbol missing from an artifact.
type SymbolNotFoundError struct {
	Name string
	Err  error
}

func (e *SymbolNotFoundError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("symbol cannot be found: %s", e.Name)
	}
	return fmt.Sprintf("symbol cannot be found: %s: %v", e.Name, e.Err)
}

func (e *SymbolNotFoundError) Unwrap() error { return e.Err }

// InvalidArgumentError reports a caller-supplied value outside its domain.
type InvalidArgumentError struct {
	Name  string
	Value interface{}
	Err   error
}

func (e *InvalidArgumentError) Error() string {
	msg := fmt.Sprintf("invalid argument %s=%v", e.Name, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidArgumentError) Unwrap() error { return e.Err }

// ── Classification helpers ───────────────────────────────────────────

// Classify maps err onto a short, stable label for metrics and exit
// messages.
func Classify(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		connErr  *ConnectionError
		protoErr *ProtocolError
		dlErr    *DownloadError
		ioErr    *IOError
		loadErr  *LoadError
		symErr   *SymbolNotFoundError
		argErr   *InvalidArgumentError
	)
	switch {
	case errors.As(err, &symErr):
		return "symbol"
	case errors.As(err, &loadErr):
		return "load"
	case errors.As(err, &dlErr):
		return "download"
	case errors.As(err, &protoErr):
		return "protocol"
	case errors.As(err, &connErr):
		return "connection"
	case errors.As(err, &ioErr):
		return "io"
	case errors.As(err, &argErr):
		return "invalid_argument"
	default:
		return "unknown"
	}
}

// IsConnection reports whether err is a transport failure. Only these are
// worth retrying, and only on a fresh session.
func IsConnection(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }
