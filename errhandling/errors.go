// Package errhandling holds the single error taxonomy shared by the store
// facade and both transports, and its projections onto HTTP and gRPC.
package errhandling

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies every failure the gateway can report.
type Kind int

const (
	KindInternal Kind = iota
	KindBackend
	KindUnauthorized
	KindKeyNotFound
	KindInvalidRequest
	KindEncoding
)

var kindNames = [...]string{
	KindInternal:       "internal",
	KindBackend:        "backend",
	KindUnauthorized:   "unauthorized",
	KindKeyNotFound:    "key not found",
	KindInvalidRequest: "invalid request",
	KindEncoding:       "encoding",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindInternal]
	}
	return kindNames[k]
}

// Error is a classified failure. Message is detail for the logs; only
// InvalidRequest messages are ever shown to the caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BackendError reports an I/O or protocol failure talking to the storage engine.
func BackendError(err error, format string, a ...any) error {
	return &Error{Kind: KindBackend, Message: fmt.Sprintf(format, a...), Err: err}
}

// Unauthorized reports a missing, malformed or unregistered credential.
func Unauthorized(format string, a ...any) error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, a...)}
}

// KeyNotFound reports that a logical key is absent.
func KeyNotFound(key string) error {
	return &Error{Kind: KindKeyNotFound, Message: key}
}

// InvalidRequest reports malformed caller input. The message is returned to
// the caller verbatim.
func InvalidRequest(format string, a ...any) error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, a...)}
}

// EncodingError reports a text decoding failure.
func EncodingError(err error) error {
	return &Error{Kind: KindEncoding, Err: err}
}

// Internal reports anything else.
func Internal(err error, format string, a ...any) error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, a...), Err: err}
}

// KindOf classifies err. Errors carrying a gRPC status (for example those
// returned to a client) are classified by their code. Anything else is
// Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if s, ok := status.FromError(err); ok && err != nil {
		return kindFromCode(s.Code())
	}
	return KindInternal
}

// IsKind is a convenience for KindOf(err) == kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func kindFromCode(c codes.Code) Kind {
	switch c {
	case codes.Unauthenticated:
		return KindUnauthorized
	case codes.NotFound:
		return KindKeyNotFound
	case codes.InvalidArgument:
		return KindInvalidRequest
	}
	return KindInternal
}
