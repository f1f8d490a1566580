package objclass

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/chn0318/stripelog/objstore"
)

// Kind classifies handler failures. Kinds travel on the wire as the negated
// reply status.
type Kind int32

const (
	KindIO              Kind = 1
	KindInvalidArgument Kind = 2
	KindNotFound        Kind = 3
	KindCorrupt         Kind = 4
	KindWrongTarget     Kind = 5
	KindAlreadyExists   Kind = 6
	KindTooLarge        Kind = 7
	KindReadOnly        Kind = 8
	KindMismatch        Kind = 9
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io error"
	case KindInvalidArgument:
		return "invalid argument"
	case KindNotFound:
		return "not found"
	case KindCorrupt:
		return "corrupt"
	case KindWrongTarget:
		return "wrong target"
	case KindAlreadyExists:
		return "already exists"
	case KindTooLarge:
		return "too large"
	case KindReadOnly:
		return "read only"
	case KindMismatch:
		return "metadata mismatch"
	default:
		return fmt.Sprintf("kind(%d)", int32(k))
	}
}

// Error is a typed handler failure.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" && e.Msg != "" && e.Err == nil {
		// decoded from a reply; the server already formatted it
		return e.Msg
	}
	s := e.Kind.String()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind so that errors.Is(err, ErrCorrupt) holds for
// any corrupt-kind error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrIO              = &Error{Kind: KindIO}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrCorrupt         = &Error{Kind: KindCorrupt}
	ErrWrongTarget     = &Error{Kind: KindWrongTarget}
	ErrAlreadyExists   = &Error{Kind: KindAlreadyExists}
	ErrTooLarge        = &Error{Kind: KindTooLarge}
	ErrReadOnly        = &Error{Kind: KindReadOnly}
	ErrMismatch        = &Error{Kind: KindMismatch}
)

func newError(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// storageError converts a backend failure. Missing objects and keys become
// KindNotFound; everything else passes through as KindIO with the cause kept.
func storageError(op string, err error, format string, args ...any) *Error {
	kind := KindIO
	if objstore.IsNotFound(err) {
		kind = KindNotFound
	}
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err. Untyped errors are KindIO.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIO
}

// Status encodes err as a wire status: zero for success, the negated kind
// otherwise.
func Status(err error) int32 {
	if err == nil {
		return 0
	}
	return -int32(KindOf(err))
}

// FromStatus turns a negative wire status back into a typed error carrying
// msg. Non-negative statuses are not errors.
func FromStatus(status int32, msg string) error {
	if status >= 0 {
		return nil
	}
	return &Error{Kind: Kind(-status), Msg: msg}
}
