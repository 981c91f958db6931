package errors

import (
	stderrors "errors"
	"fmt"
)

import (
	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a device error so that callers can tell retryable
// failures from permanent ones without looking at the message.
type Kind int

const (
	Unknown Kind = iota
	Invalid
	OutOfBounds
	BadBlock
	Transient
	StorageFull
	RetriesExceeded
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case OutOfBounds:
		return "out of bounds"
	case BadBlock:
		return "bad block"
	case Transient:
		return "transient i/o failure"
	case StorageFull:
		return "storage full"
	case RetriesExceeded:
		return "retries exceeded"
	}
	return "unknown"
}

// Sentinels for use with the standard errors.Is.
var (
	ErrInvalid         = &Error{Kind: Invalid, Err: stderrors.New("invalid")}
	ErrOutOfBounds     = &Error{Kind: OutOfBounds, Err: stderrors.New("out of bounds")}
	ErrBadBlock        = &Error{Kind: BadBlock, Err: stderrors.New("bad block")}
	ErrTransient       = &Error{Kind: Transient, Err: stderrors.New("transient i/o failure")}
	ErrStorageFull     = &Error{Kind: StorageFull, Err: stderrors.New("storage full")}
	ErrRetriesExceeded = &Error{Kind: RetriesExceeded, Err: stderrors.New("retries exceeded")}
)

type Error struct {
	Kind  Kind
	Err   error
	Stack pkgerrors.StackTrace
}

func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{
		Kind:  kind,
		Err:   fmt.Errorf(format, args...),
		Stack: callers(),
	}
}

// Wrap attaches a kind to err. The original error stays reachable
// through Unwrap.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:  kind,
		Err:   fmt.Errorf("%s: %w", msg, err),
		Stack: callers(),
	}
}

func callers() pkgerrors.StackTrace {
	st := pkgerrors.New("").(interface{ StackTrace() pkgerrors.StackTrace }).StackTrace()
	// drop callers() and the constructor
	if len(st) > 2 {
		return st[2:]
	}
	return st
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) String() string {
	return e.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrBadBlock)
// holds for every bad block error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Format prints the stack with %+v.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s%+v", e.Err, e.Stack)
			return
		}
		fallthrough
	case 's':
		fmt.Fprint(s, e.Err.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Err.Error())
	}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether re-issuing the operation may succeed.
func Retryable(err error) bool {
	return Is(err, Transient)
}

func Permanent(err error) bool {
	return err != nil && !Retryable(err)
}
