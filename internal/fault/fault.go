// internal/fault/fault.go
package fault

import "errors"

// Kind classifies an error by where it came from.
// Callers use it to decide whether to retry, log, or give up.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindProtocol
	KindTransport
	KindTiming
	KindConfig
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindProtocol:
		return "protocol"
	case KindTransport:
		return "transport"
	case KindTiming:
		return "timing"
	case KindConfig:
		return "config"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is a sentinel error carrying a Kind.
// Compare with errors.Is; wrap with fmt.Errorf("...: %w", err).
type Error struct {
	kind Kind
	msg  string
}

// New returns a sentinel of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Kind() Kind { return e.kind }

// KindOf walks the wrap chain and returns the first Kind found.
// Errors that do not expose a Kind are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	type kinder interface{ Kind() Kind }
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// Is reports whether err is of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
