package types

import "fmt"

// ErrorKind classifies registry errors so callers can branch on intent
// rather than text. Only KindParser and KindRegex originate inside the
// traversal engine; the remaining kinds belong to the I/O collaborators
// that feed it or consume its output.
type ErrorKind int

const (
	KindParser       ErrorKind = iota // hive root unreadable or base block invalid
	KindRegex                         // path filter pattern failed to compile
	KindReadRegistry                  // hive bytes could not be read
	KindGetUserHives                  // per-user hive discovery failed
	KindNtfsSetup                     // raw NTFS reader could not be set up
	KindSerialize                     // entries could not be serialized
	KindOutput                        // serialized entries could not be written
	KindSystemDrive                   // system drive could not be determined
)

func (k ErrorKind) String() string {
	switch k {
	case KindParser:
		return "parser"
	case KindRegex:
		return "regex"
	case KindReadRegistry:
		return "read registry"
	case KindGetUserHives:
		return "get user hives"
	case KindNtfsSetup:
		return "ntfs setup"
	case KindSerialize:
		return "serialize"
	case KindOutput:
		return "output"
	case KindSystemDrive:
		return "system drive"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// RegistryError is a typed error with an optional underlying cause.
type RegistryError struct {
	Kind ErrorKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *RegistryError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *RegistryError) Unwrap() error { return e.Err }

// Is matches the kind sentinels below, so errors.Is(err, types.ErrParser)
// holds for any parser error regardless of message or cause.
func (e *RegistryError) Is(target error) bool {
	t, ok := target.(*RegistryError)
	if !ok || t.Msg != "" || t.Err != nil {
		return false
	}
	return e.Kind == t.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrParser       = &RegistryError{Kind: KindParser}
	ErrRegex        = &RegistryError{Kind: KindRegex}
	ErrReadRegistry = &RegistryError{Kind: KindReadRegistry}
	ErrGetUserHives = &RegistryError{Kind: KindGetUserHives}
	ErrNtfsSetup    = &RegistryError{Kind: KindNtfsSetup}
	ErrSerialize    = &RegistryError{Kind: KindSerialize}
	ErrOutput       = &RegistryError{Kind: KindOutput}
	ErrSystemDrive  = &RegistryError{Kind: KindSystemDrive}
)

// NewError builds a RegistryError of the given kind.
func NewError(kind ErrorKind, msg string, cause error) *RegistryError {
	return &RegistryError{Kind: kind, Msg: msg, Err: cause}
}
