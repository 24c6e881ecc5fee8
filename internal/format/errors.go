package format

import "errors"

var (
	// ErrOutOfBounds indicates an offset or length falls outside the buffer or
	// outside every known hive bin.
	ErrOutOfBounds = errors.New("format: out of bounds")
	// ErrBadHeader indicates a regf or hbin header failed validation.
	ErrBadHeader = errors.New("format: bad header")
	// ErrBadSignature indicates a cell carried an unexpected two-byte tag.
	ErrBadSignature = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrFreeCell indicates a cell marked free was referenced as allocated.
	ErrFreeCell = errors.New("format: cell not in use")
	// ErrSanityLimit indicates a count or length exceeded what any real hive holds.
	ErrSanityLimit = errors.New("format: sanity limit exceeded")
	// ErrUnknownList indicates a subkey list with a signature other than li/lf/lh/ri.
	ErrUnknownList = errors.New("format: unknown subkey list")
)
