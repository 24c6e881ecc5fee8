package buf

import (
	"errors"
	"fmt"
	"math"
)

// ErrRange is returned by range checks that fall outside the buffer.
var ErrRange = errors.New("buf: range out of bounds")

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative ints. Negative operands and
// overflowing products report ok = false.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// CheckListBounds validates that count elements of elemSize bytes starting
// at offset fit in a buffer of bufLen bytes, and returns the end offset.
//
//	end, err := buf.CheckListBounds(len(b), 4, int(count), 8)
//	if err != nil {
//	    return fmt.Errorf("lf: %w", err)
//	}
func CheckListBounds(bufLen, offset, count, elemSize int) (int, error) {
	if offset < 0 || count < 0 || elemSize < 0 {
		return 0, fmt.Errorf("%w: offset=%d count=%d elem=%d", ErrRange, offset, count, elemSize)
	}
	total, ok := MulOverflowSafe(count, elemSize)
	if !ok {
		return 0, fmt.Errorf("%w: count=%d * elem=%d overflows", ErrRange, count, elemSize)
	}
	end, ok := AddOverflowSafe(offset, total)
	if !ok {
		return 0, fmt.Errorf("%w: offset=%d + size=%d overflows", ErrRange, offset, total)
	}
	if end > bufLen {
		return 0, fmt.Errorf("%w: end=%d > len=%d", ErrRange, end, bufLen)
	}
	return end, nil
}

// Slice returns b[off:off+n] if the range fits within b.
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}

// Clone copies b into a fresh slice. The result is never nil.
func Clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
