// Package textenc converts the two string encodings found in hives into
// valid UTF-8. Compressed names are Windows-1252; everything else is
// UTF-16LE. Decoding is lossy: invalid sequences become U+FFFD and never
// fail the caller.
package textenc

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Windows1252 decodes 8-bit names. Pure ASCII input is returned without
// going through the charmap decoder.
func Windows1252(b []byte) string {
	ascii := true
	for _, c := range b {
		if c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}
	return string(out)
}

// UTF16 decodes UTF-16LE bytes. A trailing odd byte is dropped and unpaired
// surrogates decode to U+FFFD.
func UTF16(b []byte) string {
	if len(b)%2 == 1 {
		b = b[:len(b)-1]
	}
	if len(b) == 0 {
		return ""
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return strings.Repeat(string(utf8.RuneError), len(b)/2)
	}
	return string(out)
}

// UTF16String decodes a REG_SZ style payload: UTF-16LE terminated by the
// first NUL code unit, if any.
func UTF16String(b []byte) string {
	return UTF16(b[:nulIndex(b)])
}

// MultiString decodes a REG_MULTI_SZ payload into its strings. Decoding
// stops at the empty string that terminates the list.
func MultiString(b []byte) []string {
	var out []string
	for len(b) >= 2 {
		end := nulIndex(b)
		if end == 0 {
			break
		}
		out = append(out, UTF16(b[:end]))
		if end+2 > len(b) {
			break
		}
		b = b[end+2:]
	}
	return out
}

// nulIndex returns the byte index of the first aligned NUL code unit, or
// the even-truncated length when there is none.
func nulIndex(b []byte) int {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return i
		}
	}
	return len(b) &^ 1
}

// EncodeUTF16 encodes s as UTF-16LE without a terminator. Used to build
// fixtures and to compare names.
func EncodeUTF16(s string) []byte {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	out, err := enc.Bytes([]byte(s))
	if err != nil {
		return nil
	}
	return out
}
