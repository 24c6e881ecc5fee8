package format

import "unicode"

const lhHashMultiplier = 37

// LHHash computes the name hash stored in lh entries:
// hash = hash*37 + upper(char) over the whole name.
func LHHash(name string) uint32 {
	var h uint32
	for _, r := range name {
		h = h*lhHashMultiplier + uint32(unicode.ToUpper(r))
	}
	return h
}

// LFHint packs the first four characters of name into an lf hint as Windows
// writes it for 8-bit names, zero padded.
func LFHint(name string) uint32 {
	var h uint32
	i := 0
	for _, r := range name {
		if i == LFHintSize {
			break
		}
		h |= uint32(byte(r)) << (8 * i)
		i++
	}
	return h
}

// HintRulesOut reports whether the list hint proves that a child cannot be
// named target. It returns false whenever the hint is inconclusive, so a
// false result always needs the child's name decoded and compared.
func HintRulesOut(kind ListKind, hint uint32, target string) bool {
	if !isASCII(target) {
		return false
	}
	switch kind {
	case ListLH:
		return LHHash(target) != hint
	case ListLF:
		want := LFHint(target)
		for i := range LFHintSize {
			a := byte(hint >> (8 * i))
			b := byte(want >> (8 * i))
			if a >= 0x80 {
				return false
			}
			if upperASCII(a) != upperASCII(b) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func upperASCII(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
