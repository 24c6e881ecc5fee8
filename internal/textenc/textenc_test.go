package textenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindows1252(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{"empty", []byte{}, ""},
		{"ascii", []byte("TestKey"), "TestKey"},
		{"umlauts", []byte{0x61, 0x62, 0x5f, 0xe4, 0xf6, 0xfc, 0xdf}, "ab_äöüß"},
		{"trademark", []byte{0x77, 0x99}, "w™"},
		{"euro", []byte{0x80}, "€"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Windows1252(tt.raw))
		})
	}
}

func TestUTF16(t *testing.T) {
	assert.Equal(t, "abcd_äöüß", UTF16(EncodeUTF16("abcd_äöüß")))
	assert.Equal(t, "A", UTF16([]byte{'A', 0, 'B'}), "odd trailing byte is dropped")
	assert.Equal(t, "", UTF16(nil))
	assert.Equal(t, "\uFFFDx", UTF16([]byte{0x00, 0xD8, 'x', 0}), "lone surrogate is replaced")
	assert.Equal(t, "😀", UTF16(EncodeUTF16("😀")))
}

func TestUTF16String(t *testing.T) {
	raw := append(EncodeUTF16(`C:\Windows\system32\svchost.exe`), 0, 0, 'j', 0)
	assert.Equal(t, `C:\Windows\system32\svchost.exe`, UTF16String(raw))
	assert.Equal(t, "ab", UTF16String(EncodeUTF16("ab")))
}

func TestMultiString(t *testing.T) {
	var raw []byte
	for _, s := range []string{"one", "two", "three"} {
		raw = append(raw, EncodeUTF16(s)...)
		raw = append(raw, 0, 0)
	}
	raw = append(raw, 0, 0)
	assert.Equal(t, []string{"one", "two", "three"}, MultiString(raw))

	assert.Equal(t, []string{"tail"}, MultiString(EncodeUTF16("tail")), "missing terminator")
	assert.Nil(t, MultiString([]byte{0, 0}))
	assert.Nil(t, MultiString(nil))
}
