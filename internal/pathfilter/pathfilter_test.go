package pathfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"empty matches root", "", `ROOT`, true},
		{"empty matches deep", "", `ROOT\C`, true},
		{"under A", `.*\\A\\.*`, `ROOT\A\B`, true},
		{"A itself", `.*\\A\\.*`, `ROOT\A`, false},
		{"sibling", `.*\\A\\.*`, `ROOT\C`, false},
		{"case insensitive", `controlset001\\services`, `ROOT\ControlSet001\Services\Tcpip`, true},
		{"anchored", `^ROOT\\Select$`, `ROOT\Select`, true},
		{"anchored miss", `^ROOT\\Select$`, `ROOT\Select\X`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Matches(tt.path))
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile(`(unclosed`)
	require.Error(t, err)
}

func TestNilAndEmpty(t *testing.T) {
	var f *Filter
	assert.True(t, f.Matches("anything"))
	assert.True(t, f.Empty())
	assert.Equal(t, "", f.String())

	g, err := Compile(`x`)
	require.NoError(t, err)
	assert.False(t, g.Empty())
	assert.Equal(t, `x`, g.String())
}
