package walker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hivetrace/hive/walker"
	"github.com/joshuapare/hivetrace/internal/format"
	"github.com/joshuapare/hivetrace/internal/testhive"
	"github.com/joshuapare/hivetrace/pkg/types"
)

func find(entries []types.RegistryEntry, path string) (types.RegistryEntry, bool) {
	for _, e := range entries {
		if e.Path == path {
			return e, true
		}
	}
	return types.RegistryEntry{}, false
}

func TestFixture_FullWalk(t *testing.T) {
	im := testhive.System()
	entries, w := run(t, im.Data, walker.Options{})

	assert.Len(t, entries, testhive.FixtureKeyCount)
	assert.Zero(t, w.Diagnostics().Len())
	assert.Equal(t, testhive.FixtureRootName, entries[0].Path)

	e, ok := find(entries, testhive.FixtureRootName+`\`+testhive.FixtureAppCompatPath)
	require.True(t, ok)
	v, ok := e.Value("AppCompatCache")
	require.True(t, ok)
	assert.Equal(t, types.REG_BINARY, v.Type)
	assert.Greater(t, len(v.Data), format.DBThreshold)
	assert.Equal(t, testhive.AppCompatCache(testhive.FixtureShimcacheEntries), v.Data)
	assert.Equal(t, "10ts", string(v.Data[0x34:0x38]))

	services, ok := find(entries, testhive.FixtureRootName+`\`+testhive.FixtureServicesPath)
	require.True(t, ok)
	assert.EqualValues(t, testhive.FixtureServiceCount, services.SubkeyCount)
}

func TestFixture_ServicesOrder(t *testing.T) {
	im := testhive.System()
	entries, _ := run(t, im.Data, walker.Options{StartPath: testhive.FixtureServicesPath})

	var names []string
	for _, e := range entries {
		if e.Depth == 3 {
			names = append(names, e.Name)
		}
	}
	want := make([]string, 0, len(testhive.FixtureServices))
	for _, s := range testhive.FixtureServices {
		want = append(want, s.Name)
	}
	assert.Equal(t, want, names)
}

func TestFixture_StartPath(t *testing.T) {
	im := testhive.System()
	servicesPath := testhive.FixtureRootName + `\` + testhive.FixtureServicesPath

	tests := []struct {
		name  string
		start string
	}{
		{"relative", `ControlSet001\Services`},
		{"hklm alias", `HKLM\SYSTEM\ControlSet001\Services`},
		{"long alias", `HKEY_LOCAL_MACHINE\SYSTEM\ControlSet001\Services\`},
		{"root name", testhive.FixtureRootName + `\ControlSet001\Services`},
		{"case", `controlset001\SERVICES`},
		{"slashes", `ControlSet001/Services`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, w := run(t, im.Data, walker.Options{StartPath: tt.start})
			require.Len(t, entries, 1+testhive.FixtureServiceCount+3)
			assert.Equal(t, servicesPath, entries[0].Path)
			assert.Equal(t, 2, entries[0].Depth)
			assert.Equal(t, 4, w.Stats().Pruned)
		})
	}
}

func TestFixture_StartPathWithoutHints(t *testing.T) {
	b := testhive.New("ROOT").ListKind(format.ListLI)
	b.Root().Path(`One\Two`)
	b.Root().AddKey("Other")
	im := b.Build()

	entries, w := run(t, im.Data, walker.Options{StartPath: `one`})
	assert.Equal(t, []string{`ROOT\One`, `ROOT\One\Two`}, paths(entries))
	assert.Zero(t, w.Stats().Pruned)
}

func TestFixture_MissingStartPath(t *testing.T) {
	im := testhive.System()
	entries, w := run(t, im.Data, walker.Options{StartPath: `ControlSet002\Services`})
	assert.Empty(t, entries)
	assert.Zero(t, w.Diagnostics().Len())
}

func TestFixture_FilterUnderStartPath(t *testing.T) {
	im := testhive.System()
	entries, _ := run(t, im.Data, walker.Options{
		StartPath: testhive.FixtureServicesPath,
		Pattern:   `\\Parameters$`,
		Filter:    true,
	})
	require.Len(t, entries, 3)
	for _, e := range entries {
		_, ok := e.Value("ServiceDll")
		assert.True(t, ok, e.Path)
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{`\`, nil},
		{`HKLM`, nil},
		{`HKLM\SOFTWARE`, nil},
		{`hklm\software\Microsoft\Windows`, []string{"Microsoft", "Windows"}},
		{`HKCU\Software`, []string{"Software"}},
		{`HKU\S-1-5-21-1\Software`, []string{"Software"}},
		{`ROOT\A`, []string{"A"}},
		{`A\\B`, []string{"A", "B"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, walker.SplitPath(tt.in, "ROOT"), tt.in)
	}
}

func TestCountCells(t *testing.T) {
	im := testhive.System()
	st := walker.CountCells(open(t, im.Data))

	assert.EqualValues(t, testhive.FixtureKeyCount, st.NKCells)
	assert.EqualValues(t, 1, st.RICells)
	assert.EqualValues(t, 1, st.DBCells)
	assert.Zero(t, st.BadCells)
	assert.Equal(t, st.TotalCells, st.FreeCells+st.NKCells+st.VKCells+st.SKCells+
		st.LFCells+st.LHCells+st.LICells+st.RICells+st.DBCells+st.OtherCells)
	assert.EqualValues(t, len(im.Data)-format.HeaderSize-
		len(open(t, im.Data).Bins())*format.HBINHeaderSize, st.FreeBytes+st.UsedBytes)
	assert.Contains(t, st.String(), "NK: 24")
}
