package walker_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hivetrace/hive"
	"github.com/joshuapare/hivetrace/hive/walker"
	"github.com/joshuapare/hivetrace/internal/format"
	"github.com/joshuapare/hivetrace/internal/testhive"
	"github.com/joshuapare/hivetrace/pkg/types"
)

func open(t *testing.T, data []byte) *hive.Hive {
	t.Helper()
	h, err := hive.New(data)
	require.NoError(t, err)
	return h
}

func paths(entries []types.RegistryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

// abc builds ROOT\A\B and ROOT\C.
func abc(kind format.ListKind) *testhive.Image {
	b := testhive.New("ROOT").ListKind(kind)
	b.Root().AddKey("A").AddKey("B")
	b.Root().AddKey("C")
	return b.Build()
}

func run(t *testing.T, data []byte, opts walker.Options) ([]types.RegistryEntry, *walker.Walker) {
	t.Helper()
	w := walker.New(open(t, data), opts)
	entries, err := w.Run(context.Background())
	require.NoError(t, err)
	return entries, w
}

func TestWalk_PreOrder(t *testing.T) {
	for _, kind := range []format.ListKind{format.ListLI, format.ListLF, format.ListLH, format.ListRI} {
		t.Run(kind.String(), func(t *testing.T) {
			entries, w := run(t, abc(kind).Data, walker.Options{})
			assert.Equal(t, []string{`ROOT`, `ROOT\A`, `ROOT\A\B`, `ROOT\C`}, paths(entries))
			assert.Zero(t, w.Diagnostics().Len())

			assert.Equal(t, "", entries[0].Key)
			assert.Equal(t, 0, entries[0].Depth)
			assert.Equal(t, `ROOT\A`, entries[2].Key)
			assert.Equal(t, "B", entries[2].Name)
			assert.Equal(t, 2, entries[2].Depth)
			assert.EqualValues(t, 2, entries[0].SubkeyCount)
		})
	}
}

func TestWalk_Filter(t *testing.T) {
	im := abc(format.ListLH)

	entries, _ := run(t, im.Data, walker.Options{Pattern: `.*\\A\\.*`, Filter: true})
	assert.Equal(t, []string{`ROOT\A\B`}, paths(entries))

	entries, _ = run(t, im.Data, walker.Options{Pattern: "", Filter: true})
	assert.Equal(t, []string{`ROOT`, `ROOT\A`, `ROOT\A\B`, `ROOT\C`}, paths(entries))

	entries, _ = run(t, im.Data, walker.Options{Pattern: `.*\\A\\.*`})
	assert.Len(t, entries, 4, "pattern is ignored without Filter")

	entries, _ = run(t, im.Data, walker.Options{Pattern: `\\a$`, Filter: true, IncludeDescendants: true})
	assert.Equal(t, []string{`ROOT\A`, `ROOT\A\B`}, paths(entries))
}

func TestWalk_FatalErrors(t *testing.T) {
	im := abc(format.ListLH)

	entries, err := walker.Walk(context.Background(), open(t, im.Bytes()), walker.Options{Pattern: `(`, Filter: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrRegex)
	assert.Nil(t, entries)

	data := im.Bytes()
	copy(data[testhive.Abs(im.Key("ROOT"), 0):], "xx")
	_, err = walker.Walk(context.Background(), open(t, data), walker.Options{})
	assert.ErrorIs(t, err, types.ErrParser)
	assert.ErrorIs(t, err, hive.ErrBadSignature)
}

func TestWalk_SentinelOffsets(t *testing.T) {
	entries, w := run(t, testhive.New("ROOT").Build().Data, walker.Options{})
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Values)
	assert.Zero(t, w.Diagnostics().Len())
}

func TestWalk_CycleToAncestor(t *testing.T) {
	b := testhive.New("ROOT")
	b.Root().Path(`A\B\X`)
	im := b.Build()
	im.SetListEntry(`ROOT\A\B`, 0, im.Key(`ROOT\A`))

	entries, w := run(t, im.Data, walker.Options{})
	assert.Equal(t, []string{`ROOT`, `ROOT\A`, `ROOT\A\B`}, paths(entries))
	assert.Equal(t, 1, w.Stats().Cycles)
	require.Equal(t, 1, w.Diagnostics().Len())
	d := w.Diagnostics().Diagnostics[0]
	assert.Equal(t, types.SevWarning, d.Severity)
	assert.EqualValues(t, format.HeaderSize+im.Key(`ROOT\A`), d.Offset)
	assert.Equal(t, `ROOT\A\B`, d.KeyPath)
}

func TestWalk_SelfLoop(t *testing.T) {
	b := testhive.New("ROOT")
	b.Root().AddKey("A").AddKey("X")
	im := b.Build()
	im.SetListEntry(`ROOT\A`, 0, im.Key(`ROOT\A`))

	entries, w := run(t, im.Data, walker.Options{})
	assert.Equal(t, []string{`ROOT`, `ROOT\A`}, paths(entries))
	assert.Equal(t, 1, w.Stats().Cycles)
}

func TestWalk_SharedChildEmittedPerParent(t *testing.T) {
	b := testhive.New("ROOT")
	b.Root().AddKey("A").AddKey("S").AddValue("v", types.REG_DWORD, testhive.DWORD(5))
	b.Root().AddKey("B").AddKey("T")
	im := b.Build()
	im.SetListEntry(`ROOT\B`, 0, im.Key(`ROOT\A\S`))

	entries, w := run(t, im.Data, walker.Options{})
	assert.Equal(t, []string{`ROOT`, `ROOT\A`, `ROOT\A\S`, `ROOT\B`, `ROOT\B\S`}, paths(entries))
	assert.Equal(t, entries[2].Values, entries[4].Values)

	st := w.Stats()
	assert.Equal(t, 4, st.KeysDecoded)
	assert.Equal(t, 1, st.CacheHits)
	assert.Zero(t, st.Cycles)
	assert.Zero(t, w.Diagnostics().Len())
}

func TestWalk_PartialCorruption(t *testing.T) {
	for _, kind := range []format.ListKind{format.ListLI, format.ListLF, format.ListLH} {
		t.Run(kind.String(), func(t *testing.T) {
			b := testhive.New("ROOT").ListKind(kind)
			for _, n := range []string{"A", "B", "C", "D"} {
				b.Root().AddKey(n)
			}
			b.Root().AddValue("v", types.REG_DWORD, testhive.DWORD(1))
			im := b.Build()
			im.SetListEntry("ROOT", 1, 0x7FFFFFF0)
			im.SetListEntry("ROOT", 2, im.Values["ROOT:v"])

			entries, w := run(t, im.Data, walker.Options{})
			assert.Equal(t, []string{`ROOT`, `ROOT\A`, `ROOT\D`}, paths(entries))
			assert.Equal(t, 2, w.Stats().Skipped)
			assert.Equal(t, 2, w.Diagnostics().Len())
		})
	}
}

func TestWalk_RISelfReference(t *testing.T) {
	b := testhive.New("ROOT").ListKind(format.ListRI).RIChunk(2)
	for _, n := range []string{"A", "B", "C", "D"} {
		b.Root().AddKey(n)
	}
	im := b.Build()
	im.SetListEntry("ROOT", 1, im.Lists["ROOT"])

	entries, w := run(t, im.Data, walker.Options{})
	assert.Equal(t, []string{`ROOT`, `ROOT\A`, `ROOT\B`}, paths(entries))
	assert.Equal(t, 1, w.Stats().Cycles)
}

func TestWalk_RIOfRI(t *testing.T) {
	b := testhive.New("ROOT").ListKind(format.ListRI).RIChunk(2)
	for _, n := range []string{"A", "B", "C", "D"} {
		b.Root().AddKey(n)
	}
	q := b.Root().AddKey("Q")
	q.AddKey("X")
	q.AddKey("Y")
	im := b.Build()
	im.SetListEntry("ROOT", 1, im.Lists[`ROOT\Q`])

	entries, w := run(t, im.Data, walker.Options{})
	assert.Equal(t, []string{
		`ROOT`, `ROOT\A`, `ROOT\B`, `ROOT\X`, `ROOT\Y`, `ROOT\Q`, `ROOT\Q\X`, `ROOT\Q\Y`,
	}, paths(entries))
	assert.Zero(t, w.Stats().Cycles)
	assert.Equal(t, 2, w.Stats().CacheHits)
}

func TestWalk_RIEntryUnreadable(t *testing.T) {
	b := testhive.New("ROOT").ListKind(format.ListRI).RIChunk(1)
	for _, n := range []string{"A", "B", "C"} {
		b.Root().AddKey(n)
	}
	im := b.Build()
	im.SetListEntry("ROOT", 1, im.Key(`ROOT\A`))

	entries, w := run(t, im.Data, walker.Options{})
	assert.Equal(t, []string{`ROOT`, `ROOT\A`, `ROOT\C`}, paths(entries))
	assert.Equal(t, 1, w.Stats().Skipped)
}

func TestWalk_UnreadableSubkeyList(t *testing.T) {
	im := abc(format.ListLH)
	data := im.Bytes()
	copy(data[testhive.Abs(im.Lists[`ROOT\A`], 0):], "zz")

	entries, w := run(t, data, walker.Options{})
	assert.Equal(t, []string{`ROOT`, `ROOT\A`, `ROOT\C`}, paths(entries))
	require.Equal(t, 1, w.Diagnostics().Len())
	assert.Equal(t, "LIST", w.Diagnostics().Diagnostics[0].Structure)
}

func TestWalk_MaxDepth(t *testing.T) {
	b := testhive.New("ROOT")
	b.Root().Path(`a\b\c\d`)
	im := b.Build()

	entries, w := run(t, im.Data, walker.Options{MaxDepth: 2})
	assert.Equal(t, []string{`ROOT`, `ROOT\a`, `ROOT\a\b`}, paths(entries))
	require.Equal(t, 1, w.Diagnostics().Len())
	assert.Equal(t, types.SevInfo, w.Diagnostics().Diagnostics[0].Severity)

	entries, _ = run(t, im.Data, walker.Options{})
	assert.Len(t, entries, 5)
}

// countdownCtx reports cancellation after n calls to Err.
type countdownCtx struct {
	context.Context
	n int
}

func (c *countdownCtx) Err() error {
	if c.n <= 0 {
		return context.Canceled
	}
	c.n--
	return nil
}

func TestWalk_Cancellation(t *testing.T) {
	im := abc(format.ListLH)
	h := open(t, im.Data)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	entries, err := walker.Walk(ctx, h, walker.Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, entries)

	entries, err = walker.Walk(&countdownCtx{Context: context.Background(), n: 3}, h, walker.Options{})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{`ROOT`, `ROOT\A`, `ROOT\A\B`}, paths(entries))
}

func TestWalk_Values(t *testing.T) {
	b := testhive.New("ROOT")
	b.Root().
		AddValue("v", types.REG_SZ, testhive.SZ("hello world")).
		AddValue("w", types.REG_DWORD, testhive.DWORD(9)).
		AddValue("odd", types.RegType(0x99), []byte{1, 2, 3, 4, 5, 6}).
		AddValue("gone", types.REG_DWORD, testhive.DWORD(1))
	b.Root().AddKey("A")
	im := b.Build()

	im.PutU32(im.Values["ROOT:v"], format.VKDataOffOffset, 0x7FFFFFF0)
	im.PutU32(im.ValueLists["ROOT"], 3*format.OffsetFieldSize, im.Key(`ROOT\A`))

	entries, w := run(t, im.Data, walker.Options{})
	require.Len(t, entries, 2)
	vals := entries[0].Values
	require.Len(t, vals, 3)

	assert.Equal(t, "v", vals[0].Name)
	assert.Nil(t, vals[0].Data)
	assert.Equal(t, testhive.DWORD(9), vals[1].Data)
	assert.Equal(t, types.RegType(0x99), vals[2].Type)
	assert.False(t, vals[2].Type.Known())

	var cats []types.DiagCategory
	for _, d := range w.Diagnostics().Diagnostics {
		cats = append(cats, d.Category)
	}
	assert.ElementsMatch(t, []types.DiagCategory{types.DiagData, types.DiagData, types.DiagStructure}, cats)
}

func TestWalk_ClassNames(t *testing.T) {
	b := testhive.New("ROOT")
	b.Root().AddKey("A").Class("Widget")
	b.Root().AddKey("B").Class("Gadget")
	im := b.Build()
	im.PutU32(im.Key(`ROOT\B`), format.NKClassNameOffset, 0x7FFFFFF0)

	entries, w := run(t, im.Data, walker.Options{})
	require.Len(t, entries, 3)
	assert.Empty(t, entries[0].Class)
	assert.Equal(t, "Widget", entries[1].Class)
	assert.Empty(t, entries[2].Class)

	require.Equal(t, 1, w.Diagnostics().Len())
	d := w.Diagnostics().Diagnostics[0]
	assert.Equal(t, types.SevInfo, d.Severity)
	assert.Equal(t, `ROOT\B`, d.KeyPath)
}

func TestWalk_Determinism(t *testing.T) {
	im := testhive.System()
	first, _ := run(t, im.Data, walker.Options{})
	second, _ := run(t, im.Bytes(), walker.Options{})
	require.Equal(t, first, second)
}

func TestWalk_LoggerCarriesWalkID(t *testing.T) {
	im := abc(format.ListLH)
	im.SetListEntry("ROOT", 0, 0x7FFFFFF0)

	var out bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&out, nil))
	_, w := run(t, im.Data, walker.Options{Logger: log})

	assert.Contains(t, out.String(), `"walk_id":"`+w.ID().String()+`"`)
	assert.Contains(t, out.String(), "skipping unreadable key")
}

func TestWalkAll(t *testing.T) {
	good := testhive.System()
	bad := abc(format.ListLH)
	badData := bad.Bytes()
	copy(badData[testhive.Abs(bad.Key("ROOT"), 0):], "xx")

	hives := []*hive.Hive{open(t, good.Data), open(t, badData), open(t, abc(format.ListLF).Data)}
	results, err := walker.WalkAll(context.Background(), hives, walker.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrParser)

	require.Len(t, results, 3)
	assert.Len(t, results[0].Entries, testhive.FixtureKeyCount)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.Len(t, results[2].Entries, 4)
	assert.NotEqual(t, results[0].WalkID, results[2].WalkID)
}

func TestWalkAll_NilHive(t *testing.T) {
	hives := []*hive.Hive{nil, open(t, abc(format.ListLF).Data)}
	results, err := walker.WalkAll(context.Background(), hives, walker.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrReadRegistry)

	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, types.ErrReadRegistry)
	assert.Empty(t, results[0].Entries)
	assert.NoError(t, results[1].Err)
	assert.Len(t, results[1].Entries, 4)
}
