package frame

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame(t *testing.T) *Frame {
	t.Helper()
	base := time.Date(2008, 10, 23, 5, 53, 0, 0, time.UTC)

	f, err := FromColumns(
		[]string{"id", "value", "datetime"},
		[]Column{
			StringColumn{"b", "a", "b", "a", "c"},
			Float64Column{5, 1, math.NaN(), 3, 2},
			TimeColumn{
				base.Add(4 * time.Second),
				base.Add(2 * time.Second),
				base.Add(1 * time.Second),
				base.Add(1 * time.Second),
				base,
			},
		},
	)
	require.NoError(t, err)
	return f
}

func TestFrame_SetAndAccess(t *testing.T) {
	f := sampleFrame(t)
	assert.Equal(t, 5, f.Len())
	assert.Equal(t, []string{"id", "value", "datetime"}, f.Names())
	assert.True(t, f.Has("id", "value"))
	assert.False(t, f.Has("id", "missing"))

	err := f.Set("short", Int64Column{1, 2})
	assert.True(t, errors.Is(err, ErrLengthMismatch))

	require.NoError(t, f.Set("value", Float64Column{0, 0, 0, 0, 0}))
	assert.Equal(t, []string{"id", "value", "datetime"}, f.Names(), "update keeps column position")

	_, err = f.Float64("id")
	assert.True(t, errors.Is(err, ErrColumnType))

	err = f.Require("lat")
	assert.True(t, errors.Is(err, ErrColumnNotFound))
	assert.Contains(t, err.Error(), "lat")
}

func TestFrame_CopyIsDeep(t *testing.T) {
	f := sampleFrame(t)
	cp := f.Copy()

	values, err := cp.Float64("value")
	require.NoError(t, err)
	values[0] = 100

	orig, err := f.Float64("value")
	require.NoError(t, err)
	assert.Equal(t, 5.0, orig[0])
}

func TestFrame_FilterAndDrop(t *testing.T) {
	f := sampleFrame(t)

	out, err := f.Filter([]bool{true, false, true, false, false})
	require.NoError(t, err)
	ids, err := out.String("id")
	require.NoError(t, err)
	assert.Equal(t, StringColumn{"b", "b"}, ids)

	_, err = f.Filter([]bool{true})
	assert.True(t, errors.Is(err, ErrLengthMismatch))

	out.Drop("value", "not-there")
	assert.Equal(t, []string{"id", "datetime"}, out.Names())
	assert.Equal(t, 2, out.Len())
}

func TestFrame_Replace(t *testing.T) {
	f := sampleFrame(t)
	other := f.Take([]int{0})

	f.Replace(other)
	assert.Equal(t, 1, f.Len())
}

func TestFrame_MatchMask(t *testing.T) {
	f := sampleFrame(t)

	mask, err := f.MatchMask("id", "a")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false, true, false}, mask)

	mask, err = f.MatchMask("value", 3)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false, true, false}, mask)

	_, err = f.MatchMask("id", 3)
	assert.True(t, errors.Is(err, ErrColumnType))
}

func TestSortIndex_StableMultiKey(t *testing.T) {
	f := sampleFrame(t)

	perm, err := SortIndex(f, "id", "datetime")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2, 0, 4}, perm)

	// Равные ключи сохраняют исходный порядок
	perm, err = SortIndex(f, "id")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 0, 2, 4}, perm)

	// NaN в конце
	perm, err = SortIndex(f, "value")
	require.NoError(t, err)
	assert.Equal(t, 2, perm[len(perm)-1])

	_, err = SortIndex(f, "missing")
	assert.True(t, errors.Is(err, ErrColumnNotFound))
}

func TestGroupRanges(t *testing.T) {
	f := sampleFrame(t)

	perm, err := SortIndex(f, "id")
	require.NoError(t, err)
	groups, err := GroupRanges(f, perm, "id")
	require.NoError(t, err)
	assert.Equal(t, []Group{{0, 2}, {2, 4}, {4, 5}}, groups)

	groups, err = GroupRanges(f, perm)
	require.NoError(t, err)
	assert.Equal(t, []Group{{0, 5}}, groups)

	counts, err := GroupCounts(f, "id")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2, 2, 1}, counts)
}

func TestBackends_ProduceSameResult(t *testing.T) {
	groups := make([]Group, 0)
	for start := 0; start < 1000; start += 10 {
		groups = append(groups, Group{Start: start, End: start + 10})
	}

	run := func(b Backend) []int {
		out := make([]int, 1000)
		err := b.EachGroup(groups, func(g Group) error {
			for k := g.Start; k < g.End; k++ {
				out[k] = g.Start * 2
			}
			return nil
		})
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, run(NewSerialBackend()), run(NewParallelBackend(4)))
}

func TestParallelBackend_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	var calls int32

	err := NewParallelBackend(2).EachGroup([]Group{{0, 1}, {1, 2}, {2, 3}}, func(g Group) error {
		atomic.AddInt32(&calls, 1)
		if g.Start == 1 {
			return boom
		}
		return nil
	})

	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, "parallel", NewBackend(0).Name())
	assert.Equal(t, "serial", NewBackend(1).Name())
}
