package trajectory

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flybeeper/trajectory-prep/internal/frame"
	"github.com/flybeeper/trajectory-prep/internal/models"
)

func filterSample() []pt {
	return []pt{
		{"a", 39.90, 116.30, 0},
		{"a", 39.95, 116.35, 60},
		{"b", 40.00, 116.40, 120},
		{"b", 40.10, 116.50, 180},
		{"c", 41.00, 117.00, 240},
	}
}

func TestByBBox(t *testing.T) {
	p := newTestProcessor(t)
	f := buildFrame(t, filterSample())
	bounds := models.NewBounds(39.95, 116.35, 40.10, 116.50)

	tests := []struct {
		name      string
		filterOut bool
		wantIDs   frame.StringColumn
	}{
		{"inside including edges", false, frame.StringColumn{"a", "b", "b"}},
		{"outside", true, frame.StringColumn{"a", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.ByBBox(f, bounds, FilterOptions{FilterOut: tt.filterOut})
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, stringColumn(t, result.Frame, LabelID))
		})
	}

	_, err := p.ByBBox(f, models.NewBounds(41, 116, 40, 117), FilterOptions{})
	assert.True(t, IsInvalidConfig(err))
}

func TestByDatetime(t *testing.T) {
	p := newTestProcessor(t)
	f := buildFrame(t, filterSample())
	at := func(sec int) time.Time { return baseTime.Add(time.Duration(sec) * time.Second) }

	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		filterOut bool
		want      int
	}{
		{"inclusive range", at(60), at(180), false, 3},
		{"open start", time.Time{}, at(60), false, 2},
		{"open end", at(180), time.Time{}, false, 2},
		{"filter out", at(60), at(180), true, 2},
		{"unbounded", time.Time{}, time.Time{}, false, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.ByDatetime(f, tt.start, tt.end, FilterOptions{FilterOut: tt.filterOut})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.FinalCount)
		})
	}

	_, err := p.ByDatetime(f, at(100), at(10), FilterOptions{})
	assert.True(t, IsInvalidConfig(err))
}

func TestByID(t *testing.T) {
	p := newTestProcessor(t)
	f := buildFrame(t, filterSample())

	result, err := p.ByID(f, []string{"a", "c"}, FilterOptions{})
	require.NoError(t, err)
	assert.Equal(t, frame.StringColumn{"a", "a", "c"}, stringColumn(t, result.Frame, LabelID))

	result, err = p.ByID(f, []string{"a"}, FilterOptions{FilterOut: true})
	require.NoError(t, err)
	assert.Equal(t, 3, result.FinalCount)
}

func TestByLabelAndTID(t *testing.T) {
	p := newTestProcessor(t)

	segmented, err := p.ByMaxDist(buildFrame(t, trackWithIsolatedPoint("1")), 1000, SegmentOptions{KeepSinglePoints: true})
	require.NoError(t, err)

	result, err := p.ByTID(segmented.Frame, []int64{1, 2}, FilterOptions{Label: LabelTIDDist})
	require.NoError(t, err)
	assert.Equal(t, 4, result.FinalCount)

	result, err = p.ByLabel(segmented.Frame, LabelTIDDist, int64(3), FilterOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.FinalCount)

	_, err = p.ByTID(segmented.Frame, []int64{1}, FilterOptions{})
	assert.True(t, errors.Is(err, frame.ErrColumnNotFound))

	_, err = p.ByLabel(segmented.Frame, LabelID, 1.5, FilterOptions{})
	assert.True(t, errors.Is(err, frame.ErrColumnType))
}
