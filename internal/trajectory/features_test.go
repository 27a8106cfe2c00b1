package trajectory

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flybeeper/trajectory-prep/internal/frame"
)

func TestGenerateDistTimeSpeedFeatures_BeijingSample(t *testing.T) {
	p := newTestProcessor(t)
	f := buildFrame(t, beijingSample())

	result, err := p.GenerateDistTimeSpeedFeatures(f, FeatureOptions{})
	require.NoError(t, err)
	out := result.Frame

	dist := floatColumn(t, out, DistToPrev)
	elapsed := floatColumn(t, out, TimeToPrev)
	speed := floatColumn(t, out, SpeedToPrev)

	assert.InDelta(t, 13.69, dist[1], 0.01)
	assert.Equal(t, 1.0, elapsed[1])
	assert.InDelta(t, 13.69, speed[1], 0.01)

	assert.InDelta(t, 20.22, floatColumn(t, out, DistPrevToNext)[1], 0.01)
	assert.Equal(t, 6.0, floatColumn(t, out, TimePrevToNext)[1])
	assert.Equal(t, 5.0, floatColumn(t, out, TimeToNext)[1])
}

func TestGenerateDistTimeSpeedFeatures_BoundaryNulls(t *testing.T) {
	p := newTestProcessor(t)
	points := append(straightTrack("a", 4, 39.9, 0.0001, 10), straightTrack("b", 3, 40.0, 0.0002, 5)...)
	f := buildFrame(t, points)

	result, err := p.GenerateDistTimeSpeedFeatures(f, FeatureOptions{})
	require.NoError(t, err)
	out := result.Frame

	firsts := []int{0, 4}
	lasts := []int{3, 6}
	for _, family := range [][3]string{distanceColumns, timeColumns, speedColumns} {
		toPrev := floatColumn(t, out, family[0])
		toNext := floatColumn(t, out, family[1])
		prevToNext := floatColumn(t, out, family[2])

		for _, i := range firsts {
			assert.True(t, toPrev.IsNull(i), "%s row %d", family[0], i)
			assert.True(t, prevToNext.IsNull(i), "%s row %d", family[2], i)
			assert.False(t, toNext.IsNull(i), "%s row %d", family[1], i)
		}
		for _, i := range lasts {
			assert.True(t, toNext.IsNull(i), "%s row %d", family[1], i)
			assert.True(t, prevToNext.IsNull(i), "%s row %d", family[2], i)
			assert.False(t, toPrev.IsNull(i), "%s row %d", family[0], i)
		}
	}
}

func TestGenerateDistanceFeatures_RestoresOriginalOrder(t *testing.T) {
	p := newTestProcessor(t)
	// Строки перемешаны между траекториями и по времени
	f := buildFrame(t, []pt{
		{"b", 40.0002, 116.3, 10},
		{"a", 39.9001, 116.3, 10},
		{"b", 40.0000, 116.3, 0},
		{"a", 39.9000, 116.3, 0},
	})

	result, err := p.GenerateDistanceFeatures(f, FeatureOptions{})
	require.NoError(t, err)
	out := result.Frame

	assert.Equal(t, frame.StringColumn{"b", "a", "b", "a"}, stringColumn(t, out, LabelID))

	toPrev := floatColumn(t, out, DistToPrev)
	assert.True(t, toPrev.IsNull(2), "first point of b")
	assert.True(t, toPrev.IsNull(3), "first point of a")
	assert.InDelta(t, 22.24, toPrev[0], 0.05)
	assert.InDelta(t, 11.12, toPrev[1], 0.05)

	// Только расстояния
	assert.False(t, out.Has(TimeToPrev))
	assert.False(t, out.Has(SpeedToPrev))
}

func TestGenerateSpeedFeatures_DivisionByZero(t *testing.T) {
	p := newTestProcessor(t)
	f := buildFrame(t, []pt{
		{"1", 39.9000, 116.3, 0},
		{"1", 39.9010, 116.3, 0}, // другое место в то же время
		{"1", 39.9010, 116.3, 0}, // то же место в то же время
	})

	result, err := p.GenerateSpeedFeatures(f, FeatureOptions{Directions: ToPrev})
	require.NoError(t, err)

	speed := floatColumn(t, result.Frame, SpeedToPrev)
	assert.True(t, math.IsInf(speed[1], 1))
	assert.True(t, math.IsNaN(speed[2]))
	assert.False(t, result.Frame.Has(SpeedToNext))
	assert.False(t, result.Frame.Has(DistToPrev), "speed does not leak distance columns")
}

func TestGenerateFeatures_InPlace(t *testing.T) {
	p := newTestProcessor(t)

	t.Run("copy leaves input untouched", func(t *testing.T) {
		f := buildFrame(t, beijingSample())
		result, err := p.GenerateTimeFeatures(f, FeatureOptions{})
		require.NoError(t, err)

		assert.False(t, f.Has(TimeToPrev))
		assert.True(t, result.Frame.Has(TimeToPrev))
		assert.NotSame(t, f, result.Frame)
	})

	t.Run("inplace mutates input", func(t *testing.T) {
		f := buildFrame(t, beijingSample())
		result, err := p.GenerateTimeFeatures(f, FeatureOptions{Options: Options{InPlace: true}})
		require.NoError(t, err)

		assert.True(t, f.Has(TimeToPrev, TimeToNext, TimePrevToNext))
		assert.Same(t, f, result.Frame)
	})
}

func TestGenerateFeatures_CustomLabels(t *testing.T) {
	p := newTestProcessor(t)
	f := buildFrame(t, beijingSample())

	renamed, err := frame.FromColumns(
		[]string{"traj", "y", "x", "ts"},
		[]frame.Column{
			stringColumn(t, f, LabelID),
			floatColumn(t, f, LabelLat),
			floatColumn(t, f, LabelLon),
			timeColumn(t, f, LabelDatetime),
		},
	)
	require.NoError(t, err)

	labels := Labels{ID: "traj", Lat: "y", Lon: "x", Datetime: "ts"}
	result, err := p.GenerateDistanceFeatures(renamed, FeatureOptions{Options: Options{Labels: labels}})
	require.NoError(t, err)
	assert.InDelta(t, 13.69, floatColumn(t, result.Frame, DistToPrev)[1], 0.01)
}

func TestGenerateFeatures_MissingColumn(t *testing.T) {
	p := newTestProcessor(t)
	f := buildFrame(t, beijingSample())
	f.Drop(LabelDatetime)

	_, err := p.GenerateDistanceFeatures(f, FeatureOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, frame.ErrColumnNotFound))
	assert.Contains(t, err.Error(), LabelDatetime)
}

func TestGenerateFeatures_ParallelMatchesSerial(t *testing.T) {
	points := make([]pt, 0)
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		points = append(points, straightTrack(id, 25, 39.9+float64(len(points))*0.001, 0.00015, 7)...)
	}

	serial := newTestProcessor(t)
	parallel := newTestProcessor(t, WithBackend(frame.NewParallelBackend(4)))

	want, err := serial.GenerateDistTimeSpeedFeatures(buildFrame(t, points), FeatureOptions{})
	require.NoError(t, err)
	got, err := parallel.GenerateDistTimeSpeedFeatures(buildFrame(t, points), FeatureOptions{})
	require.NoError(t, err)

	for _, name := range append(append(distanceColumns[:], timeColumns[:]...), speedColumns[:]...) {
		w := floatColumn(t, want.Frame, name)
		g := floatColumn(t, got.Frame, name)
		for i := range w {
			if w.IsNull(i) {
				assert.True(t, g.IsNull(i), "%s row %d", name, i)
				continue
			}
			assert.Equal(t, w[i], g[i], "%s row %d", name, i)
		}
	}
}

func TestGenerateGeohash(t *testing.T) {
	p := newTestProcessor(t)
	f := buildFrame(t, beijingSample())

	result, err := p.GenerateGeohash(f, 0, Options{})
	require.NoError(t, err)

	hashes := stringColumn(t, result.Frame, LabelGeohash)
	require.Len(t, hashes, 3)
	for _, h := range hashes {
		assert.Len(t, h, DefaultConfig().GeohashPrecision)
		assert.Equal(t, "wx4", h[:3])
	}

	_, err = p.GenerateGeohash(f, 13, Options{})
	assert.True(t, IsInvalidConfig(err))
}

func TestProcessor_RecordsOperations(t *testing.T) {
	recorder := &fakeRecorder{}
	p := newTestProcessor(t, WithRecorder(recorder))

	_, err := p.GenerateDistanceFeatures(buildFrame(t, beijingSample()), FeatureOptions{})
	require.NoError(t, err)

	require.Len(t, recorder.operations, 1)
	assert.Equal(t, "generate_distance_features", recorder.operations[0].name)
	assert.Equal(t, 3, recorder.operations[0].rowsIn)
	assert.Equal(t, 3, recorder.operations[0].rowsOut)
}

func TestNewProcessor_RejectsInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.DistRadius = -1

	_, err := NewProcessor(config, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "dist_radius")
}
