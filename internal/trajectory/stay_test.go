package trajectory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flybeeper/trajectory-prep/internal/frame"
)

// stopThenMove шесть точек в пределах 6 м за 25 минут, затем три точки с шагом ~110 м
func stopThenMove(id string) []pt {
	points := make([]pt, 0, 9)
	for i := 0; i < 6; i++ {
		points = append(points, pt{id, 39.9 + float64(i)*0.00001, 116.3, i * 300})
	}
	for i := 1; i <= 3; i++ {
		points = append(points, pt{id, 39.9 + float64(i)*0.001, 116.3, 1500 + i*10})
	}
	return points
}

func TestCreateOrUpdateMoveStopByDistTime(t *testing.T) {
	p := newTestProcessor(t)
	f := buildFrame(t, stopThenMove("1"))

	result, err := p.CreateOrUpdateMoveStopByDistTime(f, StayOptions{})
	require.NoError(t, err)
	out := result.Frame

	assert.Equal(t, 9, out.Len(), "every point keeps a label")
	assert.Equal(t, frame.Int64Column{1, 1, 1, 1, 1, 1, 2, 3, 4}, intColumn(t, out, LabelSegmentStop))
	assert.Equal(t, frame.BoolColumn{true, true, true, true, true, true, false, false, false}, boolColumn(t, out, LabelStop))
	assert.Equal(t, 6, result.Statistics.StopPoints)
	assert.Equal(t, 3, result.Statistics.MovePoints)
	assert.True(t, out.Has(DistToPrev, TimeToPrev))
}

func TestCreateOrUpdateMoveStopByDistTime_ShortStayIsMove(t *testing.T) {
	p := newTestProcessor(t)
	f := buildFrame(t, stopThenMove("1"))

	// 1500 с меньше 1800 с
	result, err := p.CreateOrUpdateMoveStopByDistTime(f, StayOptions{TimeRadius: 1800, StopLabel: "is_stop"})
	require.NoError(t, err)

	for _, stop := range boolColumn(t, result.Frame, "is_stop") {
		assert.False(t, stop)
	}
	assert.False(t, result.Frame.Has(LabelStop))
}

func TestCreateOrUpdateMoveStopByDistTime_Deterministic(t *testing.T) {
	p := newTestProcessor(t)
	points := append(stopThenMove("a"), stopThenMove("b")...)

	first, err := p.CreateOrUpdateMoveStopByDistTime(buildFrame(t, points), StayOptions{})
	require.NoError(t, err)
	second, err := p.CreateOrUpdateMoveStopByDistTime(first.Frame, StayOptions{})
	require.NoError(t, err)

	assert.Equal(t, boolColumn(t, first.Frame, LabelStop), boolColumn(t, second.Frame, LabelStop))
	assert.Equal(t, intColumn(t, first.Frame, LabelSegmentStop), intColumn(t, second.Frame, LabelSegmentStop))
}

func TestCreateOrUpdateMoveAndStopByRadius(t *testing.T) {
	p := newTestProcessor(t)
	f := buildFrame(t, stopThenMove("1"))

	result, err := p.CreateOrUpdateMoveAndStopByRadius(f, RadiusOptions{Radius: 2})
	require.NoError(t, err)
	out := result.Frame

	assert.Equal(t, frame.Int64Column{1, 1, 1, 1, 1, 1, 2, 3, 4}, intColumn(t, out, LabelSegmentRadius))
	assert.Equal(t,
		frame.StringColumn{"nan", "stop", "stop", "stop", "stop", "stop", "nan", "nan", "nan"},
		stringColumn(t, out, LabelSituation))

	toCentroid := floatColumn(t, out, DistToCentroid)
	for i := 0; i < 6; i++ {
		assert.Less(t, toCentroid[i], 3.0)
	}
	for i := 6; i < 9; i++ {
		assert.InDelta(t, 0, toCentroid[i], 1e-6, "single point is its own centroid")
	}
	assert.Equal(t, 5, result.Statistics.StopPoints)
}

func TestCreateOrUpdateMoveAndStopByRadius_Move(t *testing.T) {
	p := newTestProcessor(t)
	f := buildFrame(t, stopThenMove("1"))

	result, err := p.CreateOrUpdateMoveAndStopByRadius(f, RadiusOptions{Radius: 0.5, Label: "state"})
	require.NoError(t, err)

	situation := stringColumn(t, result.Frame, "state")
	assert.Equal(t, SituationNaN, situation[0])
	for i := 1; i < 6; i++ {
		assert.Equal(t, SituationMove, situation[i])
	}
	assert.Equal(t, 5, result.Statistics.MovePoints)

	_, err = p.CreateOrUpdateMoveAndStopByRadius(f, RadiusOptions{Radius: -2})
	assert.True(t, IsInvalidConfig(err))
}
