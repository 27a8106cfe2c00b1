package trajectory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flybeeper/trajectory-prep/internal/frame"
	"github.com/flybeeper/trajectory-prep/pkg/utils"
)

var baseTime = time.Date(2008, 10, 23, 5, 53, 5, 0, time.UTC)

// pt точка теста: смещение времени в секундах от baseTime
type pt struct {
	id  string
	lat float64
	lon float64
	sec int
}

func buildFrame(t *testing.T, points []pt) *frame.Frame {
	t.Helper()

	ids := make(frame.StringColumn, len(points))
	lat := make(frame.Float64Column, len(points))
	lon := make(frame.Float64Column, len(points))
	times := make(frame.TimeColumn, len(points))
	for i, p := range points {
		ids[i] = p.id
		lat[i] = p.lat
		lon[i] = p.lon
		times[i] = baseTime.Add(time.Duration(p.sec) * time.Second)
	}

	f, err := frame.FromColumns(
		[]string{LabelID, LabelLat, LabelLon, LabelDatetime},
		[]frame.Column{ids, lat, lon, times},
	)
	require.NoError(t, err)
	return f
}

func newTestProcessor(t *testing.T, opts ...Option) *Processor {
	t.Helper()
	return newTestProcessorWithConfig(t, DefaultConfig(), opts...)
}

func newTestProcessorWithConfig(t *testing.T, config *Config, opts ...Option) *Processor {
	t.Helper()
	opts = append([]Option{WithBackend(frame.NewSerialBackend())}, opts...)
	p, err := NewProcessor(config, utils.NewNopLogger(), opts...)
	require.NoError(t, err)
	return p
}

func floatColumn(t *testing.T, f *frame.Frame, name string) frame.Float64Column {
	t.Helper()
	col, err := f.Float64(name)
	require.NoError(t, err)
	return col
}

func intColumn(t *testing.T, f *frame.Frame, name string) frame.Int64Column {
	t.Helper()
	col, err := f.Int64(name)
	require.NoError(t, err)
	return col
}

func stringColumn(t *testing.T, f *frame.Frame, name string) frame.StringColumn {
	t.Helper()
	col, err := f.String(name)
	require.NoError(t, err)
	return col
}

func boolColumn(t *testing.T, f *frame.Frame, name string) frame.BoolColumn {
	t.Helper()
	col, err := f.Bool(name)
	require.NoError(t, err)
	return col
}

func timeColumn(t *testing.T, f *frame.Frame, name string) frame.TimeColumn {
	t.Helper()
	col, err := f.Time(name)
	require.NoError(t, err)
	return col
}

// straightTrack строит траекторию из n точек на одном меридиане с шагом stepDeg и интервалом stepSec
func straightTrack(id string, n int, startLat, stepDeg float64, stepSec int) []pt {
	points := make([]pt, n)
	for i := range points {
		points[i] = pt{id: id, lat: startLat + float64(i)*stepDeg, lon: 116.3, sec: i * stepSec}
	}
	return points
}

// beijingSample три точки из примера GeoLife
func beijingSample() []pt {
	return []pt{
		{"1", 39.984094, 116.319236, 0},
		{"1", 39.984198, 116.319322, 1},
		{"1", 39.984224, 116.319402, 6},
	}
}

type recordedOperation struct {
	name       string
	rowsIn     int
	rowsOut    int
	iterations int
	capReached bool
}

type fakeRecorder struct {
	operations []recordedOperation
}

func (r *fakeRecorder) ObserveOperation(operation string, rowsIn, rowsOut, iterations int, capReached bool, _ time.Duration) {
	r.operations = append(r.operations, recordedOperation{operation, rowsIn, rowsOut, iterations, capReached})
}
