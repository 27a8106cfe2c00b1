package dataset

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flybeeper/trajectory-prep/internal/frame"
	"github.com/flybeeper/trajectory-prep/internal/trajectory"
)

const sample = `id,lat,lon,datetime,tid,speed,outlier,note
1,39.984094,116.319236,2008-10-23 05:53:05,1,,false,start
1,39.984198,116.319322,2008-10-23T05:53:06Z,1,1.5,true,
2,39.984224,116.319402,2008-10-23 05:53:11,2,+Inf,false,end
`

func TestReadCSV(t *testing.T) {
	f, err := ReadCSV(strings.NewReader(sample), trajectory.Labels{})
	require.NoError(t, err)
	require.Equal(t, 3, f.Len())

	assert.Equal(t, []string{"id", "lat", "lon", "datetime", "tid", "speed", "outlier", "note"}, f.Names())

	ids, err := f.String("id")
	require.NoError(t, err)
	assert.Equal(t, frame.StringColumn{"1", "1", "2"}, ids)

	lat, err := f.Float64("lat")
	require.NoError(t, err)
	assert.InDelta(t, 39.984094, lat[0], 1e-9)

	times, err := f.Time("datetime")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2008, 10, 23, 5, 53, 6, 0, time.UTC), times[1])

	tid, err := f.Int64("tid")
	require.NoError(t, err)
	assert.Equal(t, frame.Int64Column{1, 1, 2}, tid)

	speed, err := f.Float64("speed")
	require.NoError(t, err)
	assert.True(t, speed.IsNull(0))
	assert.True(t, math.IsInf(speed[2], 1))

	outlier, err := f.Bool("outlier")
	require.NoError(t, err)
	assert.Equal(t, frame.BoolColumn{false, true, false}, outlier)

	note, err := f.String("note")
	require.NoError(t, err)
	assert.Equal(t, "", note[1])
}

func TestReadCSV_CustomLabels(t *testing.T) {
	input := "user,y,x,ts\na,1,2,2020-01-01T00:00:00Z\n"
	labels := trajectory.Labels{ID: "user", Lat: "y", Lon: "x", Datetime: "ts"}

	f, err := ReadCSV(strings.NewReader(input), labels)
	require.NoError(t, err)
	assert.True(t, f.Has("user", "y", "x", "ts"))
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing datetime", "id,lat,lon\n1,2,3\n"},
		{"bad latitude", "id,lat,lon,datetime\n1,north,3,2020-01-01T00:00:00Z\n"},
		{"bad datetime", "id,lat,lon,datetime\n1,2,3,yesterday\n"},
		{"ragged row", "id,lat,lon,datetime\n1,2,3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), trajectory.Labels{})
			assert.Error(t, err)
		})
	}

	_, err := ReadCSV(strings.NewReader("id,lat,lon\n1,2,3\n"), trajectory.Labels{})
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	f, err := ReadCSV(strings.NewReader(sample), trajectory.Labels{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, f))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "id,lat,lon,datetime,tid,speed,outlier,note", lines[0])
	assert.Equal(t, "1,39.984094,116.319236,2008-10-23T05:53:05Z,1,,false,start", lines[1])
	assert.Equal(t, "2,39.984224,116.319402,2008-10-23T05:53:11Z,2,+Inf,false,end", lines[3])

	again, err := ReadCSV(&buf, trajectory.Labels{})
	require.NoError(t, err)
	assert.Equal(t, f.Names(), again.Names())
	assert.Equal(t, f.Len(), again.Len())
}
