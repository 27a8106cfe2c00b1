// Package dataset читает и пишет таблицы точек траекторий в формате CSV.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/flybeeper/trajectory-prep/internal/frame"
	"github.com/flybeeper/trajectory-prep/internal/trajectory"
	"github.com/flybeeper/trajectory-prep/pkg/pool"
)

// ErrMissingColumn во входном файле нет обязательной колонки
var ErrMissingColumn = errors.New("missing required column")

// Поддерживаемые форматы времени по порядку проверки
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
}

// ReadCSV читает таблицу с заголовком. Колонки id, lat, lon и datetime
// обязательны, тип остальных (int64, float64, bool, string) выводится по содержимому.
func ReadCSV(r io.Reader, labels trajectory.Labels) (*frame.Frame, error) {
	labels = labels.WithDefaults()

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	raw := make([][]string, len(header))
	for i := range raw {
		raw[i] = make([]string, len(records))
	}
	for row, record := range records {
		for col := range header {
			raw[col][row] = strings.TrimSpace(record[col])
		}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range []string{labels.ID, labels.Lat, labels.Lon, labels.Datetime} {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	f := frame.New()
	for i, name := range header {
		var col frame.Column
		switch name {
		case labels.ID:
			col = frame.StringColumn(raw[i])
		case labels.Lat, labels.Lon:
			col, err = parseFloats(raw[i])
		case labels.Datetime:
			col, err = parseTimes(raw[i])
		default:
			col = inferColumn(raw[i])
		}
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		if err := f.Set(name, col); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func parseFloats(values []string) (frame.Float64Column, error) {
	col := make(frame.Float64Column, len(values))
	for i, v := range values {
		if v == "" {
			col[i] = math.NaN()
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		col[i] = parsed
	}
	return col, nil
}

func parseTimes(values []string) (frame.TimeColumn, error) {
	col := make(frame.TimeColumn, len(values))
	for i, v := range values {
		t, err := parseTime(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		col[i] = t
	}
	return col, nil
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", value)
}

// inferColumn выбирает самый узкий тип, которому соответствуют все значения
func inferColumn(values []string) frame.Column {
	ints := make(frame.Int64Column, len(values))
	isInt := len(values) > 0
	for i, v := range values {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			isInt = false
			break
		}
		ints[i] = parsed
	}
	if isInt {
		return ints
	}

	if floats, err := parseFloats(values); err == nil {
		return floats
	}

	bools := make(frame.BoolColumn, len(values))
	for i, v := range values {
		switch v {
		case "true":
			bools[i] = true
		case "false":
		default:
			return frame.StringColumn(values)
		}
	}
	return bools
}

// WriteCSV пишет таблицу с заголовком в порядке колонок
func WriteCSV(w io.Writer, f *frame.Frame) error {
	writer := csv.NewWriter(w)

	names := f.Names()
	if err := writer.Write(names); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	cols := make([]frame.Column, len(names))
	for i, name := range names {
		col, err := f.Column(name)
		if err != nil {
			return err
		}
		cols[i] = col
	}

	buf := pool.Global.GetByteSlice()
	defer func() { pool.Global.PutByteSlice(buf) }()

	record := make([]string, len(cols))
	for row := 0; row < f.Len(); row++ {
		for i, col := range cols {
			if floats, ok := col.(frame.Float64Column); ok {
				record[i], buf = formatFloat(buf, floats[row])
				continue
			}
			record[i] = col.Format(row)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// formatFloat форматирует число через общий буфер; NaN пишется пустой строкой
func formatFloat(buf []byte, value float64) (string, []byte) {
	if math.IsNaN(value) {
		return "", buf
	}
	buf = strconv.AppendFloat(buf[:0], value, 'f', -1, 64)
	return string(buf), buf
}
