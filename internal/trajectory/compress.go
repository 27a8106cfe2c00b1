package trajectory

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"

	"github.com/flybeeper/trajectory-prep/internal/frame"
)

// Способы усреднения координат сегмента остановки
const (
	PointMeanDefault  = "default"
	PointMeanCentroid = "centroid"
)

// CompressOptions параметры сжатия остановок
type CompressOptions struct {
	Options

	// Параметры детектора остановок (0 = из конфигурации)
	DistRadius float64
	TimeRadius float64

	// default: среднее lat/lon; centroid: сферический центроид
	PointMean string

	// true: удалить точки движения из результата
	DropMoves bool
}

// CompressSegmentStopToPoint заменяет каждый сегмент остановки одной точкой
// с усредненными координатами и временем начала сегмента. Точки движения
// проходят без изменений. Все строки получают datetime_end и stop_points.
func (p *Processor) CompressSegmentStopToPoint(f *frame.Frame, opts CompressOptions) (*Result, error) {
	distRadius := orDefault(opts.DistRadius, p.config.DistRadius)
	timeRadius := orDefault(opts.TimeRadius, p.config.TimeRadius)
	if err := validateParams(map[string]float64{"dist_radius": distRadius, "time_radius": timeRadius}); err != nil {
		return nil, err
	}

	mean := opts.PointMean
	if mean == "" {
		mean = PointMeanDefault
	}
	if mean != PointMeanDefault && mean != PointMeanCentroid {
		return nil, fmt.Errorf("unknown point mean %q: %w", opts.PointMean, ErrInvalidConfig)
	}

	return p.run("compress_segment_stop_to_point", f, opts.Options, func(work *frame.Frame, labels Labels, result *Result) (*frame.Frame, error) {
		if err := requireColumns(work, labels); err != nil {
			return nil, err
		}

		inputColumns := make(map[string]bool)
		for _, name := range work.Names() {
			inputColumns[name] = true
		}

		var stats Stats
		if err := p.labelStops(work, labels, distRadius, timeRadius, LabelSegmentStop, LabelStop, &stats); err != nil {
			return nil, err
		}

		out, compressed, err := p.collapseStops(work, labels, mean, opts.DropMoves)
		if err != nil {
			return nil, err
		}

		out.Drop(LabelSegmentStop, LabelStop)
		for _, columns := range [][3]string{distanceColumns, timeColumns, speedColumns} {
			for _, name := range columns {
				if !inputColumns[name] {
					out.Drop(name)
				}
			}
		}
		if err := p.refreshFeatures(out, labels, []string{labels.ID}); err != nil {
			return nil, err
		}

		result.Statistics.CompressedStops = compressed
		result.Statistics.StopPoints = stats.StopPoints
		result.Statistics.MovePoints = stats.MovePoints

		p.logger.WithField("rows_before", work.Len()).
			WithField("rows_after", out.Len()).
			WithField("stop_segments", compressed).
			WithField("point_mean", mean).
			Info("Stop segments compressed")

		return out, nil
	})
}

// collapseStops оставляет первую строку каждого сегмента остановки с усредненными
// координатами. Строки сохраняют исходный порядок.
func (p *Processor) collapseStops(f *frame.Frame, labels Labels, mean string, dropMoves bool) (*frame.Frame, int, error) {
	lat, lon, err := coordinates(f, labels)
	if err != nil {
		return nil, 0, err
	}
	times, err := f.Time(labels.Datetime)
	if err != nil {
		return nil, 0, err
	}
	stops, err := f.Bool(LabelStop)
	if err != nil {
		return nil, 0, err
	}
	perm, groups, err := ordered(f, labels, []string{labels.ID, LabelSegmentStop})
	if err != nil {
		return nil, 0, err
	}

	n := f.Len()
	newLat := lat.Copy().(frame.Float64Column)
	newLon := lon.Copy().(frame.Float64Column)
	end := times.Copy().(frame.TimeColumn)
	points := make(frame.Int64Column, n)
	keep := make([]bool, n)

	compressed := 0
	for _, g := range groups {
		if stops[perm[g.Start]] {
			compressed++
		}
	}

	err = p.backend.EachGroup(groups, func(g frame.Group) error {
		idx := perm[g.Start:g.End]
		if !stops[idx[0]] {
			for _, i := range idx {
				keep[i] = !dropMoves
				points[i] = 1
			}
			return nil
		}

		first := idx[0]
		keep[first] = true
		points[first] = int64(len(idx))
		end[first] = times[idx[len(idx)-1]]

		if mean == PointMeanCentroid {
			newLat[first], newLon[first] = sphericalCentroid(lat, lon, idx)
		} else {
			newLat[first], newLon[first] = arithmeticMean(lat, lon, idx)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	updates := []struct {
		name string
		col  frame.Column
	}{
		{labels.Lat, newLat},
		{labels.Lon, newLon},
		{DatetimeEnd, end},
		{StopPoints, points},
	}
	for _, u := range updates {
		if err := f.Set(u.name, u.col); err != nil {
			return nil, 0, err
		}
	}

	out, err := f.Filter(keep)
	if err != nil {
		return nil, 0, err
	}
	return out, compressed, nil
}

func arithmeticMean(lat, lon frame.Float64Column, idx []int) (float64, float64) {
	var sumLat, sumLon float64
	for _, i := range idx {
		sumLat += lat[i]
		sumLon += lon[i]
	}
	count := float64(len(idx))
	return sumLat / count, sumLon / count
}

// sphericalCentroid усредняет единичные векторы точек на сфере
func sphericalCentroid(lat, lon frame.Float64Column, idx []int) (float64, float64) {
	var sum r3.Vector
	for _, i := range idx {
		point := s2.PointFromLatLng(s2.LatLngFromDegrees(lat[i], lon[i]))
		sum = sum.Add(point.Vector)
	}
	if sum.Norm() == 0 {
		return arithmeticMean(lat, lon, idx)
	}

	ll := s2.LatLngFromPoint(s2.Point{Vector: sum.Normalize()})
	return ll.Lat.Degrees(), ll.Lng.Degrees()
}
