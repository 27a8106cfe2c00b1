package trajectory

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/flybeeper/trajectory-prep/internal/frame"
	"github.com/flybeeper/trajectory-prep/internal/models"
)

// StayOptions параметры детектора остановок по расстоянию и времени
type StayOptions struct {
	Options

	// Граница расстояния между соседними точками остановки, м (0 = из конфигурации)
	DistRadius float64

	// Минимальная длительность остановки, с (0 = из конфигурации)
	TimeRadius float64

	SegmentLabel string
	StopLabel    string
}

// RadiusOptions параметры детектора остановок по радиусу
type RadiusOptions struct {
	Options

	// Шаг больше Radius метров означает движение (0 = из конфигурации)
	Radius float64

	// Граница сегментации, м (0 = из конфигурации)
	SegmentRadius float64

	Label string
}

// CreateOrUpdateMoveStopByDistTime делит траектории на сегменты по DistRadius
// и помечает остановкой каждый сегмент длительностью не меньше TimeRadius
func (p *Processor) CreateOrUpdateMoveStopByDistTime(f *frame.Frame, opts StayOptions) (*Result, error) {
	distRadius := orDefault(opts.DistRadius, p.config.DistRadius)
	timeRadius := orDefault(opts.TimeRadius, p.config.TimeRadius)
	if err := validateParams(map[string]float64{"dist_radius": distRadius, "time_radius": timeRadius}); err != nil {
		return nil, err
	}
	segmentLabel := opts.SegmentLabel
	if segmentLabel == "" {
		segmentLabel = LabelSegmentStop
	}
	stopLabel := opts.StopLabel
	if stopLabel == "" {
		stopLabel = LabelStop
	}

	return p.run("create_or_update_move_stop_by_dist_time", f, opts.Options, func(work *frame.Frame, labels Labels, result *Result) (*frame.Frame, error) {
		if err := requireColumns(work, labels); err != nil {
			return nil, err
		}
		if err := p.labelStops(work, labels, distRadius, timeRadius, segmentLabel, stopLabel, &result.Statistics); err != nil {
			return nil, err
		}
		return work, nil
	})
}

// labelStops размечает сегменты и флаги остановок в таблице f
func (p *Processor) labelStops(f *frame.Frame, labels Labels, distRadius, timeRadius float64, segmentLabel, stopLabel string, stats *Stats) error {
	if err := p.ensureFeatures(f, labels, familyDistance, distanceColumns); err != nil {
		return err
	}
	if err := p.ensureFeatures(f, labels, familyTime, timeColumns); err != nil {
		return err
	}

	segments, count, err := p.segmentIDs(f, labels, criteria{maxDist: distRadius, maxTime: -1, maxSpeed: -1})
	if err != nil {
		return err
	}
	if err := f.Set(segmentLabel, segments); err != nil {
		return err
	}

	times, err := f.Time(labels.Datetime)
	if err != nil {
		return err
	}
	perm, groups, err := ordered(f, labels, []string{labels.ID, segmentLabel})
	if err != nil {
		return err
	}

	stops := make(frame.BoolColumn, f.Len())
	err = p.backend.EachGroup(groups, func(g frame.Group) error {
		first, last := perm[g.Start], perm[g.End-1]
		isStop := times[last].Sub(times[first]).Seconds() >= timeRadius
		for _, i := range perm[g.Start:g.End] {
			stops[i] = isStop
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := f.Set(stopLabel, stops); err != nil {
		return err
	}

	stats.Segments = count
	for _, stop := range stops {
		if stop {
			stats.StopPoints++
		} else {
			stats.MovePoints++
		}
	}
	return nil
}

// CreateOrUpdateMoveAndStopByRadius делит траектории на сегменты по SegmentRadius,
// вычисляет расстояние каждой точки до центроида сегмента и помечает точку
// движением, если шаг от предыдущей точки сегмента больше Radius.
// Первая точка сегмента получает метку nan.
func (p *Processor) CreateOrUpdateMoveAndStopByRadius(f *frame.Frame, opts RadiusOptions) (*Result, error) {
	radius := orDefault(opts.Radius, p.config.Radius)
	segmentRadius := orDefault(opts.SegmentRadius, p.config.SegmentRadius)
	if err := validateParams(map[string]float64{"radius": radius, "segment_radius": segmentRadius}); err != nil {
		return nil, err
	}
	label := opts.Label
	if label == "" {
		label = LabelSituation
	}

	return p.run("create_or_update_move_and_stop_by_radius", f, opts.Options, func(work *frame.Frame, labels Labels, result *Result) (*frame.Frame, error) {
		if err := requireColumns(work, labels); err != nil {
			return nil, err
		}
		if err := p.ensureFeatures(work, labels, familyDistance, distanceColumns); err != nil {
			return nil, err
		}

		segments, count, err := p.segmentIDs(work, labels, criteria{maxDist: segmentRadius, maxTime: -1, maxSpeed: -1})
		if err != nil {
			return nil, err
		}
		if err := work.Set(LabelSegmentRadius, segments); err != nil {
			return nil, err
		}
		result.Statistics.Segments = count

		lat, lon, err := coordinates(work, labels)
		if err != nil {
			return nil, err
		}
		perm, groups, err := ordered(work, labels, []string{labels.ID, LabelSegmentRadius})
		if err != nil {
			return nil, err
		}

		n := work.Len()
		toCentroid := frame.NewNullFloat64Column(n)
		situation := make(frame.StringColumn, n)

		err = p.backend.EachGroup(groups, func(g frame.Group) error {
			idx := perm[g.Start:g.End]

			points := make(orb.MultiPoint, len(idx))
			for k, i := range idx {
				points[k] = orb.Point{lon[i], lat[i]}
			}
			centroid, _ := planar.CentroidArea(points)

			for k, i := range idx {
				toCentroid[i] = models.Haversine(lat[i], lon[i], centroid.Lat(), centroid.Lon())
				if k == 0 {
					situation[i] = SituationNaN
					continue
				}
				prev := idx[k-1]
				if models.Haversine(lat[prev], lon[prev], lat[i], lon[i]) > radius {
					situation[i] = SituationMove
				} else {
					situation[i] = SituationStop
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		if err := work.Set(DistToCentroid, toCentroid); err != nil {
			return nil, err
		}
		if err := work.Set(label, situation); err != nil {
			return nil, err
		}

		for _, s := range situation {
			switch s {
			case SituationStop:
				result.Statistics.StopPoints++
			case SituationMove:
				result.Statistics.MovePoints++
			}
		}
		return work, nil
	})
}
