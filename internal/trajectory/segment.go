package trajectory

import (
	"github.com/flybeeper/trajectory-prep/internal/frame"
	"github.com/flybeeper/trajectory-prep/internal/models"
)

// SegmentOptions параметры сегментации
type SegmentOptions struct {
	Options

	// Имя колонки идентификатора сегмента
	Label string

	// true: оставить сегменты из одной точки
	KeepSinglePoints bool
}

// criteria границы шага между соседними точками; отрицательная граница отключает критерий
type criteria struct {
	maxDist  float64
	maxTime  float64
	maxSpeed float64
}

func (c criteria) distEnabled() bool  { return c.maxDist >= 0 }
func (c criteria) timeEnabled() bool  { return c.maxTime >= 0 }
func (c criteria) speedEnabled() bool { return c.maxSpeed >= 0 }

// exceeded проверяет, превышены ли одновременно все включенные границы
func (c criteria) exceeded(dist, seconds float64) bool {
	if c.distEnabled() && !(dist > c.maxDist) {
		return false
	}
	if c.timeEnabled() && !(seconds > c.maxTime) {
		return false
	}
	if c.speedEnabled() && !(dist/seconds > c.maxSpeed) {
		return false
	}
	return true
}

// ByMaxDist начинает новый сегмент, когда расстояние между соседними точками больше maxDist
func (p *Processor) ByMaxDist(f *frame.Frame, maxDist float64, opts SegmentOptions) (*Result, error) {
	if err := validateParams(map[string]float64{"max_dist": maxDist}); err != nil {
		return nil, err
	}
	return p.segment("by_max_dist", f, criteria{maxDist: maxDist, maxTime: -1, maxSpeed: -1}, LabelTIDDist, opts)
}

// ByMaxTime начинает новый сегмент, когда интервал между соседними точками больше maxTime секунд
func (p *Processor) ByMaxTime(f *frame.Frame, maxTime float64, opts SegmentOptions) (*Result, error) {
	if err := validateParams(map[string]float64{"max_time": maxTime}); err != nil {
		return nil, err
	}
	return p.segment("by_max_time", f, criteria{maxDist: -1, maxTime: maxTime, maxSpeed: -1}, LabelTIDTime, opts)
}

// ByMaxSpeed начинает новый сегмент, когда скорость между соседними точками больше maxSpeed
func (p *Processor) ByMaxSpeed(f *frame.Frame, maxSpeed float64, opts SegmentOptions) (*Result, error) {
	if err := validateParams(map[string]float64{"max_speed": maxSpeed}); err != nil {
		return nil, err
	}
	return p.segment("by_max_speed", f, criteria{maxDist: -1, maxTime: -1, maxSpeed: maxSpeed}, LabelTIDSpeed, opts)
}

// ByDistTimeSpeed начинает новый сегмент, только когда превышены все три границы
func (p *Processor) ByDistTimeSpeed(f *frame.Frame, maxDist, maxTime, maxSpeed float64, opts SegmentOptions) (*Result, error) {
	err := validateParams(map[string]float64{
		"max_dist":  maxDist,
		"max_time":  maxTime,
		"max_speed": maxSpeed,
	})
	if err != nil {
		return nil, err
	}
	return p.segment("by_dist_time_speed", f, criteria{maxDist: maxDist, maxTime: maxTime, maxSpeed: maxSpeed}, LabelTIDPart, opts)
}

func (p *Processor) segment(name string, f *frame.Frame, c criteria, defaultLabel string, opts SegmentOptions) (*Result, error) {
	label := opts.Label
	if label == "" {
		label = defaultLabel
	}

	return p.run(name, f, opts.Options, func(work *frame.Frame, labels Labels, result *Result) (*frame.Frame, error) {
		if err := requireColumns(work, labels); err != nil {
			return nil, err
		}

		ids, segments, err := p.segmentIDs(work, labels, c)
		if err != nil {
			return nil, err
		}
		if err := work.Set(label, ids); err != nil {
			return nil, err
		}
		result.Statistics.Segments = segments

		if opts.KeepSinglePoints {
			return work, nil
		}

		out, dropped, err := p.dropSinglePointSegments(work, labels, label)
		if err != nil {
			return nil, err
		}
		if dropped > 0 {
			result.Statistics.DroppedSinglePoints = dropped
			result.Statistics.Segments = segments - dropped

			p.logger.WithField("operation", name).
				WithField("dropped_points", dropped).
				Info("Single point segments dropped")
		}
		return out, nil
	})
}

// segmentIDs обходит каждую траекторию по времени и увеличивает номер сегмента,
// когда шаг (prev, cur) превышает границы. Номера начинаются с 1 в каждой траектории.
func (p *Processor) segmentIDs(f *frame.Frame, labels Labels, c criteria) (frame.Int64Column, int, error) {
	lat, lon, err := coordinates(f, labels)
	if err != nil {
		return nil, 0, err
	}
	times, err := f.Time(labels.Datetime)
	if err != nil {
		return nil, 0, err
	}
	perm, groups, err := ordered(f, labels, []string{labels.ID})
	if err != nil {
		return nil, 0, err
	}

	ids := make(frame.Int64Column, f.Len())
	perGroup := make([]int64, len(groups))

	err = p.backend.EachGroup(groups, func(g frame.Group) error {
		current := int64(1)
		ids[perm[g.Start]] = current
		for k := g.Start + 1; k < g.End; k++ {
			prev, i := perm[k-1], perm[k]
			dist := models.Haversine(lat[prev], lon[prev], lat[i], lon[i])
			seconds := times[i].Sub(times[prev]).Seconds()
			if c.exceeded(dist, seconds) {
				current++
			}
			ids[i] = current
		}
		perGroup[groupIndex(groups, g)] = current
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	total := 0
	for _, count := range perGroup {
		total += int(count)
	}
	return ids, total, nil
}

// groupIndex находит позицию группы по ее началу
func groupIndex(groups []frame.Group, g frame.Group) int {
	lo, hi := 0, len(groups)
	for lo < hi {
		mid := (lo + hi) / 2
		if groups[mid].Start < g.Start {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// dropSinglePointSegments удаляет сегменты из одной точки, перенумеровывает
// оставшиеся сегменты подряд и пересчитывает признаки
func (p *Processor) dropSinglePointSegments(f *frame.Frame, labels Labels, label string) (*frame.Frame, int, error) {
	counts, err := frame.GroupCounts(f, labels.ID, label)
	if err != nil {
		return nil, 0, err
	}

	keep := make([]bool, f.Len())
	dropped := 0
	for i, count := range counts {
		keep[i] = count > 1
		if !keep[i] {
			dropped++
		}
	}
	if dropped == 0 {
		return f, 0, nil
	}

	out, err := f.Filter(keep)
	if err != nil {
		return nil, 0, err
	}
	if err := p.renumberSegments(out, labels, label); err != nil {
		return nil, 0, err
	}
	if err := p.refreshFeatures(out, labels, []string{labels.ID}); err != nil {
		return nil, 0, err
	}
	return out, dropped, nil
}

// renumberSegments делает номера сегментов каждой траектории непрерывными с 1
func (p *Processor) renumberSegments(f *frame.Frame, labels Labels, label string) error {
	ids, err := f.Int64(label)
	if err != nil {
		return err
	}
	perm, groups, err := ordered(f, labels, []string{labels.ID})
	if err != nil {
		return err
	}

	renumbered := make(frame.Int64Column, f.Len())
	err = p.backend.EachGroup(groups, func(g frame.Group) error {
		current := int64(1)
		renumbered[perm[g.Start]] = current
		for k := g.Start + 1; k < g.End; k++ {
			if ids[perm[k]] != ids[perm[k-1]] {
				current++
			}
			renumbered[perm[k]] = current
		}
		return nil
	})
	if err != nil {
		return err
	}

	return f.Set(label, renumbered)
}
