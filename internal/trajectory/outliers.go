package trajectory

import (
	"math"
	"sort"

	"github.com/flybeeper/trajectory-prep/internal/frame"
	"github.com/flybeeper/trajectory-prep/pkg/pool"
)

// OutlierOptions параметры поиска GPS скачков
type OutlierOptions struct {
	Options

	// Коэффициент относительно медианы dist_to_prev траектории (0 = из конфигурации)
	JumpCoefficient float64

	// Фиксированный порог в метрах (0 = из конфигурации или по медиане)
	Threshold float64

	// Имя колонки флага (по умолчанию outlier)
	Label string

	// true: удалить выбросы вместо разметки
	Remove bool
}

// DetectOutliers размечает или удаляет точки, далекие от обоих соседей,
// при том что соседи близки друг к другу
func (p *Processor) DetectOutliers(f *frame.Frame, opts OutlierOptions) (*Result, error) {
	coef := orDefault(opts.JumpCoefficient, p.config.JumpCoefficient)
	threshold := orDefault(opts.Threshold, p.config.OutlierThreshold)
	if err := validateParams(map[string]float64{"jump_coefficient": coef, "threshold": threshold}); err != nil {
		return nil, err
	}
	label := opts.Label
	if label == "" {
		label = LabelOutlier
	}

	return p.run("detect_outliers", f, opts.Options, func(work *frame.Frame, labels Labels, result *Result) (*frame.Frame, error) {
		if err := requireColumns(work, labels); err != nil {
			return nil, err
		}
		if err := p.ensureFeatures(work, labels, familyDistance, distanceColumns); err != nil {
			return nil, err
		}

		mask, err := p.outlierMask(work, labels, coef, threshold)
		if err != nil {
			return nil, err
		}
		for _, flagged := range mask {
			if flagged {
				result.Statistics.Outliers++
			}
		}

		if !opts.Remove {
			if err := work.Set(label, frame.BoolColumn(mask)); err != nil {
				return nil, err
			}
			return work, nil
		}

		out, err := work.Filter(invert(mask))
		if err != nil {
			return nil, err
		}
		if err := p.refreshFeatures(out, labels, []string{labels.ID}); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// outlierMask применяет правило скачка к каждой точке; порог вычисляется на траекторию
func (p *Processor) outlierMask(f *frame.Frame, labels Labels, coef, threshold float64) ([]bool, error) {
	toPrev, err := f.Float64(DistToPrev)
	if err != nil {
		return nil, err
	}
	toNext, err := f.Float64(DistToNext)
	if err != nil {
		return nil, err
	}
	prevToNext, err := f.Float64(DistPrevToNext)
	if err != nil {
		return nil, err
	}

	perm, groups, err := ordered(f, labels, []string{labels.ID})
	if err != nil {
		return nil, err
	}

	mask := make([]bool, f.Len())
	err = p.backend.EachGroup(groups, func(g frame.Group) error {
		thr := threshold
		if thr == 0 {
			thr = coef * groupMedian(toPrev, perm[g.Start:g.End])
		}

		for _, i := range perm[g.Start:g.End] {
			// NaN у граничных точек делает сравнения ложными
			mask[i] = toPrev[i] > thr && toNext[i] > thr && prevToNext[i] < thr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return mask, nil
}

// groupMedian вычисляет медиану значений колонки по индексам, пропуская NaN
func groupMedian(col frame.Float64Column, idx []int) float64 {
	buf := pool.Global.GetFloat64s()
	defer pool.Global.PutFloat64s(buf)

	for _, i := range idx {
		if !math.IsNaN(col[i]) {
			*buf = append(*buf, col[i])
		}
	}
	return median(*buf)
}

// median вычисляет медиану; сортирует values на месте
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sort.Float64s(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

func invert(mask []bool) []bool {
	out := make([]bool, len(mask))
	for i, v := range mask {
		out[i] = !v
	}
	return out
}
