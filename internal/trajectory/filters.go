package trajectory

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"github.com/flybeeper/trajectory-prep/internal/frame"
	"github.com/flybeeper/trajectory-prep/internal/models"
)

// FilterOptions параметры выборки строк
type FilterOptions struct {
	Options

	// true: удалить выбранные строки вместо того чтобы оставить их
	FilterOut bool

	// Имя колонки для ByTID (по умолчанию tid)
	Label string
}

// ByBBox выбирает точки внутри прямоугольника (границы включительно)
func (p *Processor) ByBBox(f *frame.Frame, bounds models.Bounds, opts FilterOptions) (*Result, error) {
	if err := bounds.Validate(); err != nil {
		return nil, fmt.Errorf("bbox: %v: %w", err, ErrInvalidConfig)
	}
	bound := bounds.Bound()

	return p.selectRows("by_bbox", f, opts, func(work *frame.Frame, labels Labels) ([]bool, error) {
		lat, lon, err := coordinates(work, labels)
		if err != nil {
			return nil, err
		}
		mask := make([]bool, work.Len())
		for i := range mask {
			mask[i] = bound.Contains(orb.Point{lon[i], lat[i]})
		}
		return mask, nil
	})
}

// ByDatetime выбирает точки в интервале [start, end]; нулевая граница не ограничивает
func (p *Processor) ByDatetime(f *frame.Frame, start, end time.Time, opts FilterOptions) (*Result, error) {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return nil, fmt.Errorf("end %s before start %s: %w", end, start, ErrInvalidConfig)
	}

	return p.selectRows("by_datetime", f, opts, func(work *frame.Frame, labels Labels) ([]bool, error) {
		times, err := work.Time(labels.Datetime)
		if err != nil {
			return nil, err
		}
		mask := make([]bool, work.Len())
		for i, t := range times {
			mask[i] = (start.IsZero() || !t.Before(start)) && (end.IsZero() || !t.After(end))
		}
		return mask, nil
	})
}

// ByLabel выбирает строки, значение которых в колонке label равно value
func (p *Processor) ByLabel(f *frame.Frame, label string, value interface{}, opts FilterOptions) (*Result, error) {
	return p.selectRows("by_label", f, opts, func(work *frame.Frame, _ Labels) ([]bool, error) {
		return work.MatchMask(label, value)
	})
}

// ByID выбирает точки перечисленных траекторий
func (p *Processor) ByID(f *frame.Frame, ids []string, opts FilterOptions) (*Result, error) {
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return p.selectRows("by_id", f, opts, func(work *frame.Frame, labels Labels) ([]bool, error) {
		return anyMatch(work, labels.ID, values)
	})
}

// ByTID выбирает точки перечисленных сегментов
func (p *Processor) ByTID(f *frame.Frame, tids []int64, opts FilterOptions) (*Result, error) {
	label := opts.Label
	if label == "" {
		label = LabelTID
	}
	values := make([]interface{}, len(tids))
	for i, tid := range tids {
		values[i] = tid
	}
	return p.selectRows("by_tid", f, opts, func(work *frame.Frame, _ Labels) ([]bool, error) {
		return anyMatch(work, label, values)
	})
}

func anyMatch(f *frame.Frame, label string, values []interface{}) ([]bool, error) {
	if err := f.Require(label); err != nil {
		return nil, err
	}
	mask := make([]bool, f.Len())
	for _, value := range values {
		matched, err := f.MatchMask(label, value)
		if err != nil {
			return nil, err
		}
		for i, ok := range matched {
			mask[i] = mask[i] || ok
		}
	}
	return mask, nil
}

// selectRows применяет маску выборки с учетом FilterOut
func (p *Processor) selectRows(name string, f *frame.Frame, opts FilterOptions, predicate func(*frame.Frame, Labels) ([]bool, error)) (*Result, error) {
	return p.run(name, f, opts.Options, func(work *frame.Frame, labels Labels, _ *Result) (*frame.Frame, error) {
		mask, err := predicate(work, labels)
		if err != nil {
			return nil, err
		}
		if opts.FilterOut {
			mask = invert(mask)
		}
		return work.Filter(mask)
	})
}
