package trajectory

import (
	"fmt"

	"github.com/flybeeper/trajectory-prep/internal/frame"
	"github.com/flybeeper/trajectory-prep/internal/models"
)

// Direction набор направлений для вычисления признаков
type Direction uint8

const (
	// ToPrev от предыдущей точки к текущей
	ToPrev Direction = 1 << iota
	// ToNext от текущей точки к следующей
	ToNext
	// PrevToNext от предыдущей точки к следующей
	PrevToNext

	// AllDirections все три направления
	AllDirections = ToPrev | ToNext | PrevToNext
)

var directionOrder = [3]Direction{ToPrev, ToNext, PrevToNext}

func (d Direction) has(other Direction) bool {
	return d&other != 0
}

// family семейство признаков
type family uint8

const (
	familyDistance family = 1 << iota
	familyTime
	familySpeed
)

// FeatureOptions параметры вычисления признаков
type FeatureOptions struct {
	Options

	// Направления (0 = все)
	Directions Direction

	// Ключи группировки (по умолчанию id траектории)
	GroupBy []string
}

func (o FeatureOptions) directions() Direction {
	if o.Directions == 0 {
		return AllDirections
	}
	return o.Directions & AllDirections
}

// GenerateDistanceFeatures добавляет колонки расстояний в метрах
func (p *Processor) GenerateDistanceFeatures(f *frame.Frame, opts FeatureOptions) (*Result, error) {
	return p.generate("generate_distance_features", f, opts, familyDistance)
}

// GenerateTimeFeatures добавляет колонки интервалов времени в секундах
func (p *Processor) GenerateTimeFeatures(f *frame.Frame, opts FeatureOptions) (*Result, error) {
	return p.generate("generate_time_features", f, opts, familyTime)
}

// GenerateSpeedFeatures добавляет колонки скоростей в м/с
func (p *Processor) GenerateSpeedFeatures(f *frame.Frame, opts FeatureOptions) (*Result, error) {
	return p.generate("generate_speed_features", f, opts, familySpeed)
}

// GenerateDistTimeSpeedFeatures добавляет колонки расстояний, времени и скоростей
func (p *Processor) GenerateDistTimeSpeedFeatures(f *frame.Frame, opts FeatureOptions) (*Result, error) {
	return p.generate("generate_dist_time_speed_features", f, opts,
		familyDistance|familyTime|familySpeed)
}

func (p *Processor) generate(name string, f *frame.Frame, opts FeatureOptions, fams family) (*Result, error) {
	return p.run(name, f, opts.Options, func(work *frame.Frame, labels Labels, _ *Result) (*frame.Frame, error) {
		groupBy := opts.GroupBy
		if len(groupBy) == 0 {
			groupBy = []string{labels.ID}
		}
		if err := p.computeFeatures(work, labels, fams, opts.directions(), groupBy); err != nil {
			return nil, err
		}
		return work, nil
	})
}

// GenerateGeohash добавляет колонку geohash заданной точности (0 = из конфигурации)
func (p *Processor) GenerateGeohash(f *frame.Frame, precision int, opts Options) (*Result, error) {
	if precision == 0 {
		precision = p.config.GeohashPrecision
	}
	if precision < 1 || precision > 12 {
		return nil, fmt.Errorf("geohash precision %d out of [1, 12]: %w", precision, ErrInvalidConfig)
	}

	return p.run("generate_geohash", f, opts, func(work *frame.Frame, labels Labels, _ *Result) (*frame.Frame, error) {
		lat, lon, err := coordinates(work, labels)
		if err != nil {
			return nil, err
		}

		hashes := make(frame.StringColumn, work.Len())
		for i := range hashes {
			hashes[i] = models.GeoPoint{Latitude: lat[i], Longitude: lon[i]}.Geohash(precision)
		}
		if err := work.Set(LabelGeohash, hashes); err != nil {
			return nil, err
		}
		return work, nil
	})
}

// ordered возвращает перестановку, упорядоченную по (groupBy..., datetime), и диапазоны групп
func ordered(f *frame.Frame, labels Labels, groupBy []string) ([]int, []frame.Group, error) {
	keys := make([]string, 0, len(groupBy)+1)
	keys = append(keys, groupBy...)
	keys = append(keys, labels.Datetime)

	perm, err := frame.SortIndex(f, keys...)
	if err != nil {
		return nil, nil, err
	}
	groups, err := frame.GroupRanges(f, perm, groupBy...)
	if err != nil {
		return nil, nil, err
	}
	return perm, groups, nil
}

func coordinates(f *frame.Frame, labels Labels) (frame.Float64Column, frame.Float64Column, error) {
	lat, err := f.Float64(labels.Lat)
	if err != nil {
		return nil, nil, err
	}
	lon, err := f.Float64(labels.Lon)
	if err != nil {
		return nil, nil, err
	}
	return lat, lon, nil
}

// computeFeatures вычисляет признаки окном (prev, cur, next) внутри каждой группы.
// Значения пишутся по исходным индексам строк, поэтому порядок таблицы не меняется.
// Соседи за границей группы отсутствуют и дают NaN.
func (p *Processor) computeFeatures(f *frame.Frame, labels Labels, fams family, dirs Direction, groupBy []string) error {
	if err := f.Require(labels.Lat, labels.Lon, labels.Datetime); err != nil {
		return err
	}
	if err := f.Require(groupBy...); err != nil {
		return err
	}

	lat, lon, err := coordinates(f, labels)
	if err != nil {
		return err
	}
	times, err := f.Time(labels.Datetime)
	if err != nil {
		return err
	}

	perm, groups, err := ordered(f, labels, groupBy)
	if err != nil {
		return err
	}

	n := f.Len()
	needDist := fams&(familyDistance|familySpeed) != 0
	needTime := fams&(familyTime|familySpeed) != 0

	var dist, elapsed [3]frame.Float64Column
	for d, dir := range directionOrder {
		if !dirs.has(dir) {
			continue
		}
		if needDist {
			dist[d] = frame.NewNullFloat64Column(n)
		}
		if needTime {
			elapsed[d] = frame.NewNullFloat64Column(n)
		}
	}

	err = p.backend.EachGroup(groups, func(g frame.Group) error {
		for k := g.Start; k < g.End; k++ {
			i := perm[k]
			hasPrev := k > g.Start
			hasNext := k < g.End-1

			if hasPrev {
				prev := perm[k-1]
				if dist[0] != nil {
					dist[0][i] = models.Haversine(lat[prev], lon[prev], lat[i], lon[i])
				}
				if elapsed[0] != nil {
					elapsed[0][i] = times[i].Sub(times[prev]).Seconds()
				}
			}
			if hasNext {
				next := perm[k+1]
				if dist[1] != nil {
					dist[1][i] = models.Haversine(lat[i], lon[i], lat[next], lon[next])
				}
				if elapsed[1] != nil {
					elapsed[1][i] = times[next].Sub(times[i]).Seconds()
				}
			}
			if hasPrev && hasNext {
				prev, next := perm[k-1], perm[k+1]
				if dist[2] != nil {
					dist[2][i] = models.Haversine(lat[prev], lon[prev], lat[next], lon[next])
				}
				if elapsed[2] != nil {
					elapsed[2][i] = times[next].Sub(times[prev]).Seconds()
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for d, dir := range directionOrder {
		if !dirs.has(dir) {
			continue
		}
		if fams&familyDistance != 0 {
			if err := f.Set(distanceColumns[d], dist[d]); err != nil {
				return err
			}
		}
		if fams&familyTime != 0 {
			if err := f.Set(timeColumns[d], elapsed[d]); err != nil {
				return err
			}
		}
		if fams&familySpeed != 0 {
			speed := make(frame.Float64Column, n)
			for i := range speed {
				// деление на ноль дает +Inf или NaN
				speed[i] = dist[d][i] / elapsed[d][i]
			}
			if err := f.Set(speedColumns[d], speed); err != nil {
				return err
			}
		}
	}

	return nil
}

// presentDirections возвращает направления, для которых в таблице есть колонки семейства
func presentDirections(f *frame.Frame, columns [3]string) Direction {
	var dirs Direction
	for d, dir := range directionOrder {
		if f.Has(columns[d]) {
			dirs |= dir
		}
	}
	return dirs
}

// refreshFeatures пересчитывает уже существующие колонки признаков
// после того как соседство точек изменилось
func (p *Processor) refreshFeatures(f *frame.Frame, labels Labels, groupBy []string) error {
	families := []struct {
		fam     family
		columns [3]string
	}{
		{familyDistance, distanceColumns},
		{familyTime, timeColumns},
		{familySpeed, speedColumns},
	}

	for _, fc := range families {
		dirs := presentDirections(f, fc.columns)
		if dirs == 0 {
			continue
		}
		if err := p.computeFeatures(f, labels, fc.fam, dirs, groupBy); err != nil {
			return err
		}
	}
	return nil
}

// ensureFeatures вычисляет признаки семейства, если хотя бы одной колонки нет
func (p *Processor) ensureFeatures(f *frame.Frame, labels Labels, fam family, columns [3]string) error {
	if f.Has(columns[:]...) {
		return nil
	}
	return p.computeFeatures(f, labels, fam, AllDirections, []string{labels.ID})
}
