package trajectory

import (
	"fmt"
	"math"

	"github.com/flybeeper/trajectory-prep/internal/frame"
	"github.com/flybeeper/trajectory-prep/internal/models"
)

// Какую строку оставлять из серии дублей
const (
	KeepFirst = "first"
	KeepLast  = "last"
)

// DuplicateOptions параметры удаления последовательных дублей
type DuplicateOptions struct {
	Options

	// Колонки сравнения (по умолчанию lat, lon, datetime)
	Subset []string

	// first или last (по умолчанию first)
	Keep string
}

// CleanOptions общие параметры очистки
type CleanOptions struct {
	Options
}

// CleanConsecutiveDuplicates удаляет строку, если значения колонок Subset
// совпадают с соседней строкой той же траектории
func (p *Processor) CleanConsecutiveDuplicates(f *frame.Frame, opts DuplicateOptions) (*Result, error) {
	keep := opts.Keep
	if keep == "" {
		keep = KeepFirst
	}
	if keep != KeepFirst && keep != KeepLast {
		return nil, fmt.Errorf("keep must be %q or %q, got %q: %w", KeepFirst, KeepLast, opts.Keep, ErrInvalidConfig)
	}

	return p.run("clean_consecutive_duplicates", f, opts.Options, func(work *frame.Frame, labels Labels, result *Result) (*frame.Frame, error) {
		if err := requireColumns(work, labels); err != nil {
			return nil, err
		}
		subset := opts.Subset
		if len(subset) == 0 {
			subset = []string{labels.Lat, labels.Lon, labels.Datetime}
		}
		cols := make([]frame.Column, len(subset))
		for k, name := range subset {
			col, err := work.Column(name)
			if err != nil {
				return nil, err
			}
			cols[k] = col
		}

		perm, groups, err := ordered(work, labels, []string{labels.ID})
		if err != nil {
			return nil, err
		}

		mask := make([]bool, work.Len())
		err = p.backend.EachGroup(groups, func(g frame.Group) error {
			for k := g.Start; k < g.End; k++ {
				i := perm[k]
				mask[i] = true
				if keep == KeepFirst && k > g.Start {
					mask[i] = !equalRows(cols, i, perm[k-1])
				}
				if keep == KeepLast && k < g.End-1 {
					mask[i] = !equalRows(cols, i, perm[k+1])
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		out, dropped, err := p.dropRows(work, labels, mask)
		if err != nil {
			return nil, err
		}
		result.Statistics.Duplicates = dropped
		return out, nil
	})
}

func equalRows(cols []frame.Column, i, j int) bool {
	for _, col := range cols {
		if !col.Equal(i, j) {
			return false
		}
	}
	return true
}

// CleanGPSJumpsByDistance удаляет GPS скачки, пока они находятся, но не больше MaxIterations проходов
func (p *Processor) CleanGPSJumpsByDistance(f *frame.Frame, opts OutlierOptions) (*Result, error) {
	coef := orDefault(opts.JumpCoefficient, p.config.JumpCoefficient)
	threshold := orDefault(opts.Threshold, p.config.OutlierThreshold)
	if err := validateParams(map[string]float64{"jump_coefficient": coef, "threshold": threshold}); err != nil {
		return nil, err
	}

	const name = "clean_gps_jumps_by_distance"
	return p.run(name, f, opts.Options, func(work *frame.Frame, labels Labels, result *Result) (*frame.Frame, error) {
		if err := requireColumns(work, labels); err != nil {
			return nil, err
		}
		// Признаки пересчитываются после каждого прохода внутри dropRows
		if err := p.computeFeatures(work, labels, familyDistance, AllDirections, []string{labels.ID}); err != nil {
			return nil, err
		}

		return p.untilStable(name, work, result, func(current *frame.Frame) (*frame.Frame, int, error) {
			if err := p.ensureFeatures(current, labels, familyDistance, distanceColumns); err != nil {
				return nil, 0, err
			}
			mask, err := p.outlierMask(current, labels, coef, threshold)
			if err != nil {
				return nil, 0, err
			}
			out, dropped, err := p.dropRows(current, labels, invert(mask))
			if err != nil {
				return nil, 0, err
			}
			result.Statistics.Outliers += dropped
			return out, dropped, nil
		})
	})
}

// CleanGPSNearbyPointsByDistances удаляет точки, лежащие не дальше radius метров
// от последней оставленной точки траектории (0 = из конфигурации)
func (p *Processor) CleanGPSNearbyPointsByDistances(f *frame.Frame, radius float64, opts CleanOptions) (*Result, error) {
	radius = orDefault(radius, p.config.NearbyRadius)
	if err := validateParams(map[string]float64{"radius": radius}); err != nil {
		return nil, err
	}

	return p.cleanNearby("clean_gps_nearby_points_by_distances", f, opts, func(dist, _ float64) bool {
		return dist <= radius
	})
}

// CleanGPSNearbyPointsBySpeed удаляет точки, скорость до которых от последней
// оставленной точки не больше speed м/с (0 = из конфигурации)
func (p *Processor) CleanGPSNearbyPointsBySpeed(f *frame.Frame, speed float64, opts CleanOptions) (*Result, error) {
	speed = orDefault(speed, p.config.NearbySpeed)
	if err := validateParams(map[string]float64{"speed": speed}); err != nil {
		return nil, err
	}

	return p.cleanNearby("clean_gps_nearby_points_by_speed", f, opts, func(dist, seconds float64) bool {
		v := dist / seconds
		// совпадающие точки с одинаковым временем дают NaN
		return math.IsNaN(v) || v <= speed
	})
}

func (p *Processor) cleanNearby(name string, f *frame.Frame, opts CleanOptions, nearby func(dist, seconds float64) bool) (*Result, error) {
	return p.run(name, f, opts.Options, func(work *frame.Frame, labels Labels, result *Result) (*frame.Frame, error) {
		if err := requireColumns(work, labels); err != nil {
			return nil, err
		}

		return p.untilStable(name, work, result, func(current *frame.Frame) (*frame.Frame, int, error) {
			lat, lon, err := coordinates(current, labels)
			if err != nil {
				return nil, 0, err
			}
			times, err := current.Time(labels.Datetime)
			if err != nil {
				return nil, 0, err
			}
			perm, groups, err := ordered(current, labels, []string{labels.ID})
			if err != nil {
				return nil, 0, err
			}

			mask := make([]bool, current.Len())
			err = p.backend.EachGroup(groups, func(g frame.Group) error {
				anchor := perm[g.Start]
				mask[anchor] = true
				for k := g.Start + 1; k < g.End; k++ {
					i := perm[k]
					dist := models.Haversine(lat[anchor], lon[anchor], lat[i], lon[i])
					seconds := times[i].Sub(times[anchor]).Seconds()
					if nearby(dist, seconds) {
						continue
					}
					mask[i] = true
					anchor = i
				}
				return nil
			})
			if err != nil {
				return nil, 0, err
			}

			out, dropped, err := p.dropRows(current, labels, mask)
			if err != nil {
				return nil, 0, err
			}
			result.Statistics.NearbyPoints += dropped
			return out, dropped, nil
		})
	})
}

// CleanGPSSpeedMaxRadius удаляет точки, скорость к предыдущей или следующей точке
// которых больше maxSpeed м/с, и повторяет до стабилизации (0 = из конфигурации)
func (p *Processor) CleanGPSSpeedMaxRadius(f *frame.Frame, maxSpeed float64, opts CleanOptions) (*Result, error) {
	maxSpeed = orDefault(maxSpeed, p.config.SpeedRadius)
	if err := validateParams(map[string]float64{"speed": maxSpeed}); err != nil {
		return nil, err
	}

	const name = "clean_gps_speed_max_radius"
	return p.run(name, f, opts.Options, func(work *frame.Frame, labels Labels, result *Result) (*frame.Frame, error) {
		if err := requireColumns(work, labels); err != nil {
			return nil, err
		}
		if err := p.computeFeatures(work, labels, familySpeed, ToPrev|ToNext, []string{labels.ID}); err != nil {
			return nil, err
		}

		return p.untilStable(name, work, result, func(current *frame.Frame) (*frame.Frame, int, error) {
			toPrev, err := current.Float64(SpeedToPrev)
			if err != nil {
				return nil, 0, err
			}
			toNext, err := current.Float64(SpeedToNext)
			if err != nil {
				return nil, 0, err
			}

			mask := make([]bool, current.Len())
			for i := range mask {
				mask[i] = !(toPrev[i] > maxSpeed || toNext[i] > maxSpeed)
			}

			out, dropped, err := p.dropRows(current, labels, mask)
			if err != nil {
				return nil, 0, err
			}
			result.Statistics.SpeedViolations += dropped
			return out, dropped, nil
		})
	})
}

// CleanTrajectoriesWithFewPoints удаляет траектории, в которых меньше minPoints точек
// (0 = из конфигурации)
func (p *Processor) CleanTrajectoriesWithFewPoints(f *frame.Frame, minPoints int, opts CleanOptions) (*Result, error) {
	if minPoints == 0 {
		minPoints = p.config.MinPointsPerTrajectory
	}
	if minPoints < 0 {
		return nil, fmt.Errorf("min_points must be non-negative, got %d: %w", minPoints, ErrInvalidConfig)
	}

	return p.dropTrajectories("clean_trajectories_with_few_points", f, opts, func(work *frame.Frame, labels Labels, idx []int) (bool, error) {
		return len(idx) < minPoints, nil
	})
}

// CleanTrajectoriesShortAndFewPoints удаляет траектории короче minDist метров
// или с количеством точек меньше minPoints (0 = из конфигурации)
func (p *Processor) CleanTrajectoriesShortAndFewPoints(f *frame.Frame, minDist float64, minPoints int, opts CleanOptions) (*Result, error) {
	minDist = orDefault(minDist, p.config.MinTrajectoryDistance)
	if minPoints == 0 {
		minPoints = p.config.MinPointsPerTrajectory
	}
	if err := validateParams(map[string]float64{"min_dist": minDist}); err != nil {
		return nil, err
	}
	if minPoints < 0 {
		return nil, fmt.Errorf("min_points must be non-negative, got %d: %w", minPoints, ErrInvalidConfig)
	}

	return p.dropTrajectories("clean_trajectories_short_and_few_points", f, opts, func(work *frame.Frame, labels Labels, idx []int) (bool, error) {
		if len(idx) < minPoints {
			return true, nil
		}
		lat, lon, err := coordinates(work, labels)
		if err != nil {
			return false, err
		}
		total := 0.0
		for k := 1; k < len(idx); k++ {
			total += models.Haversine(lat[idx[k-1]], lon[idx[k-1]], lat[idx[k]], lon[idx[k]])
		}
		return total < minDist, nil
	})
}

// CleanIDByTimeMax удаляет траектории, длительность которых меньше minSeconds
// (0 = из конфигурации)
func (p *Processor) CleanIDByTimeMax(f *frame.Frame, minSeconds float64, opts CleanOptions) (*Result, error) {
	minSeconds = orDefault(minSeconds, p.config.MinTimeSeconds)
	if err := validateParams(map[string]float64{"min_seconds": minSeconds}); err != nil {
		return nil, err
	}

	return p.dropTrajectories("clean_id_by_time_max", f, opts, func(work *frame.Frame, labels Labels, idx []int) (bool, error) {
		times, err := work.Time(labels.Datetime)
		if err != nil {
			return false, err
		}
		span := times[idx[len(idx)-1]].Sub(times[idx[0]]).Seconds()
		return span < minSeconds, nil
	})
}

// dropTrajectories удаляет траектории целиком; idx содержит строки траектории по времени
func (p *Processor) dropTrajectories(name string, f *frame.Frame, opts CleanOptions, drop func(work *frame.Frame, labels Labels, idx []int) (bool, error)) (*Result, error) {
	return p.run(name, f, opts.Options, func(work *frame.Frame, labels Labels, result *Result) (*frame.Frame, error) {
		if err := requireColumns(work, labels); err != nil {
			return nil, err
		}
		perm, groups, err := ordered(work, labels, []string{labels.ID})
		if err != nil {
			return nil, err
		}

		mask := make([]bool, work.Len())
		for _, g := range groups {
			idx := perm[g.Start:g.End]
			dropped, err := drop(work, labels, idx)
			if err != nil {
				return nil, err
			}
			if dropped {
				result.Statistics.DroppedIDs++
				continue
			}
			for _, i := range idx {
				mask[i] = true
			}
		}

		out, _, err := p.dropRows(work, labels, mask)
		return out, err
	})
}

// dropRows оставляет строки по маске и пересчитывает существующие признаки
func (p *Processor) dropRows(f *frame.Frame, labels Labels, keep []bool) (*frame.Frame, int, error) {
	dropped := 0
	for _, k := range keep {
		if !k {
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
	if err := p.refreshFeatures(out, labels, []string{labels.ID}); err != nil {
		return nil, 0, err
	}
	return out, dropped, nil
}
