package trajectory

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig некорректные параметры операции
var ErrInvalidConfig = errors.New("invalid configuration")

// Config параметры предобработки траекторий
type Config struct {
	// Коэффициент порога выброса относительно медианы dist_to_prev
	JumpCoefficient float64 `json:"jump_coefficient"`

	// Фиксированный порог выброса в метрах (0 = вычислять по данным)
	OutlierThreshold float64 `json:"outlier_threshold"`

	// Максимум проходов итеративных фильтров
	MaxIterations int `json:"max_iterations"`

	// Детектор остановок по расстоянию и времени (м, с)
	DistRadius float64 `json:"dist_radius"`
	TimeRadius float64 `json:"time_radius"`

	// Детектор остановок по радиусу (м)
	SegmentRadius float64 `json:"segment_radius"`
	Radius        float64 `json:"radius"`

	// Границы сегментации (м, с, м/с)
	MaxDist  float64 `json:"max_dist"`
	MaxTime  float64 `json:"max_time"`
	MaxSpeed float64 `json:"max_speed"`

	// Очистка близких точек (м, м/с) и скоростных выбросов (м/с)
	NearbyRadius float64 `json:"nearby_radius"`
	NearbySpeed  float64 `json:"nearby_speed"`
	SpeedRadius  float64 `json:"speed_radius"`

	// Минимальные размеры траекторий
	MinPointsPerTrajectory int     `json:"min_points_per_trajectory"`
	MinTrajectoryDistance  float64 `json:"min_trajectory_distance"`
	MinTimeSeconds         float64 `json:"min_time_seconds"`

	GeohashPrecision int `json:"geohash_precision"`

	// Количество воркеров (0 = GOMAXPROCS, 1 = последовательно)
	Workers int `json:"workers"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		JumpCoefficient:        3.0,
		OutlierThreshold:       0,
		MaxIterations:          20,
		DistRadius:             30,
		TimeRadius:             900,
		SegmentRadius:          30,
		Radius:                 0,
		MaxDist:                3000,
		MaxTime:                900,
		MaxSpeed:               50,
		NearbyRadius:           10,
		NearbySpeed:            0,
		SpeedRadius:            50,
		MinPointsPerTrajectory: 2,
		MinTrajectoryDistance:  100,
		MinTimeSeconds:         3600,
		GeohashPrecision:       7,
		Workers:                0,
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	nonNegative := map[string]float64{
		"jump_coefficient":        c.JumpCoefficient,
		"outlier_threshold":       c.OutlierThreshold,
		"dist_radius":             c.DistRadius,
		"time_radius":             c.TimeRadius,
		"segment_radius":          c.SegmentRadius,
		"radius":                  c.Radius,
		"max_dist":                c.MaxDist,
		"max_time":                c.MaxTime,
		"max_speed":               c.MaxSpeed,
		"nearby_radius":           c.NearbyRadius,
		"nearby_speed":            c.NearbySpeed,
		"speed_radius":            c.SpeedRadius,
		"min_trajectory_distance": c.MinTrajectoryDistance,
		"min_time_seconds":        c.MinTimeSeconds,
	}
	for name, value := range nonNegative {
		if err := checkNonNegative(name, value); err != nil {
			return err
		}
	}

	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d: %w", c.MaxIterations, ErrInvalidConfig)
	}
	if c.MinPointsPerTrajectory < 0 {
		return fmt.Errorf("min_points_per_trajectory must be non-negative, got %d: %w", c.MinPointsPerTrajectory, ErrInvalidConfig)
	}
	if c.GeohashPrecision < 1 || c.GeohashPrecision > 12 {
		return fmt.Errorf("geohash_precision must be in [1, 12], got %d: %w", c.GeohashPrecision, ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d: %w", c.Workers, ErrInvalidConfig)
	}
	return nil
}

func checkNonNegative(name string, value float64) error {
	if value < 0 || math.IsNaN(value) {
		return fmt.Errorf("%s must be non-negative, got %v: %w", name, value, ErrInvalidConfig)
	}
	return nil
}
