package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/flybeeper/trajectory-prep/internal/trajectory"
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "TRAJPREP_"

// ConfigPathEnvVar переменная окружения с путем к YAML файлу
const ConfigPathEnvVar = "TRAJPREP_CONFIG"

// DefaultConfigPaths пути поиска файла конфигурации по порядку
var DefaultConfigPaths = []string{
	"trajprep.yaml",
	"trajprep.yml",
}

// Config содержит конфигурацию приложения
type Config struct {
	Environment string            `koanf:"environment"`
	Logging     LoggingConfig     `koanf:"logging"`
	Performance PerformanceConfig `koanf:"performance"`
	Pipeline    PipelineConfig    `koanf:"pipeline"`
	Monitoring  MonitoringConfig  `koanf:"monitoring"`
}

// LoggingConfig конфигурация логирования
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// PerformanceConfig конфигурация производительности
type PerformanceConfig struct {
	// 0 = GOMAXPROCS, 1 = последовательная обработка
	Workers int `koanf:"workers"`
}

// PipelineConfig пороги операций предобработки
type PipelineConfig struct {
	Preset                 string  `koanf:"preset"`
	JumpCoefficient        float64 `koanf:"jump_coefficient"`
	OutlierThreshold       float64 `koanf:"outlier_threshold"`
	MaxIterations          int     `koanf:"max_iterations"`
	DistRadius             float64 `koanf:"dist_radius"`
	TimeRadius             float64 `koanf:"time_radius"`
	SegmentRadius          float64 `koanf:"segment_radius"`
	Radius                 float64 `koanf:"radius"`
	MaxDist                float64 `koanf:"max_dist"`
	MaxTime                float64 `koanf:"max_time"`
	MaxSpeed               float64 `koanf:"max_speed"`
	NearbyRadius           float64 `koanf:"nearby_radius"`
	NearbySpeed            float64 `koanf:"nearby_speed"`
	SpeedRadius            float64 `koanf:"speed_radius"`
	MinPointsPerTrajectory int     `koanf:"min_points_per_trajectory"`
	MinTrajectoryDistance  float64 `koanf:"min_trajectory_distance"`
	MinTimeSeconds         float64 `koanf:"min_time_seconds"`
	GeohashPrecision       int     `koanf:"geohash_precision"`
}

// MonitoringConfig конфигурация мониторинга
type MonitoringConfig struct {
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// Файл для выгрузки метрик в текстовом формате Prometheus
	MetricsFile string `koanf:"metrics_file"`
}

// defaultConfig возвращает значения по умолчанию
func defaultConfig() *Config {
	defaults := trajectory.DefaultConfig()

	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Performance: PerformanceConfig{
			Workers: defaults.Workers,
		},
		Pipeline: PipelineConfig{
			Preset:                 "cleaning",
			JumpCoefficient:        defaults.JumpCoefficient,
			OutlierThreshold:       defaults.OutlierThreshold,
			MaxIterations:          defaults.MaxIterations,
			DistRadius:             defaults.DistRadius,
			TimeRadius:             defaults.TimeRadius,
			SegmentRadius:          defaults.SegmentRadius,
			Radius:                 defaults.Radius,
			MaxDist:                defaults.MaxDist,
			MaxTime:                defaults.MaxTime,
			MaxSpeed:               defaults.MaxSpeed,
			NearbyRadius:           defaults.NearbyRadius,
			NearbySpeed:            defaults.NearbySpeed,
			SpeedRadius:            defaults.SpeedRadius,
			MinPointsPerTrajectory: defaults.MinPointsPerTrajectory,
			MinTrajectoryDistance:  defaults.MinTrajectoryDistance,
			MinTimeSeconds:         defaults.MinTimeSeconds,
			GeohashPrecision:       defaults.GeohashPrecision,
		},
		Monitoring: MonitoringConfig{
			MetricsEnabled: true,
			MetricsFile:    "",
		},
	}
}

// Load загружает конфигурацию: значения по умолчанию, затем YAML файл, затем окружение
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile загружает конфигурацию из указанного файла (пустой путь = без файла)
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// TRAJPREP_PIPELINE_MAX_DIST -> pipeline.max_dist
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile возвращает первый существующий файл конфигурации
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc переводит имя переменной в путь koanf.
// Первое подчеркивание после префикса отделяет секцию.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "config" {
		return ""
	}
	return strings.Replace(key, "_", ".", 1)
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}

	if c.Performance.Workers < 0 {
		return fmt.Errorf("performance.workers must be non-negative")
	}

	switch c.Pipeline.Preset {
	case "cleaning", "segmentation", "stay":
	default:
		return fmt.Errorf("pipeline.preset must be one of cleaning, segmentation, stay")
	}

	if err := c.Trajectory().Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	return nil
}

// Trajectory возвращает параметры процессора траекторий
func (c *Config) Trajectory() *trajectory.Config {
	p := c.Pipeline
	return &trajectory.Config{
		JumpCoefficient:        p.JumpCoefficient,
		OutlierThreshold:       p.OutlierThreshold,
		MaxIterations:          p.MaxIterations,
		DistRadius:             p.DistRadius,
		TimeRadius:             p.TimeRadius,
		SegmentRadius:          p.SegmentRadius,
		Radius:                 p.Radius,
		MaxDist:                p.MaxDist,
		MaxTime:                p.MaxTime,
		MaxSpeed:               p.MaxSpeed,
		NearbyRadius:           p.NearbyRadius,
		NearbySpeed:            p.NearbySpeed,
		SpeedRadius:            p.SpeedRadius,
		MinPointsPerTrajectory: p.MinPointsPerTrajectory,
		MinTrajectoryDistance:  p.MinTrajectoryDistance,
		MinTimeSeconds:         p.MinTimeSeconds,
		GeohashPrecision:       p.GeohashPrecision,
		Workers:                c.Performance.Workers,
	}
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
