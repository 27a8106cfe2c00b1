package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/flybeeper/trajectory-prep/internal/config"
	"github.com/flybeeper/trajectory-prep/internal/dataset"
	"github.com/flybeeper/trajectory-prep/internal/metrics"
	"github.com/flybeeper/trajectory-prep/internal/trajectory"
	"github.com/flybeeper/trajectory-prep/pkg/utils"
)

var (
	// Version будет установлен при сборке через ldflags
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	var (
		inputFile   = flag.String("i", "", "Input CSV file (default: stdin)")
		outputFile  = flag.String("o", "", "Output CSV file (default: stdout)")
		configFile  = flag.String("config", "", "YAML config file (default: $TRAJPREP_CONFIG or ./trajprep.yaml)")
		preset      = flag.String("chain", "", "Preset chain: cleaning, segmentation or stay (overrides config)")
		metricsFile = flag.String("metrics", "", "Write Prometheus metrics to this file (overrides config)")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("trajprep %s (%s, %s)\n", Version, Commit, BuildTime)
		return
	}

	// .env не обязателен
	_ = godotenv.Load()

	// Загружаем конфигурацию
	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFile(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Логи пишем в stderr, stdout может быть занят результатом
	logger := utils.NewLoggerWithOutput(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	utils.SetDefaultLogger(logger)
	logger.WithField("version", Version).Info("Starting trajectory preprocessing")

	if *preset != "" {
		cfg.Pipeline.Preset = *preset
	}
	if *metricsFile != "" {
		cfg.Monitoring.MetricsFile = *metricsFile
	}

	if err := run(cfg, logger, *inputFile, *outputFile); err != nil {
		logger.WithError(err).Fatal("Preprocessing failed")
	}
}

func run(cfg *config.Config, logger *utils.Logger, inputPath, outputPath string) error {
	var opts []trajectory.Option
	if cfg.Monitoring.MetricsEnabled {
		metrics.SetAppInfo(Version, Commit, BuildTime)
		opts = append(opts, trajectory.WithRecorder(metrics.NewPipelineRecorder()))
	}

	processor, err := trajectory.NewProcessor(cfg.Trajectory(), logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create processor: %w", err)
	}

	chain, ok := trajectory.NewPresetChain(cfg.Pipeline.Preset, processor, trajectory.Labels{})
	if !ok {
		return fmt.Errorf("unknown chain %q", cfg.Pipeline.Preset)
	}

	input, closeInput, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer closeInput()

	f, err := dataset.ReadCSV(input, trajectory.Labels{})
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	logger.WithField("points", f.Len()).
		WithField("chain", chain.Name()).
		Info("Input loaded")

	result, err := chain.Apply(f)
	if err != nil {
		return err
	}

	output, closeOutput, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	if err := dataset.WriteCSV(output, result.Frame); err != nil {
		closeOutput()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := closeOutput(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}

	logger.WithField("original_count", result.OriginalCount).
		WithField("final_count", result.FinalCount).
		WithField("outliers", result.Statistics.Outliers).
		WithField("duplicates", result.Statistics.Duplicates).
		WithField("segments", result.Statistics.Segments).
		WithField("compressed_stops", result.Statistics.CompressedStops).
		WithField("cap_reached", result.CapReached).
		WithField("duration_ms", result.Duration.Milliseconds()).
		Info("Preprocessing completed")

	if cfg.Monitoring.MetricsEnabled && cfg.Monitoring.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.Monitoring.MetricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		logger.WithField("path", cfg.Monitoring.MetricsFile).Info("Metrics written")
	}

	return nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output: %w", err)
	}
	return file, file.Close, nil
}
