// Package trajectory реализует предобработку GPS траекторий: вычисление
// признаков, поиск выбросов, сегментацию, поиск остановок, сжатие и фильтры.
package trajectory

import (
	"errors"
	"fmt"
	"time"

	"github.com/flybeeper/trajectory-prep/internal/frame"
	"github.com/flybeeper/trajectory-prep/pkg/utils"
)

// Recorder получает отчет о каждой завершенной операции
type Recorder interface {
	ObserveOperation(operation string, rowsIn, rowsOut, iterations int, capReached bool, duration time.Duration)
}

// Options общие параметры операций
type Options struct {
	// Переопределение имен колонок id/lat/lon/datetime
	Labels Labels

	// true: результат заменяет содержимое входной таблицы
	InPlace bool
}

// Processor выполняет операции предобработки над таблицами точек
type Processor struct {
	config   *Config
	logger   *utils.Logger
	backend  frame.Backend
	recorder Recorder
}

// Option настраивает Processor
type Option func(*Processor)

// WithBackend задает стратегию обработки групп
func WithBackend(backend frame.Backend) Option {
	return func(p *Processor) {
		p.backend = backend
	}
}

// WithRecorder задает получателя отчетов об операциях
func WithRecorder(recorder Recorder) Option {
	return func(p *Processor) {
		p.recorder = recorder
	}
}

// NewProcessor создает процессор; nil конфигурация заменяется значениями по умолчанию
func NewProcessor(config *Config, logger *utils.Logger, opts ...Option) (*Processor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = utils.DefaultLogger()
	}

	p := &Processor{
		config: config,
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.backend == nil {
		p.backend = frame.NewBackend(config.Workers)
	}

	return p, nil
}

// Config возвращает конфигурацию процессора
func (p *Processor) Config() *Config {
	return p.config
}

// operation тело операции: преобразует рабочую копию и заполняет результат
type operation func(work *frame.Frame, labels Labels, result *Result) (*frame.Frame, error)

// run выполняет операцию над копией таблицы, затем при необходимости
// переносит результат во входную таблицу, логирует и отправляет отчет
func (p *Processor) run(name string, f *frame.Frame, opts Options, op operation) (*Result, error) {
	if f == nil {
		return nil, fmt.Errorf("%s: nil frame", name)
	}

	start := time.Now()
	labels := opts.Labels.WithDefaults()
	result := &Result{
		Operation:     name,
		OriginalCount: f.Len(),
	}

	p.logger.WithField("operation", name).
		WithField("rows", f.Len()).
		WithField("inplace", opts.InPlace).
		Debug("Starting operation")

	out, err := op(f.Copy(), labels, result)
	if err != nil {
		p.logger.WithField("operation", name).
			WithError(err).
			Error("Operation failed")
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if opts.InPlace {
		f.Replace(out)
		out = f
	}

	result.Frame = out
	result.FinalCount = out.Len()
	result.Duration = time.Since(start)

	p.logger.WithField("operation", name).
		WithField("original_count", result.OriginalCount).
		WithField("final_count", result.FinalCount).
		WithField("iterations", result.Iterations).
		WithField("duration_ms", result.Duration.Milliseconds()).
		Info("Operation completed")

	if p.recorder != nil {
		p.recorder.ObserveOperation(name, result.OriginalCount, result.FinalCount,
			result.Iterations, result.CapReached, result.Duration)
	}

	return result, nil
}

// untilStable повторяет проход до тех пор, пока он удаляет строки,
// но не больше MaxIterations раз
func (p *Processor) untilStable(name string, f *frame.Frame, result *Result, pass func(*frame.Frame) (*frame.Frame, int, error)) (*frame.Frame, error) {
	for result.Iterations < p.config.MaxIterations {
		out, dropped, err := pass(f)
		if err != nil {
			return nil, err
		}
		result.Iterations++
		f = out

		p.logger.WithField("operation", name).
			WithField("iteration", result.Iterations).
			WithField("dropped", dropped).
			Debug("Pass completed")

		if dropped == 0 {
			return f, nil
		}
	}

	result.CapReached = true
	p.logger.WithField("operation", name).
		WithField("max_iterations", p.config.MaxIterations).
		WithField("rows", f.Len()).
		Warn("Iteration cap reached, returning best effort result")

	return f, nil
}

// requireColumns проверяет наличие колонок точек и дополнительных колонок
func requireColumns(f *frame.Frame, labels Labels, extra ...string) error {
	if err := f.Require(labels.point()...); err != nil {
		return err
	}
	return f.Require(extra...)
}

// orDefault возвращает value или def, если value равно нулю
func orDefault(value, def float64) float64 {
	if value == 0 {
		return def
	}
	return value
}

func validateParams(params map[string]float64) error {
	for name, value := range params {
		if err := checkNonNegative(name, value); err != nil {
			return err
		}
	}
	return nil
}

// IsInvalidConfig сообщает, вызвана ли ошибка некорректными параметрами
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
