package trajectory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flybeeper/trajectory-prep/internal/frame"
	"github.com/flybeeper/trajectory-prep/pkg/utils"
)

// Stage шаг конвейера предобработки
type Stage interface {
	// Apply применяет шаг к таблице
	Apply(f *frame.Frame) (*Result, error)

	// Name возвращает имя шага
	Name() string

	// Description возвращает описание шага
	Description() string
}

type funcStage struct {
	name        string
	description string
	apply       func(f *frame.Frame) (*Result, error)
}

// NewStage оборачивает операцию процессора в шаг конвейера
func NewStage(name, description string, apply func(f *frame.Frame) (*Result, error)) Stage {
	return &funcStage{
		name:        name,
		description: description,
		apply:       apply,
	}
}

func (s *funcStage) Apply(f *frame.Frame) (*Result, error) { return s.apply(f) }
func (s *funcStage) Name() string                          { return s.name }
func (s *funcStage) Description() string                   { return s.description }

// Chain цепочка шагов для последовательного применения
type Chain struct {
	name   string
	stages []Stage
	logger *utils.Logger
}

// NewChain создает пустую цепочку
func NewChain(name string, logger *utils.Logger) *Chain {
	if logger == nil {
		logger = utils.DefaultLogger()
	}
	return &Chain{
		name:   name,
		stages: make([]Stage, 0),
		logger: logger,
	}
}

// AddStage добавляет шаг в цепочку
func (c *Chain) AddStage(stage Stage) *Chain {
	c.stages = append(c.stages, stage)
	return c
}

// Stages возвращает шаги цепочки
func (c *Chain) Stages() []Stage {
	return c.stages
}

// Apply применяет все шаги по очереди; ошибка шага прерывает цепочку.
// Входная таблица не изменяется, если шаги не работают в режиме inplace.
func (c *Chain) Apply(f *frame.Frame) (*Result, error) {
	if f == nil {
		return nil, fmt.Errorf("%s: nil frame", c.name)
	}

	runID := uuid.New().String()
	logger := c.logger.WithField("chain", c.name).WithField("run_id", runID)

	logger.WithField("original_points", f.Len()).
		WithField("stages_count", len(c.stages)).
		Debug("Starting chain")

	start := time.Now()
	result := &Result{
		Operation:     c.name,
		OriginalCount: f.Len(),
		Frame:         f,
	}

	current := f
	for _, stage := range c.stages {
		stageStart := time.Now()

		stageResult, err := stage.Apply(current)
		if err != nil {
			logger.WithField("stage", stage.Name()).
				WithError(err).
				Error("Stage failed")
			return nil, fmt.Errorf("%s: stage %s: %w", c.name, stage.Name(), err)
		}

		logger.WithField("stage", stage.Name()).
			WithField("input_points", current.Len()).
			WithField("output_points", stageResult.FinalCount).
			WithField("iterations", stageResult.Iterations).
			WithField("duration_ms", time.Since(stageStart).Milliseconds()).
			Debug("Stage applied")

		current = stageResult.Frame
		result.Iterations += stageResult.Iterations
		result.CapReached = result.CapReached || stageResult.CapReached
		result.Statistics.merge(stageResult.Statistics)
	}

	result.Frame = current
	result.FinalCount = current.Len()
	result.Duration = time.Since(start)

	logger.WithField("original_count", result.OriginalCount).
		WithField("final_count", result.FinalCount).
		WithField("removed", result.Removed()).
		WithField("duration_ms", result.Duration.Milliseconds()).
		Info("Chain completed")

	return result, nil
}

// Name возвращает имя цепочки
func (c *Chain) Name() string {
	return c.name
}

// Description возвращает описание цепочки
func (c *Chain) Description() string {
	names := make([]string, len(c.stages))
	for i, stage := range c.stages {
		names[i] = stage.Name()
	}
	return fmt.Sprintf("Chain of stages: %v", names)
}
