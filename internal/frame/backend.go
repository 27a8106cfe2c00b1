package frame

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Backend стратегия обработки групп строк
type Backend interface {
	// Name возвращает имя стратегии
	Name() string

	// EachGroup вызывает fn для каждой группы и дожидается завершения всех вызовов
	EachGroup(groups []Group, fn func(Group) error) error
}

// SerialBackend обрабатывает группы последовательно
type SerialBackend struct{}

// NewSerialBackend создает последовательную стратегию
func NewSerialBackend() *SerialBackend {
	return &SerialBackend{}
}

func (b *SerialBackend) Name() string { return "serial" }

func (b *SerialBackend) EachGroup(groups []Group, fn func(Group) error) error {
	for _, g := range groups {
		if err := fn(g); err != nil {
			return err
		}
	}
	return nil
}

// ParallelBackend распределяет группы по пулу воркеров.
// fn обязан писать только в строки своей группы.
type ParallelBackend struct {
	Workers int
}

// NewParallelBackend создает параллельную стратегию; workers <= 0 означает GOMAXPROCS
func NewParallelBackend(workers int) *ParallelBackend {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &ParallelBackend{Workers: workers}
}

func (b *ParallelBackend) Name() string { return "parallel" }

func (b *ParallelBackend) EachGroup(groups []Group, fn func(Group) error) error {
	if len(groups) < 2 || b.Workers == 1 {
		return NewSerialBackend().EachGroup(groups, fn)
	}

	var g errgroup.Group
	g.SetLimit(b.Workers)
	for _, group := range groups {
		group := group
		g.Go(func() error {
			return fn(group)
		})
	}
	return g.Wait()
}

// NewBackend выбирает стратегию по количеству воркеров
func NewBackend(workers int) Backend {
	if workers == 1 {
		return NewSerialBackend()
	}
	return NewParallelBackend(workers)
}
