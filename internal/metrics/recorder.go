package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineRecorder переносит отчеты об операциях в метрики Prometheus
type PipelineRecorder struct{}

// NewPipelineRecorder создает получателя отчетов
func NewPipelineRecorder() *PipelineRecorder {
	return &PipelineRecorder{}
}

// ObserveOperation учитывает одну завершенную операцию
func (r *PipelineRecorder) ObserveOperation(operation string, rowsIn, rowsOut, iterations int, capReached bool, duration time.Duration) {
	OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	OperationsTotal.WithLabelValues(operation).Inc()
	RowsIn.WithLabelValues(operation).Add(float64(rowsIn))
	RowsOut.WithLabelValues(operation).Add(float64(rowsOut))
	if removed := rowsIn - rowsOut; removed > 0 {
		RowsRemoved.WithLabelValues(operation).Add(float64(removed))
	}

	if iterations > 0 {
		FixedPointIterations.WithLabelValues(operation).Observe(float64(iterations))
	}
	if capReached {
		IterationCapReached.WithLabelValues(operation).Inc()
	}
}

// WriteTextfile сохраняет все зарегистрированные метрики в файл текстового формата
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
