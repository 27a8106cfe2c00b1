package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Метрики операций предобработки
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trajprep_operation_duration_seconds",
			Help:    "Duration of trajectory preprocessing operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trajprep_operations_total",
			Help: "Total number of trajectory preprocessing operations",
		},
		[]string{"operation"},
	)

	RowsIn = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trajprep_rows_in_total",
			Help: "Total number of rows passed to operations",
		},
		[]string{"operation"},
	)

	RowsOut = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trajprep_rows_out_total",
			Help: "Total number of rows returned by operations",
		},
		[]string{"operation"},
	)

	RowsRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trajprep_rows_removed_total",
			Help: "Total number of rows removed by operations",
		},
		[]string{"operation"},
	)

	// Итеративные фильтры
	FixedPointIterations = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trajprep_fixed_point_iterations",
			Help:    "Number of passes made by iterative cleaning operations",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 20, 50},
		},
		[]string{"operation"},
	)

	IterationCapReached = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trajprep_iteration_cap_reached_total",
			Help: "Total number of iterative operations stopped by the iteration cap",
		},
		[]string{"operation"},
	)

	// Информация о приложении
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trajprep_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "build_time"},
	)
)

// SetAppInfo устанавливает информацию о версии приложения
func SetAppInfo(version, commit, buildTime string) {
	AppInfo.WithLabelValues(version, commit, buildTime).Set(1)
}
