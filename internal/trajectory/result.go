package trajectory

import (
	"time"

	"github.com/flybeeper/trajectory-prep/internal/frame"
)

// Result результат операции над таблицей точек
type Result struct {
	Frame         *frame.Frame  `json:"-"`
	Operation     string        `json:"operation"`
	OriginalCount int           `json:"original_count"`
	FinalCount    int           `json:"final_count"`
	Iterations    int           `json:"iterations,omitempty"`
	CapReached    bool          `json:"cap_reached,omitempty"`
	Duration      time.Duration `json:"duration"`
	Statistics    Stats         `json:"statistics"`
}

// Removed возвращает количество удаленных строк
func (r *Result) Removed() int {
	return r.OriginalCount - r.FinalCount
}

// Stats статистика операции
type Stats struct {
	Outliers            int `json:"outliers"`
	Duplicates          int `json:"duplicates"`
	SpeedViolations     int `json:"speed_violations"`
	NearbyPoints        int `json:"nearby_points"`
	DroppedIDs          int `json:"dropped_ids"`
	DroppedSinglePoints int `json:"dropped_single_points"`
	Segments            int `json:"segments,omitempty"`
	StopPoints          int `json:"stop_points,omitempty"`
	MovePoints          int `json:"move_points,omitempty"`
	CompressedStops     int `json:"compressed_stops,omitempty"`
}

// merge добавляет статистику стадии к итоговой
func (s *Stats) merge(other Stats) {
	s.Outliers += other.Outliers
	s.Duplicates += other.Duplicates
	s.SpeedViolations += other.SpeedViolations
	s.NearbyPoints += other.NearbyPoints
	s.DroppedIDs += other.DroppedIDs
	s.DroppedSinglePoints += other.DroppedSinglePoints

	// Разметка описывает последнее состояние таблицы
	if other.Segments > 0 {
		s.Segments = other.Segments
	}
	if other.StopPoints > 0 || other.MovePoints > 0 {
		s.StopPoints = other.StopPoints
		s.MovePoints = other.MovePoints
	}
	s.CompressedStops += other.CompressedStops
}
