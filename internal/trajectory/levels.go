package trajectory

import (
	"github.com/flybeeper/trajectory-prep/internal/frame"
)

// NewCleaningChain создает цепочку очистки:
// дубли, GPS скачки, скоростные выбросы, короткие траектории
func NewCleaningChain(p *Processor, labels Labels) *Chain {
	chain := NewChain("cleaning", p.logger)
	opts := Options{Labels: labels}

	// 1. Удаляем последовательные дубли
	chain.AddStage(NewStage("clean_consecutive_duplicates", "Remove consecutive duplicate points",
		func(f *frame.Frame) (*Result, error) {
			return p.CleanConsecutiveDuplicates(f, DuplicateOptions{Options: opts})
		}))

	// 2. Удаляем GPS скачки до стабилизации
	chain.AddStage(NewStage("clean_gps_jumps_by_distance", "Remove GPS jumps relative to the median step",
		func(f *frame.Frame) (*Result, error) {
			return p.CleanGPSJumpsByDistance(f, OutlierOptions{Options: opts})
		}))

	// 3. Удаляем точки со слишком большой скоростью
	chain.AddStage(NewStage("clean_gps_speed_max_radius", "Remove points exceeding the speed bound",
		func(f *frame.Frame) (*Result, error) {
			return p.CleanGPSSpeedMaxRadius(f, p.config.SpeedRadius, CleanOptions{Options: opts})
		}))

	// 4. Удаляем траектории, в которых осталось мало точек
	chain.AddStage(NewStage("clean_trajectories_with_few_points", "Remove trajectories with too few points",
		func(f *frame.Frame) (*Result, error) {
			return p.CleanTrajectoriesWithFewPoints(f, p.config.MinPointsPerTrajectory, CleanOptions{Options: opts})
		}))

	return chain
}

// NewSegmentationChain создает цепочку очистки с последующей сегментацией
// по расстоянию, времени и скорости
func NewSegmentationChain(p *Processor, labels Labels) *Chain {
	chain := NewCleaningChain(p, labels)
	chain.name = "segmentation"

	chain.AddStage(NewStage("by_dist_time_speed", "Split trajectories where distance, time and speed bounds are all exceeded",
		func(f *frame.Frame) (*Result, error) {
			return p.ByDistTimeSpeed(f, p.config.MaxDist, p.config.MaxTime, p.config.MaxSpeed,
				SegmentOptions{Options: Options{Labels: labels}})
		}))

	return chain
}

// NewStayChain создает цепочку очистки с последующим сжатием остановок
func NewStayChain(p *Processor, labels Labels) *Chain {
	chain := NewCleaningChain(p, labels)
	chain.name = "stay"

	chain.AddStage(NewStage("compress_segment_stop_to_point", "Collapse stop segments into single points",
		func(f *frame.Frame) (*Result, error) {
			return p.CompressSegmentStopToPoint(f, CompressOptions{Options: Options{Labels: labels}})
		}))

	return chain
}

// NewPresetChain возвращает цепочку по имени: cleaning, segmentation или stay
func NewPresetChain(name string, p *Processor, labels Labels) (*Chain, bool) {
	switch name {
	case "cleaning":
		return NewCleaningChain(p, labels), true
	case "segmentation":
		return NewSegmentationChain(p, labels), true
	case "stay":
		return NewStayChain(p, labels), true
	}
	return nil, false
}
