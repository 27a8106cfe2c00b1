package trajectory

// Имена колонок таблицы точек
const (
	LabelID       = "id"
	LabelLat      = "lat"
	LabelLon      = "lon"
	LabelDatetime = "datetime"
	LabelTID      = "tid"

	DistToPrev     = "dist_to_prev"
	DistToNext     = "dist_to_next"
	DistPrevToNext = "dist_prev_to_next"

	TimeToPrev     = "time_to_prev"
	TimeToNext     = "time_to_next"
	TimePrevToNext = "time_prev_to_next"

	SpeedToPrev     = "speed_to_prev"
	SpeedToNext     = "speed_to_next"
	SpeedPrevToNext = "speed_prev_to_next"

	LabelOutlier = "outlier"

	LabelTIDPart  = "tid_part"
	LabelTIDDist  = "tid_dist"
	LabelTIDTime  = "tid_time"
	LabelTIDSpeed = "tid_speed"

	LabelSegmentStop   = "segment_stop"
	LabelSegmentRadius = "segment_radius"
	LabelStop          = "stop"
	LabelSituation     = "situation"

	DistToCentroid = "dist_to_centroid"
	LabelGeohash   = "geohash"
	DatetimeEnd    = "datetime_end"
	StopPoints     = "stop_points"
)

// Значения колонки situation
const (
	SituationMove = "move"
	SituationStop = "stop"
	SituationNaN  = "nan"
)

var (
	distanceColumns = [3]string{DistToPrev, DistToNext, DistPrevToNext}
	timeColumns     = [3]string{TimeToPrev, TimeToNext, TimePrevToNext}
	speedColumns    = [3]string{SpeedToPrev, SpeedToNext, SpeedPrevToNext}
)

// Labels переопределяет имена основных колонок таблицы
type Labels struct {
	ID       string
	Lat      string
	Lon      string
	Datetime string
}

// DefaultLabels возвращает стандартные имена колонок
func DefaultLabels() Labels {
	return Labels{
		ID:       LabelID,
		Lat:      LabelLat,
		Lon:      LabelLon,
		Datetime: LabelDatetime,
	}
}

// WithDefaults заполняет пустые имена стандартными
func (l Labels) WithDefaults() Labels {
	d := DefaultLabels()
	if l.ID == "" {
		l.ID = d.ID
	}
	if l.Lat == "" {
		l.Lat = d.Lat
	}
	if l.Lon == "" {
		l.Lon = d.Lon
	}
	if l.Datetime == "" {
		l.Datetime = d.Datetime
	}
	return l
}

func (l Labels) point() []string {
	return []string{l.ID, l.Lat, l.Lon, l.Datetime}
}
