package models

import (
	"fmt"
	"math"

	"github.com/mmcloughlin/geohash"
	"github.com/paulmach/orb"
)

// EarthRadiusMeters средний радиус Земли в метрах
const EarthRadiusMeters = 6371000.0

// GeoPoint представляет географическую точку
type GeoPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Validate проверяет корректность координат
func (p GeoPoint) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("invalid latitude: %f", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("invalid longitude: %f", p.Longitude)
	}
	return nil
}

// Haversine вычисляет расстояние между двумя точками в метрах (формула Haversine).
// Координаты задаются в градусах.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// DistanceTo вычисляет расстояние до другой точки в метрах
func (p GeoPoint) DistanceTo(other GeoPoint) float64 {
	return Haversine(p.Latitude, p.Longitude, other.Latitude, other.Longitude)
}

// Geohash возвращает geohash для точки с заданной точностью
func (p GeoPoint) Geohash(precision int) string {
	return geohash.EncodeWithPrecision(p.Latitude, p.Longitude, uint(precision))
}

// IsInBounds проверяет, находится ли точка в границах (включительно)
func (p GeoPoint) IsInBounds(sw, ne GeoPoint) bool {
	return p.Latitude >= sw.Latitude && p.Latitude <= ne.Latitude &&
		p.Longitude >= sw.Longitude && p.Longitude <= ne.Longitude
}

// Point конвертирует точку в orb.Point (порядок lon, lat)
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// Bounds представляет географические границы
type Bounds struct {
	Southwest GeoPoint `json:"sw"`
	Northeast GeoPoint `json:"ne"`
}

// NewBounds создает границы из минимальных и максимальных координат
func NewBounds(minLat, minLon, maxLat, maxLon float64) Bounds {
	return Bounds{
		Southwest: GeoPoint{Latitude: minLat, Longitude: minLon},
		Northeast: GeoPoint{Latitude: maxLat, Longitude: maxLon},
	}
}

// Validate проверяет корректность границ
func (b Bounds) Validate() error {
	if err := b.Southwest.Validate(); err != nil {
		return fmt.Errorf("southwest: %w", err)
	}
	if err := b.Northeast.Validate(); err != nil {
		return fmt.Errorf("northeast: %w", err)
	}
	if b.Southwest.Latitude > b.Northeast.Latitude {
		return fmt.Errorf("southwest latitude must be less than northeast latitude")
	}
	if b.Southwest.Longitude > b.Northeast.Longitude {
		return fmt.Errorf("southwest longitude must be less than northeast longitude")
	}
	return nil
}

// Contains проверяет, содержится ли точка в границах
func (b Bounds) Contains(point GeoPoint) bool {
	return point.IsInBounds(b.Southwest, b.Northeast)
}

// Bound конвертирует границы в orb.Bound
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: b.Southwest.Point(),
		Max: b.Northeast.Point(),
	}
}

// Center возвращает центральную точку границ
func (b Bounds) Center() GeoPoint {
	return GeoPoint{
		Latitude:  (b.Southwest.Latitude + b.Northeast.Latitude) / 2,
		Longitude: (b.Southwest.Longitude + b.Northeast.Longitude) / 2,
	}
}

// Expand расширяет границы на заданное расстояние в метрах
func (b Bounds) Expand(meters float64) Bounds {
	// Приблизительные градусы на метр
	latDegPerMeter := 1.0 / 111000.0
	lonDegPerMeter := 1.0 / (111000.0 * math.Cos(b.Center().Latitude*math.Pi/180))

	latExpansion := meters * latDegPerMeter
	lonExpansion := meters * lonDegPerMeter

	return Bounds{
		Southwest: GeoPoint{
			Latitude:  b.Southwest.Latitude - latExpansion,
			Longitude: b.Southwest.Longitude - lonExpansion,
		},
		Northeast: GeoPoint{
			Latitude:  b.Northeast.Latitude + latExpansion,
			Longitude: b.Northeast.Longitude + lonExpansion,
		},
	}
}
