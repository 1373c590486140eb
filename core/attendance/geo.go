package attendance

import (
	"math"

	"github.com/chuoapp/chuo/core"
)

const earthRadiusMeters = 6371000

// haversineMeters returns the great-circle distance between two points.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// withinCampus reports whether the point falls inside the configured geofence.
func withinCampus(campus core.CampusConfig, lat, lng float64) bool {
	return haversineMeters(campus.Latitude, campus.Longitude, lat, lng) <= campus.RadiusMeters
}
