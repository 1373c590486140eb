package attendance

import (
	"math"
	"testing"
	"time"

	"github.com/chuoapp/chuo/core"
)

// Kinshasa campus coordinates used across the geofence tests.
var campus = core.CampusConfig{
	Latitude:     -4.3277,
	Longitude:    15.3136,
	RadiusMeters: 300,
}

func TestHaversineMeters(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64 // meters
		tolerance              float64
	}{
		{name: "same point", lat1: -4.3277, lng1: 15.3136, lat2: -4.3277, lng2: 15.3136, want: 0, tolerance: 0.001},
		{name: "one degree of latitude", lat1: 0, lng1: 0, lat2: 1, lng2: 0, want: 111195, tolerance: 100},
		{name: "a city block away", lat1: -4.3277, lng1: 15.3136, lat2: -4.3287, lng2: 15.3136, want: 111, tolerance: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := haversineMeters(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("haversineMeters() = %v, want %v ±%v", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestWithinCampus(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		want     bool
	}{
		{name: "campus center", lat: campus.Latitude, lng: campus.Longitude, want: true},
		{name: "just inside the fence", lat: campus.Latitude + 0.002, lng: campus.Longitude, want: true},         // ~220m north
		{name: "just outside the fence", lat: campus.Latitude + 0.003, lng: campus.Longitude, want: false},       // ~330m north
		{name: "across town", lat: campus.Latitude + 0.1, lng: campus.Longitude + 0.1, want: false},              // ~15km
		{name: "antipodal-ish", lat: -campus.Latitude, lng: campus.Longitude - 180, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := withinCampus(campus, tt.lat, tt.lng); got != tt.want {
				t.Errorf("withinCampus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTruncateDay(t *testing.T) {
	lagos := time.FixedZone("WAT", 3600)
	in := time.Date(2026, 3, 14, 23, 59, 59, 123, lagos)
	got := truncateDay(in)
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("truncateDay() = %v, want %v", got, want)
	}
}

func TestCountClassDays(t *testing.T) {
	day1 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	recs := []Record{
		{StudentID: "s1", Date: day1},
		{StudentID: "s2", Date: day1.Add(5 * time.Hour)}, // same day, later clock
		{StudentID: "s1", Date: day2},
	}
	if got := countClassDays(recs); got != 2 {
		t.Errorf("countClassDays() = %v, want 2", got)
	}
	if got := countClassDays(nil); got != 0 {
		t.Errorf("countClassDays() = %v, want 0", got)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{66.666666, 66.67},
		{33.333333, 33.33},
		{50, 50},
		{0, 0},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
