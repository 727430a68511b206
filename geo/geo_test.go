package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromLink(t *testing.T) {
	cases := []struct {
		name     string
		link     string
		lat, lng float64
		ok       bool
	}{
		{"at form", "https://www.google.com/maps/place/X/@12.9716,77.5946,15z", 12.9716, 77.5946, true},
		{"query form", "https://maps.google.com/?q=-33.8688,151.2093", -33.8688, 151.2093, true},
		{"query after other params", "https://maps.google.com/?hl=en&q=51.5074,-0.1278", 51.5074, -0.1278, true},
		{"no coordinates", "https://maps.app.goo.gl/abc", 0, 0, false},
		{"integers are not matched", "https://maps.google.com/?q=12,77", 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lat, lng, ok := FromLink(tc.link)
			assert.Equal(t, tc.ok, ok)
			assert.InDelta(t, tc.lat, lat, 1e-9)
			assert.InDelta(t, tc.lng, lng, 1e-9)
		})
	}
}

func TestDistanceKm(t *testing.T) {
	assert.Zero(t, DistanceKm(10, 10, 10, 10))

	// Bengaluru to Mumbai, roughly 845 km as the crow flies.
	d := DistanceKm(12.9716, 77.5946, 19.0760, 72.8777)
	assert.InDelta(t, 845.3, d, 1)

	assert.InDelta(t, DistanceKm(1, 2, 3, 4), DistanceKm(3, 4, 1, 2), 1e-9)
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 1.235, Round3(1.23456))
	assert.Equal(t, 0.0, Round3(0.0004))
}
