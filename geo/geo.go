// Package geo holds the small amount of spherical math the event listings
// need: distance between two points and coordinates pulled out of a maps link.
package geo

import (
	"math"
	"regexp"
	"strconv"
)

// EarthRadiusKm is the mean earth radius.
const EarthRadiusKm = 6371.0088

var (
	atPattern    = regexp.MustCompile(`@(-?\d+\.\d+),(-?\d+\.\d+)`)
	queryPattern = regexp.MustCompile(`[?&]q=(-?\d+\.\d+),(-?\d+\.\d+)`)
)

// DistanceKm is the haversine distance between two lat/lng points.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Pow(math.Sin(dLng/2), 2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// FromLink extracts lat/lng from a maps URL of the form ".../@lat,lng,..." or
// "...?q=lat,lng".
func FromLink(link string) (lat, lng float64, ok bool) {
	m := atPattern.FindStringSubmatch(link)
	if m == nil {
		m = queryPattern.FindStringSubmatch(link)
	}
	if m == nil {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(m[1], 64)
	lng, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lng, true
}

// Round3 rounds km to metre precision for display.
func Round3(km float64) float64 {
	return math.Round(km*1000) / 1000
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
