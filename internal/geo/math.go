package geo

import "math"

const earthRadiusKm = 6371.0

// DistanceKm computes the haversine great-circle distance between two
// coordinates in kilometers.
func DistanceKm(a, b LonLat) float64 {
	lat1 := a.Lat * math.Pi / 180.0
	lat2 := b.Lat * math.Pi / 180.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180.0
	dLon := (b.Lon - a.Lon) * math.Pi / 180.0

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Centroid returns the arithmetic mean of a coordinate sequence.
// Reports false when the sequence holds no usable coordinates.
func Centroid(coords [][]float64) (LonLat, bool) {
	var sumLon, sumLat float64
	n := 0

	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		sumLon += c[0]
		sumLat += c[1]
		n++
	}

	if n == 0 {
		return LonLat{}, false
	}

	return LonLat{Lon: sumLon / float64(n), Lat: sumLat / float64(n)}, true
}
