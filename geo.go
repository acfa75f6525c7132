package tinygps

import "math"

// earthRadiusM is the mean earth radius used for great-circle math.
const earthRadiusM = 6372795

// DistanceBetween returns the great-circle distance in meters between two
// points given in signed decimal degrees. The earth is modeled as a sphere,
// which keeps the error under roughly 0.5%.
func DistanceBetween(lat1, lon1, lat2, lon2 float64) float64 {
	delta := radians(lon1 - lon2)
	sdlon := math.Sin(delta)
	cdlon := math.Cos(delta)
	lat1 = radians(lat1)
	lat2 = radians(lat2)
	slat1 := math.Sin(lat1)
	clat1 := math.Cos(lat1)
	slat2 := math.Sin(lat2)
	clat2 := math.Cos(lat2)
	num1 := clat1*slat2 - slat1*clat2*cdlon
	num2 := clat2 * sdlon
	denom := slat1*slat2 + clat1*clat2*cdlon
	return math.Atan2(math.Sqrt(num1*num1+num2*num2), denom) * earthRadiusM
}

// CourseTo returns the initial great-circle course in degrees from the first
// point to the second. North is 0, east is 90.
func CourseTo(lat1, lon1, lat2, lon2 float64) float64 {
	dlon := radians(lon2 - lon1)
	lat1 = radians(lat1)
	lat2 = radians(lat2)
	a1 := math.Sin(dlon) * math.Cos(lat2)
	a2 := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlon)
	c := math.Atan2(a1, a2)
	if c < 0 {
		c += 2 * math.Pi
	}
	return degrees(c)
}

var cardinals = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Cardinal returns the sixteen-wind compass point for a course in degrees.
func Cardinal(course float64) string {
	course = math.Mod(course, 360.0)
	if course < 0 {
		course += 360.0
	}
	return cardinals[int((course+11.25)/22.5)%16]
}

func radians(deg float64) float64 { return deg * math.Pi / 180.0 }
func degrees(rad float64) float64 { return rad * 180.0 / math.Pi }
