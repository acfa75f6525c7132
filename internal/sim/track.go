package sim

import (
	"math"
	"time"
)

// Track is a deterministic flight path around a fixed center. The same
// wall-clock instant always yields the same position, so restarting the
// daemon does not teleport the simulated receiver.
type Track struct {
	CenterLatDeg float64
	CenterLonDeg float64
	AltFeet      int
	GroundKt     int
	RadiusNm     float64
	Period       time.Duration
}

// Kinematics returns the position plus a simple vertical profile. Altitude
// is a sinusoid around AltFeet so the GGA altitude field exercises more than
// one value.
func (t Track) Kinematics(now time.Time) (latDeg, lonDeg, trackDeg float64, altFeet int) {
	latDeg, lonDeg, trackDeg = t.Position(now)

	baseAlt := t.AltFeet
	if baseAlt == 0 {
		baseAlt = 3000
	}
	period := t.Period
	if period <= 0 {
		period = 120 * time.Second
	}
	// Vertical period is decoupled from horizontal to avoid repetitive sync.
	vp := period / 2
	if vp < 30*time.Second {
		vp = 30 * time.Second
	}
	amp := 500.0 // ft

	phase := float64(now.UnixNano()%vp.Nanoseconds()) / float64(vp.Nanoseconds())
	alt := float64(baseAlt) + amp*math.Sin(2*math.Pi*phase)
	altFeet = int(math.Round(alt))
	return latDeg, lonDeg, trackDeg, altFeet
}

// Position returns a figure-eight path and the instantaneous track angle.
func (t Track) Position(now time.Time) (latDeg, lonDeg, trackDeg float64) {
	period := t.Period
	if period <= 0 {
		period = 120 * time.Second
	}
	radiusNm := t.RadiusNm
	if radiusNm <= 0 {
		radiusNm = 0.5
	}

	// Convert NM to degrees latitude (~60 NM per degree).
	radiusDeg := radiusNm / 60.0

	phase := float64(now.UnixNano()%period.Nanoseconds()) / float64(period.Nanoseconds())

	// Lissajous path that stays within the configured radius:
	//	  x = cos(2πt)        east-west, scaled by cos(lat) for lon degrees
	//	  y = 0.5*sin(4πt)    north-south
	w := 2 * math.Pi * phase
	x := math.Cos(w)
	y := 0.5 * math.Sin(2*w)

	latDeg = t.CenterLatDeg + radiusDeg*y
	lonDeg = t.CenterLonDeg + (radiusDeg*x)/math.Cos(t.CenterLatDeg*math.Pi/180.0)

	// Track from the instantaneous velocity (atan2(east, north)).
	vx := -2 * math.Pi * math.Sin(w)
	vy := 2 * math.Pi * math.Cos(2*w)
	trackRad := math.Atan2(vx, vy)
	trackDeg = math.Mod((trackRad*180/math.Pi)+360, 360)
	return latDeg, lonDeg, trackDeg
}
