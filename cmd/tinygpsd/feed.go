package main

import (
	"encoding/json"
	"math"
	"time"

	"github.com/danmclachlan/TinyGPS/internal/gdl90"
	"github.com/danmclachlan/TinyGPS/internal/gps"
)

// jsonDatagrams renders one fix snapshot as a single JSON datagram.
func jsonDatagrams(snap gps.Snapshot) [][]byte {
	b, err := json.Marshal(snap)
	if err != nil {
		return nil
	}
	return [][]byte{b}
}

// gdl90Datagrams renders the GDL90 broadcast set for one tick: heartbeat and
// device ID always, plus the ownship report and geometric altitude once the
// receiver has a fix.
func gdl90Datagrams(now time.Time, snap gps.Snapshot, icao [3]byte, callsign string) [][]byte {
	out := make([][]byte, 0, 4)
	out = append(out, gdl90.HeartbeatFrameAt(now, snap.Valid))
	out = append(out, gdl90.ForeFlightIDFrame("tinygps", "tinygpsd"))

	if !snap.Valid || snap.LatDeg == nil || snap.LonDeg == nil {
		return out
	}

	o := gdl90.Ownship{
		ICAO:     icao,
		LatDeg:   *snap.LatDeg,
		LonDeg:   *snap.LonDeg,
		Callsign: callsign,
	}
	if snap.HDOP != nil {
		acc := gdl90.HorizontalAccuracyMeters(uint32(math.Round(*snap.HDOP * 100)))
		o.NACp = gdl90.NACpFromHorizontalAccuracyMeters(acc)
	}
	altFeet := 0
	if snap.AltitudeM != nil {
		altFeet = int(math.Round(*snap.AltitudeM / 0.3048))
		o.AltFeet = altFeet
		o.AltValid = true
	}
	if snap.SpeedKt != nil {
		o.GroundKt = int(math.Round(*snap.SpeedKt))
		o.SpeedValid = true
	}
	if snap.CourseDeg != nil {
		o.TrackDeg = *snap.CourseDeg
		o.TrackValid = true
	}
	out = append(out, gdl90.OwnshipReportFrame(o))
	if o.AltValid {
		out = append(out, gdl90.GeoAltitudeFrame(altFeet))
	}
	return out
}
