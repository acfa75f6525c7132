package gps

import (
	"fmt"

	tinygps "github.com/danmclachlan/TinyGPS"
)

// Snapshot is a point-in-time copy of the decoder state, safe to hand to
// other goroutines and to serialize as JSON. Pointer fields are nil until the
// corresponding value has been validated at least once.
type Snapshot struct {
	Valid bool `json:"valid"`

	Source string `json:"source,omitempty"`
	Device string `json:"device,omitempty"`
	Baud   int    `json:"baud,omitempty"`

	LatDeg        *float64 `json:"lat_deg,omitempty"`
	LonDeg        *float64 `json:"lon_deg,omitempty"`
	PositionAgeMs *uint32  `json:"position_age_ms,omitempty"`

	AltitudeM  *float64 `json:"altitude_m,omitempty"`
	SpeedKt    *float64 `json:"speed_kt,omitempty"`
	CourseDeg  *float64 `json:"course_deg,omitempty"`
	Cardinal   string   `json:"cardinal,omitempty"`
	HDOP       *float64 `json:"hdop,omitempty"`
	Satellites *int     `json:"satellites,omitempty"`

	TimeUTC   string  `json:"time_utc,omitempty"`
	DateUTC   string  `json:"date_utc,omitempty"`
	TimeAgeMs *uint32 `json:"time_age_ms,omitempty"`

	Constellations string             `json:"constellations,omitempty"`
	Tracked        []TrackedSatellite `json:"tracked_satellites,omitempty"`

	Chars          uint32 `json:"chars_total"`
	GoodSentences  uint16 `json:"good_sentences"`
	FailedChecksum uint16 `json:"failed_checksum"`

	LastError string `json:"last_error,omitempty"`
}

// TrackedSatellite is one occupied slot of the GSV signal table.
type TrackedSatellite struct {
	Slot int `json:"slot"`
	PRN  int `json:"prn"`
	SNR  int `json:"snr"`
}

// newSnapshot reads every accessor once. Must run on the goroutine that owns
// the parser.
func newSnapshot(p *tinygps.Parser) Snapshot {
	var snap Snapshot

	pos := p.Position()
	if pos.Lat != tinygps.InvalidAngle && pos.Lon != tinygps.InvalidAngle {
		snap.Valid = true
		lat := float64(pos.Lat) / 1e6
		lon := float64(pos.Lon) / 1e6
		snap.LatDeg = &lat
		snap.LonDeg = &lon
	}
	if pos.Age != tinygps.InvalidAge {
		age := pos.Age
		snap.PositionAgeMs = &age
	}

	if p.Altitude() != tinygps.InvalidAltitude {
		alt := p.AltitudeMeters()
		snap.AltitudeM = &alt
	}
	if p.Speed() != tinygps.InvalidSpeed {
		kt := p.SpeedKnots()
		snap.SpeedKt = &kt
	}
	if p.Course() != tinygps.InvalidAngle {
		deg := p.CourseDegrees()
		snap.CourseDeg = &deg
		snap.Cardinal = tinygps.Cardinal(deg)
	}
	if p.HDOP() != tinygps.InvalidHDOP {
		hdop := float64(p.HDOP()) / 100.0
		snap.HDOP = &hdop
	}
	if p.Satellites() != tinygps.InvalidSatellites {
		sats := int(p.Satellites())
		snap.Satellites = &sats
	}

	dt := p.DateTime()
	if dt.Time != tinygps.InvalidTime {
		c := p.CrackDateTime()
		snap.TimeUTC = fmt.Sprintf("%02d:%02d:%02d.%02d", c.Hour, c.Minute, c.Second, c.Hundredths)
		if dt.Date != tinygps.InvalidDate {
			snap.DateUTC = fmt.Sprintf("%04d-%02d-%02d", c.Year, c.Month, c.Day)
		}
	}
	if dt.Age != tinygps.InvalidAge {
		age := dt.Age
		snap.TimeAgeMs = &age
	}

	snap.Constellations = p.Constellations()
	for slot, rec := range p.TrackedSatellites() {
		if rec == 0 {
			continue
		}
		snap.Tracked = append(snap.Tracked, TrackedSatellite{
			Slot: slot,
			PRN:  int(rec >> 8),
			SNR:  int((rec >> 1) & 0x7F),
		})
	}

	st := p.Stats()
	snap.Chars = st.Chars
	snap.GoodSentences = st.GoodSentences
	snap.FailedChecksum = st.FailedChecksum
	return snap
}
