package gdl90

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

const (
	latLonResolution = 180.0 / 8388608.0 // degrees per LSB for signed 24-bit
	trackResolution  = 360.0 / 256.0
)

// Ownship carries the fields of an Ownship Report a position feed can fill.
// Anything the receiver does not know is encoded as unavailable.
type Ownship struct {
	ICAO       [3]byte
	LatDeg     float64
	LonDeg     float64
	AltFeet    int
	AltValid   bool
	NACp       byte // 0-15
	GroundKt   int
	SpeedValid bool
	TrackDeg   float64
	TrackValid bool
	Callsign   string
}

// OwnshipReportFrame builds and frames an Ownship Report (0x0A).
func OwnshipReportFrame(o Ownship) []byte {
	msg := make([]byte, 28)
	msg[0] = 0x0A

	// Address/alert/type byte: no alert, ADS-B with ICAO address.
	msg[1] = 0x00

	msg[2] = o.ICAO[0]
	msg[3] = o.ICAO[1]
	msg[4] = o.ICAO[2]

	lat := encodeLatLon24(o.LatDeg)
	msg[5], msg[6], msg[7] = lat[0], lat[1], lat[2]

	lon := encodeLatLon24(o.LonDeg)
	msg[8], msg[9], msg[10] = lon[0], lon[1], lon[2]

	alt := uint16(0x0FFF)
	if o.AltValid {
		alt = encodeAltitude12(o.AltFeet)
	}
	msg[11] = byte((alt >> 4) & 0xFF)
	msg[12] = byte((alt & 0x0F) << 4)

	// Misc nibble: airborne, plus true-track when the receiver reports a
	// course.
	msg[12] |= 0x08
	if o.TrackValid {
		msg[12] |= 0x01
	}

	// High nibble NIC, low nibble NACp. NIC 8 whenever accuracy is known,
	// matching common GPS-sourced feeds.
	nic := byte(0)
	if o.NACp > 0 {
		nic = 8
	}
	msg[13] = ((nic << 4) & 0xF0) | (o.NACp & 0x0F)

	// Ground speed, 12-bit, 1 kt resolution, 0xFFF unavailable.
	gs := uint16(0x0FFF)
	if o.SpeedValid {
		gs = encodeU12(o.GroundKt)
	}
	msg[14] = byte((gs & 0xFF0) >> 4)
	msg[15] = byte((gs & 0x00F) << 4)

	// Vertical velocity unknown (0x800); NMEA carries no climb rate.
	msg[15] |= 0x08
	msg[16] = 0x00

	msg[17] = encodeTrack8(o.TrackDeg)

	// Emitter category: light.
	msg[18] = 0x01

	copy(msg[19:27], []byte(sanitizeCallsign(o.Callsign)))

	msg[27] = 0x00

	return Frame(msg)
}

// GeoAltitudeFrame builds and frames an Ownship Geometric Altitude report
// (0x0B): altitude in 5 ft units, vertical figure of merit unavailable.
func GeoAltitudeFrame(altFeet int) []byte {
	msg := make([]byte, 5)
	msg[0] = 0x0B

	v := altFeet / 5
	if v > math.MaxInt16 {
		v = math.MaxInt16
	}
	if v < math.MinInt16 {
		v = math.MinInt16
	}
	msg[1] = byte(uint16(int16(v)) >> 8)
	msg[2] = byte(uint16(int16(v)) & 0xFF)

	msg[3] = 0x7F
	msg[4] = 0xFF

	return Frame(msg)
}

// ParseICAOHex parses a 6-hex-digit ICAO address, with or without an 0x
// prefix.
func ParseICAOHex(s string) ([3]byte, error) {
	var out [3]byte
	s = strings.TrimSpace(strings.TrimPrefix(strings.ToLower(s), "0x"))
	if len(s) != 6 {
		return out, fmt.Errorf("icao must be 6 hex chars")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func encodeLatLon24(deg float64) [3]byte {
	v := deg / latLonResolution
	// Truncate toward zero.
	wk := int32(v)
	u := uint32(wk) & 0x00FFFFFF
	return [3]byte{byte((u >> 16) & 0xFF), byte((u >> 8) & 0xFF), byte(u & 0xFF)}
}

// encodeAltitude12 encodes pressure-style altitude at 25 ft resolution with
// a +1000 ft offset: -1000..101350 maps to 0x000..0xFFE, out of range to
// 0xFFF (unavailable).
func encodeAltitude12(altFeet int) uint16 {
	if altFeet < -1000 || altFeet > 101350 {
		return 0x0FFF
	}
	v := (altFeet + 1000) / 25
	return uint16(v) & 0x0FFF
}

func encodeU12(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > 0xFFE {
		return 0xFFE
	}
	return uint16(v)
}

func encodeTrack8(deg float64) byte {
	if deg < 0 {
		deg = math.Mod(deg, 360) + 360
	}
	deg = math.Mod(deg, 360)
	return byte(math.Floor((deg + trackResolution/2) / trackResolution))
}

func sanitizeCallsign(s string) string {
	s = strings.ToUpper(s)
	if len(s) > 8 {
		s = s[:8]
	}
	b := []byte(s)
	for i := range b {
		c := b[i]
		ok := (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || c == ' '
		if !ok {
			b[i] = ' '
		}
	}
	for len(b) < 8 {
		b = append(b, ' ')
	}
	return string(b)
}
