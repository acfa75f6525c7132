package tinygps

// Position is the last validated fix. Lat and Lon are signed millionths of a
// degree, north and east positive. Age is milliseconds since the fix was
// decoded, or InvalidAge when no position has ever been validated.
type Position struct {
	Lat int32
	Lon int32
	Age uint32
}

// Position returns the last validated latitude and longitude.
func (p *Parser) Position() Position {
	return Position{
		Lat: p.latitude,
		Lon: p.longitude,
		Age: p.age(p.lastPositionFix),
	}
}

// DateTime is the last validated wall-clock reading in wire encoding: Date is
// packed ddmmyy and Time is packed hhmmsscc (hundredths of a second). Age is
// milliseconds since the time was decoded.
type DateTime struct {
	Date uint32
	Time uint32
	Age  uint32
}

// DateTime returns the last validated packed date and time.
func (p *Parser) DateTime() DateTime {
	return DateTime{
		Date: p.date,
		Time: p.time,
		Age:  p.age(p.lastTimeFix),
	}
}

// Calendar is a cracked date and time of day. Year carries the century.
type Calendar struct {
	Year       int
	Month      uint8
	Day        uint8
	Hour       uint8
	Minute     uint8
	Second     uint8
	Hundredths uint8
	Age        uint32
}

// Calendar returns the ZDA-sourced calendar date together with the time of
// day cracked from the packed time. Age is the age of the last ZDA date;
// receivers that never emit ZDA report InvalidAge here even with a good fix.
func (p *Parser) Calendar() Calendar {
	c := Calendar{
		Year:  int(p.year),
		Month: uint8(p.month),
		Day:   uint8(p.day),
		Age:   p.age(p.lastDateFix),
	}
	c.Hour, c.Minute, c.Second, c.Hundredths = crackTime(p.time)
	return c
}

// CrackDateTime cracks the packed ddmmyy date and hhmmsscc time into calendar
// form. Two-digit years above 80 land in the 1900s, the rest in the 2000s.
// Age is the age of the last time fix. The cracked values are garbage while
// date or time still hold their sentinels; check DateTime first.
func (p *Parser) CrackDateTime() Calendar {
	year := int(p.date % 100)
	if year > 80 {
		year += 1900
	} else {
		year += 2000
	}
	c := Calendar{
		Year:  year,
		Month: uint8((p.date / 100) % 100),
		Day:   uint8(p.date / 10000),
		Age:   p.age(p.lastTimeFix),
	}
	c.Hour, c.Minute, c.Second, c.Hundredths = crackTime(p.time)
	return c
}

func crackTime(t uint32) (hour, minute, second, hundredths uint8) {
	return uint8(t / 1000000), uint8((t / 10000) % 100), uint8((t / 100) % 100), uint8(t % 100)
}

// Altitude returns the last validated altitude in centimeters above mean sea
// level, or InvalidAltitude.
func (p *Parser) Altitude() int32 { return p.altitude }

// Speed returns the last validated ground speed in hundredths of a knot, or
// InvalidSpeed.
func (p *Parser) Speed() uint32 { return p.speed }

// Course returns the last validated course over ground in hundredths of a
// degree, or InvalidAngle.
func (p *Parser) Course() uint32 { return p.course }

// HDOP returns the last validated horizontal dilution of precision in
// hundredths, or InvalidHDOP.
func (p *Parser) HDOP() uint32 { return p.hdop }

// Satellites returns the number of satellites used in the last validated
// fix, or InvalidSatellites.
func (p *Parser) Satellites() uint16 { return p.numSats }

// Constellations returns the GNS mode letters, one per constellation in use,
// copied from the most recent GNGNS sentence as it arrived. Like the
// satellite table this is not gated by checksum validation. Empty until a
// GNGNS sentence has been seen.
func (p *Parser) Constellations() string {
	n := 0
	for n < len(p.constellations) && p.constellations[n] != 0 {
		n++
	}
	return string(p.constellations[:n])
}

// TrackedSatellites returns the satellite signal table built from GSV
// sentences. Slots 0-11 are GPS and WAAS, slots 12-23 GLONASS. Each non-zero
// entry packs the satellite PRN in bits 8 and up and the signal strength in
// dB in bits 1-7; a zero entry is an empty slot.
//
// The table reflects the most recent GSV sentences as they arrive and is not
// gated by the fix-validity rules that protect the position accessors.
func (p *Parser) TrackedSatellites() [TrackedSatelliteSlots]uint32 {
	return p.satTable
}

// PositionDegrees returns the last validated fix in signed decimal degrees,
// with InvalidFAngle standing in for never-validated coordinates.
func (p *Parser) PositionDegrees() (lat, lon float64, age uint32) {
	pos := p.Position()
	lat, lon = InvalidFAngle, InvalidFAngle
	if pos.Lat != InvalidAngle {
		lat = float64(pos.Lat) / 1000000.0
	}
	if pos.Lon != InvalidAngle {
		lon = float64(pos.Lon) / 1000000.0
	}
	return lat, lon, pos.Age
}

// AltitudeMeters returns the altitude in meters, or InvalidFAltitude.
func (p *Parser) AltitudeMeters() float64 {
	if p.altitude == InvalidAltitude {
		return InvalidFAltitude
	}
	return float64(p.altitude) / 100.0
}

// CourseDegrees returns the course over ground in degrees, or InvalidFAngle.
func (p *Parser) CourseDegrees() float64 {
	if p.course == InvalidAngle {
		return InvalidFAngle
	}
	return float64(p.course) / 100.0
}

// SpeedKnots returns the ground speed in knots, or InvalidFSpeed.
func (p *Parser) SpeedKnots() float64 {
	if p.speed == InvalidSpeed {
		return InvalidFSpeed
	}
	return float64(p.speed) / 100.0
}

// SpeedMPH returns the ground speed in miles per hour, or InvalidFSpeed.
func (p *Parser) SpeedMPH() float64 {
	if p.speed == InvalidSpeed {
		return InvalidFSpeed
	}
	return mphPerKnot * float64(p.speed) / 100.0
}

// SpeedMPS returns the ground speed in meters per second, or InvalidFSpeed.
func (p *Parser) SpeedMPS() float64 {
	if p.speed == InvalidSpeed {
		return InvalidFSpeed
	}
	return mpsPerKnot * float64(p.speed) / 100.0
}

// SpeedKMPH returns the ground speed in kilometers per hour, or
// InvalidFSpeed.
func (p *Parser) SpeedKMPH() float64 {
	if p.speed == InvalidSpeed {
		return InvalidFSpeed
	}
	return kmphPerKnot * float64(p.speed) / 100.0
}

func (p *Parser) age(fix uint32) uint32 {
	if fix == InvalidFixTime {
		return InvalidAge
	}
	return p.millis() - fix
}
