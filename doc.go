// Package tinygps decodes NMEA 0183 and u-blox PUBX sentences one byte at a
// time and keeps the most recently validated position, altitude, velocity,
// time, date and satellite data.
//
// The decoder is built for receive loops on small devices: Encode consumes a
// single byte, allocates nothing, and touches a fixed amount of state. Feed it
// everything that arrives on the wire, including line noise; it resynchronizes
// on '$' and discards sentences whose checksum does not match.
//
// Values are integer fixed point. Angles are millionths of a degree, speed and
// course are hundredths of a unit, altitude is centimeters, and time/date keep
// the packed hhmmsscc/ddmmyy encoding from the wire. Convenience accessors
// convert to float64. Fields that have never been validated report sentinel
// values such as InvalidAngle and InvalidAge.
package tinygps
