package gdl90

import "strings"

// ForeFlightIDFrame builds and frames a ForeFlight "ID" message (0x65,
// subtype 0), which names the device in the EFB's source list.
func ForeFlightIDFrame(shortName string, longName string) []byte {
	msg := make([]byte, 39)
	msg[0] = 0x65
	msg[1] = 0x00 // ID message identifier.
	msg[2] = 0x01 // Message version.

	// Serial number unavailable.
	for i := 3; i <= 10; i++ {
		msg[i] = 0xFF
	}

	shortName = strings.TrimSpace(shortName)
	if shortName == "" {
		shortName = "tinygps"
	}
	if len(shortName) > 8 {
		shortName = shortName[:8]
	}
	copy(msg[11:], []byte(shortName))

	longName = strings.TrimSpace(longName)
	if longName == "" {
		longName = "tinygpsd"
	}
	if len(longName) > 16 {
		longName = longName[:16]
	}
	copy(msg[19:], []byte(longName))

	// Capabilities mask: geometric altitude reports carry MSL, which is what
	// the GGA altitude field holds.
	msg[38] = 0x01

	return Frame(msg)
}
