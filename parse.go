package tinygps

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// atol accumulates the leading run of decimal digits and stops at the first
// byte that is not a digit. There is no sign or overflow handling; NMEA
// numeric fields are short and unsigned.
func atol(term []byte) int32 {
	var v int32
	for _, c := range term {
		if !isDigit(c) {
			break
		}
		v = 10*v + int32(c-'0')
	}
	return v
}

// parseDecimal reads an optionally signed decimal number into hundredths.
// Only the first two fractional digits contribute; "47.315" becomes 4731.
func parseDecimal(term []byte) int32 {
	neg := len(term) > 0 && term[0] == '-'
	if neg {
		term = term[1:]
	}
	v := 100 * atol(term)
	i := 0
	for i < len(term) && isDigit(term[i]) {
		i++
	}
	if i < len(term) && term[i] == '.' {
		if i+1 < len(term) && isDigit(term[i+1]) {
			v += 10 * int32(term[i+1]-'0')
			if i+2 < len(term) && isDigit(term[i+2]) {
				v += int32(term[i+2] - '0')
			}
		}
	}
	if neg {
		return -v
	}
	return v
}

// parseDegrees converts an NMEA ddmm.mmmm angle into millionths of a degree.
// The fractional minutes accumulate in hundred-thousandths of a minute, and
// the +3 bias rounds the divide by 6 to the nearest millionth of a degree.
func parseDegrees(term []byte) int32 {
	left := atol(term) // degrees*100 + whole minutes
	minutes := (left % 100) * 100000
	i := 0
	for i < len(term) && isDigit(term[i]) {
		i++
	}
	if i < len(term) && term[i] == '.' {
		mult := int32(10000)
		for i++; i < len(term) && isDigit(term[i]); i++ {
			minutes += mult * int32(term[i]-'0')
			mult /= 10
		}
	}
	return (left/100)*1000000 + (minutes+3)/6
}

// fromHex decodes one checksum digit. Bytes outside [0-9a-fA-F] produce
// garbage rather than an error; the checksum comparison rejects them.
func fromHex(c byte) int32 {
	switch {
	case c >= 'A' && c <= 'F':
		return int32(c-'A') + 10
	case c >= 'a' && c <= 'f':
		return int32(c-'a') + 10
	default:
		return int32(c) - '0'
	}
}
