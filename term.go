package tinygps

// termComplete runs when a term terminator arrives. For the checksum term it
// verifies parity and promotes the staged values; for every other term it
// routes the text to the field it represents. Returns true only when a
// checksum term validated a sentence whose data was marked good.
func (p *Parser) termComplete() bool {
	if p.isChecksumTerm {
		checksum := byte(16*fromHex(p.term[0]) + fromHex(p.term[1]))
		if checksum != p.parity {
			p.failedChecksum++
			return false
		}

		// Time and date from the clock-bearing sentences are trusted even
		// without a position fix, so a receiver that is still searching
		// for satellites can already serve the time of day.
		if p.sentence == sentenceRMC || (p.sentence == sentencePUBX && p.pubxMsg == 4) {
			p.time = p.newTime
			p.date = p.newDate
			p.lastTimeFix = p.newTimeFix
		}
		if p.sentence == sentenceZDA {
			p.time = p.newTime
			p.lastTimeFix = p.newTimeFix
			p.day = p.newDay
			p.month = p.newMonth
			p.year = p.newYear
			p.lastDateFix = p.newDateFix
		}

		if !p.dataGood {
			return false
		}

		p.goodSentences++
		p.lastTimeFix = p.newTimeFix
		p.lastPositionFix = p.newPositionFix

		switch p.sentence {
		case sentenceRMC:
			p.time = p.newTime
			p.date = p.newDate
			p.latitude = p.newLatitude
			p.longitude = p.newLongitude
			p.speed = p.newSpeed
			p.course = p.newCourse
		case sentenceGGA:
			p.time = p.newTime
			p.latitude = p.newLatitude
			p.longitude = p.newLongitude
			p.altitude = p.newAltitude
			p.numSats = p.newNumSats
			p.hdop = p.newHDOP
		case sentencePUBX:
			if p.pubxMsg == 0 {
				p.time = p.newTime
				p.latitude = p.newLatitude
				p.longitude = p.newLongitude
				p.altitude = p.newAltitude
				p.speed = p.newSpeed
				p.course = p.newCourse
				p.numSats = p.newNumSats
				p.hdop = p.newHDOP
			}
		}
		return true
	}

	// The sentence tag picks the field map for the rest of the sentence.
	if p.termNumber == 0 {
		p.sentence = lookupSentence(p.term[:p.termOffset])
		return false
	}

	// PUBX multiplexes several layouts; term 1 selects one.
	if p.sentence == sentencePUBX && p.termNumber == 1 {
		p.pubxMsg = uint32(atol(p.term[:p.termOffset]))
		return false
	}

	if p.sentence != sentenceOther && p.term[0] != 0 {
		p.stageTerm(p.term[:p.termOffset])
	}
	return false
}

func lookupSentence(tag []byte) sentenceType {
	switch string(tag) {
	case "GPRMC", "GNRMC":
		return sentenceRMC
	case "GPGGA":
		return sentenceGGA
	case "GNGNS":
		return sentenceGNS
	case "GNGSA", "GPGSA":
		return sentenceGSA
	case "GPGSV":
		return sentenceGSVGPS
	case "GLGSV":
		return sentenceGSVGlonass
	case "GPZDA":
		return sentenceZDA
	case "PUBX":
		return sentencePUBX
	}
	return sentenceOther
}

// stageTerm stores one non-empty data term into the staging area. Field
// numbers follow NMEA 0183 and the u-blox receiver description; term 0 is the
// sentence tag.
func (p *Parser) stageTerm(term []byte) {
	switch p.sentence {
	// RMC: Recommended Minimum Specific GNSS Data
	//
	//	1: time (hhmmss.ss)
	//	2: status (A=active, V=void)
	//	3: latitude (ddmm.mmmm)     4: N/S
	//	5: longitude (dddmm.mmmm)   6: E/W
	//	7: speed over ground (knots)
	//	8: course over ground (deg)
	//	9: date (ddmmyy)
	case sentenceRMC:
		switch p.termNumber {
		case 1:
			p.stageTime(term)
		case 2:
			p.dataGood = term[0] == 'A'
		case 3:
			p.stageLatitude(term)
		case 4:
			if term[0] == 'S' {
				p.newLatitude = -p.newLatitude
			}
		case 5:
			p.stageLongitude(term)
		case 6:
			if term[0] == 'W' {
				p.newLongitude = -p.newLongitude
			}
		case 7:
			p.newSpeed = uint32(parseDecimal(term))
		case 8:
			p.newCourse = uint32(parseDecimal(term))
		case 9:
			p.newDate = uint32(atol(term))
		}

	// GGA: GPS Fix Data
	//
	//	1: time
	//	2: latitude                 3: N/S
	//	4: longitude                5: E/W
	//	6: fix quality (0=invalid)
	//	7: satellites in use
	//	8: HDOP
	//	9: altitude (meters)
	case sentenceGGA:
		switch p.termNumber {
		case 1:
			p.stageTime(term)
		case 2:
			p.stageLatitude(term)
		case 3:
			if term[0] == 'S' {
				p.newLatitude = -p.newLatitude
			}
		case 4:
			p.stageLongitude(term)
		case 5:
			if term[0] == 'W' {
				p.newLongitude = -p.newLongitude
			}
		case 6:
			p.dataGood = term[0] > '0'
		case 7:
			p.newNumSats = uint16(uint8(atol(term)))
		case 8:
			p.newHDOP = uint32(parseDecimal(term))
		case 9:
			p.newAltitude = parseDecimal(term)
		}

	// GNS: GNSS Fix Data. Stages position and time but never marks the
	// data good; its mode field is not a fix-validity signal we act on.
	//
	//	1: time
	//	2: latitude                 3: N/S
	//	4: longitude                5: E/W
	//	6: mode, one letter per constellation
	//	7: satellites in use
	case sentenceGNS:
		switch p.termNumber {
		case 1:
			p.stageTime(term)
		case 2:
			p.stageLatitude(term)
		case 3:
			if term[0] == 'S' {
				p.newLatitude = -p.newLatitude
			}
		case 4:
			p.stageLongitude(term)
		case 5:
			if term[0] == 'W' {
				p.newLongitude = -p.newLongitude
			}
		case 6:
			for i := range p.constellations {
				p.constellations[i] = 0
			}
			copy(p.constellations[:len(p.constellations)-1], term)
		case 7:
			p.newNumSats = uint16(uint8(atol(term)))
		}

	// ZDA: Time and Date
	//
	//	1: time
	//	2: day                      3: month
	//	4: year (four digits)
	case sentenceZDA:
		switch p.termNumber {
		case 1:
			p.stageTime(term)
		case 2:
			p.newDay = uint32(atol(term))
			p.newDateFix = p.millis()
		case 3:
			p.newMonth = uint32(atol(term))
			p.newDateFix = p.millis()
		case 4:
			p.newYear = uint32(atol(term))
			p.newDateFix = p.millis()
		}

	case sentencePUBX:
		p.stagePUBXTerm(term)

	case sentenceGSVGPS, sentenceGSVGlonass:
		p.stageGSVTerm(term)
	}
}

// stagePUBXTerm handles the u-blox proprietary sentences.
//
// PUBX,00 (position):
//
//	2: time
//	3: latitude                 4: N/S
//	5: longitude                6: E/W
//	7: altitude (meters)
//	8: navigation status (two letters)
//	11: speed over ground (knots)
//	12: course over ground (deg)
//	15: HDOP
//	18: satellites in use
//
// PUBX,04 (time of day):
//
//	2: time
//	3: date (ddmmyy)
func (p *Parser) stagePUBXTerm(term []byte) {
	switch p.pubxMsg {
	case 0:
		switch p.termNumber {
		case 2:
			p.stageTime(term)
		case 3:
			p.stageLatitude(term)
		case 4:
			if term[0] == 'S' {
				p.newLatitude = -p.newLatitude
			}
		case 5:
			p.stageLongitude(term)
		case 6:
			if term[0] == 'W' {
				p.newLongitude = -p.newLongitude
			}
		case 7:
			p.newAltitude = parseDecimal(term)
		case 8:
			// G2/G3 are standalone fixes, D2/D3 differential. DR is dead
			// reckoning and everything else means no usable fix.
			p.dataGood = term[0] == 'G' || (term[0] == 'D' && (len(term) < 2 || term[1] != 'R'))
		case 11:
			p.newSpeed = uint32(parseDecimal(term))
		case 12:
			p.newCourse = uint32(parseDecimal(term))
		case 15:
			p.newHDOP = uint32(parseDecimal(term))
		case 18:
			p.newNumSats = uint16(uint8(atol(term)))
		}
	case 4:
		switch p.termNumber {
		case 2:
			p.stageTime(term)
		case 3:
			p.newDate = uint32(atol(term))
		}
	}
}

// stageGSVTerm maintains the tracked-satellite table. GPGSV reports write
// slots 0-11, GLGSV reports write slots 12-23. A report spans several
// sentences; term 2 is the 1-based sentence index, and the first sentence of
// a report clears that constellation's half of the table.
//
//	4, 8, 12, 16: satellite PRN
//	7, 11, 15, 19: signal strength (dB), 0 or empty when not received
func (p *Parser) stageGSVTerm(term []byte) {
	switch p.termNumber {
	case 2:
		msg := uint8(atol(term) - 1)
		if msg == 0 {
			if p.sentence == sentenceGSVGPS {
				for i := 0; i < glonassSlotBase; i++ {
					p.satTable[i] = 0
				}
			} else {
				for i := glonassSlotBase; i < len(p.satTable); i++ {
					p.satTable[i] = 0
				}
			}
		}
		p.satSlot = msg * 4
		if p.sentence == sentenceGSVGlonass {
			p.satSlot += glonassSlotBase
		}
	case 4, 8, 12, 16:
		p.satPRN = atol(term)
	case 7, 11, 15, 19:
		slot := int(p.satSlot) + (int(p.termNumber)-7)/4
		if slot >= len(p.satTable) {
			return
		}
		strength := uint8(atol(term))
		if strength == 0 {
			p.satTable[slot] = 0
		} else {
			p.satTable[slot] = uint32(p.satPRN)<<8 | uint32(strength)<<1
		}
	}
}

func (p *Parser) stageTime(term []byte) {
	p.newTime = uint32(parseDecimal(term))
	p.newTimeFix = p.millis()
}

func (p *Parser) stageLatitude(term []byte) {
	p.newLatitude = parseDegrees(term)
	p.newPositionFix = p.millis()
}

func (p *Parser) stageLongitude(term []byte) {
	p.newLongitude = parseDegrees(term)
}
