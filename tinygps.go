package tinygps

import "time"

// Sentinel values reported by accessors for fields that no validated sentence
// has filled in yet. The integer encodings match the fixed-point units of the
// field they stand in for.
const (
	InvalidAge        = 0xFFFFFFFF
	InvalidAngle      = 999999999
	InvalidAltitude   = 999999999
	InvalidDate       = 0
	InvalidTime       = 0xFFFFFFFF
	InvalidSpeed      = 999999999
	InvalidFixTime    = 0xFFFFFFFF
	InvalidSatellites = 0xFF
	InvalidHDOP       = 0xFFFFFFFF
)

// Float sentinels returned by the float64 convenience accessors.
const (
	InvalidFAngle    = 1000.0
	InvalidFAltitude = 1000000.0
	InvalidFSpeed    = -1.0
)

// Unit conversions for SpeedMPH, SpeedMPS and SpeedKMPH.
const (
	mphPerKnot  = 1.15077945
	mpsPerKnot  = 0.51444444
	kmphPerKnot = 1.852
)

type sentenceType uint8

const (
	sentenceOther sentenceType = iota
	sentenceGGA
	sentenceRMC
	sentenceGNS
	sentenceGSA
	sentenceGSVGPS
	sentenceGSVGlonass
	sentenceZDA
	sentencePUBX
)

// TrackedSatelliteSlots is the size of the satellite signal table. Slots 0-11
// hold GPS and WAAS satellites, slots 12-23 hold GLONASS.
const TrackedSatelliteSlots = 24

// glonassSlotBase is the first table slot used for GLGSV reports.
const glonassSlotBase = 12

// Parser is an incremental NMEA/PUBX decoder. Feed it received bytes with
// Encode and read the accumulated state through the accessor methods.
//
// A Parser is not safe for concurrent use. The usual arrangement is a single
// goroutine that owns the Parser, calls Encode for every byte read from the
// receiver, and publishes a snapshot of the accessors whenever Encode reports
// a completed fix.
type Parser struct {
	millis func() uint32

	// Committed state, only ever updated by a sentence that passed its
	// checksum.
	time      uint32
	date      uint32
	latitude  int32
	longitude int32
	altitude  int32
	speed     uint32
	course    uint32
	hdop      uint32
	numSats   uint16

	year  uint32
	month uint32
	day   uint32

	lastTimeFix     uint32
	lastPositionFix uint32
	lastDateFix     uint32

	// Staged values from the sentence currently being decoded. Promoted to
	// the committed state when the checksum term validates.
	newTime      uint32
	newDate      uint32
	newLatitude  int32
	newLongitude int32
	newAltitude  int32
	newSpeed     uint32
	newCourse    uint32
	newHDOP      uint32
	newNumSats   uint16
	newYear      uint32
	newMonth     uint32
	newDay       uint32

	newTimeFix     uint32
	newPositionFix uint32
	newDateFix     uint32

	// Decode cursor.
	term           [15]byte
	termOffset     uint8
	termNumber     uint8
	parity         byte
	isChecksumTerm bool
	sentence       sentenceType
	pubxMsg        uint32
	dataGood       bool

	// Satellite signal table, written as GSV terms arrive.
	constellations [6]byte
	satTable       [TrackedSatelliteSlots]uint32
	satPRN         int32
	satSlot        uint8

	encodedChars   uint32
	goodSentences  uint16
	failedChecksum uint16
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock replaces the millisecond clock used to stamp fixes and compute
// ages. The clock must be monotonic; wrapping at 2^32 is fine.
func WithClock(millis func() uint32) Option {
	return func(p *Parser) { p.millis = millis }
}

// New returns a Parser with every field set to its sentinel. The default
// clock counts milliseconds from the call to New.
func New(opts ...Option) *Parser {
	p := &Parser{
		millis:          sinceStartMillis(),
		time:            InvalidTime,
		date:            InvalidDate,
		latitude:        InvalidAngle,
		longitude:       InvalidAngle,
		altitude:        InvalidAltitude,
		speed:           InvalidSpeed,
		course:          InvalidAngle,
		hdop:            InvalidHDOP,
		numSats:         InvalidSatellites,
		lastTimeFix:     InvalidFixTime,
		lastPositionFix: InvalidFixTime,
		lastDateFix:     InvalidFixTime,
		sentence:        sentenceOther,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func sinceStartMillis() func() uint32 {
	start := time.Now()
	return func() uint32 {
		return uint32(time.Since(start) / time.Millisecond)
	}
}

// Encode consumes one received byte. It returns true when the byte completed
// a sentence that passed its checksum and carried a usable fix, meaning the
// committed state just changed and a snapshot is worth taking.
//
// Bytes that are part of a sentence with a bad checksum leave the committed
// state untouched.
func (p *Parser) Encode(c byte) bool {
	p.encodedChars++

	switch c {
	case ',':
		p.parity ^= c
		fallthrough
	case '\r', '\n', '*':
		p.term[p.termOffset] = 0
		valid := p.termComplete()
		p.termNumber++
		p.termOffset = 0
		p.isChecksumTerm = c == '*'
		return valid

	case '$':
		// Start of a new sentence, mid-sentence or not.
		p.termNumber = 0
		p.termOffset = 0
		p.parity = 0
		p.sentence = sentenceOther
		p.isChecksumTerm = false
		p.dataGood = false
		return false
	}

	// Ordinary byte. Terms longer than the buffer lose their tail for
	// decoding purposes but every byte still feeds the checksum.
	if p.termOffset < uint8(len(p.term))-1 {
		p.term[p.termOffset] = c
		p.termOffset++
	}
	if !p.isChecksumTerm {
		p.parity ^= c
	}
	return false
}

// EncodeBytes feeds every byte of b through Encode and reports whether any of
// them completed a usable fix.
func (p *Parser) EncodeBytes(b []byte) bool {
	fix := false
	for _, c := range b {
		if p.Encode(c) {
			fix = true
		}
	}
	return fix
}

// Stats are counters accumulated since New. They are the first thing to look
// at when a receiver seems silent: Chars rules out wiring problems and
// FailedChecksum rules out baud-rate mismatch.
type Stats struct {
	// Chars counts every byte handed to Encode.
	Chars uint32
	// GoodSentences counts sentences that passed their checksum and
	// committed a fix.
	GoodSentences uint16
	// FailedChecksum counts sentences rejected by the checksum test.
	FailedChecksum uint16
}

// Stats returns the counters accumulated so far.
func (p *Parser) Stats() Stats {
	return Stats{
		Chars:          p.encodedChars,
		GoodSentences:  p.goodSentences,
		FailedChecksum: p.failedChecksum,
	}
}
