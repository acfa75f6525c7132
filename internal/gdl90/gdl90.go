// Package gdl90 encodes the handful of GDL90 messages a bare position feed
// can fill: heartbeat, ownship report, ownship geometric altitude and the
// ForeFlight ID message. Framing is 0x7E flag-delimited with byte stuffing
// and a CRC-16 over the unescaped message.
package gdl90

import (
	"fmt"
	"time"
)

const (
	flagByte   = 0x7E
	escapeByte = 0x7D
	escapeXor  = 0x20
)

// Frame takes an unframed message (message ID + payload bytes), appends the
// CRC16, applies byte-stuffing, and wraps with 0x7E flags.
func Frame(message []byte) []byte {
	crc := crc16(message)

	// CRC goes on the wire low byte first.
	withCRC := make([]byte, 0, len(message)+2)
	withCRC = append(withCRC, message...)
	withCRC = append(withCRC, byte(crc&0xFF), byte((crc>>8)&0xFF))

	out := make([]byte, 0, 2+len(withCRC)*2)
	out = append(out, flagByte)
	for _, b := range withCRC {
		if b == flagByte || b == escapeByte {
			out = append(out, escapeByte, b^escapeXor)
			continue
		}
		out = append(out, b)
	}
	out = append(out, flagByte)
	return out
}

// Unframe reverses Frame(): it validates the flag framing, de-escapes the
// payload, and checks the appended CRC16.
//
// It returns the unframed message bytes (message ID + payload, without CRC),
// whether the CRC check passed, and an error for malformed frames.
func Unframe(frame []byte) (msg []byte, crcOK bool, err error) {
	if len(frame) < 4 {
		return nil, false, fmt.Errorf("frame too short: %d", len(frame))
	}
	if frame[0] != flagByte || frame[len(frame)-1] != flagByte {
		return nil, false, fmt.Errorf("missing start/end flags")
	}

	raw := make([]byte, 0, len(frame))
	for i := 1; i < len(frame)-1; i++ {
		b := frame[i]
		if b == escapeByte {
			i++
			if i >= len(frame)-1 {
				return nil, false, fmt.Errorf("truncated escape at end of frame")
			}
			raw = append(raw, frame[i]^escapeXor)
			continue
		}
		raw = append(raw, b)
	}
	if len(raw) < 3 {
		return nil, false, fmt.Errorf("unescaped payload too short: %d", len(raw))
	}

	msg = raw[:len(raw)-2]
	crcGot := uint16(raw[len(raw)-2]) | (uint16(raw[len(raw)-1]) << 8)
	return msg, crcGot == crc16(msg), nil
}

// HeartbeatFrameAt builds and frames a Heartbeat (0x00) for the given
// wall-clock instant. EFB apps drop a feed whose heartbeat goes quiet, so
// one goes out every broadcast tick whether or not there is a fix.
func HeartbeatFrameAt(now time.Time, gpsValid bool) []byte {
	msg := make([]byte, 7)
	msg[0] = 0x00

	// Status byte: UAT initialized, address talkback, and position-valid
	// when the receiver has a fix.
	flags := byte(0x01) | byte(0x10)
	if gpsValid {
		flags |= 0x80
	}
	msg[1] = flags

	nowUTC := now.UTC()
	midnightUTC := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), 0, 0, 0, 0, time.UTC)
	seconds := uint32(nowUTC.Sub(midnightUTC).Seconds())

	// Seconds since 0000Z, 17 bits: bit 16 rides in byte 2 ahead of the
	// UTC-OK bit, low 16 bits little-endian in bytes 3-4.
	msg[2] = byte(((seconds >> 16) << 7) | 0x01)
	msg[3] = byte(seconds & 0xFF)
	msg[4] = byte((seconds & 0xFFFF) >> 8)

	// Received message counts, unused here.
	msg[5] = 0x00
	msg[6] = 0x00

	return Frame(msg)
}
