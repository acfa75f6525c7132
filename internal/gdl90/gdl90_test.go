package gdl90

import (
	"bytes"
	"testing"
)

func TestFrame_StartEndFlags(t *testing.T) {
	got := Frame([]byte{0x00, 0x01})
	if len(got) < 2 {
		t.Fatalf("frame too short: %d", len(got))
	}
	if got[0] != flagByte {
		t.Fatalf("missing start flag: 0x%02x", got[0])
	}
	if got[len(got)-1] != flagByte {
		t.Fatalf("missing end flag: 0x%02x", got[len(got)-1])
	}
}

func TestFrame_EscapesControlBytes(t *testing.T) {
	// Force both bytes that must be escaped.
	got := Frame([]byte{0x00, flagByte, escapeByte})
	for i := 1; i < len(got)-1; i++ {
		if got[i] == flagByte {
			t.Fatalf("unescaped flag byte found at %d", i)
		}
	}
}

func TestFrameUnframe_RoundTrip(t *testing.T) {
	msgs := [][]byte{
		{0x0A, 0x00, 0x01},
		{0x00, flagByte, escapeByte, 0xFF, 0x00},
		{0x65, 0x7D, 0x7E, 0x7D, 0x7E},
	}
	for _, msg := range msgs {
		got, crcOK, err := Unframe(Frame(msg))
		if err != nil {
			t.Fatalf("Unframe(Frame(% X)) error: %v", msg, err)
		}
		if !crcOK {
			t.Fatalf("CRC mismatch for % X", msg)
		}
		if !bytes.Equal(got, msg) {
			t.Fatalf("round trip % X != % X", got, msg)
		}
	}
}

func TestUnframe_DetectsCorruption(t *testing.T) {
	framed := Frame([]byte{0x0A, 0x12, 0x34})
	// Flip a payload byte that is not a flag or escape.
	framed[2] ^= 0x01
	_, crcOK, err := Unframe(framed)
	if err != nil {
		t.Fatalf("Unframe() error: %v", err)
	}
	if crcOK {
		t.Fatalf("expected CRC mismatch")
	}
}

func TestUnframe_MalformedFrames(t *testing.T) {
	cases := [][]byte{
		nil,
		{flagByte},
		{flagByte, flagByte},
		{0x00, 0x01, 0x02, 0x03},                       // no flags
		{flagByte, 0x00, 0x01, 0x02, escapeByte, flagByte}, // escape runs into end flag
	}
	for _, frame := range cases {
		if _, _, err := Unframe(frame); err == nil {
			t.Fatalf("expected error for % X", frame)
		}
	}
}
