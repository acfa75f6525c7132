package gps

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmclachlan/TinyGPS/internal/replay"
)

const (
	svcTestRMC = "$GPRMC,045103.000,A,3014.1984,N,09749.2872,W,0.67,161.46,030913,,,A*7C\r\n"
	svcTestGGA = "$GPGGA,045104.000,3014.1985,N,09749.2873,W,1,09,1.0,206.9,M,-26.3,M,,0000*6B\r\n"
)

// waitForAltitude drains fixes until one carries an altitude, meaning the
// GGA sentence made it through the decoder.
func waitForAltitude(t *testing.T, fixes <-chan Snapshot) Snapshot {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case snap := <-fixes:
			if snap.AltitudeM != nil {
				return snap
			}
		case <-deadline:
			t.Fatal("no fix with altitude before deadline")
		}
	}
}

func TestServiceTCP_StreamsIntoSnapshots(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte(svcTestRMC + svcTestGGA))
		// Hold the connection open so the service stays on this stream
		// instead of entering its reconnect loop.
		_, _ = io.Copy(io.Discard, conn)
	}()

	fixes := make(chan Snapshot, 16)
	svc := New(Config{Source: "tcp", TCPAddr: ln.Addr().String()}, nil, func(s Snapshot) { fixes <- s })
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer svc.Close()

	snap := waitForAltitude(t, fixes)
	if !snap.Valid {
		t.Fatal("snapshot not valid after RMC+GGA")
	}
	if snap.LatDeg == nil || *snap.LatDeg != 30.236642 {
		t.Fatalf("lat=%v want 30.236642", snap.LatDeg)
	}
	if snap.LonDeg == nil || *snap.LonDeg != -97.821455 {
		t.Fatalf("lon=%v want -97.821455", snap.LonDeg)
	}
	if *snap.AltitudeM != 206.9 {
		t.Fatalf("altitude=%v want 206.9", *snap.AltitudeM)
	}
	if snap.Satellites == nil || *snap.Satellites != 9 {
		t.Fatalf("satellites=%v want 9", snap.Satellites)
	}
	if snap.HDOP == nil || *snap.HDOP != 1.0 {
		t.Fatalf("hdop=%v want 1.0", snap.HDOP)
	}
	if snap.GoodSentences != 2 {
		t.Fatalf("good sentences=%d want 2", snap.GoodSentences)
	}
	if snap.Source != "tcp" {
		t.Fatalf("source=%q want tcp", snap.Source)
	}
	if snap.Device != ln.Addr().String() {
		t.Fatalf("device=%q want %q", snap.Device, ln.Addr().String())
	}
}

func TestServiceReplay_PlaysFileThroughDecoder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.nmea")
	content := "# test capture\n" + svcTestRMC + svcTestGGA
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write capture: %v", err)
	}

	fixes := make(chan Snapshot, 16)
	svc := New(Config{Source: "replay", ReplayPath: path, ReplaySpeed: 50}, nil, func(s Snapshot) { fixes <- s })
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer svc.Close()

	snap := waitForAltitude(t, fixes)
	if snap.GoodSentences != 2 {
		t.Fatalf("good sentences=%d want 2", snap.GoodSentences)
	}
	if *snap.AltitudeM != 206.9 {
		t.Fatalf("altitude=%v want 206.9", *snap.AltitudeM)
	}
	if snap.Device != path {
		t.Fatalf("device=%q want %q", snap.Device, path)
	}
}

func TestServiceRecord_CapturesRawStream(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte(svcTestRMC + svcTestGGA))
		_, _ = io.Copy(io.Discard, conn)
	}()

	recPath := filepath.Join(t.TempDir(), "rec.nmea")
	fixes := make(chan Snapshot, 16)
	svc := New(Config{Source: "tcp", TCPAddr: ln.Addr().String(), RecordPath: recPath},
		nil, func(s Snapshot) { fixes <- s })
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForAltitude(t, fixes)
	svc.Close()

	data, err := os.ReadFile(recPath)
	if err != nil {
		t.Fatalf("read capture: %v", err)
	}
	if !strings.HasPrefix(string(data), "# tinygpsd capture") {
		t.Fatalf("capture missing header: %q", data)
	}
	if !strings.Contains(string(data), "$GPRMC,045103.000") {
		t.Fatalf("capture missing raw sentence: %q", data)
	}

	// The capture must be replayable as-is.
	recs, err := replay.ReadFile(recPath)
	if err != nil {
		t.Fatalf("replay read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("replayable sentences=%d want 2", len(recs))
	}
}

func TestServiceClose_InterruptsBlockedRead(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	svc := New(Config{Source: "tcp", TCPAddr: ln.Addr().String()}, nil, nil)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	var conn net.Conn
	select {
	case conn = <-accepted:
	case <-time.After(5 * time.Second):
		t.Fatal("service never connected")
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		svc.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not interrupt the blocked read")
	}
}

func TestServiceStart_UnknownSource(t *testing.T) {
	svc := New(Config{Source: "carrier-pigeon"}, nil, nil)
	if err := svc.Start(context.Background()); err == nil {
		t.Fatal("expected an error for an unknown source")
	}
}

func TestServiceStart_ReplayMissingFile(t *testing.T) {
	svc := New(Config{Source: "replay", ReplayPath: filepath.Join(t.TempDir(), "nope.nmea")}, nil, nil)
	if err := svc.Start(context.Background()); err == nil {
		t.Fatal("expected an error for a missing replay file")
	}
}

func TestServiceStart_SecondCallIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.nmea")
	if err := os.WriteFile(path, []byte(svcTestRMC), 0o644); err != nil {
		t.Fatalf("write capture: %v", err)
	}
	svc := New(Config{Source: "replay", ReplayPath: path}, nil, nil)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer svc.Close()
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("second start: %v", err)
	}
}

func TestServiceSnapshot_BeforeStart(t *testing.T) {
	svc := New(Config{Device: "/dev/ttyACM0", Baud: 9600}, nil, nil)
	snap := svc.Snapshot()
	if snap.Source != "serial" {
		t.Fatalf("source=%q want serial", snap.Source)
	}
	if snap.Device != "/dev/ttyACM0" {
		t.Fatalf("device=%q want /dev/ttyACM0", snap.Device)
	}
	if snap.Valid {
		t.Fatal("fresh snapshot claims a valid fix")
	}
}

func TestServiceNilSafety(t *testing.T) {
	var svc *Service
	if snap := svc.Snapshot(); snap.Valid {
		t.Fatal("nil service snapshot claims validity")
	}
	svc.Close()
	if err := svc.Start(context.Background()); err == nil {
		t.Fatal("nil service Start succeeded")
	}
}
