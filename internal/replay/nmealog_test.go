package replay

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

const (
	rmcLine = "$GPRMC,045103.000,A,3014.1984,N,09749.2872,W,0.67,161.46,030913,,,A*7C"
	ggaLine = "$GPGGA,045104.000,3014.1985,N,09749.2873,W,1,09,1.0,206.9,M,-26.3,M,,0000*6B"
	gsvLine = "$GPGSV,3,1,11,03,03,111,00,04,15,270,00,06,01,010,00,13,06,292,00*74"
)

type fakeSleeper struct {
	slept []time.Duration
}

func (fs *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	fs.slept = append(fs.slept, d)
	return nil
}

func TestReaderReadAll(t *testing.T) {
	in := strings.NewReader("# comment\n\n" + rmcLine + "\n" + gsvLine + "\n" + ggaLine + "\n")

	recs, err := NewReader(in).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}

	if string(recs[0].Line) != rmcLine+"\r\n" {
		t.Fatalf("unexpected line 0: %q", recs[0].Line)
	}
	if !recs[0].HasTime || recs[0].At != 4*time.Hour+51*time.Minute+3*time.Second {
		t.Fatalf("record 0 time = (%s, %v)", recs[0].At, recs[0].HasTime)
	}
	if recs[1].HasTime {
		t.Fatalf("GSV should not carry a clock, got At=%s", recs[1].At)
	}
	if !recs[2].HasTime || recs[2].At != 4*time.Hour+51*time.Minute+4*time.Second {
		t.Fatalf("record 2 time = (%s, %v)", recs[2].At, recs[2].HasTime)
	}
}

func TestReaderReadAll_KeepsJunkLines(t *testing.T) {
	in := strings.NewReader("garbage without a dollar\n" + rmcLine + "\n")

	recs, err := NewReader(in).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].HasTime {
		t.Fatalf("junk line should not carry a clock")
	}
}

func TestExtractTime(t *testing.T) {
	cases := []struct {
		line    string
		want    time.Duration
		hasTime bool
	}{
		{rmcLine, 4*time.Hour + 51*time.Minute + 3*time.Second, true},
		{ggaLine, 4*time.Hour + 51*time.Minute + 4*time.Second, true},
		{"$GNGNS,191500.00,,,,,NN,00,99.99,,,,*5F", 19*time.Hour + 15*time.Minute, true},
		{"$GPZDA,160012.71,11,03,2004,-1,00*7D", 16*time.Hour + 12*time.Second + 710*time.Millisecond, true},
		{"$PUBX,00,081350.00,4717.113210,N,00833.915187,E,546.589,G3,2.1,2.0,0.007,77.52,0.007,,0.92,1.19,0.77,9,0,0*5F",
			8*time.Hour + 13*time.Minute + 50*time.Second, true},
		{"$PUBX,04,073731.00,091202,113851.00,1196,15D,1930035,-2660.664,43*71",
			7*time.Hour + 37*time.Minute + 31*time.Second, true},
		{"$PUBX,03,0*2C", 0, false},
		{gsvLine, 0, false},
		{"$GPRMC,,V,,,,,,,,,,N*53", 0, false},
		{"$GPRMC*4B", 0, false},
		{"no dollar", 0, false},
	}
	for _, tc := range cases {
		got, hasTime := extractTime(tc.line)
		if got != tc.want || hasTime != tc.hasTime {
			t.Errorf("extractTime(%q) = (%s, %v), want (%s, %v)", tc.line, got, hasTime, tc.want, tc.hasTime)
		}
	}
}

func TestPlay_PacesOnReceiverClock(t *testing.T) {
	fs := &fakeSleeper{}
	recs := []Record{
		{Line: []byte("a\r\n"), At: 10 * time.Second, HasTime: true},
		{Line: []byte("b\r\n")},
		{Line: []byte("c\r\n")},
		{Line: []byte("d\r\n"), At: 11 * time.Second, HasTime: true},
		{Line: []byte("e\r\n"), At: 12*time.Second + 500*time.Millisecond, HasTime: true},
	}

	var lines []string
	err := Play(context.Background(), recs, Options{Sleeper: fs}, func(line []byte) error {
		lines = append(lines, string(line))
		return nil
	})
	if err != nil {
		t.Fatalf("Play() error: %v", err)
	}

	want := []string{"a\r\n", "b\r\n", "c\r\n", "d\r\n", "e\r\n"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	if !reflect.DeepEqual(fs.slept, []time.Duration{1 * time.Second, 1500 * time.Millisecond}) {
		t.Fatalf("slept = %v, want [1s 1.5s]", fs.slept)
	}
}

func TestPlay_SpeedMultiplier(t *testing.T) {
	fs := &fakeSleeper{}
	recs := []Record{
		{Line: []byte("a\r\n"), At: 0, HasTime: true},
		{Line: []byte("b\r\n"), At: 1 * time.Second, HasTime: true},
	}

	err := Play(context.Background(), recs, Options{Speed: 2, Sleeper: fs}, func([]byte) error { return nil })
	if err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if !reflect.DeepEqual(fs.slept, []time.Duration{500 * time.Millisecond}) {
		t.Fatalf("slept = %v, want [500ms]", fs.slept)
	}
}

func TestPlay_ClampsGapsAndWraps(t *testing.T) {
	fs := &fakeSleeper{}
	recs := []Record{
		{Line: []byte("a\r\n"), At: 10 * time.Second, HasTime: true},
		{Line: []byte("b\r\n"), At: 23 * time.Hour, HasTime: true},
		{Line: []byte("c\r\n"), At: 1 * time.Second, HasTime: true},
	}

	err := Play(context.Background(), recs, Options{Sleeper: fs}, func([]byte) error { return nil })
	if err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if !reflect.DeepEqual(fs.slept, []time.Duration{maxWait}) {
		t.Fatalf("slept = %v, want [%s]", fs.slept, maxWait)
	}
}

func TestPlay_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	recs := []Record{{Line: []byte("a\r\n"), At: 0, HasTime: true}}
	err := Play(ctx, recs, Options{Sleeper: &fakeSleeper{}}, func([]byte) error {
		calls++
		return nil
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 0 {
		t.Fatalf("callback ran %d times after cancel", calls)
	}
}

func TestPlay_CallbackError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	recs := []Record{
		{Line: []byte("a\r\n")},
		{Line: []byte("b\r\n")},
		{Line: []byte("c\r\n")},
	}
	err := Play(context.Background(), recs, Options{Sleeper: &fakeSleeper{}}, func([]byte) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Play() error = %v, want %v", err, boom)
	}
	if calls != 2 {
		t.Fatalf("callback ran %d times, want 2", calls)
	}
}

func TestPlay_NoRecords(t *testing.T) {
	if err := Play(context.Background(), nil, Options{}, func([]byte) error { return nil }); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCapture_RoundTrip(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "capture.nmea")

	c, err := CreateCapture(path, "/dev/ttyACM0")
	if err != nil {
		t.Fatalf("CreateCapture() error: %v", err)
	}
	if _, err := c.Write([]byte(rmcLine + "\r\n" + ggaLine + "\r\n")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if _, err := c.Write([]byte("x")); err == nil {
		t.Fatalf("expected error writing to closed capture")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("os.ReadFile() error: %v", err)
	}
	if !strings.HasPrefix(string(b), "# tinygpsd capture /dev/ttyACM0 ") {
		t.Fatalf("missing capture header: %q", string(b)[:40])
	}

	recs, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if string(recs[0].Line) != rmcLine+"\r\n" || string(recs[1].Line) != ggaLine+"\r\n" {
		t.Fatalf("unexpected lines: %q / %q", recs[0].Line, recs[1].Line)
	}
}
