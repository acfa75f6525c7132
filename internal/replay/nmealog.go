package replay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Log format: raw NMEA text, one sentence per line.
//
// - Blank lines ignored.
// - Lines starting with '#' ignored.
// - Everything else is replayed verbatim, reframed with CRLF.
//
// There are no explicit timestamps. Pacing comes from the UTC time-of-day
// field the sentences themselves carry; sentences without one replay in the
// same burst as the previous timed sentence. Junk lines are kept: the
// decoder resyncs on '$' by itself.

type Record struct {
	Line    []byte
	At      time.Duration
	HasTime bool
}

type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (rr *Reader) ReadAll() ([]Record, error) {
	s := bufio.NewScanner(rr.r)
	// Captures can be dirty; allow long junk lines without failing the scan.
	s.Buffer(make([]byte, 0, 4096), 64*1024)

	recs := make([]Record, 0, 1024)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		at, hasTime := extractTime(line)
		recs = append(recs, Record{
			Line:    append([]byte(line), '\r', '\n'),
			At:      at,
			HasTime: hasTime,
		})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	return recs, nil
}

func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewReader(f).ReadAll()
}

// extractTime pulls the UTC time-of-day out of sentences that carry one.
// RMC, GGA, GNS and ZDA keep it in field 1 for any talker; PUBX,00 and
// PUBX,04 keep it in field 2.
func extractTime(line string) (time.Duration, bool) {
	if len(line) == 0 || line[0] != '$' {
		return 0, false
	}
	fields := strings.Split(line[1:], ",")
	tag := fields[0]

	idx := 0
	switch {
	case len(tag) == 5 && (strings.HasSuffix(tag, "RMC") || strings.HasSuffix(tag, "GGA") ||
		strings.HasSuffix(tag, "GNS") || strings.HasSuffix(tag, "ZDA")):
		idx = 1
	case tag == "PUBX":
		if len(fields) < 2 || (fields[1] != "00" && fields[1] != "04") {
			return 0, false
		}
		idx = 2
	default:
		return 0, false
	}

	if len(fields) <= idx {
		return 0, false
	}
	return parseClock(fields[idx])
}

// parseClock parses hhmmss with an optional fractional part.
func parseClock(f string) (time.Duration, bool) {
	if len(f) < 6 {
		return 0, false
	}
	for i := 0; i < 6; i++ {
		if f[i] < '0' || f[i] > '9' {
			return 0, false
		}
	}
	hh := int(f[0]-'0')*10 + int(f[1]-'0')
	mm := int(f[2]-'0')*10 + int(f[3]-'0')
	ss := int(f[4]-'0')*10 + int(f[5]-'0')
	d := time.Duration(hh*3600+mm*60+ss) * time.Second

	if len(f) > 7 && f[6] == '.' {
		scale := 100 * time.Millisecond
		for i := 7; i < len(f) && scale > 0; i++ {
			c := f[i]
			if c < '0' || c > '9' {
				break
			}
			d += time.Duration(c-'0') * scale
			scale /= 10
		}
	}
	return d, true
}

// maxWait bounds a single pacing step. Capture gaps (receiver unplugged,
// day boundary) replay as a short pause instead of a stall.
const maxWait = 10 * time.Second

type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Options struct {
	// Speed scales pacing. 2 halves the waits, 0.5 doubles them. Zero or
	// negative means real time.
	Speed float64

	// Sleeper overrides the pacing clock. Nil waits on the wall clock.
	Sleeper Sleeper
}

// Play replays records once, pacing on the embedded receiver clock.
// Looping is the caller's business. The callback gets each line with its
// CRLF framing intact.
func Play(ctx context.Context, records []Record, opts Options, cb func(line []byte) error) error {
	if cb == nil {
		return errors.New("callback is nil")
	}
	if len(records) == 0 {
		return errors.New("no records")
	}
	speed := opts.Speed
	if speed <= 0 {
		speed = 1
	}
	sleeper := opts.Sleeper
	if sleeper == nil {
		sleeper = realSleeper{}
	}

	var lastAt time.Duration
	haveLast := false
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		if r.HasTime {
			if haveLast {
				wait := r.At - lastAt
				if wait < 0 {
					// Midnight wrap or interleaved talkers; replay the
					// step as a burst.
					wait = 0
				}
				if wait > maxWait {
					wait = maxWait
				}
				wait = time.Duration(float64(wait) / speed)
				if wait > 0 {
					if err := sleeper.Sleep(ctx, wait); err != nil {
						return err
					}
				}
			}
			lastAt = r.At
			haveLast = true
		}

		if err := cb(r.Line); err != nil {
			return err
		}
	}
	return nil
}

// Capture tees the raw receiver stream to a file that ReadFile can replay.
type Capture struct {
	f      *os.File
	w      *bufio.Writer
	closed bool
}

func CreateCapture(path, desc string) (*Capture, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(f, 32*1024)
	if _, err := fmt.Fprintf(bw, "# tinygpsd capture %s %s\n", desc, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Capture{f: f, w: bw}, nil
}

func (c *Capture) Write(p []byte) (int, error) {
	if c.closed {
		return 0, errors.New("capture is closed")
	}
	return c.w.Write(p)
}

func (c *Capture) Flush() error {
	if c.closed {
		return nil
	}
	return c.w.Flush()
}

func (c *Capture) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.w.Flush(); err != nil {
		_ = c.f.Close()
		return err
	}
	return c.f.Close()
}
