// Package sim generates a synthetic NMEA byte stream for bench work with no
// receiver attached. The stream looks like a real module: RMC and GGA each
// second plus a GSV block, all with valid checksums.
package sim

import (
	"bytes"
	"io"
	"sync"
	"time"
)

type Config struct {
	CenterLatDeg float64
	CenterLonDeg float64
	AltFeet      int
	GroundKt     int
	RadiusNm     float64
	Period       time.Duration
}

const simHDOP = 1.2

// Eight satellites at fixed look angles, enough to fill two GSV sentences.
var constellation = []satellite{
	{prn: 3, elev: 68, az: 44, snr: 45},
	{prn: 6, elev: 52, az: 310, snr: 42},
	{prn: 11, elev: 41, az: 122, snr: 38},
	{prn: 14, elev: 33, az: 201, snr: 40},
	{prn: 17, elev: 25, az: 84, snr: 33},
	{prn: 19, elev: 18, az: 266, snr: 29},
	{prn: 22, elev: 12, az: 158, snr: 24},
	{prn: 28, elev: 7, az: 325, snr: 18},
}

// Generator is an io.ReadCloser producing one sentence batch per second.
// Close unblocks a pending Read.
type Generator struct {
	track Track
	now   func() time.Time

	buf  bytes.Buffer
	next time.Time

	closeOnce sync.Once
	closed    chan struct{}
}

func NewGenerator(cfg Config) *Generator {
	if cfg.Period <= 0 {
		cfg.Period = 120 * time.Second
	}
	if cfg.RadiusNm <= 0 {
		cfg.RadiusNm = 0.5
	}
	if cfg.GroundKt <= 0 {
		cfg.GroundKt = 90
	}
	if cfg.AltFeet == 0 {
		cfg.AltFeet = 3000
	}
	return &Generator{
		track: Track{
			CenterLatDeg: cfg.CenterLatDeg,
			CenterLonDeg: cfg.CenterLonDeg,
			AltFeet:      cfg.AltFeet,
			GroundKt:     cfg.GroundKt,
			RadiusNm:     cfg.RadiusNm,
			Period:       cfg.Period,
		},
		now:    time.Now,
		closed: make(chan struct{}),
	}
}

func (g *Generator) Read(p []byte) (int, error) {
	if g.buf.Len() == 0 {
		now := g.now()
		if !g.next.IsZero() {
			if d := g.next.Sub(now); d > 0 {
				t := time.NewTimer(d)
				select {
				case <-t.C:
				case <-g.closed:
					t.Stop()
					return 0, io.EOF
				}
			}
			now = g.now()
		}
		g.next = now.Truncate(time.Second).Add(time.Second)
		g.emit(now.UTC())
	}

	select {
	case <-g.closed:
		return 0, io.EOF
	default:
	}
	return g.buf.Read(p)
}

func (g *Generator) emit(now time.Time) {
	lat, lon, trk, altFeet := g.track.Kinematics(now)
	altMeters := float64(altFeet) * 0.3048

	g.buf.WriteString(rmcSentence(now, lat, lon, float64(g.track.GroundKt), trk))
	g.buf.WriteString(ggaSentence(now, lat, lon, len(constellation), simHDOP, altMeters))
	for _, s := range gsvSentences(constellation) {
		g.buf.WriteString(s)
	}
}

func (g *Generator) Close() error {
	g.closeOnce.Do(func() { close(g.closed) })
	return nil
}
