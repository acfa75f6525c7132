package gps

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	tinygps "github.com/danmclachlan/TinyGPS"
	"github.com/danmclachlan/TinyGPS/internal/replay"
	"github.com/danmclachlan/TinyGPS/internal/sim"
)

// Config controls where receiver bytes come from.
//
// The decoder itself does not care: every source ends up as a byte stream
// pushed through the same parser. Failures are retried with backoff; a GPS
// that disappears should not bring down the main process.
type Config struct {
	// Source is serial, gpsd, tcp, i2c, sim or replay. Empty means serial.
	Source string

	// Device is the serial device path. Empty means scan the usual USB
	// paths.
	Device string
	Baud   int

	// GPSDAddr is host:port of a gpsd instance when Source=="gpsd".
	GPSDAddr string

	// TCPAddr is host:port of a raw NMEA stream when Source=="tcp".
	TCPAddr string

	// I2CBus and I2CAddr locate a u-blox DDC port when Source=="i2c".
	I2CBus  string
	I2CAddr uint16

	// Sim settings when Source=="sim".
	Sim sim.Config

	// Replay settings when Source=="replay".
	ReplayPath  string
	ReplaySpeed float64
	ReplayLoop  bool

	// RecordPath tees the raw stream from a live source into a file that
	// Source=="replay" can play back. Empty disables recording.
	RecordPath string
}

// Service owns a parser and the goroutine that feeds it. The latest snapshot
// is available from any goroutine via Snapshot; the onFix callback given to
// New runs on the reader goroutine after every committed fix.
type Service struct {
	cfg   Config
	log   *zap.Logger
	onFix func(Snapshot)

	cancel context.CancelFunc
	wg     sync.WaitGroup

	last atomic.Value // Snapshot

	mu     sync.Mutex
	closer io.Closer
}

// New builds a Service. logger may be nil; onFix may be nil when nothing
// needs per-fix callbacks.
func New(cfg Config, logger *zap.Logger, onFix func(Snapshot)) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{cfg: cfg, log: logger, onFix: onFix}
	src := strings.ToLower(strings.TrimSpace(cfg.Source))
	if src == "" {
		src = "serial"
	}
	s.cfg.Source = src
	s.last.Store(Snapshot{Source: src, Device: cfg.Device, Baud: cfg.Baud})
	return s
}

// Start launches the reader goroutine. It returns an error only for
// configurations that can never work; runtime failures surface in the
// snapshot and are retried.
func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("gps service is nil")
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	switch s.cfg.Source {
	case "serial", "gpsd", "tcp", "i2c", "sim":
		return s.startStreamLocked(ctx)
	case "replay":
		return s.startReplayLocked(ctx)
	default:
		return fmt.Errorf("unknown gps source %q", s.cfg.Source)
	}
}

// startStreamLocked runs the open/read/reconnect loop shared by every live
// byte source.
func (s *Service) startStreamLocked(ctx context.Context) error {
	var capture *replay.Capture
	if s.cfg.RecordPath != "" {
		c, err := replay.CreateCapture(s.cfg.RecordPath, s.cfg.Source)
		if err != nil {
			return fmt.Errorf("record open failed: %w", err)
		}
		capture = c
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if capture != nil {
			defer capture.Close()
			s.log.Info("gps capture started", zap.String("path", s.cfg.RecordPath))
		}

		parser := tinygps.New()
		backoff := 250 * time.Millisecond
		const maxBackoff = 10 * time.Second

		for {
			select {
			case <-childCtx.Done():
				return
			default:
			}

			src, desc, err := s.openSource(childCtx)
			if err != nil {
				s.setError(fmt.Sprintf("gps open failed source=%s: %v", s.cfg.Source, err))
				select {
				case <-childCtx.Done():
					return
				case <-time.After(backoff):
				}
				if backoff < maxBackoff {
					backoff *= 2
				}
				continue
			}
			backoff = 250 * time.Millisecond

			s.mu.Lock()
			// Swap the closer so Close() can interrupt a blocked read.
			s.closer = src
			s.mu.Unlock()

			s.log.Info("gps source opened",
				zap.String("source", s.cfg.Source),
				zap.String("device", desc))

			var r io.Reader = src
			if capture != nil {
				r = io.TeeReader(src, capture)
			}
			err = s.readFrom(childCtx, parser, r, desc)
			_ = src.Close()
			if capture != nil {
				_ = capture.Flush()
			}
			if childCtx.Err() != nil {
				return
			}
			s.setError(fmt.Sprintf("gps read stopped: %v", err))
			s.log.Warn("gps read stopped, reconnecting",
				zap.String("source", s.cfg.Source),
				zap.Error(err))
		}
	}()
	return nil
}

// readFrom pumps bytes into the parser until the source fails or the context
// ends. Every committed fix publishes a fresh snapshot.
func (s *Service) readFrom(ctx context.Context, parser *tinygps.Parser, src io.Reader, desc string) error {
	buf := make([]byte, 512)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := src.Read(buf)
		if parser.EncodeBytes(buf[:n]) {
			s.publish(parser, desc)
		}
		if err != nil {
			if err == io.EOF {
				return io.EOF
			}
			return err
		}
	}
}

func (s *Service) startReplayLocked(ctx context.Context) error {
	records, err := replay.ReadFile(s.cfg.ReplayPath)
	if err != nil {
		return fmt.Errorf("replay open failed: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("replay file %s contains no sentences", s.cfg.ReplayPath)
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.log.Info("gps replay started",
			zap.String("path", s.cfg.ReplayPath),
			zap.Float64("speed", s.cfg.ReplaySpeed),
			zap.Bool("loop", s.cfg.ReplayLoop),
			zap.Int("sentences", len(records)))

		parser := tinygps.New()
		desc := s.cfg.ReplayPath
		for {
			err := replay.Play(childCtx, records, replay.Options{Speed: s.cfg.ReplaySpeed}, func(line []byte) error {
				if parser.EncodeBytes(line) {
					s.publish(parser, desc)
				}
				return nil
			})
			if err != nil || !s.cfg.ReplayLoop {
				if err != nil && childCtx.Err() == nil {
					s.setError(fmt.Sprintf("gps replay stopped: %v", err))
				}
				return
			}
		}
	}()
	return nil
}

// openSource opens the configured byte source. desc names the concrete
// endpoint for logs and snapshots.
func (s *Service) openSource(ctx context.Context) (io.ReadCloser, string, error) {
	switch s.cfg.Source {
	case "serial":
		device := strings.TrimSpace(s.cfg.Device)
		if device == "" {
			device = autoDetectDevice()
			if device == "" {
				return nil, "", fmt.Errorf("auto-detect found no /dev/ttyACM* or /dev/ttyUSB*")
			}
		}
		baud := s.cfg.Baud
		if baud == 0 {
			baud = 9600
		}
		src, err := openSerial(device, baud)
		return src, device, err
	case "gpsd":
		conn, err := dialGPSD(ctx, s.cfg.GPSDAddr)
		if err != nil {
			return nil, "", err
		}
		if err := gpsdWatch(conn); err != nil {
			_ = conn.Close()
			return nil, "", fmt.Errorf("watch failed: %w", err)
		}
		return conn, s.cfg.GPSDAddr, nil
	case "tcp":
		conn, err := dialTCP(ctx, s.cfg.TCPAddr)
		return conn, s.cfg.TCPAddr, err
	case "i2c":
		src, err := openDDC(s.cfg.I2CBus, s.cfg.I2CAddr)
		desc := fmt.Sprintf("%s@%#02x", s.cfg.I2CBus, s.cfg.I2CAddr)
		return src, desc, err
	case "sim":
		desc := fmt.Sprintf("track(%.4f,%.4f)", s.cfg.Sim.CenterLatDeg, s.cfg.Sim.CenterLonDeg)
		return sim.NewGenerator(s.cfg.Sim), desc, nil
	}
	return nil, "", fmt.Errorf("unknown source %q", s.cfg.Source)
}

func (s *Service) publish(parser *tinygps.Parser, device string) {
	snap := newSnapshot(parser)
	snap.Source = s.cfg.Source
	snap.Device = device
	snap.Baud = s.cfg.Baud
	s.last.Store(snap)
	if s.onFix != nil {
		s.onFix(snap)
	}
}

// Close stops the reader goroutine and waits for it.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	cancel := s.cancel
	closer := s.closer
	s.cancel = nil
	s.closer = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if closer != nil {
		_ = closer.Close()
	}
	s.wg.Wait()
}

// Snapshot returns the most recently published snapshot.
func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	v := s.last.Load()
	if v == nil {
		return Snapshot{}
	}
	return v.(Snapshot)
}

func (s *Service) setError(msg string) {
	cur := s.Snapshot()
	cur.LastError = msg
	// Transient read issues do not flip validity; the fix ages out on its
	// own through the age fields.
	s.last.Store(cur)
}
