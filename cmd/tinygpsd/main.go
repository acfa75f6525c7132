package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/danmclachlan/TinyGPS/internal/config"
	"github.com/danmclachlan/TinyGPS/internal/gdl90"
	"github.com/danmclachlan/TinyGPS/internal/gps"
	"github.com/danmclachlan/TinyGPS/internal/mqtt"
	"github.com/danmclachlan/TinyGPS/internal/pps"
	"github.com/danmclachlan/TinyGPS/internal/sim"
	"github.com/danmclachlan/TinyGPS/internal/udp"
	"github.com/danmclachlan/TinyGPS/internal/web"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./tinygpsd.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	logBuf := web.NewLogBuffer(1000)
	logger := buildLogger(cfg.Log.Level, logBuf)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("tinygpsd starting",
		zap.String("config", configPath),
		zap.String("source", cfg.GPS.Source))

	status := web.NewStatus()
	udpDest := ""
	if cfg.UDP.Enable {
		udpDest = cfg.UDP.Dest
	}
	status.SetStatic(cfg.GPS.Source, udpDest)

	fixes := web.NewFixBroadcaster()

	var pub *mqtt.Publisher
	if cfg.MQTT.Enable {
		pub = mqtt.New(mqtt.Config{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
			Retain:   cfg.MQTT.Retain,
		}, logger)
		if err := pub.Connect(); err != nil {
			// Keep tinygpsd running; publishes fail until the broker is back.
			logger.Warn("mqtt connect failed", zap.Error(err))
		}
		defer pub.Close()
	}

	gpsSvc := gps.New(gps.Config{
		Source:   cfg.GPS.Source,
		Device:   cfg.GPS.Device,
		Baud:     cfg.GPS.Baud,
		GPSDAddr: cfg.GPS.GPSDAddr,
		TCPAddr:  cfg.GPS.TCPAddr,
		I2CBus:   cfg.GPS.I2CBus,
		I2CAddr:  cfg.GPS.I2CAddr,
		Sim: sim.Config{
			CenterLatDeg: cfg.GPS.Sim.CenterLatDeg,
			CenterLonDeg: cfg.GPS.Sim.CenterLonDeg,
			AltFeet:      cfg.GPS.Sim.AltFeet,
			GroundKt:     cfg.GPS.Sim.GroundKt,
			RadiusNm:     cfg.GPS.Sim.RadiusNm,
			Period:       cfg.GPS.Sim.Period,
		},
		ReplayPath:  cfg.GPS.Replay.Path,
		ReplaySpeed: cfg.GPS.Replay.Speed,
		ReplayLoop:  cfg.GPS.Replay.Loop,
		RecordPath:  cfg.GPS.Record,
	}, logger, func(snap gps.Snapshot) {
		status.SetGPS(snap)
		fixes.Publish(snap)
		if pub != nil {
			if err := pub.Publish(snap); err != nil {
				logger.Warn("mqtt publish failed", zap.Error(err))
			}
		}
	})
	if err := gpsSvc.Start(ctx); err != nil {
		logger.Fatal("gps start failed", zap.Error(err))
	}
	defer gpsSvc.Close()

	if cfg.PPS.Enable {
		ppsMon := pps.New(pps.Config{Chip: cfg.PPS.Chip, Line: cfg.PPS.Line}, logger)
		if err := ppsMon.Start(); err != nil {
			// Keep tinygpsd running; the status page reports the failure.
			logger.Warn("pps start failed", zap.Error(err))
		}
		defer ppsMon.Close()
		status.SetPPS(ppsMon.Snapshot())
		go func() {
			t := time.NewTicker(time.Second)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					status.SetPPS(ppsMon.Snapshot())
				}
			}
		}()
	}

	var webDone chan struct{}
	if cfg.Web.Enable {
		webDone = make(chan struct{})
		go func() {
			defer close(webDone)
			err := web.Serve(ctx, cfg.Web.Listen, status, web.ConfigView{ConfigPath: configPath}, logBuf, fixes)
			if err != nil && ctx.Err() == nil {
				logger.Error("web server stopped", zap.Error(err))
				cancel()
			}
		}()
	}

	if cfg.UDP.Enable {
		b, err := udp.NewBroadcaster(cfg.UDP.Dest)
		if err != nil {
			logger.Fatal("udp broadcaster init failed", zap.Error(err))
		}
		defer b.Close()

		var icao [3]byte
		if cfg.UDP.Format == "gdl90" {
			icao, err = gdl90.ParseICAOHex(cfg.UDP.ICAO)
			if err != nil {
				logger.Fatal("udp.icao invalid", zap.Error(err))
			}
		}

		logger.Info("udp feed started",
			zap.String("dest", cfg.UDP.Dest),
			zap.String("format", cfg.UDP.Format),
			zap.Duration("interval", cfg.UDP.Interval))

		go udp.Run(ctx, b, cfg.UDP.Interval, logger, func() [][]byte {
			snap := gpsSvc.Snapshot()
			var frames [][]byte
			if cfg.UDP.Format == "gdl90" {
				frames = gdl90Datagrams(time.Now().UTC(), snap, icao, cfg.UDP.Callsign)
			} else {
				frames = jsonDatagrams(snap)
			}
			status.MarkSent(time.Now().UTC(), len(frames))
			return frames
		})
	}

	<-ctx.Done()
	logger.Info("tinygpsd stopping")
	if webDone != nil {
		<-webDone
	}
}
