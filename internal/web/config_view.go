package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/danmclachlan/TinyGPS/internal/config"
)

// ConfigPayload is the read-only view of the effective configuration.
// The daemon wires its byte source at startup, so changes go through the
// YAML file and a restart rather than a write API.
type ConfigPayload struct {
	Source      string  `json:"source"`
	Device      string  `json:"device,omitempty"`
	Baud        int     `json:"baud,omitempty"`
	GPSDAddr    string  `json:"gpsd_addr,omitempty"`
	TCPAddr     string  `json:"tcp_addr,omitempty"`
	I2CBus      string  `json:"i2c_bus,omitempty"`
	I2CAddr     uint16  `json:"i2c_addr,omitempty"`
	Record      string  `json:"record,omitempty"`
	ReplayPath  string  `json:"replay_path,omitempty"`
	ReplaySpeed float64 `json:"replay_speed,omitempty"`
	ReplayLoop  bool    `json:"replay_loop,omitempty"`

	UDPEnable   bool   `json:"udp_enable"`
	UDPDest     string `json:"udp_dest,omitempty"`
	UDPInterval string `json:"udp_interval,omitempty"`
	UDPFormat   string `json:"udp_format,omitempty"`
	ICAO        string `json:"icao,omitempty"`
	Callsign    string `json:"callsign,omitempty"`

	MQTTEnable bool   `json:"mqtt_enable"`
	MQTTBroker string `json:"mqtt_broker,omitempty"`
	MQTTTopic  string `json:"mqtt_topic,omitempty"`

	PPSEnable bool   `json:"pps_enable"`
	PPSChip   string `json:"pps_chip,omitempty"`
	PPSLine   int    `json:"pps_line,omitempty"`

	WebListen string `json:"web_listen,omitempty"`
	LogLevel  string `json:"log_level"`
}

func configToPayload(cfg config.Config) ConfigPayload {
	return ConfigPayload{
		Source:      cfg.GPS.Source,
		Device:      cfg.GPS.Device,
		Baud:        cfg.GPS.Baud,
		GPSDAddr:    cfg.GPS.GPSDAddr,
		TCPAddr:     cfg.GPS.TCPAddr,
		I2CBus:      cfg.GPS.I2CBus,
		I2CAddr:     cfg.GPS.I2CAddr,
		Record:      cfg.GPS.Record,
		ReplayPath:  cfg.GPS.Replay.Path,
		ReplaySpeed: cfg.GPS.Replay.Speed,
		ReplayLoop:  cfg.GPS.Replay.Loop,

		UDPEnable:   cfg.UDP.Enable,
		UDPDest:     cfg.UDP.Dest,
		UDPInterval: cfg.UDP.Interval.String(),
		UDPFormat:   cfg.UDP.Format,
		ICAO:        cfg.UDP.ICAO,
		Callsign:    cfg.UDP.Callsign,

		MQTTEnable: cfg.MQTT.Enable,
		MQTTBroker: cfg.MQTT.Broker,
		MQTTTopic:  cfg.MQTT.Topic,

		PPSEnable: cfg.PPS.Enable,
		PPSChip:   cfg.PPS.Chip,
		PPSLine:   cfg.PPS.Line,

		WebListen: cfg.Web.Listen,
		LogLevel:  cfg.Log.Level,
	}
}

// ConfigView serves the configuration the daemon would load from ConfigPath,
// after defaulting.
type ConfigView struct {
	ConfigPath string
}

func (v ConfigView) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if strings.TrimSpace(v.ConfigPath) == "" {
			http.Error(w, "config not available (no config path)", http.StatusNotImplemented)
			return
		}

		cfg, err := config.Load(v.ConfigPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("load failed: %v", err), http.StatusInternalServerError)
			return
		}

		b, err := json.MarshalIndent(configToPayload(cfg), "", "  ")
		if err != nil {
			http.Error(w, "marshal failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(b)
		_, _ = w.Write([]byte("\n"))
	})
}
