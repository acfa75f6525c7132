package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GPS  GPSConfig  `yaml:"gps"`
	UDP  UDPConfig  `yaml:"udp"`
	Web  WebConfig  `yaml:"web"`
	MQTT MQTTConfig `yaml:"mqtt"`
	PPS  PPSConfig  `yaml:"pps"`
	Log  LogConfig  `yaml:"log"`
}

type GPSConfig struct {
	// Source selects where receiver bytes come from: serial, gpsd, tcp,
	// i2c, sim or replay.
	Source string `yaml:"source"`

	// Serial source. An empty device means scan the usual USB paths.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`

	// gpsd source.
	GPSDAddr string `yaml:"gpsd_addr"`

	// tcp source, a raw NMEA stream such as a ser2net export.
	TCPAddr string `yaml:"tcp_addr"`

	// i2c source, a u-blox DDC port.
	I2CBus  string `yaml:"i2c_bus"`
	I2CAddr uint16 `yaml:"i2c_addr"`

	// Record tees the raw stream from a live source into a file that the
	// replay source can play back.
	Record string `yaml:"record"`

	// sim source, a synthetic receiver flying a fixed pattern.
	Sim SimConfig `yaml:"sim"`

	Replay ReplayConfig `yaml:"replay"`
}

type SimConfig struct {
	CenterLatDeg float64       `yaml:"center_lat_deg"`
	CenterLonDeg float64       `yaml:"center_lon_deg"`
	AltFeet      int           `yaml:"alt_feet"`
	GroundKt     int           `yaml:"ground_kt"`
	RadiusNm     float64       `yaml:"radius_nm"`
	Period       time.Duration `yaml:"period"`
}

type ReplayConfig struct {
	Path  string  `yaml:"path"`
	Speed float64 `yaml:"speed"`
	Loop  bool    `yaml:"loop"`
}

type UDPConfig struct {
	Enable   bool          `yaml:"enable"`
	Dest     string        `yaml:"dest"`
	Interval time.Duration `yaml:"interval"`

	// Format selects the datagram payload: json (one fix snapshot per
	// datagram) or gdl90 (framed heartbeat, ownship and altitude messages).
	Format string `yaml:"format"`

	// Ownship identity stamped into gdl90 reports.
	ICAO     string `yaml:"icao"`
	Callsign string `yaml:"callsign"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Listen string `yaml:"listen"`
}

type MQTTConfig struct {
	Enable   bool   `yaml:"enable"`
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Retain   bool   `yaml:"retain"`
}

type PPSConfig struct {
	Enable bool   `yaml:"enable"`
	Chip   string `yaml:"chip"`
	Line   int    `yaml:"line"`
}

type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if strings.Contains(err.Error(), "not found in type") {
			return Config{}, fmt.Errorf("config contains unknown fields: %s", trimYAMLErr(err))
		}
		return Config{}, err
	}

	if cfg.GPS.Source == "" {
		cfg.GPS.Source = "serial"
	}
	switch cfg.GPS.Source {
	case "serial":
		if cfg.GPS.Baud <= 0 {
			cfg.GPS.Baud = 9600
		}
	case "gpsd":
		if cfg.GPS.GPSDAddr == "" {
			cfg.GPS.GPSDAddr = "127.0.0.1:2947"
		}
	case "tcp":
		if cfg.GPS.TCPAddr == "" {
			return Config{}, fmt.Errorf("gps.tcp_addr is required when gps.source is tcp")
		}
	case "i2c":
		if cfg.GPS.I2CBus == "" {
			cfg.GPS.I2CBus = "/dev/i2c-1"
		}
		if cfg.GPS.I2CAddr == 0 {
			cfg.GPS.I2CAddr = 0x42
		}
	case "sim":
	case "replay":
		if cfg.GPS.Replay.Path == "" {
			return Config{}, fmt.Errorf("gps.replay.path is required when gps.source is replay")
		}
		if cfg.GPS.Record != "" {
			return Config{}, fmt.Errorf("gps.record cannot be combined with gps.source replay")
		}
	default:
		return Config{}, fmt.Errorf("gps.source must be one of serial, gpsd, tcp, i2c, sim, replay")
	}
	if cfg.GPS.Replay.Speed == 0 {
		cfg.GPS.Replay.Speed = 1
	}
	if cfg.GPS.Replay.Speed < 0 {
		return Config{}, fmt.Errorf("gps.replay.speed must be > 0")
	}

	// Simulator defaults (safe even if unused).
	if cfg.GPS.Sim.Period <= 0 {
		cfg.GPS.Sim.Period = 120 * time.Second
	}
	if cfg.GPS.Sim.RadiusNm <= 0 {
		cfg.GPS.Sim.RadiusNm = 0.5
	}
	if cfg.GPS.Sim.GroundKt <= 0 {
		cfg.GPS.Sim.GroundKt = 90
	}
	if cfg.GPS.Sim.AltFeet == 0 {
		cfg.GPS.Sim.AltFeet = 3000
	}

	if cfg.UDP.Enable {
		if cfg.UDP.Dest == "" {
			return Config{}, fmt.Errorf("udp.dest is required when udp.enable is true")
		}
	}
	if cfg.UDP.Interval <= 0 {
		cfg.UDP.Interval = 1 * time.Second
	}
	if cfg.UDP.Format == "" {
		cfg.UDP.Format = "json"
	}
	switch cfg.UDP.Format {
	case "json":
	case "gdl90":
		if cfg.UDP.ICAO == "" {
			cfg.UDP.ICAO = "F00000"
		}
		if cfg.UDP.Callsign == "" {
			cfg.UDP.Callsign = "TINYGPS"
		}
	default:
		return Config{}, fmt.Errorf("udp.format must be json or gdl90")
	}

	if cfg.Web.Enable && cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}

	if cfg.MQTT.Enable {
		if cfg.MQTT.Broker == "" {
			return Config{}, fmt.Errorf("mqtt.broker is required when mqtt.enable is true")
		}
		if cfg.MQTT.Topic == "" {
			cfg.MQTT.Topic = "tinygps/fix"
		}
	}

	if cfg.PPS.Enable {
		if cfg.PPS.Chip == "" {
			cfg.PPS.Chip = "gpiochip0"
		}
		if cfg.PPS.Line < 0 {
			return Config{}, fmt.Errorf("pps.line must be >= 0")
		}
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("log.level must be one of debug, info, warn, error")
	}

	return cfg, nil
}

// trimYAMLErr strips the "yaml: unmarshal errors:" preamble so the caller
// sees only the offending fields.
func trimYAMLErr(err error) string {
	lines := strings.Split(err.Error(), "\n")
	var fields []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, "line ") {
			if i := strings.Index(l, ": "); i != -1 {
				l = l[i+2:]
			}
			fields = append(fields, l)
		}
	}
	if len(fields) == 0 {
		return err.Error()
	}
	return strings.Join(fields, "; ")
}
