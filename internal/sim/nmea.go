package sim

import (
	"fmt"
	"math"
	"time"
)

// checksum XORs the payload bytes, the part between $ and *.
func checksum(payload string) byte {
	var sum byte
	for i := 0; i < len(payload); i++ {
		sum ^= payload[i]
	}
	return sum
}

// sentence frames a payload as $payload*CS with CRLF.
func sentence(payload string) string {
	return fmt.Sprintf("$%s*%02X\r\n", payload, checksum(payload))
}

// formatLat renders decimal degrees as ddmm.mmmm plus hemisphere.
func formatLat(deg float64) (string, string) {
	hem := "N"
	if deg < 0 {
		hem = "S"
	}
	d := int(math.Abs(deg))
	m := (math.Abs(deg) - float64(d)) * 60
	return fmt.Sprintf("%02d%07.4f", d, m), hem
}

// formatLon renders decimal degrees as dddmm.mmmm plus hemisphere.
func formatLon(deg float64) (string, string) {
	hem := "E"
	if deg < 0 {
		hem = "W"
	}
	d := int(math.Abs(deg))
	m := (math.Abs(deg) - float64(d)) * 60
	return fmt.Sprintf("%03d%07.4f", d, m), hem
}

func formatClock(now time.Time) string {
	utc := now.UTC()
	return fmt.Sprintf("%02d%02d%02d.%02d",
		utc.Hour(), utc.Minute(), utc.Second(), utc.Nanosecond()/10000000)
}

func rmcSentence(now time.Time, latDeg, lonDeg, speedKt, courseDeg float64) string {
	lat, latHem := formatLat(latDeg)
	lon, lonHem := formatLon(lonDeg)
	payload := fmt.Sprintf("GPRMC,%s,A,%s,%s,%s,%s,%.2f,%.2f,%s,,,A",
		formatClock(now),
		lat, latHem, lon, lonHem,
		speedKt, courseDeg,
		now.UTC().Format("020106"))
	return sentence(payload)
}

func ggaSentence(now time.Time, latDeg, lonDeg float64, sats int, hdop, altMeters float64) string {
	lat, latHem := formatLat(latDeg)
	lon, lonHem := formatLon(lonDeg)
	payload := fmt.Sprintf("GPGGA,%s,%s,%s,%s,%s,1,%02d,%.1f,%.1f,M,0.0,M,,",
		formatClock(now),
		lat, latHem, lon, lonHem,
		sats, hdop, altMeters)
	return sentence(payload)
}

type satellite struct {
	prn  int
	elev int
	az   int
	snr  int
}

// gsvSentences packs the satellite list four per sentence.
func gsvSentences(sats []satellite) []string {
	total := (len(sats) + 3) / 4
	out := make([]string, 0, total)
	for msg := 1; msg <= total; msg++ {
		payload := fmt.Sprintf("GPGSV,%d,%d,%02d", total, msg, len(sats))
		start := (msg - 1) * 4
		end := start + 4
		if end > len(sats) {
			end = len(sats)
		}
		for _, s := range sats[start:end] {
			payload += fmt.Sprintf(",%02d,%02d,%03d,%02d", s.prn, s.elev, s.az, s.snr)
		}
		out = append(out, sentence(payload))
	}
	return out
}
