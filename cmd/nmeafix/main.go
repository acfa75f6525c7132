// Command nmeafix runs a recorded NMEA stream through the decoder and prints
// one record per committed fix, as CSV or JSON lines. With -stats it prints a
// stream summary instead.
package main

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	tinygps "github.com/danmclachlan/TinyGPS"
)

func main() {
	var (
		format = flag.String("format", "csv", "per-fix output format: csv or json")
		stats  = flag.Bool("stats", false, "print a stream summary instead of per-fix records")
	)
	flag.Parse()

	in := os.Stdin
	path := "-"
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "nmeafix: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
		path = flag.Arg(0)
	}

	if err := run(in, os.Stdout, path, *format, *stats); err != nil {
		fmt.Fprintf(os.Stderr, "nmeafix: %v\n", err)
		os.Exit(1)
	}
}

// fixRecord is one committed fix as the decoder saw it at that moment.
type fixRecord struct {
	Date      string   `json:"date_utc,omitempty"`
	Time      string   `json:"time_utc,omitempty"`
	LatDeg    *float64 `json:"lat_deg,omitempty"`
	LonDeg    *float64 `json:"lon_deg,omitempty"`
	AltM      *float64 `json:"alt_m,omitempty"`
	SpeedKt   *float64 `json:"speed_kt,omitempty"`
	CourseDeg *float64 `json:"course_deg,omitempty"`
	HDOP      *float64 `json:"hdop,omitempty"`
	Sats      *int     `json:"sats,omitempty"`
}

var csvHeader = []string{"date_utc", "time_utc", "lat_deg", "lon_deg", "alt_m", "speed_kt", "course_deg", "hdop", "sats"}

func (r fixRecord) csvRow() []string {
	num := func(p *float64) string {
		if p == nil {
			return ""
		}
		return strconv.FormatFloat(*p, 'f', -1, 64)
	}
	sats := ""
	if r.Sats != nil {
		sats = strconv.Itoa(*r.Sats)
	}
	return []string{r.Date, r.Time, num(r.LatDeg), num(r.LonDeg), num(r.AltM), num(r.SpeedKt), num(r.CourseDeg), num(r.HDOP), sats}
}

// snapshotRecord reads the decoder accessors into a fixRecord, mapping
// sentinels to absent fields.
func snapshotRecord(p *tinygps.Parser) fixRecord {
	var rec fixRecord

	dt := p.DateTime()
	if dt.Time != tinygps.InvalidTime {
		c := p.CrackDateTime()
		rec.Time = fmt.Sprintf("%02d:%02d:%02d.%02d", c.Hour, c.Minute, c.Second, c.Hundredths)
		if dt.Date != tinygps.InvalidDate {
			rec.Date = fmt.Sprintf("%04d-%02d-%02d", c.Year, c.Month, c.Day)
		}
	}

	pos := p.Position()
	if pos.Lat != tinygps.InvalidAngle && pos.Lon != tinygps.InvalidAngle {
		lat := float64(pos.Lat) / 1e6
		lon := float64(pos.Lon) / 1e6
		rec.LatDeg = &lat
		rec.LonDeg = &lon
	}
	if p.Altitude() != tinygps.InvalidAltitude {
		alt := p.AltitudeMeters()
		rec.AltM = &alt
	}
	if p.Speed() != tinygps.InvalidSpeed {
		kt := p.SpeedKnots()
		rec.SpeedKt = &kt
	}
	if p.Course() != tinygps.InvalidAngle {
		deg := p.CourseDegrees()
		rec.CourseDeg = &deg
	}
	if p.HDOP() != tinygps.InvalidHDOP {
		h := float64(p.HDOP()) / 100.0
		rec.HDOP = &h
	}
	if p.Satellites() != tinygps.InvalidSatellites {
		s := int(p.Satellites())
		rec.Sats = &s
	}
	return rec
}

type streamSummary struct {
	Fixes     int
	TagCounts map[string]int
}

// run feeds the stream through a decoder line by line and writes per-fix
// records, or a summary when stats is set.
func run(in io.Reader, out io.Writer, path, format string, stats bool) error {
	switch format {
	case "csv", "json":
	default:
		return fmt.Errorf("format must be csv or json")
	}

	parser := tinygps.New()
	sum := streamSummary{TagCounts: map[string]int{}}

	var cw *csv.Writer
	if !stats && format == "csv" {
		cw = csv.NewWriter(out)
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
	}

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 4096), 64*1024)
	for sc.Scan() {
		line := bytes.TrimRight(sc.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		if tag := sentenceTag(line); tag != "" {
			sum.TagCounts[tag]++
		}

		framed := append(append([]byte{}, line...), '\r', '\n')
		if !parser.EncodeBytes(framed) {
			continue
		}
		sum.Fixes++
		if stats {
			continue
		}

		rec := snapshotRecord(parser)
		if format == "csv" {
			if err := cw.Write(rec.csvRow()); err != nil {
				return err
			}
			continue
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "%s\n", b); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if cw != nil {
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
	}

	if stats {
		printSummary(out, path, parser, sum)
	}
	return nil
}

// sentenceTag extracts the talker+type tag of a sentence, or "" for lines
// that do not look like NMEA.
func sentenceTag(line []byte) string {
	if len(line) == 0 || line[0] != '$' {
		return ""
	}
	rest := line[1:]
	end := bytes.IndexByte(rest, ',')
	if end == -1 {
		end = len(rest)
	}
	tag := rest[:end]
	if len(tag) < 3 || len(tag) > 6 {
		return ""
	}
	for _, c := range tag {
		if c < 'A' || c > 'Z' {
			return ""
		}
	}
	return string(tag)
}

func printSummary(out io.Writer, path string, p *tinygps.Parser, sum streamSummary) {
	st := p.Stats()
	fmt.Fprintf(out, "path: %s\n", path)
	fmt.Fprintf(out, "chars: %d\n", st.Chars)
	fmt.Fprintf(out, "sentences_good: %d\n", st.GoodSentences)
	fmt.Fprintf(out, "sentences_failed_checksum: %d\n", st.FailedChecksum)
	fmt.Fprintf(out, "fixes: %d\n", sum.Fixes)

	keys := make([]string, 0, len(sum.TagCounts))
	for k := range sum.TagCounts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(out, "sentence_counts:\n")
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %d\n", k, sum.TagCounts[k])
	}
}
