package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/srg/metermon/internal/reading"
)

// tagEscaper escapes the characters with meaning in line-protocol tag values.
var tagEscaper = strings.NewReplacer(" ", `\ `, ",", `\,`, "=", `\=`)

// influx field mapping, in emit order. Integer sources carry the line
// protocol "i" suffix except temperature_c and voc_index, which are always
// floats on the wire.
type influxField struct {
	name  string
	value func(r *reading.Reading) (string, bool)
}

var influxFields = []influxField{
	{"temperature_c", func(r *reading.Reading) (string, bool) {
		if r.TempC == nil {
			return "", false
		}
		return reading.FloatString(*r.TempC), true
	}},
	{"humidity_pct", func(r *reading.Reading) (string, bool) {
		if r.Humidity == nil {
			return "", false
		}
		return fmt.Sprintf("%di", *r.Humidity), true
	}},
	{"light", func(r *reading.Reading) (string, bool) {
		if r.Light == nil {
			return "", false
		}
		return fmt.Sprintf("%di", *r.Light), true
	}},
	{"rssi_dbm", func(r *reading.Reading) (string, bool) {
		if r.RSSI == nil {
			return "", false
		}
		return fmt.Sprintf("%di", *r.RSSI), true
	}},
	{"co2_ppm", func(r *reading.Reading) (string, bool) {
		if r.CO2 == nil {
			return "", false
		}
		return fmt.Sprintf("%di", *r.CO2), true
	}},
	{"voc_index", func(r *reading.Reading) (string, bool) {
		if r.VOC == nil {
			return "", false
		}
		return reading.FloatString(*r.VOC), true
	}},
}

// Influx appends InfluxDB line-protocol records to a file, or to stdout when
// the path is "" or "-". The file is opened in append mode and every record
// is written with a single write call, so concurrently running processes
// interleave whole lines.
type Influx struct {
	path string
	out  io.Writer
	file *os.File
	now  func() time.Time
}

// NewInflux creates a line-protocol sink for path ("-" or "" for stdout).
func NewInflux(path string) *Influx {
	return &Influx{path: path, now: time.Now}
}

func (s *Influx) Open(ctx context.Context) error {
	if s.path == "" || s.path == "-" {
		s.out = os.Stdout
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: influx file %s: %v", ErrUnavailable, s.path, err)
	}
	s.file = f
	s.out = f
	return nil
}

// Write emits one line-protocol record. A reading with no mappable fields
// is silently skipped: line protocol has no way to express an empty field
// set.
func (s *Influx) Write(r *reading.Reading) error {
	fields := make([]string, 0, len(influxFields))
	for _, f := range influxFields {
		if v, ok := f.value(r); ok {
			fields = append(fields, f.name+"="+v)
		}
	}
	if len(fields) == 0 {
		return nil
	}

	room := r.Location
	if room == "" {
		room = "unknown"
	}
	dev := r.ID
	if dev == "" {
		dev = "unknown"
	}

	ts := r.Time
	if ts == 0 {
		ts = s.now().Unix()
	}

	line := fmt.Sprintf("env,room=%s,device=%s %s %d\n",
		tagEscaper.Replace(room), tagEscaper.Replace(dev),
		strings.Join(fields, ","), ts*int64(time.Second))

	if _, err := s.out.Write([]byte(line)); err != nil {
		return fmt.Errorf("%w: influx: %v", ErrWrite, err)
	}
	return nil
}

func (s *Influx) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.out = nil
	if err != nil {
		return fmt.Errorf("influx close: %w", err)
	}
	return nil
}
