// Package reading defines the canonical record emitted for one observation.
//
// A Reading is immutable once constructed. The JSON field names are the wire
// format shared by the json output mode and the relay, so a record serialized
// by one process parses back unchanged in the next.
package reading

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Reading is one decoded observation. Numeric fields other than Time are
// pointers: a relay-parsed record must distinguish an absent field from a
// zero value (a hub can report light level 0). Light is omitted from JSON
// entirely when absent, never emitted as null.
//
// CO2 and VOC never come from the decoder; they are carried for foreign
// producers whose records flow through the relay into the Influx sink.
type Reading struct {
	Time     int64    `json:"time"`
	Location string   `json:"location"`
	ID       string   `json:"id"`
	RSSI     *int     `json:"rssi,omitempty"`
	TempC    *float64 `json:"temp,omitempty"`
	Humidity *int     `json:"humidity,omitempty"`
	Light    *int     `json:"light,omitempty"`
	CO2      *int     `json:"co2_ppm,omitempty"`
	VOC      *float64 `json:"voc_index,omitempty"`
}

// MarshalLine renders the reading as one compact JSON line, without the
// trailing newline.
func (r *Reading) MarshalLine() ([]byte, error) {
	return json.Marshal(r)
}

// ParseLine parses one serialized line back into a Reading. Anything that is
// not a JSON reading object is an error; the relay treats such lines as
// foreign passthrough output.
func ParseLine(line []byte) (*Reading, error) {
	var r Reading
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("parse reading: %w", err)
	}
	return &r, nil
}

// Fields returns the present fields in wire order, rendered as strings. The
// CSV sink derives its header from the first record's field set and renders
// later records against that locked set.
func (r *Reading) Fields() *orderedmap.OrderedMap[string, string] {
	fields := orderedmap.New[string, string]()
	fields.Set("time", strconv.FormatInt(r.Time, 10))
	fields.Set("location", r.Location)
	fields.Set("id", r.ID)
	if r.RSSI != nil {
		fields.Set("rssi", strconv.Itoa(*r.RSSI))
	}
	if r.TempC != nil {
		fields.Set("temp", FloatString(*r.TempC))
	}
	if r.Humidity != nil {
		fields.Set("humidity", strconv.Itoa(*r.Humidity))
	}
	if r.Light != nil {
		fields.Set("light", strconv.Itoa(*r.Light))
	}
	if r.CO2 != nil {
		fields.Set("co2_ppm", strconv.Itoa(*r.CO2))
	}
	if r.VOC != nil {
		fields.Set("voc_index", FloatString(*r.VOC))
	}
	return fields
}

// FloatString renders a float the way the original stream producer did:
// shortest form that round-trips, with a forced ".0" on integral values so
// 25 renders as "25.0" and 2.5 as "2.5".
func FloatString(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Int returns a pointer to v. Convenience for building readings inline.
func Int(v int) *int { return &v }

// Float returns a pointer to v. Convenience for building readings inline.
func Float(v float64) *float64 { return &v }
