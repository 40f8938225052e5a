package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Scalar is a loosely typed scheduler value (string, number or bool on the
// wire). Decoding never fails: null and missing fields leave it unset, and
// anything else is kept in its textual form.
type Scalar struct {
	Raw     string
	Numeric bool
	Present bool
}

// String returns a present string scalar.
func String(s string) Scalar {
	return Scalar{Raw: s, Present: true}
}

// Number returns a present numeric scalar.
func Number(n float64) Scalar {
	return Scalar{Raw: strconv.FormatFloat(n, 'f', -1, 64), Numeric: true, Present: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*s = Scalar{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			s.Raw, s.Present = string(b), true
			return nil
		}
		s.Raw, s.Present = text, true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		s.Raw, s.Numeric, s.Present = n.String(), true, true
		return nil
	}
	s.Raw, s.Present = string(b), true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Scalar) MarshalJSON() ([]byte, error) {
	if !s.Present {
		return []byte("null"), nil
	}
	if s.Numeric {
		return []byte(s.Raw), nil
	}
	return json.Marshal(s.Raw)
}

// IsAbsent reports whether the value is missing, null, empty or the literal
// "none" the scheduler uses for "never".
func (s Scalar) IsAbsent() bool {
	return !s.Present || s.Raw == "" || strings.EqualFold(s.Raw, "none")
}

// String returns the textual form, or "" when absent.
func (s Scalar) String() string {
	if s.IsAbsent() {
		return ""
	}
	return s.Raw
}

// Timestamp is a scheduler time value: an ISO-8601 string, epoch seconds or
// milliseconds, the literal "none", or null.
type Timestamp struct {
	Scalar
}

// TimeText returns a timestamp carrying a textual value.
func TimeText(s string) Timestamp {
	return Timestamp{Scalar: String(s)}
}

// TimeEpoch returns a timestamp carrying a numeric epoch value.
func TimeEpoch(n int64) Timestamp {
	return Timestamp{Scalar: Scalar{Raw: strconv.FormatInt(n, 10), Numeric: true, Present: true}}
}

// Schedule is either a cron or an interval schedule. Both the flat form
// ({"type":"cron","expression":...}) and the nested form
// ({"cron":{"expression":...}}) are accepted.
type Schedule struct {
	Type       string  `json:"type"`
	Expression string  `json:"expression,omitempty"`
	Timezone   string  `json:"timezone,omitempty"`
	Interval   float64 `json:"interval,omitempty"`
	Unit       string  `json:"unit,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. A schedule of the wrong shape
// decodes as an empty schedule instead of failing the whole payload.
func (s *Schedule) UnmarshalJSON(b []byte) error {
	*s = Schedule{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil || fields == nil {
		return nil
	}

	s.Type = rawString(fields["type"])
	if s.Type == "" {
		s.Type = rawString(fields["kind"])
	}
	s.Expression = rawString(fields["expression"])
	s.Timezone = rawString(fields["timezone"])
	s.Unit = rawString(fields["unit"])
	if n, ok := rawNumber(fields["interval"]); ok {
		s.Interval = n
	}

	if s.Type != "" {
		return nil
	}

	var nested map[string]json.RawMessage
	if raw, ok := fields["cron"]; ok && json.Unmarshal(raw, &nested) == nil {
		s.Type = "cron"
		s.Expression = rawString(nested["expression"])
		s.Timezone = rawString(nested["timezone"])
		return nil
	}
	if raw, ok := fields["interval"]; ok && json.Unmarshal(raw, &nested) == nil {
		s.Type = "interval"
		s.Interval, _ = rawNumber(nested["period"])
		s.Unit = rawString(nested["unit"])
	}
	return nil
}

func rawString(raw json.RawMessage) string {
	var s Scalar
	_ = s.UnmarshalJSON(raw)
	return s.String()
}

func rawNumber(raw json.RawMessage) (float64, bool) {
	var s Scalar
	_ = s.UnmarshalJSON(raw)
	if s.IsAbsent() {
		return 0, false
	}
	n, err := strconv.ParseFloat(s.Raw, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
