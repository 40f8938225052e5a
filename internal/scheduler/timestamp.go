package scheduler

import (
	"math"
	"strconv"
	"strings"
	"time"

	"jobwatch/pkg/api"
)

// Display strings for timestamps that cannot be shown as a time.
const (
	AbsentTime  = "-"
	InvalidTime = "Invalid date"
)

// DisplayLayout is the layout used for rendered timestamps.
const DisplayLayout = "Mon, 02 Jan 2006 15:04:05 MST"

// Epoch values at or above this magnitude are milliseconds. 1e11 seconds is
// past the year 5000 while 1e11 milliseconds is 1973.
const epochMillisThreshold = 1e11

// TimestampKind classifies a raw timestamp.
type TimestampKind int

const (
	TimestampAbsent TimestampKind = iota
	TimestampValid
	TimestampInvalid
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp normalizes every wire representation of a timestamp:
// null/missing/"none" are absent, numbers and numeric strings are epoch
// seconds or milliseconds, anything else must be ISO-8601.
func ParseTimestamp(ts api.Timestamp) (time.Time, TimestampKind) {
	if ts.IsAbsent() {
		return time.Time{}, TimestampAbsent
	}
	raw := strings.TrimSpace(ts.Raw)
	if raw == "" {
		return time.Time{}, TimestampAbsent
	}

	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return time.Time{}, TimestampInvalid
		}
		return fromEpoch(n), TimestampValid
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, TimestampValid
		}
	}
	return time.Time{}, TimestampInvalid
}

// FormatTimestamp renders a raw timestamp in loc (time.Local if nil).
func FormatTimestamp(ts api.Timestamp, loc *time.Location) string {
	t, kind := ParseTimestamp(ts)
	switch kind {
	case TimestampAbsent:
		return AbsentTime
	case TimestampInvalid:
		return InvalidTime
	}
	return formatTime(t, loc)
}

// FormatEpoch renders epoch seconds in loc. Zero is treated as absent, since
// history records without a time decode to zero.
func FormatEpoch(sec int64, loc *time.Location) string {
	if sec == 0 {
		return AbsentTime
	}
	return formatTime(time.Unix(sec, 0), loc)
}

func formatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DisplayLayout)
}

func fromEpoch(n float64) time.Time {
	if math.Abs(n) >= epochMillisThreshold {
		ms := int64(n)
		frac := n - float64(ms)
		return time.UnixMilli(ms).Add(time.Duration(frac * float64(time.Millisecond)))
	}
	sec := int64(n)
	frac := n - float64(sec)
	return time.Unix(sec, int64(frac*float64(time.Second)))
}
