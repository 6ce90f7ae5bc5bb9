package statistic

import (
	"fmt"
	"time"
)

// resolution is the quantization interval: 15 minutes.
const resolution = 15 * 60

// Time is an instant quantized to 15-minute buckets, represented as
// floor(unix-seconds / 900).
type Time struct {
	intervals int64
}

// Now returns the current instant, quantized down to the start of its
// 15-minute bucket.
func Now() Time {
	return FromUnix(time.Now().Unix())
}

// FromUnix quantizes a Unix timestamp (seconds) down to its 15-minute
// bucket.
func FromUnix(unixSeconds int64) Time {
	return Time{intervals: unixSeconds / resolution}
}

// FromTime quantizes t down to its 15-minute bucket.
func FromTime(t time.Time) Time {
	return FromUnix(t.Unix())
}

// Unix returns the Unix timestamp (seconds) of the start of this bucket.
func (t Time) Unix() int64 {
	return t.intervals * resolution
}

// ParseTime parses the canonical `YYYY-MM-DDThh:mm:ssZ` form, rounding down
// to the nearest quarter-hour if the input isn't already aligned.
func ParseTime(s string) (Time, error) {
	parsed, err := time.Parse("2006-01-02T15:04:05Z", s)
	if err != nil {
		return Time{}, fmt.Errorf("statistic: invalid time %q: %w", s, err)
	}
	return FromTime(parsed), nil
}

// String renders t as `YYYY-MM-DDThh:mm:ssZ`, with minutes always a
// multiple of 15 and seconds always 00.
func (t Time) String() string {
	return time.Unix(t.Unix(), 0).UTC().Format("2006-01-02T15:04:05Z")
}

// Compare orders quantized instants chronologically.
func (t Time) Compare(other Time) int {
	switch {
	case t.intervals < other.intervals:
		return -1
	case t.intervals > other.intervals:
		return 1
	default:
		return 0
	}
}
