package component

import (
	"errors"
	"strings"
	"time"
)

// Server side timestamps are stored in UTC-3, the zone the app was built for.
var ServerLocation = time.FixedZone("BRT", -3*60*60)

var ErrInvalidTimestamp = errors.New("component: invalid timestamp")

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp accepts RFC3339 and the naive ISO forms the API and the
// task form produce. Naive values are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}
	if loc == nil {
		loc = time.Local
	}
	for i, layout := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if i == 0 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, loc)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}

func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
