package dataset

import (
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339, time.RFC3339Nano, "2006-01-02", "2006/01/02", "01/02/2006", "02/01/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05", "1/2/2006", "01-02-06",
	"Jan 2, 2006", "2 Jan 2006", "January 2, 2006",
}

// ParseTime interprets a cell as an instant. Text is matched against common
// layouts (date-only layouts are UTC midnight); a Number is epoch milliseconds.
func ParseTime(v Value) (time.Time, bool) {
	switch v.Kind() {
	case Number:
		ms, _ := v.Float()
		return time.UnixMilli(int64(ms)).UTC(), true
	case Text:
		s := strings.TrimSpace(v.String())
		for _, l := range timeLayouts {
			if t, err := time.Parse(l, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
