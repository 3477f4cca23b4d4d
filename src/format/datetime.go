package format

import (
	"strconv"
	"strings"
	"time"
)

// takenLayout is the upstream's naive local datetime string for date_taken.
const takenLayout = "2006-01-02 15:04:05"

// FriendlyUnix renders a unix epoch through the friendly date rule.
func FriendlyUnix(ts int64, now time.Time) string {
	return friendly(time.Unix(ts, 0).In(now.Location()), now)
}

// FriendlyDate renders either an epoch-in-a-string or a
// "2006-01-02 15:04:05" datetime string. Unparseable input is returned
// unchanged, same as the upstream raw value would have been shown.
func FriendlyDate(value string, now time.Time) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if isDigits(value) {
		ts, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return value
		}
		return FriendlyUnix(ts, now)
	}
	t, err := time.ParseInLocation(takenLayout, value, now.Location())
	if err != nil {
		return value
	}
	return friendly(t, now)
}

// friendly is the single friendly-date implementation: "Today at 7:00 PM",
// "Yesterday at 7:00 PM", else "Apr 15, 2025, 9:00 PM". Every render path
// must go through here so the output stays byte-identical.
func friendly(t, now time.Time) string {
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	clock := t.Format("3:04 PM")
	if ty == ny && tm == nm && td == nd {
		return "Today at " + clock
	}
	yy, ym, yd := now.AddDate(0, 0, -1).Date()
	if ty == yy && tm == ym && td == yd {
		return "Yesterday at " + clock
	}
	return t.Format("Jan 2, 2006, 3:04 PM")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
