package content

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Epoch is returned for every publication date that cannot be parsed.
var Epoch = time.Unix(0, 0).UTC()

var romanianMonths = [12]string{
	"ian", "feb", "mar", "apr", "mai", "iun",
	"iul", "aug", "sep", "oct", "nov", "dec",
}

// ParseDate reads a "D MMM YYYY" date with a Romanian month abbreviation,
// e.g. "17 oct 2025". Malformed input yields Epoch.
func ParseDate(s string) time.Time {
	t, _ := ParseDateOK(s)
	return t
}

// ParseDateOK is ParseDate plus a flag telling whether the fallback was used.
func ParseDateOK(s string) (time.Time, bool) {
	parts := strings.Split(s, " ")
	if len(parts) != 3 {
		return Epoch, false
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return Epoch, false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return Epoch, false
	}
	month, ok := lookupMonth(parts[1])
	if !ok {
		return Epoch, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}

func lookupMonth(abbr string) (time.Month, bool) {
	abbr = strings.ToLower(abbr)
	for i, m := range romanianMonths {
		if m == abbr {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

// FormatDate writes t in the same form ParseDate reads.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), romanianMonths[t.Month()-1], t.Year())
}
