package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a value matches no known date layout.
var ErrInvalidDate = errors.New("invalid date")

// DateLayout is the canonical storage layout.
const DateLayout = "2006-01-02"

var (
	isoPrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	dayFirst  = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
)

// Extra layouts tried after the fixed patterns.
var fallbackLayouts = []string{
	"2006/01/02",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC1123,
}

// ParseDate returns raw as YYYY-MM-DD. An empty value yields today's date,
// so callers on required-date paths must check for emptiness first.
func ParseDate(raw any) (string, error) {
	return parseDateAt(raw, time.Now())
}

func parseDateAt(raw any, now time.Time) (string, error) {
	switch v := raw.(type) {
	case time.Time:
		return FormatDate(v), nil
	case *time.Time:
		if v != nil {
			return FormatDate(*v), nil
		}
		raw = ""
	case nil:
		raw = ""
	}

	text := strings.TrimSpace(fmt.Sprint(raw))
	if text == "" {
		return FormatDate(now), nil
	}

	if isoPrefix.MatchString(text) {
		return calendarDate(text[:10], text)
	}

	if strings.Contains(text, "T") {
		if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
			return FormatDate(t.Local()), nil
		}
	}

	if m := dayFirst.FindStringSubmatch(text); m != nil {
		return calendarDate(fmt.Sprintf("%s-%s-%s", m[3], pad2(m[2]), pad2(m[1])), text)
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return FormatDate(t), nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrInvalidDate, text)
}

// calendarDate returns date when it names a real day.
func calendarDate(date, raw string) (string, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidDate, raw)
	}
	return date, nil
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDisplayDate converts YYYY-MM-DD into DD/MM/YYYY.
func FormatDisplayDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("02/01/2006")
}

// Month returns the YYYY-MM prefix of an ISO date.
func Month(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// DaysDifference is the absolute number of whole days between two ISO dates.
// Unparseable input counts as an infinite distance.
func DaysDifference(a, b string) int {
	ta, errA := time.Parse(DateLayout, Truncate(a, 10))
	tb, errB := time.Parse(DateLayout, Truncate(b, 10))
	if errA != nil || errB != nil {
		return int(^uint(0) >> 1)
	}
	d := ta.Sub(tb)
	if d < 0 {
		d = -d
	}
	return int((d + 12*time.Hour) / (24 * time.Hour))
}

// DayOfMonth returns the day component of an ISO date, or 0.
func DayOfMonth(date string) int {
	t, err := time.Parse(DateLayout, Truncate(date, 10))
	if err != nil {
		return 0
	}
	return t.Day()
}

// ParseMonth validates a YYYY-MM string.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return t, nil
}

// PreviousMonth returns the month before a YYYY-MM string.
func PreviousMonth(month string) (string, error) {
	t, err := ParseMonth(month)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, -1, 0).Format("2006-01"), nil
}

// LastDayOfMonth returns the ISO date of the last day of month.
func LastDayOfMonth(month string) (string, error) {
	t, err := ParseMonth(month)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 1, -1)), nil
}
