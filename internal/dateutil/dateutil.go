// Package dateutil formats dates from user-friendly, localizable patterns.
package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid date format string.
var ErrInvalidDateFormat = errors.New("invalid date format")

// MaxDateFormatLength limits format string length to prevent abuse.
const MaxDateFormatLength = 100

// DefaultDateFormat is used when "auto" is specified without a format.
const DefaultDateFormat = "YYYY-MM-DD"

// DatePresets provides named shortcuts for common date formats.
var DatePresets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
	"full":     "DDDD, MMMM D, YYYY",
	"datetime": "YYYY-MM-DD HH:mm",
}

// Names holds the localized words used by Format.
type Names struct {
	Months      []string // January first
	MonthsShort []string
	Days        []string // Sunday first
	DaysShort   []string
	Eras        []string // before the common era first
	AM, PM      string
}

// English is used when no localized names are supplied.
var English = Names{
	Months: []string{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
	MonthsShort: []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	Days:      []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	DaysShort: []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
	Eras:      []string{"BC", "AD"},
	AM:        "AM",
	PM:        "PM",
}

type tokenFunc func(t time.Time, n *Names) string

// dateTokens is ordered by length descending for greedy matching.
var dateTokens = []struct {
	token string
	fn    tokenFunc
}{
	{"YYYY", func(t time.Time, _ *Names) string { return pad(t.Year(), 4) }},
	{"MMMM", func(t time.Time, n *Names) string { return pick(n.Months, English.Months, int(t.Month())-1) }},
	{"DDDD", func(t time.Time, n *Names) string { return pick(n.Days, English.Days, int(t.Weekday())) }},
	{"MMM", func(t time.Time, n *Names) string { return pick(n.MonthsShort, English.MonthsShort, int(t.Month())-1) }},
	{"DDD", func(t time.Time, n *Names) string { return pick(n.DaysShort, English.DaysShort, int(t.Weekday())) }},
	{"YY", func(t time.Time, _ *Names) string { return pad(t.Year()%100, 2) }},
	{"MM", func(t time.Time, _ *Names) string { return pad(int(t.Month()), 2) }},
	{"DD", func(t time.Time, _ *Names) string { return pad(t.Day(), 2) }},
	{"HH", func(t time.Time, _ *Names) string { return pad(t.Hour(), 2) }},
	{"hh", func(t time.Time, _ *Names) string { return pad(hour12(t), 2) }},
	{"mm", func(t time.Time, _ *Names) string { return pad(t.Minute(), 2) }},
	{"ss", func(t time.Time, _ *Names) string { return pad(t.Second(), 2) }},
	{"M", func(t time.Time, _ *Names) string { return strconv.Itoa(int(t.Month())) }},
	{"D", func(t time.Time, _ *Names) string { return strconv.Itoa(t.Day()) }},
	{"H", func(t time.Time, _ *Names) string { return strconv.Itoa(t.Hour()) }},
	{"h", func(t time.Time, _ *Names) string { return strconv.Itoa(hour12(t)) }},
	{"m", func(t time.Time, _ *Names) string { return strconv.Itoa(t.Minute()) }},
	{"s", func(t time.Time, _ *Names) string { return strconv.Itoa(t.Second()) }},
	{"G", func(t time.Time, n *Names) string { return pick(n.Eras, English.Eras, era(t)) }},
	{"A", func(t time.Time, n *Names) string { return designator(t, n) }},
	{"a", func(t time.Time, n *Names) string { return strings.ToLower(designator(t, n)) }},
}

// Format renders t using pattern. Tokens:
//
//	YYYY YY         year
//	MMMM MMM MM M   month name, short name, padded, plain
//	DDDD DDD        weekday name, short name
//	DD D            day of month, padded and plain
//	HH H hh h       hour (24h and 12h)
//	mm m ss s       minute, second
//	A a             AM/PM designator
//	G               era
//
// Text in brackets is copied literally: "[Week of] MMMM".
// Any other character is preserved. A nil names uses English.
func Format(t time.Time, pattern string, names *Names) (string, error) {
	if err := validate(pattern); err != nil {
		return "", err
	}
	if names == nil {
		names = &English
	}

	var out strings.Builder
	out.Grow(len(pattern) + 16)

	i := 0
	for i < len(pattern) {
		if pattern[i] == '[' {
			end := strings.IndexByte(pattern[i+1:], ']')
			out.WriteString(pattern[i+1 : i+1+end])
			i += end + 2
			continue
		}

		matched := false
		for _, tk := range dateTokens {
			if strings.HasPrefix(pattern[i:], tk.token) {
				out.WriteString(tk.fn(t, names))
				i += len(tk.token)
				matched = true
				break
			}
		}
		if !matched {
			out.WriteByte(pattern[i])
			i++
		}
	}
	return out.String(), nil
}

func validate(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(pattern) > MaxDateFormatLength {
		return fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}
	depth := 0
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '[':
			if depth == 0 {
				if strings.IndexByte(pattern[i+1:], ']') == -1 {
					return fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
				}
				depth = 1
			}
		case ']':
			depth = 0
		}
	}
	return nil
}

// ResolvePattern expands a preset name; other values are returned unchanged.
func ResolvePattern(nameOrPattern string) string {
	if preset, ok := DatePresets[strings.ToLower(nameOrPattern)]; ok {
		return preset
	}
	return nameOrPattern
}

// ResolveDate handles "auto" and "auto:FORMAT" syntax for date values.
//   - "auto" → t in YYYY-MM-DD format
//   - "auto:FORMAT" → t in a custom format (e.g., "auto:DD/MM/YYYY")
//   - "auto:preset" → t using a named preset
//   - any other value → returned unchanged
func ResolveDate(value string, t time.Time, names *Names) (string, error) {
	lower := strings.ToLower(value)
	if !strings.HasPrefix(lower, "auto") {
		return value, nil
	}
	if lower == "auto" {
		return Format(t, DefaultDateFormat, names)
	}
	if !strings.HasPrefix(lower, "auto:") {
		return "", fmt.Errorf("%w: invalid auto syntax %q, use \"auto\" or \"auto:FORMAT\"", ErrInvalidDateFormat, value)
	}

	pattern := value[len("auto:"):]
	if pattern == "" {
		return "", fmt.Errorf("%w: format cannot be empty after \"auto:\"", ErrInvalidDateFormat)
	}
	return Format(t, ResolvePattern(pattern), names)
}

func pad(v, width int) string {
	s := strconv.Itoa(v)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func pick(list, fallback []string, i int) string {
	if i >= 0 && i < len(list) {
		return list[i]
	}
	return fallback[i]
}

func hour12(t time.Time) int {
	h := t.Hour() % 12
	if h == 0 {
		return 12
	}
	return h
}

func designator(t time.Time, n *Names) string {
	if t.Hour() < 12 {
		if n.AM != "" {
			return n.AM
		}
		return English.AM
	}
	if n.PM != "" {
		return n.PM
	}
	return English.PM
}

// era is 0 for years up to 1 BC (year 0 in Go) and 1 afterwards.
func era(t time.Time) int {
	if t.Year() <= 0 {
		return 0
	}
	return 1
}
