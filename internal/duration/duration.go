package duration

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	isoduration "github.com/sosodev/duration"
)

var (
	ErrUnrecognizedUnit = errors.New("unrecognized duration unit")
	ErrInvalidAmount    = errors.New("duration amount must be positive")
)

// Spec is a duration as the conversational front end delivers it.
type Spec struct {
	Amount int
	Unit   string
}

// Window is a lookback window in milliseconds with a spoken label.
type Window struct {
	Millis int64
	Label  string
}

type unit struct {
	name    string
	seconds int64
}

// Month is a fixed 30 days.
var units = []unit{
	{name: "second", seconds: 1},
	{name: "minute", seconds: 60},
	{name: "hour", seconds: 3600},
	{name: "day", seconds: 86400},
	{name: "week", seconds: 7 * 86400},
	{name: "month", seconds: 30 * 86400},
}

var aliases = map[string]string{
	"s": "second", "sec": "second", "second": "second", "seconds": "second",
	"min": "minute", "minute": "minute", "minutes": "minute",
	"h": "hour", "hr": "hour", "hour": "hour", "hours": "hour",
	"d": "day", "day": "day", "days": "day",
	"w": "week", "wk": "week", "week": "week", "weeks": "week",
	"mo": "month", "month": "month", "months": "month",
}

func lookup(name string) (unit, bool) {
	canonical, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return unit{}, false
	}
	for _, u := range units {
		if u.name == canonical {
			return u, true
		}
	}
	return unit{}, false
}

// Normalize resolves a Spec against the fixed unit table.
func Normalize(s Spec) (Window, error) {
	u, ok := lookup(s.Unit)
	if !ok {
		return Window{}, fmt.Errorf("%w: %q", ErrUnrecognizedUnit, s.Unit)
	}
	if s.Amount <= 0 {
		return Window{}, fmt.Errorf("%w: %d", ErrInvalidAmount, s.Amount)
	}
	if int64(s.Amount) > math.MaxInt64/(u.seconds*1000) {
		return Window{}, fmt.Errorf("%w: %d %s overflows", ErrInvalidAmount, s.Amount, u.name)
	}
	return Window{
		Millis: int64(s.Amount) * u.seconds * 1000,
		Label:  phrase(s.Amount, u.name),
	}, nil
}

// Label is the "<unit>" form, pluralized iff amount != 1.
func Label(amount int, unitName string) string {
	if amount != 1 {
		return unitName + "s"
	}
	return unitName
}

func phrase(amount int, unitName string) string {
	return strconv.Itoa(amount) + " " + Label(amount, unitName)
}

// ParseISO parses an ISO-8601 duration such as P2D, PT3H or P1DT12H.
func ParseISO(value string) (Window, error) {
	d, err := isoduration.Parse(strings.TrimSpace(value))
	if err != nil {
		return Window{}, fmt.Errorf("parse iso duration %q: %w", value, err)
	}
	if d.Negative {
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	if d.Years != 0 {
		return Window{}, fmt.Errorf("%w: years in %q", ErrUnrecognizedUnit, value)
	}

	components := []struct {
		amount float64
		unit   string
	}{
		{d.Months, "month"},
		{d.Weeks, "week"},
		{d.Days, "day"},
		{d.Hours, "hour"},
		{d.Minutes, "minute"},
		{d.Seconds, "second"},
	}

	var (
		total   int64
		phrases []string
	)
	for _, c := range components {
		if c.amount == 0 {
			continue
		}
		if c.amount != math.Trunc(c.amount) {
			return Window{}, fmt.Errorf("%w: fractional %s in %q", ErrUnrecognizedUnit, c.unit, value)
		}
		if c.amount >= math.MaxInt64 {
			return Window{}, fmt.Errorf("%w: %s in %q overflows", ErrInvalidAmount, c.unit, value)
		}
		w, err := Normalize(Spec{Amount: int(c.amount), Unit: c.unit})
		if err != nil {
			return Window{}, err
		}
		if total > math.MaxInt64-w.Millis {
			return Window{}, fmt.Errorf("%w: %q overflows", ErrInvalidAmount, value)
		}
		total += w.Millis
		phrases = append(phrases, w.Label)
	}
	if len(phrases) == 0 {
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	return Window{Millis: total, Label: strings.Join(phrases, " and ")}, nil
}

// FromSlot resolves whatever shape the front end sent: a structured
// amount/unit pair wins over a raw ISO string.
func FromSlot(value string, amount int, unitName string) (Window, error) {
	if unitName != "" {
		return Normalize(Spec{Amount: amount, Unit: unitName})
	}
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(value)), "P") {
		return ParseISO(strings.ToUpper(value))
	}
	return parseSpoken(value)
}

// parseSpoken accepts "2 days", "day" or "3h".
func parseSpoken(value string) (Window, error) {
	fields := strings.Fields(value)
	switch len(fields) {
	case 1:
		f := fields[0]
		i := 0
		for i < len(f) && f[i] >= '0' && f[i] <= '9' {
			i++
		}
		if i == 0 {
			return Normalize(Spec{Amount: 1, Unit: f})
		}
		n, err := strconv.Atoi(f[:i])
		if err != nil {
			return Window{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
		}
		return Normalize(Spec{Amount: n, Unit: f[i:]})
	case 2:
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return Window{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
		}
		return Normalize(Spec{Amount: n, Unit: fields[1]})
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnrecognizedUnit, value)
	}
}

// FromDuration labels a configured default window the way it is spoken:
// a single unit drops the amount ("day"), anything else keeps it
// ("7 days"). Weeks and months are spelled out in days.
func FromDuration(d time.Duration) Window {
	w := Window{Millis: d.Milliseconds()}
	secs := int64(d / time.Second)
	for _, u := range []unit{units[3], units[2], units[1], units[0]} {
		if secs > 0 && secs%u.seconds == 0 {
			n := int(secs / u.seconds)
			if n == 1 {
				w.Label = u.name
			} else {
				w.Label = phrase(n, u.name)
			}
			return w
		}
	}
	w.Label = phrase(int(secs), "second")
	return w
}
