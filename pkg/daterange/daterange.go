// Package daterange holds calendar-day helpers shared by the production
// reconciliation code. All values are normalized to UTC midnight.
package daterange

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Layout is the wire format for calendar days.
const Layout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Parse reads a YYYY-MM-DD value.
func Parse(value string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, value, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// BeginningOfMonth returns the first day of the month containing t.
func BeginningOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a day by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// Dates is anything a day can be tested against: a single day, a Range,
// or a list mixing both.
type Dates interface {
	Includes(t time.Time) bool
}

// On matches exactly one day.
type On time.Time

func (o On) Includes(t time.Time) bool {
	return Day(time.Time(o)).Equal(Day(t))
}

// List matches when any member matches.
type List []Dates

func (l List) Includes(t time.Time) bool {
	for _, d := range l {
		if d.Includes(t) {
			return true
		}
	}
	return false
}

// DateIncluded reports whether t falls within dates.
func DateIncluded(t time.Time, dates Dates) bool {
	if dates == nil {
		return false
	}
	return dates.Includes(t)
}

// Range is an inclusive span of calendar days.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewRange builds a normalized range, swapping bounds given in reverse.
func NewRange(start, end time.Time) Range {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		start, end = end, start
	}
	return Range{Start: start, End: end}
}

func (r Range) Includes(t time.Time) bool {
	d := Day(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Single reports whether the range covers one day.
func (r Range) Single() bool {
	return r.Start.Equal(r.End)
}

// Len is the number of days covered.
func (r Range) Len() int {
	return DaysBetween(r.Start, r.End) + 1
}

// Days lists every day in the range in ascending order.
func (r Range) Days() []time.Time {
	out := make([]time.Time, 0, r.Len())
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (r Range) String() string {
	if r.Single() {
		return r.Start.Format(Layout)
	}
	return r.Start.Format(Layout) + ".." + r.End.Format(Layout)
}

// ToRanges compresses days into contiguous ranges. Duplicates are dropped
// and input order does not matter.
func ToRanges(dates []time.Time) []Range {
	days := uniqueSorted(dates)
	if len(days) == 0 {
		return nil
	}

	ranges := make([]Range, 0, len(days))
	left, right := days[0], days[0]
	for _, d := range days[1:] {
		if !d.Equal(right.AddDate(0, 0, 1)) {
			ranges = append(ranges, Range{Start: left, End: right})
			left = d
		}
		right = d
	}
	return append(ranges, Range{Start: left, End: right})
}

// Expand is the inverse of ToRanges.
func Expand(ranges []Range) []time.Time {
	var out []time.Time
	for _, r := range ranges {
		out = append(out, r.Days()...)
	}
	return out
}

// MonthlyDates returns the distinct month starts of dates, in order of
// first appearance.
func MonthlyDates(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	out := make([]time.Time, 0)
	for _, d := range dates {
		m := BeginningOfMonth(d)
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Average returns the mean of values rounded to places, or zero for an
// empty input.
func Average(values []decimal.Decimal, places int32) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(values[0], values[1:]...).
		Div(decimal.NewFromInt(int64(len(values)))).
		Round(places)
}

func uniqueSorted(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, t := range dates {
		if t.IsZero() {
			continue
		}
		d := Day(t)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
