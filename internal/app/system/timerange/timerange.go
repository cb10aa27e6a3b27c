// Package timerange maps the dashboard's range selector onto the range
// names the statistics API understands.
package timerange

import (
	"errors"
	"fmt"
	"strings"
)

// Range is one of the closed set of selectable ranges.
type Range int

const (
	Today Range = iota
	Last7Days
	Last30Days
	Last6Months
	Last12Months
)

// Default is used when the request carries no range at all.
const Default = Last7Days

// ErrUnknownRange is returned by Parse for values outside the selector.
var ErrUnknownRange = errors.New("unknown time range")

type rangeDef struct {
	ui     string
	remote string
	label  string
	days   int
}

var table = [...]rangeDef{
	Today:        {ui: "today", remote: "today", label: "Today", days: 1},
	Last7Days:    {ui: "7_days", remote: "last_7_days", label: "Last 7 Days", days: 7},
	Last30Days:   {ui: "30_days", remote: "last_30_days", label: "Last 30 Days", days: 30},
	Last6Months:  {ui: "6_months", remote: "last_6_months", label: "Last 6 Months", days: 183},
	Last12Months: {ui: "12_months", remote: "last_12_months", label: "Last Year", days: 365},
}

// Parse converts a selector value (e.g. "30_days") into a Range.
// An empty value yields Default. Anything not in the selector is rejected
// rather than forwarded to the remote service.
func Parse(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default, nil
	}
	for r, sp := range table {
		if sp.ui == s {
			return Range(r), nil
		}
	}
	return Default, fmt.Errorf("%w: %q", ErrUnknownRange, s)
}

// MustParse is Parse for values known at compile time.
func MustParse(s string) Range {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// All returns every range in selector order.
func All() []Range {
	return []Range{Today, Last7Days, Last30Days, Last6Months, Last12Months}
}

func (r Range) valid() bool {
	return r >= Today && r <= Last12Months
}

// String returns the selector value.
func (r Range) String() string {
	if !r.valid() {
		return fmt.Sprintf("Range(%d)", int(r))
	}
	return table[r].ui
}

// Remote returns the range name used in /stats/{range}.
func (r Range) Remote() string {
	if !r.valid() {
		return table[Default].remote
	}
	return table[r].remote
}

// Label returns the human-readable name for the selector.
func (r Range) Label() string {
	if !r.valid() {
		return table[Default].label
	}
	return table[r].label
}

// Days is the divisor used for the dashboard's daily average.
func (r Range) Days() int {
	if !r.valid() {
		return table[Default].days
	}
	return table[r].days
}
