// internal/domain/models/stats.go
package models

// StatEntry is one row of a ranked breakdown (a language, project, editor, ...).
// Percent is whatever the remote service reported; it is not re-derived here.
type StatEntry struct {
	Name         string  `json:"name"`
	TotalSeconds float64 `json:"total_seconds"`
	Percent      float64 `json:"percent"`
	Text         string  `json:"text,omitempty"`
}

// Stats is the aggregate the remote service returns for a named range
// (today, last_7_days, ...) once the "data" envelope has been removed.
//
// The five collections are never nil after normalization; an absent
// collection in the payload becomes an empty slice.
type Stats struct {
	Username         string      `json:"username,omitempty"`
	UserID           string      `json:"user_id,omitempty"`
	Range            string      `json:"range,omitempty"`
	Start            string      `json:"start,omitempty"`
	End              string      `json:"end,omitempty"`
	TotalSeconds     float64     `json:"total_seconds"`
	DailyAverage     float64     `json:"daily_average,omitempty"`
	Languages        []StatEntry `json:"languages"`
	Projects         []StatEntry `json:"projects"`
	Editors          []StatEntry `json:"editors"`
	OperatingSystems []StatEntry `json:"operating_systems"`
	Machines         []StatEntry `json:"machines"`
}

// Normalize replaces nil collections with empty slices.
func (s *Stats) Normalize() {
	s.Languages = nonNil(s.Languages)
	s.Projects = nonNil(s.Projects)
	s.Editors = nonNil(s.Editors)
	s.OperatingSystems = nonNil(s.OperatingSystems)
	s.Machines = nonNil(s.Machines)
}

// Top returns at most n entries from the front of list.
// The remote service already orders entries by time spent.
func Top(list []StatEntry, n int) []StatEntry {
	if n < 0 || len(list) <= n {
		return list
	}
	return list[:n]
}

func nonNil(list []StatEntry) []StatEntry {
	if list == nil {
		return []StatEntry{}
	}
	return list
}

// SummaryRange is the date span a summary bucket covers.
type SummaryRange struct {
	Date     string `json:"date,omitempty"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Text     string `json:"text,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// GrandTotal is the per-day total reported by the WakaTime-compatible API.
type GrandTotal struct {
	Digital      string  `json:"digital,omitempty"`
	Hours        int     `json:"hours"`
	Minutes      int     `json:"minutes"`
	Text         string  `json:"text,omitempty"`
	TotalSeconds float64 `json:"total_seconds"`
}

// SummaryDay is one per-day bucket of a summaries response.
type SummaryDay struct {
	Range            SummaryRange `json:"range"`
	GrandTotal       GrandTotal   `json:"grand_total"`
	Languages        []StatEntry  `json:"languages"`
	Projects         []StatEntry  `json:"projects"`
	Editors          []StatEntry  `json:"editors"`
	OperatingSystems []StatEntry  `json:"operating_systems"`
	Machines         []StatEntry  `json:"machines"`
}

// Summary is the summaries envelope kept as-is: an array of days under
// "data", never unwrapped to a single object.
type Summary struct {
	Data  []SummaryDay `json:"data"`
	Start string       `json:"start,omitempty"`
	End   string       `json:"end,omitempty"`
}

// Normalize replaces nil collections with empty slices across all days.
func (s *Summary) Normalize() {
	if s.Data == nil {
		s.Data = []SummaryDay{}
	}
	for i := range s.Data {
		d := &s.Data[i]
		d.Languages = nonNil(d.Languages)
		d.Projects = nonNil(d.Projects)
		d.Editors = nonNil(d.Editors)
		d.OperatingSystems = nonNil(d.OperatingSystems)
		d.Machines = nonNil(d.Machines)
	}
}

// TotalSeconds sums the grand totals of every day in the summary.
func (s *Summary) TotalSeconds() float64 {
	var total float64
	for _, d := range s.Data {
		total += d.GrandTotal.TotalSeconds
	}
	return total
}

// Heartbeat is a single editor activity event.
type Heartbeat struct {
	ID              string  `json:"id,omitempty"`
	Entity          string  `json:"entity"`
	Type            string  `json:"type"`
	Category        string  `json:"category,omitempty"`
	Time            float64 `json:"time"` // UNIX timestamp
	Project         string  `json:"project,omitempty"`
	Branch          string  `json:"branch,omitempty"`
	Language        string  `json:"language,omitempty"`
	IsWrite         bool    `json:"is_write"`
	Editor          string  `json:"editor,omitempty"`
	OperatingSystem string  `json:"operating_system,omitempty"`
	Machine         string  `json:"machine,omitempty"`
	Lines           int     `json:"lines,omitempty"`
	LineNo          int     `json:"lineno,omitempty"`
	CursorPos       int     `json:"cursorpos,omitempty"`
}
