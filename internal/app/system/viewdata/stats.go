package viewdata

import (
	"github.com/dalemusser/trinetra/internal/app/system/viewfmt"
	"github.com/dalemusser/trinetra/internal/domain/models"
)

// TopN is how many entries a ranked list shows.
const TopN = 5

// StatCard is one headline number, rendered by "stats/card".
type StatCard struct {
	Label string
	Value string
	Glow  string // purple, blue, pink, cyan
}

// RankedRow is one formatted breakdown entry.
type RankedRow struct {
	Name     string
	Duration string
	Percent  string // blank hides the column
}

// RankedList is a titled breakdown, rendered by "stats/list". Empty is
// shown instead of rows when there are none.
type RankedList struct {
	Heading string
	Rows    []RankedRow
	Empty   string
}

// NewRankedList formats the first TopN entries in the order given.
func NewRankedList(heading, empty string, entries []models.StatEntry, withPercent bool) RankedList {
	top := models.Top(entries, TopN)
	rows := make([]RankedRow, 0, len(top))
	for _, e := range top {
		row := RankedRow{Name: e.Name, Duration: viewfmt.Duration(e.TotalSeconds)}
		if withPercent {
			row.Percent = viewfmt.Percent(e.Percent)
		}
		rows = append(rows, row)
	}
	return RankedList{Heading: heading, Rows: rows, Empty: empty}
}
