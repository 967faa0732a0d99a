// Package table lays delimited rows out as an aligned ASCII table.
//
// Column widths are computed by an Accumulator in a full pass over the input,
// then a Renderer pads every cell to its column width:
//
//	+------+-----+
//	| name | age |
//	+------+-----+
//	| ann  | 31  |
//	+------+-----+
package table

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// TabWidth is the number of spaces a tab character expands to.
const TabWidth = 4

var tabSpaces = strings.Repeat(" ", TabWidth)

// Measure returns the display width of a cell whose tabs are already expanded.
type Measure func(s string) int

// CountRunes measures a cell by its character count.
func CountRunes(s string) int { return utf8.RuneCountInString(s) }

// TerminalWidth measures a cell by the terminal cells it occupies, counting
// East Asian wide characters as two columns and combining marks as zero.
func TerminalWidth(s string) int { return runewidth.StringWidth(s) }

// ExpandTabs replaces every tab with TabWidth spaces.
func ExpandTabs(s string) string {
	if strings.IndexByte(s, '\t') < 0 {
		return s
	}
	return strings.ReplaceAll(s, "\t", tabSpaces)
}

// CellWidth is the padded width of field: its measured width with each tab
// counted as TabWidth columns.
func CellWidth(field string, m Measure) int {
	if m == nil {
		m = CountRunes
	}
	return m(ExpandTabs(field))
}

// HeaderIndexPrefix is the "<n>. " annotation for the 0-based column i.
func HeaderIndexPrefix(i int) string {
	return strconv.Itoa(i+1) + ". "
}

// Accumulator computes the widest cell per column over a sequence of rows.
// Widths only ever grow.
type Accumulator struct {
	measure       Measure
	headerIndexes bool

	widths []int
	rows   int
}

// NewAccumulator returns an Accumulator measuring cells with m (CountRunes
// when nil). With headerIndexes set, the first row reserves room for the
// "<n>. " prefix the renderer puts in front of each header cell.
func NewAccumulator(m Measure, headerIndexes bool) *Accumulator {
	if m == nil {
		m = CountRunes
	}
	return &Accumulator{measure: m, headerIndexes: headerIndexes}
}

// Add widens the columns to fit row.
func (a *Accumulator) Add(row []string) {
	for len(a.widths) < len(row) {
		a.widths = append(a.widths, 0)
	}
	for i, field := range row {
		w := CellWidth(field, a.measure)
		if a.rows == 0 && a.headerIndexes {
			w += len(HeaderIndexPrefix(i))
		}
		if w > a.widths[i] {
			a.widths[i] = w
		}
	}
	a.rows++
}

// Widths returns a copy of the current column widths.
func (a *Accumulator) Widths() []int {
	return append([]int(nil), a.widths...)
}

// Rows reports how many rows have been added.
func (a *Accumulator) Rows() int { return a.rows }
