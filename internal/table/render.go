package table

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Rows yields rows one at a time; io.EOF marks the end.
type Rows interface {
	Read() ([]string, error)
}

// Project rewrites a row before it is printed.
type Project func(row []string) []string

// Options controls how a table is drawn.
type Options struct {
	// Header prints a separator line under the first row.
	Header bool
	// HeaderIndexes prefixes each header cell with its 1-based column number.
	HeaderIndexes bool
	// Measure sizes cells; CountRunes when nil. It must match the Measure the
	// widths were accumulated with.
	Measure Measure
	// Project is applied to every row before it is printed; nil keeps rows as is.
	Project Project
}

// Renderer writes rows as a bordered table sized by a fixed width vector.
type Renderer struct {
	w      *bufio.Writer
	widths []int
	opts   Options

	line strings.Builder
}

// NewRenderer returns a Renderer for the given (already projected) column widths.
func NewRenderer(w io.Writer, widths []int, opts Options) *Renderer {
	if opts.Measure == nil {
		opts.Measure = CountRunes
	}
	return &Renderer{
		w:      bufio.NewWriter(w),
		widths: widths,
		opts:   opts,
	}
}

// Render drains rows and writes the table. Empty input writes nothing at all.
// The first row is the header band; the bottom border is printed only when at
// least one data row (or an unseparated first row) was written.
func (r *Renderer) Render(rows Rows) error {
	first, err := r.next(rows)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}

	hasData := false
	if err := r.border(); err != nil {
		return err
	}
	if err := r.row(first, r.opts.HeaderIndexes); err != nil {
		return err
	}
	if r.opts.Header {
		if err := r.border(); err != nil {
			return err
		}
	} else {
		hasData = true
	}

	for {
		row, err := r.next(rows)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		hasData = true
		if err := r.row(row, false); err != nil {
			return err
		}
	}

	if hasData {
		if err := r.border(); err != nil {
			return err
		}
	}
	if err := r.w.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

func (r *Renderer) next(rows Rows) ([]string, error) {
	row, err := rows.Read()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			// Rows already written stay visible before the error is reported.
			_ = r.w.Flush()
		}
		return nil, err
	}
	if r.opts.Project != nil {
		row = r.opts.Project(row)
	}
	return row, nil
}

// border writes "+----+---+" with width+2 dashes per column.
func (r *Renderer) border() error {
	r.line.Reset()
	for _, w := range r.widths {
		r.line.WriteByte('+')
		r.line.WriteString(strings.Repeat("-", w+2))
	}
	r.line.WriteString("+\n")
	return r.flushLine()
}

// row writes "| cell | cell |", padding each cell to its column width. A
// missing trailing field prints as a blank cell.
func (r *Renderer) row(row []string, headerIndexes bool) error {
	r.line.Reset()
	for i, w := range r.widths {
		r.line.WriteString("| ")
		pad := w
		if i < len(row) {
			cell := ExpandTabs(row[i])
			if headerIndexes {
				cell = HeaderIndexPrefix(i) + cell
			}
			r.line.WriteString(cell)
			pad = w - r.opts.Measure(cell)
		}
		if pad > 0 {
			r.line.WriteString(strings.Repeat(" ", pad))
		}
		r.line.WriteByte(' ')
	}
	r.line.WriteString("|\n")
	return r.flushLine()
}

func (r *Renderer) flushLine() error {
	if _, err := r.w.WriteString(r.line.String()); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}
