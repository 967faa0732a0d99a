// Package rowsource reads an input once to scan every row, then hands the
// rows out again for rendering.
//
// Small inputs are kept in memory during the scan. Inputs above a size limit
// are scanned without keeping rows, rewound, and parsed a second time, so
// memory stays proportional to the number of columns rather than rows.
package rowsource

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/oleg578/dsv/internal/dsv"
)

// DefaultLimit is the input size above which rows are streamed instead of buffered.
const DefaultLimit int64 = 100 * 1024 * 1024

const readBufferSize = 64 << 10

// Rows yields rows one at a time; io.EOF marks the end. Parse and I/O errors
// surface on the row where they occur.
type Rows interface {
	Read() ([]string, error)
}

// Visit is called for every row of the scan pass. first is true only for the
// first row of the input. The row is only valid for the duration of the call.
type Visit func(row []string, first bool) error

// Input is the byte stream a Source reads.
type Input struct {
	// R is the raw stream. It must implement io.Seeker for the streamed path,
	// which rewinds it to the offset it had when Scan was called.
	R io.Reader
	// Size is the number of bytes left in R, or a negative value when unknown.
	Size int64
	// Decode wraps the raw stream before parsing; nil reads it as is. It is
	// called again after rewinding.
	Decode func(io.Reader) io.Reader
}

// Options configures the field reader and the buffering decision.
type Options struct {
	// Comma is the field delimiter.
	Comma byte
	// Limit is the size above which the input is streamed; DefaultLimit when zero.
	Limit int64
}

// Scan reads every row of in, calling visit for each, and returns the rows
// again for a second read. Which strategy is used is not visible to callers.
func Scan(in Input, opts Options, visit Visit) (Rows, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	if seeker, ok := in.R.(io.Seeker); ok && in.Size > limit {
		// Pipes implement io.Seeker on *os.File but fail here.
		if start, err := seeker.Seek(0, io.SeekCurrent); err == nil {
			slog.Debug("streaming input", "size", in.Size, "limit", limit)
			return scanStreamed(in, seeker, start, opts.Comma, visit)
		}
	}
	slog.Debug("buffering input", "size", in.Size, "limit", limit)
	return scanBuffered(in, opts.Comma, visit)
}

// Each streams every row of in to visit once, keeping nothing.
func Each(in Input, comma byte, visit Visit) error {
	n, err := scan(newReader(in, comma), visit, nil)
	slog.Debug("streamed input", "rows", n)
	return err
}

func newReader(in Input, comma byte) *dsv.Reader {
	r := dsv.NewReader(decode(in))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.SkipBlankLines = true
	r.LazyQuotes = true
	return r
}

func decode(in Input) io.Reader {
	var r io.Reader = bufio.NewReaderSize(in.R, readBufferSize)
	if in.Decode != nil {
		r = in.Decode(r)
	}
	return r
}

// scan drives visit over every row of r, calling keep for each row after it
// was visited.
func scan(r *dsv.Reader, visit Visit, keep func([]string)) (int, error) {
	n := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := visit(row, n == 0); err != nil {
			return n, err
		}
		if keep != nil {
			keep(row)
		}
		n++
	}
}

func scanBuffered(in Input, comma byte, visit Visit) (Rows, error) {
	var rows [][]string
	n, err := scan(newReader(in, comma), visit, func(row []string) {
		rows = append(rows, row)
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("scanned input", "rows", n, "strategy", "buffered")
	return &memoryRows{rows: rows}, nil
}

func scanStreamed(in Input, seeker io.Seeker, start int64, comma byte, visit Visit) (Rows, error) {
	r := newReader(in, comma)
	r.ReuseRecord = true
	n, err := scan(r, visit, nil)
	if err != nil {
		return nil, err
	}
	slog.Debug("scanned input", "rows", n, "strategy", "streamed")

	if _, err := seeker.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind input: %w", err)
	}
	r.Reset(decode(in))
	r.ReuseRecord = false
	return r, nil
}

// memoryRows replays rows retained during the scan.
type memoryRows struct {
	rows [][]string
	pos  int
}

func (m *memoryRows) Read() ([]string, error) {
	if m.pos >= len(m.rows) {
		return nil, io.EOF
	}
	row := m.rows[m.pos]
	m.pos++
	return row, nil
}
