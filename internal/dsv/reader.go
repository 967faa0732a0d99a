package dsv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unsafe"
)

const defaultBufferSize = 1 << 10 // 1024 bytes

var (
	// ErrBareQuote is returned when an unexpected quote is found in an unquoted field.
	ErrBareQuote = errors.New("dsv: bare quote in non-quoted field")
	// ErrUnterminatedQuote is returned when a quoted field is not closed before EOF or record end.
	ErrUnterminatedQuote = errors.New("dsv: unterminated quoted field")
	// ErrorFieldCount is returned when a record contains an unexpected number of fields.
	ErrorFieldCount = errors.New("dsv: wrong number of fields")
	// ErrInvalidDelim is returned when the delimiter and quote collide or either is a line break.
	ErrInvalidDelim = errors.New("dsv: invalid field delimiter or quote character")
)

// ParseError contains location information for parsing errors.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

// Error formats the parse error message with the stored line, column, and Err values.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("dsv: parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
}

// Unwrap returns the underlying Err so ParseError participates in errors.Unwrap.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Reader parses delimiter-separated records from a byte stream.
type Reader struct {
	src io.Reader

	// Comma is the field delimiter. Default is ','.
	Comma byte
	// Quote is the quote character. Default is '"'.
	Quote byte
	// ReuseRecord indicates whether Read should reuse the backing array of the returned slice.
	ReuseRecord bool
	// FieldsPerRecord expects each record to contain this many fields. Zero captures the
	// width of the first record; a negative value accepts records of any width.
	FieldsPerRecord int
	// SkipBlankLines drops records made of a bare line terminator.
	SkipBlankLines bool
	// LazyQuotes keeps a quote that does not open a field as a literal byte
	// instead of failing with ErrBareQuote. Text after a closing quote is
	// appended to the field either way.
	LazyQuotes bool

	buf    []byte
	bufPos int
	bufLen int
	bufErr error

	record      []string
	dataBuf     []byte
	fieldBounds []int
	finished    bool
	quoted      bool
	line        int
}

// NewReader creates a Reader that consumes data from r, panicking if r is nil.
func NewReader(r io.Reader) *Reader {
	if r == nil {
		panic("dsv: reader source cannot be nil")
	}

	return &Reader{
		src:         r,
		Comma:       ',',
		Quote:       '"',
		buf:         make([]byte, defaultBufferSize),
		record:      make([]string, 0, 16),
		dataBuf:     make([]byte, 0, 512),
		fieldBounds: make([]int, 0, 32),
		line:        1,
	}
}

// Reset points the Reader at src and discards all buffered input and parse
// position. All exported configuration fields are kept. Records returned
// before Reset stay valid.
func (r *Reader) Reset(src io.Reader) {
	if src == nil {
		panic("dsv: reader source cannot be nil")
	}
	r.src = src
	if r.buf == nil {
		r.buf = make([]byte, defaultBufferSize)
	}
	r.bufPos = 0
	r.bufLen = 0
	r.bufErr = nil
	r.record = nil
	r.dataBuf = make([]byte, 0, 512)
	r.fieldBounds = r.fieldBounds[:0]
	r.finished = false
	r.quoted = false
	r.line = 1
}

// Line reports the line the next record starts on.
func (r *Reader) Line() int {
	return r.line
}

// Read parses the next record from the underlying stream. It returns dst containing
// the field values (which may reuse internal storage when ReuseRecord is true) and an err
// indicating success or failure; io.EOF signals that no more records remain.
func (r *Reader) Read() (dst []string, err error) {
	if r == nil || r.src == nil {
		return nil, io.EOF
	}
	comma, quote, err := r.delimiters()
	if err != nil {
		return nil, err
	}
	for {
		record, err := r.readRecord(comma, quote)
		if record == nil && err == nil {
			// Blank line dropped by buildRecord.
			continue
		}
		return record, err
	}
}

func (r *Reader) delimiters() (comma, quote byte, err error) {
	comma = r.Comma
	if comma == 0 {
		comma = ','
	}
	quote = r.Quote
	if quote == 0 {
		quote = '"'
	}
	if comma == quote || comma == '\n' || comma == '\r' || quote == '\n' || quote == '\r' {
		return 0, 0, ErrInvalidDelim
	}
	return comma, quote, nil
}

func (r *Reader) readRecord(comma, quote byte) ([]string, error) {
	if r.finished {
		return nil, io.EOF
	}

	// Reset state for assembling the next record, reusing slices when allowed.
	if r.ReuseRecord {
		r.record = r.record[:0]
	} else {
		r.record = nil
	}
	r.dataBuf = r.dataBuf[:0]
	r.fieldBounds = r.fieldBounds[:0]
	r.quoted = false

	inQuotes := false
	sawQuotedField := false
	column := 1
	fieldStart := 0

	for {
		// Ensure the working buffer has data before parsing the next byte.
		if r.bufPos >= r.bufLen {
			if r.bufErr != nil {
				curColumn := column
				err := r.bufErr
				r.bufErr = nil
				if err == io.EOF {
					r.finished = true
					if inQuotes {
						return nil, r.wrapError(curColumn, ErrUnterminatedQuote)
					}
					// Flush a trailing field if data ended without a newline.
					if len(r.fieldBounds) > 0 || len(r.dataBuf) > 0 || sawQuotedField {
						r.fieldBounds = append(r.fieldBounds, fieldStart, len(r.dataBuf))
						return r.buildRecord()
					}
					return nil, io.EOF
				}
				return nil, err
			}

			n, err := r.src.Read(r.buf)
			if n == 0 {
				if err != nil {
					r.bufErr = err
				}
				continue
			}
			r.bufPos = 0
			r.bufLen = n
			r.bufErr = err
		}

		if !inQuotes {
			// Fast-path plain bytes until a quote or delimiter is encountered.
			data := r.buf[r.bufPos:r.bufLen]
			if len(data) == 0 {
				continue
			}

			if quoteIdx := bytes.IndexByte(data, quote); quoteIdx != 0 {
				// Limit the scan to the bytes before the quote, if any.
				end := r.bufLen
				if quoteIdx > 0 {
					end = r.bufPos + quoteIdx
				}
				recordDone, err := r.consumePlain(comma, end, &column, &fieldStart, &sawQuotedField)
				if err != nil {
					return nil, err
				}
				if recordDone {
					return r.buildRecord()
				}
				if r.bufPos >= r.bufLen {
					continue
				}
			}
		}

		curColumn := column
		b := r.buf[r.bufPos]
		r.bufPos++

		if inQuotes {
			if b == quote {
				// Double quote inside quotes represents an escaped quote.
				next, err := r.peekByte()
				if err == nil && next == quote {
					r.bufPos++
					r.dataBuf = append(r.dataBuf, quote)
					column = curColumn + 2
					continue
				}
				if err != nil && err != io.EOF {
					return nil, err
				}
				inQuotes = false
				column = curColumn + 1
				continue
			}
			if b == '\n' {
				// Track logical line numbers for embedded newlines.
				r.dataBuf = append(r.dataBuf, b)
				r.line++
				column = 1
				continue
			}

			start := r.bufPos - 1
			run := 1 + r.scanRun(quote, '\n', '\n', '\n')
			column = curColumn + run
			r.dataBuf = append(r.dataBuf, r.buf[start:start+run]...)
			continue
		}

		switch b {
		case comma:
			r.fieldBounds = append(r.fieldBounds, fieldStart, len(r.dataBuf))
			fieldStart = len(r.dataBuf)
			sawQuotedField = false
			column = curColumn + 1
		case '\n':
			r.fieldBounds = append(r.fieldBounds, fieldStart, len(r.dataBuf))
			r.line++
			return r.buildRecord()
		case '\r':
			next, err := r.peekByte()
			if err == nil && next == '\n' {
				r.bufPos++
			}
			if err != nil && err != io.EOF {
				return nil, err
			}
			r.fieldBounds = append(r.fieldBounds, fieldStart, len(r.dataBuf))
			r.line++
			return r.buildRecord()
		case quote:
			// A quote starts a quoted field only if we have not buffered any characters yet.
			if len(r.dataBuf) == fieldStart && !sawQuotedField {
				inQuotes = true
				sawQuotedField = true
				r.quoted = true
				column = curColumn + 1
				continue
			}
			if r.LazyQuotes {
				r.dataBuf = append(r.dataBuf, quote)
				column = curColumn + 1
				continue
			}
			return nil, r.wrapError(curColumn, ErrBareQuote)
		default:
			start := r.bufPos - 1
			run := 1 + r.scanRun(comma, '\n', '\r', quote)
			column = curColumn + run
			r.dataBuf = append(r.dataBuf, r.buf[start:start+run]...)
		}
	}
}

// scanRun advances past buffered bytes up to the first of the given stop bytes
// and reports how many were skipped.
func (r *Reader) scanRun(a, b, c, d byte) int {
	run := 0
	for _, ch := range r.buf[r.bufPos:r.bufLen] {
		if ch == a || ch == b || ch == c || ch == d {
			break
		}
		run++
	}
	r.bufPos += run
	return run
}

// ReadAll exhausts the reader, repeatedly calling Read to collect records until io.EOF
// and returning the accumulated records slice plus the first non-EOF error encountered.
func (r *Reader) ReadAll() (records [][]string, err error) {
	for {
		record, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

// buildRecord maps the accumulated fieldBounds onto the data buffer, respecting ReuseRecord,
// and returns the materialised []string representing the current record. A skipped blank
// line yields a nil record and a nil error.
func (r *Reader) buildRecord() ([]string, error) {
	fieldCount := len(r.fieldBounds) / 2

	if r.SkipBlankLines && fieldCount == 1 && len(r.dataBuf) == 0 && !r.quoted {
		return nil, nil
	}

	var recordStr string
	if r.ReuseRecord {
		if len(r.dataBuf) > 0 {
			// Zero-copy string construction so fields can share a single backing buffer.
			recordStr = unsafe.String(unsafe.SliceData(r.dataBuf), len(r.dataBuf))
		}
		if cap(r.record) < fieldCount {
			r.record = make([]string, fieldCount)
		}
		r.record = r.record[:fieldCount]
	} else {
		recordStr = string(r.dataBuf)
		r.record = make([]string, fieldCount)
	}

	for i := 0; i < fieldCount; i++ {
		start := r.fieldBounds[2*i]
		end := r.fieldBounds[2*i+1]
		r.record[i] = recordStr[start:end]
	}

	switch {
	case r.FieldsPerRecord < 0:
		return r.record, nil
	case r.FieldsPerRecord == 0:
		r.FieldsPerRecord = len(r.record)
		return r.record, nil
	case len(r.record) != r.FieldsPerRecord:
		return r.record, ErrorFieldCount
	}
	return r.record, nil
}

// wrapError attaches the current line and supplied column to err, producing a *ParseError.
func (r *Reader) wrapError(column int, err error) error {
	return &ParseError{Line: r.line, Column: column, Err: err}
}

// consumePlain consumes unquoted field data in buf[bufPos:end], updating *column, *fieldStart,
// and *sawQuotedField. It reports whether a record terminator was seen and returns any read
// error encountered.
func (r *Reader) consumePlain(comma byte, end int, column *int, fieldStart *int, sawQuotedField *bool) (bool, error) {
	for {
		if r.bufPos >= end {
			return false, nil
		}

		// Locate the closest delimiter or record terminator within the buffered bytes.
		data := r.buf[r.bufPos:end]
		next := len(data)
		delim := byte(0)
		for _, c := range [...]byte{comma, '\n', '\r'} {
			if idx := bytes.IndexByte(data[:next], c); idx >= 0 {
				next = idx
				delim = c
			}
		}

		// Append the plain run preceding the delimiter and advance position counters.
		if next > 0 {
			r.dataBuf = append(r.dataBuf, data[:next]...)
			r.bufPos += next
			*column += next
		}

		if delim == 0 {
			return false, nil
		}

		r.bufPos++
		r.fieldBounds = append(r.fieldBounds, *fieldStart, len(r.dataBuf))
		*sawQuotedField = false
		if delim == comma {
			*fieldStart = len(r.dataBuf)
			*column = *column + 1
			continue
		}
		if delim == '\r' {
			// Support CRLF by peeking ahead for '\n' and consuming it together.
			nextByte, err := r.peekByte()
			if err == nil && nextByte == '\n' {
				r.bufPos++
			} else if err != nil && err != io.EOF {
				return false, err
			}
		}
		r.line++
		*column = 1
		return true, nil
	}
}

// peekByte returns the next buffered byte (refilling from src as needed) and propagates any read error.
func (r *Reader) peekByte() (byte, error) {
	for {
		if r.bufPos < r.bufLen {
			return r.buf[r.bufPos], nil
		}
		if r.bufErr != nil {
			return 0, r.bufErr
		}

		n, err := r.src.Read(r.buf)
		if n == 0 && err != nil {
			return 0, err
		}
		if n == 0 {
			continue
		}
		r.bufPos = 0
		r.bufLen = n
		r.bufErr = err
	}
}
