// Package subset selects, reorders and repeats columns of delimited rows.
//
// A Spec describes what the user asked for: nothing, a list of 1-based column
// numbers and ranges, or a list of header names. A Resolution turns a Spec
// into concrete 0-based column positions while rows are scanned, and then
// projects rows and column widths through those positions.
package subset

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// MaxRangeSpan bounds how many positions a single "a-b" range may cover.
const MaxRangeSpan = 10_000

// Kind identifies the variant of a Spec.
type Kind int

const (
	// None keeps every column as is.
	None Kind = iota
	// ByIndex selects columns by 0-based position.
	ByIndex
	// ByName selects columns by header text.
	ByName
)

func (k Kind) String() string {
	switch k {
	case ByIndex:
		return "index"
	case ByName:
		return "name"
	default:
		return "none"
	}
}

var (
	// ErrConflictingSubsets is returned when both numbered and named subsets are requested.
	ErrConflictingSubsets = errors.New("cannot use numbered fields and named fields together")
	// ErrZeroIndex is returned for column number 0; columns are numbered from 1.
	ErrZeroIndex = errors.New("column numbers start at 1")
	// ErrRangeTooLarge is returned for ranges spanning more than MaxRangeSpan positions.
	ErrRangeTooLarge = errors.New("range is too large")
)

// RangeError reports a range whose start is not below its end.
type RangeError struct {
	Entry string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range %s, start must be less than end", e.Entry)
}

// MissingColumnsError lists every requested header name absent from the header row.
type MissingColumnsError struct {
	Names []string
}

func (e *MissingColumnsError) Error() string {
	return "columns not found in header: " + strings.Join(e.Names, ", ")
}

// Spec is an immutable column selection request.
type Spec struct {
	kind    Kind
	indexes []int
	names   []string
}

// New builds a Spec from the raw numbered and named flag values. An empty
// string means the flag was not given. Setting both is an error.
func New(numbered, named string) (Spec, error) {
	switch {
	case numbered != "" && named != "":
		return Spec{}, ErrConflictingSubsets
	case numbered != "":
		return ParseNumbered(numbered)
	case named != "":
		return ParseNamed(named), nil
	default:
		return Spec{}, nil
	}
}

// Indexes returns a Spec selecting the given 0-based positions in order.
func Indexes(idx ...int) Spec {
	return Spec{kind: ByIndex, indexes: append([]int(nil), idx...)}
}

// Names returns a Spec selecting the given header names in order.
func Names(names ...string) Spec {
	return Spec{kind: ByName, names: append([]string(nil), names...)}
}

// ParseNumbered parses a comma separated list of 1-based column numbers and
// inclusive "a-b" ranges. Order and duplicates are kept. Tokens that are
// neither a number nor a range are skipped with a warning.
func ParseNumbered(raw string) (Spec, error) {
	var idx []int
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if n, ok := parseNumber(entry); ok {
			if n == 0 {
				return Spec{}, ErrZeroIndex
			}
			idx = append(idx, n-1)
			continue
		}

		lo, hi, ok := strings.Cut(entry, "-")
		start, okStart := parseNumber(lo)
		end, okEnd := parseNumber(hi)
		if !ok || !okStart || !okEnd {
			slog.Warn("ignoring malformed column number", "entry", entry)
			continue
		}
		if start == 0 {
			return Spec{}, ErrZeroIndex
		}
		if start >= end {
			return Spec{}, &RangeError{Entry: entry}
		}
		if end-start > MaxRangeSpan {
			return Spec{}, fmt.Errorf("%w: %s", ErrRangeTooLarge, entry)
		}
		for n := 0; n <= end-start; n++ {
			idx = append(idx, start+n-1)
		}
	}
	return Spec{kind: ByIndex, indexes: idx}, nil
}

// parseNumber accepts a non-empty run of ASCII digits.
func parseNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseNamed splits a comma separated list of header names. Names are used
// verbatim.
func ParseNamed(raw string) Spec {
	return Spec{kind: ByName, names: strings.Split(raw, ",")}
}

// Kind reports the Spec variant.
func (s Spec) Kind() Kind { return s.kind }

// IsNone reports whether the Spec keeps every column.
func (s Spec) IsNone() bool { return s.kind == None }

// Resolve starts a Resolution for one run over an input. It takes no
// header flag: a ByName Spec always resolves against the first row, even
// when the table is printed without a header band, and the other kinds
// never look at the header at all.
func (s Spec) Resolve() *Resolution {
	r := &Resolution{spec: s, maxRequired: -1, maxSeen: -1}
	switch s.kind {
	case None:
		r.complete = true
	case ByIndex:
		for _, i := range s.indexes {
			r.maxRequired = max(r.maxRequired, i)
		}
		if len(s.indexes) == 0 {
			r.complete = true
		}
	}
	return r
}
