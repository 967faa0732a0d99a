package subset

// Resolution tracks how far a Spec has been turned into column positions.
// It moves from pending to complete exactly once; after that it is never
// changed again and every row is projected through the same positions.
type Resolution struct {
	spec Spec

	indexes     []int
	maxRequired int
	maxSeen     int
	complete    bool
}

// Complete reports whether resolution has finished.
func (r *Resolution) Complete() bool { return r.complete }

// Indexes returns the resolved 0-based positions. For a None Spec it is nil.
func (r *Resolution) Indexes() []int { return r.indexes }

// MaxSeen returns the highest 0-based position observed in any row so far,
// or -1 before any non-empty row.
func (r *Resolution) MaxSeen() int { return r.maxSeen }

// Observe feeds one scanned row to the resolution. first must be true for the
// first row read from the input, which a ByName Spec treats as the header.
func (r *Resolution) Observe(row []string, first bool) error {
	if r.complete {
		return nil
	}

	switch r.spec.kind {
	case ByIndex:
		r.maxSeen = max(r.maxSeen, len(row)-1)
		r.indexes = r.indexes[:0]
		for _, i := range r.spec.indexes {
			if i <= r.maxSeen {
				r.indexes = append(r.indexes, i)
			}
		}
		if r.maxSeen >= r.maxRequired {
			r.complete = true
		}
	case ByName:
		if !first {
			return nil
		}
		return r.resolveNames(row)
	}
	return nil
}

// resolveNames matches the requested names against the header row. The first
// occurrence of a duplicated header wins.
func (r *Resolution) resolveNames(header []string) error {
	lookup := make(map[string]int, len(header))
	for i, name := range header {
		if _, ok := lookup[name]; !ok {
			lookup[name] = i
		}
	}

	var missing []string
	indexes := make([]int, 0, len(r.spec.names))
	for _, name := range r.spec.names {
		i, ok := lookup[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		indexes = append(indexes, i)
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Names: missing}
	}

	r.indexes = indexes
	r.maxSeen = max(r.maxSeen, len(header)-1)
	r.complete = true
	return nil
}

// ProjectRow returns a new row holding the resolved columns in order. Positions
// past the end of row become empty fields. A None Spec returns row unchanged.
func (r *Resolution) ProjectRow(row []string) []string {
	if r.spec.kind == None {
		return row
	}
	out := make([]string, len(r.indexes))
	for j, i := range r.indexes {
		if i < len(row) {
			out[j] = row[i]
		}
	}
	return out
}

// ProjectWidths applies the resolved positions to a width vector so that it
// lines up with rows returned by ProjectRow.
func (r *Resolution) ProjectWidths(widths []int) []int {
	if r.spec.kind == None {
		return widths
	}
	out := make([]int, len(r.indexes))
	for j, i := range r.indexes {
		if i < len(widths) {
			out[j] = widths[i]
		}
	}
	return out
}
