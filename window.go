package vtable

// Slice returns rows[w.Start:w.End] in original order without copying or
// re-keying. The result's capacity ends at w.End, so appending to it can't
// overwrite the caller's rows. A window computed against a longer collection
// is re-clamped rather than allowed to index out of range.
func Slice[T any](rows []T, w Window) []T {
	n := len(rows)
	start, end := w.Start, w.End
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return rows[start:end:end]
}
