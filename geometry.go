// Package vtable renders very large row collections as a windowed table:
// only the rows intersecting the viewport, plus a small buffer, are ever
// materialized, while the scroll track keeps the height of the full
// collection.
package vtable

import "math"

// Window is the contiguous, half-open range of rows [Start, End) that must be
// materialized for the current viewport, plus where to put it.
type Window struct {
	Start         int     // first materialized row index
	End           int     // one past the last materialized row index
	OffsetY       float64 // translation of the block so row Start lands at Start*rowHeight
	ContentHeight float64 // height of the full scroll track, never shorter than the viewport
}

// Len returns the number of rows in the window.
func (w Window) Len() int {
	return w.End - w.Start
}

// Contains reports whether row index i is materialized.
func (w Window) Contains(i int) bool {
	return i >= w.Start && i < w.End
}

// ComputeWindow derives the window for a fixed-row-height list.
// It is pure and O(1), so it is safe to call on every scroll event.
//
// Non-positive rowHeight or viewportHeight produce an empty window; callers
// are expected to reject those at configuration time. Negative or NaN
// scrollTop is treated as 0.
func ComputeWindow(rowCount int, rowHeight, viewportHeight, scrollTop float64, bufferSize int) Window {
	if rowCount < 0 {
		rowCount = 0
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	if !(rowHeight > 0) || !(viewportHeight > 0) {
		return Window{}
	}
	if !(scrollTop > 0) {
		scrollTop = 0
	}

	w := Window{
		ContentHeight: math.Max(float64(rowCount)*rowHeight, viewportHeight),
	}
	if rowCount == 0 {
		return w
	}

	// clamp in float space before converting so huge offsets can't overflow int
	first := clampIndex(math.Floor(scrollTop/rowHeight)-float64(bufferSize), 0, rowCount)
	last := clampIndex(math.Ceil((scrollTop+viewportHeight)/rowHeight)+float64(bufferSize), first, rowCount)

	w.Start = first
	w.End = last
	w.OffsetY = float64(first) * rowHeight
	return w
}

// VisibleRange returns the rows actually inside the viewport, ignoring the
// buffer. end is exclusive.
func VisibleRange(rowCount int, rowHeight, viewportHeight, scrollTop float64) (start, end int) {
	w := ComputeWindow(rowCount, rowHeight, viewportHeight, scrollTop, 0)
	return w.Start, w.End
}

// MaxScrollTop is the largest meaningful scroll offset: the content height
// minus the viewport, never negative.
func MaxScrollTop(rowCount int, rowHeight, viewportHeight float64) float64 {
	if rowCount <= 0 || !(rowHeight > 0) || !(viewportHeight > 0) {
		return 0
	}
	return math.Max(float64(rowCount)*rowHeight-viewportHeight, 0)
}

// ClampScrollTop pins top to [0, MaxScrollTop].
func ClampScrollTop(top float64, rowCount int, rowHeight, viewportHeight float64) float64 {
	if !(top > 0) {
		return 0
	}
	return math.Min(top, MaxScrollTop(rowCount, rowHeight, viewportHeight))
}

func clampIndex(f float64, lo, hi int) int {
	if f <= float64(lo) {
		return lo
	}
	if f >= float64(hi) {
		return hi
	}
	return int(f)
}
