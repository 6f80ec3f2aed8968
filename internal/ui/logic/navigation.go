// Package logic holds pure navigation helpers shared by the UI. Nothing
// here touches stores or the terminal, so everything is trivially testable.
package logic

// WrapIndex moves an index by delta within a ring of n items, wrapping at
// both ends. The double modulo keeps the result non-negative for negative
// deltas larger than n.
func WrapIndex(i, delta, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i+delta)%n + n) % n
}

// Clamp bounds v to [lo, hi]. When hi < lo it returns lo.
func Clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MoveFocus moves the focused slot by delta, clamping at the ends rather
// than wrapping. Focus movement should stop at the edges; only image
// cycling wraps.
func MoveFocus(focus, delta, slotCount int) int {
	if slotCount <= 0 {
		return 0
	}
	return Clamp(focus+delta, 0, slotCount-1)
}

// GridColumns returns how many slot cells fit in the given width. At
// least one column is always returned so a narrow terminal still renders.
func GridColumns(width, cellWidth int) int {
	if cellWidth <= 0 {
		return 1
	}
	cols := width / cellWidth
	if cols < 1 {
		return 1
	}
	return cols
}

// ScrollOffset adjusts a row-based viewport offset so the focused row is
// visible. rows is the total number of rows, height how many fit.
func ScrollOffset(offset, focusRow, rows, height int) int {
	if height <= 0 || rows <= 0 {
		return 0
	}
	if focusRow < offset {
		offset = focusRow
	}
	if focusRow >= offset+height {
		offset = focusRow - height + 1
	}
	maxOffset := rows - height
	if maxOffset < 0 {
		maxOffset = 0
	}
	return Clamp(offset, 0, maxOffset)
}
