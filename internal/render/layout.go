package render

// RowRange is a half-open range of rows placed on one page.
type RowRange struct {
	Start int
	End   int
}

// SliceRows splits a block of total rows into page slices. The first page has
// room for first rows, every following page for perPage rows. The slices are
// contiguous and cover every row exactly once. When the first page has no
// room the block starts on a new page, signalled by a leading empty range.
func SliceRows(total, first, perPage int) []RowRange {
	if total <= 0 {
		return nil
	}
	if perPage < 1 {
		perPage = 1
	}
	if first < 0 {
		first = 0
	}

	var slices []RowRange
	start := 0
	capacity := first
	for start < total {
		end := start + capacity
		if end > total {
			end = total
		}
		slices = append(slices, RowRange{Start: start, End: end})
		start = end
		capacity = perPage
	}
	return slices
}

// Fits reports whether a block of the given height can start at y without
// crossing the bottom limit.
func Fits(y, height, bottom float64) bool {
	return y+height <= bottom
}
