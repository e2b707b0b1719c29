package core

// paginate returns the 1-based page of rows. A non-positive size returns
// everything.
func paginate[T any](rows []T, page, size int) ([]T, int, int) {
	if size <= 0 {
		return rows, 1, len(rows)
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return []T{}, page, size
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], page, size
}
