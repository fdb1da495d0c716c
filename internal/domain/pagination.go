package domain

// Page selects a window of a collection. Zero means "not set":
// Offset 0 skips nothing and Limit 0 returns everything after Offset.
type Page struct {
	Limit  int
	Offset int
}

// Validate rejects negative bounds.
func (p Page) Validate() error {
	if p.Limit < 0 {
		return Invalid("limit", "must be a positive number")
	}
	if p.Offset < 0 {
		return Invalid("offset", "must be a positive number")
	}
	return nil
}

// Window applies the page to a collection of n items and returns the
// [start, end) bounds. Drivers without native skip/limit use it.
func (p Page) Window(n int) (start, end int) {
	start = p.Offset
	if start > n {
		start = n
	}
	end = n
	if p.Limit > 0 && start+p.Limit < n {
		end = start + p.Limit
	}
	return start, end
}
