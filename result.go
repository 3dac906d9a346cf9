package gotable

// ResultPage is the outcome of running the pipeline for one request.
type ResultPage struct {
	// Rows of the requested page, at most PageSize long.
	Rows []Record
	// Total number of records matching search and filter, before paging.
	Total int
	// PageSize effective window size. Equals Total when paging is off.
	PageSize int
	// TotalPages number of pages for Total records.
	TotalPages int
	// Page the requested page number, >= 1.
	Page int
}

// IsEmpty reports whether the page carries no rows.
func (p ResultPage) IsEmpty() bool {
	return len(p.Rows) == 0
}

// HasPrev reports whether a page precedes this one within the result set.
func (p ResultPage) HasPrev() bool {
	return p.Page > FirstPage && p.TotalPages > 0
}

// HasNext reports whether another page follows this one.
func (p ResultPage) HasNext() bool {
	return p.Page < p.TotalPages
}

// PrevPage returns the previous page number, clamped into [1, TotalPages].
func (p ResultPage) PrevPage() int {
	return max(FirstPage, min(p.Page-1, p.TotalPages))
}

// NextPage returns the next page number, clamped to TotalPages.
func (p ResultPage) NextPage() int {
	return max(FirstPage, min(p.Page+1, p.TotalPages))
}

// LastPage returns the last page number, never less than FirstPage.
func (p ResultPage) LastPage() int {
	return max(FirstPage, p.TotalPages)
}
