package shared

// Filter represents query filter options
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}
}

// Offset returns the row offset implied by the pagination settings
func (f Filter) Offset() int {
	if f.Page <= 0 || f.PageSize <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
