package profile

// Page is one page of repository analyses with its metadata.
type Page struct {
	Data       []*RepositoryAnalysis `json:"data"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
	Total      int64                 `json:"totalItems"`
	TotalPages int                   `json:"totalPages"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage clamps page and size to sane bounds.
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// NewPage fills the derived fields.
func NewPage(data []*RepositoryAnalysis, page, size int, total int64) Page {
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	if data == nil {
		data = []*RepositoryAnalysis{}
	}
	return Page{Data: data, Page: page, PageSize: size, Total: total, TotalPages: pages}
}
