package pagination

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// MaxPage keeps (Page-1)*PageSize within int for any page size New allows.
const MaxPage = math.MaxInt / MaxPageSize

// Params is a 1-based page window.
type Params struct {
	Page     int
	PageSize int
}

// New normalizes a requested page and page size. A page below 1 becomes 1,
// a page size below 1 becomes defaultSize (or DefaultPageSize when that is
// unset), page sizes are capped at MaxPageSize and pages at MaxPage.
func New(page, pageSize, defaultSize int) Params {
	if defaultSize < 1 {
		defaultSize = DefaultPageSize
	}
	if pageSize < 1 {
		pageSize = defaultSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	return Params{Page: page, PageSize: pageSize}
}

// Offset is the number of rows skipped before this page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit is the maximum number of rows on this page.
func (p Params) Limit() int {
	return p.PageSize
}

// TotalPages returns ceil(total / PageSize). Zero matches give zero pages.
func (p Params) TotalPages(total int) int {
	if total <= 0 || p.PageSize < 1 {
		return 0
	}
	return (total + p.PageSize - 1) / p.PageSize
}

// OutOfRange reports whether the page lies past the last page for total rows.
// Such a page is still valid and simply yields no rows.
func (p Params) OutOfRange(total int) bool {
	off := p.Offset()
	return off < 0 || off >= total
}

// Response wraps one page of results.
type Response struct {
	Data        interface{} `json:"data"`
	Total       int         `json:"total"`
	TotalPages  int         `json:"totalPages"`
	CurrentPage int         `json:"currentPage"`
	PageSize    int         `json:"pageSize"`
}

func NewResponse(data interface{}, total int, p Params) *Response {
	return &Response{
		Data:        data,
		Total:       total,
		TotalPages:  p.TotalPages(total),
		CurrentPage: p.Page,
		PageSize:    p.PageSize,
	}
}
