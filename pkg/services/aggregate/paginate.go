package aggregate

const DefaultPageSize = 10

// PageSizes are the items-per-page choices offered to users.
var PageSizes = []int{5, 10, 20, 50}

// Paginate returns the 1-based page of items. Pages outside the data yield an empty slice.
func Paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 || pageSize < 1 {
		return []T{}
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Pager tracks the current page over a result set of Total items.
type Pager struct {
	Page     int
	PageSize int
	Total    int
}

func NewPager(pageSize int) *Pager {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Pager{Page: 1, PageSize: pageSize}
}

// SetPageSize changes the page size and returns to the first page.
func (p *Pager) SetPageSize(size int) {
	if size < 1 {
		size = DefaultPageSize
	}
	p.PageSize = size
	p.Page = 1
}

// SetTotal updates the item count, pulling the current page back inside the data.
func (p *Pager) SetTotal(total int) {
	p.Total = total
	if last := p.TotalPages(); p.Page > last {
		p.Page = last
	}
	if p.Page < 1 {
		p.Page = 1
	}
}

// SetPage jumps to page, clamped to the valid range.
func (p *Pager) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	if last := p.TotalPages(); page > last {
		page = last
	}
	p.Page = page
}

func (p *Pager) HasPrev() bool {
	return p.Page > 1
}

func (p *Pager) HasNext() bool {
	return p.Page*p.PageSize < p.Total
}

func (p *Pager) Next() bool {
	if !p.HasNext() {
		return false
	}
	p.Page++
	return true
}

func (p *Pager) Prev() bool {
	if !p.HasPrev() {
		return false
	}
	p.Page--
	return true
}

// TotalPages is at least 1 so an empty result still has a (blank) first page.
func (p *Pager) TotalPages() int {
	if p.Total == 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}
