package archive

// Page is one window of a sorted result set.
type Page struct {
	Total int
	Pages int
	Page  int
	Slice []Item
}

// Paginate returns the requested page of items. Pages is at least 1, page is
// clamped to [1, Pages] and a page size below 1 is treated as 1.
func Paginate(items []Item, page, pageSize int) Page {
	if pageSize < 1 {
		pageSize = 1
	}
	total := len(items)
	pages := max(1, (total+pageSize-1)/pageSize)
	p := min(max(1, page), pages)
	start := min((p-1)*pageSize, total)
	end := min(start+pageSize, total)
	return Page{Total: total, Pages: pages, Page: p, Slice: items[start:end:end]}
}
