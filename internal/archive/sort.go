package archive

import (
	"sort"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
	"2006/1/2",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseDate returns the Unix millisecond timestamp of s, or 0 when s is empty
// or in no recognized layout. Zone-less values are read as UTC, not local time.
func ParseDate(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

// SortItems returns a copy of items ordered by date, newest first. Equal dates
// are ordered by id compared as strings, descending, so "2" precedes "10".
func SortItems(items []Item) []Item {
	type keyed struct {
		item Item
		date int64
	}
	tmp := make([]keyed, len(items))
	for i, it := range items {
		tmp[i] = keyed{item: it, date: ParseDate(it.Date)}
	}
	sort.SliceStable(tmp, func(i, j int) bool {
		if tmp[i].date != tmp[j].date {
			return tmp[i].date > tmp[j].date
		}
		return tmp[i].item.ID > tmp[j].item.ID
	})
	out := make([]Item, len(tmp))
	for i := range tmp {
		out[i] = tmp[i].item
	}
	return out
}
