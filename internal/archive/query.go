package archive

import (
	"math"
	"net/url"
	"strings"

	"github.com/JakeFAU/archivist/internal/config"
	"github.com/JakeFAU/archivist/internal/textutil"
)

// Query is the list state read from the page URL and page configuration.
type Query struct {
	Q        string
	Kind     string
	Page     int
	PageSize int
}

// ParseQuery reads q, kind and p from values. The page size comes from the
// page's data-archive-page-size attribute, falling back to defaultPageSize when
// the attribute is missing or unparseable, and is clamped to the allowed bounds.
func ParseQuery(values url.Values, pageSizeAttr string, defaultPageSize int) Query {
	q := Query{
		Q:    strings.TrimSpace(values.Get("q")),
		Kind: strings.TrimSpace(textutil.Lower(values.Get("kind"))),
		Page: 1,
	}
	if n, ok := parseIntPrefix(values.Get("p")); ok && n >= 1 {
		q.Page = n
	}

	size := defaultPageSize
	if n, ok := parseIntPrefix(pageSizeAttr); ok {
		size = n
	}
	q.PageSize = ClampPageSize(size)
	return q
}

// ClampPageSize bounds n to [MinPageSize, MaxPageSize].
func ClampPageSize(n int) int {
	return max(config.MinPageSize, min(config.MaxPageSize, n))
}

// parseIntPrefix reads an optionally signed run of leading decimal digits after
// skipping whitespace, ignoring whatever follows ("3abc" is 3).
func parseIntPrefix(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r\f\v")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for _, c := range []byte(s) {
		if c < '0' || c > '9' {
			break
		}
		digits++
		if n <= (math.MaxInt32-9)/10 {
			n = n*10 + int(c-'0')
		} else {
			n = math.MaxInt32
		}
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
