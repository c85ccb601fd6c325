package archive

import (
	"strings"

	"github.com/JakeFAU/archivist/internal/textutil"
)

// FilterItems returns the items matching kind and q. A non-empty kind must equal
// the lower-cased item kind. A non-empty q must occur in the title, overline or
// description, or match the tags through MatchTagsFlexible.
func FilterItems(items []Item, q, kind string) []Item {
	needle := strings.TrimSpace(textutil.Lower(q))
	k := textutil.Lower(kind)
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if k != "" && k != textutil.Lower(it.Kind) {
			continue
		}
		if needle == "" || matchesText(it, needle) || MatchTagsFlexible(it.Tags, needle) {
			out = append(out, it)
		}
	}
	return out
}

func matchesText(it Item, needle string) bool {
	return textutil.Like(it.Title, needle) ||
		textutil.Like(it.Overline, needle) ||
		textutil.Like(it.Desc, needle)
}

// MatchTagsFlexible matches q against the tags joined as ",a,b,". Any whitespace
// token of q found in that string is a match, then q as a whole is tried.
// Tokens may straddle a tag boundary; this mirrors a LIKE over the joined column.
func MatchTagsFlexible(tags []string, q string) bool {
	needle := strings.TrimSpace(textutil.Lower(q))
	if needle == "" {
		return false
	}
	lowered := make([]string, len(tags))
	for i, t := range tags {
		lowered[i] = textutil.Lower(t)
	}
	wrapped := "," + strings.Join(lowered, ",") + ","
	for _, tok := range strings.Fields(needle) {
		if strings.Contains(wrapped, tok) {
			return true
		}
	}
	return strings.Contains(wrapped, needle)
}
