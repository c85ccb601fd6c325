package archive

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/JakeFAU/archivist/internal/textutil"
)

// Button variants understood by the stylesheet.
const (
	VariantPrimary   = "btn--primary"
	VariantSecondary = "btn--secondary"
	VariantAccent    = "btn--accent"
	VariantYouTube   = "btn--yt"
	VariantScryfall  = "btn--scry"
	VariantEDHREC    = "btn--edh"
	VariantMoxfield  = "btn--mox"
	VariantArchidekt = "btn--archi"
	VariantBase      = "btn--base"
)

// DefaultPillLabel is used when a link has neither a label nor a host.
const DefaultPillLabel = "Apri"

var (
	canonicalToken = regexp.MustCompile(`(?i)^btn--[a-z0-9-]+$`)
	embeddedToken  = regexp.MustCompile(`\bbtn--[a-z0-9-]+\b`)
	primaryWord    = regexp.MustCompile(`(?i)\bprimary\b`)
)

// legacyVariants maps historical class names to variants. Order matters for the
// substring pass.
var legacyVariants = []struct {
	name    string
	variant string
}{
	{"magenta", VariantSecondary},
	{"youtube", VariantYouTube},
	{"yt", VariantYouTube},
	{"scryfall", VariantScryfall},
	{"scry", VariantScryfall},
	{"edhrec", VariantEDHREC},
	{"edh", VariantEDHREC},
	{"moxfield", VariantMoxfield},
	{"mox", VariantMoxfield},
	{"archidekt", VariantArchidekt},
	{"archi", VariantArchidekt},
	{"indigostroke", VariantBase},
	{"tealstroke", VariantBase},
	{"alphab", VariantBase},
	{"acid", VariantBase},
	{"pink", VariantBase},
	{"orange", VariantBase},
	{"teal", VariantSecondary},
	{"gold", VariantAccent},
	{"accent", VariantAccent},
	{"primary", VariantPrimary},
	{"indigo", VariantPrimary},
	{"base", VariantPrimary},
	{"default", VariantPrimary},
}

var legacyLookup = func() map[string]string {
	m := make(map[string]string, len(legacyVariants))
	for _, lv := range legacyVariants {
		m[lv.name] = lv.variant
	}
	return m
}()

var hostVariants = []struct {
	domain  string
	variant string
}{
	{"youtube.com", VariantYouTube},
	{"scryfall.com", VariantScryfall},
	{"edhrec.com", VariantEDHREC},
	{"moxfield.com", VariantMoxfield},
	{"archidekt.com", VariantArchidekt},
}

func rewriteToken(tok string) string {
	switch tok {
	case "btn--teal":
		return VariantSecondary
	case "btn--gold":
		return VariantAccent
	}
	return tok
}

// resolveHint maps a style hint to a variant, or "" when nothing matches.
func resolveHint(raw string) string {
	t := textutil.Lower(strings.TrimSpace(raw))
	if t == "" {
		return ""
	}
	if m := embeddedToken.FindString(t); m != "" {
		return rewriteToken(m)
	}
	for _, word := range strings.Fields(t) {
		if v, ok := legacyLookup[word]; ok {
			return v
		}
	}
	for _, lv := range legacyVariants {
		if strings.Contains(t, lv.name) {
			return lv.variant
		}
	}
	return ""
}

// NormalizeBtnVariant maps a free-form style hint to a variant, defaulting to
// btn--primary. Embedded btn-- tokens win over legacy names; whole words are
// tried before substrings.
func NormalizeBtnVariant(raw string) string {
	v := resolveHint(raw)
	if v == "" || v == VariantBase {
		return VariantPrimary
	}
	return v
}

// VariantFromURL infers a variant from the link host, or "" for unknown hosts.
func VariantFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := textutil.Lower(u.Hostname())
	if host == "" {
		return ""
	}
	if host == "youtu.be" {
		return VariantYouTube
	}
	for _, hv := range hostVariants {
		if host == hv.domain || strings.HasSuffix(host, "."+hv.domain) {
			return hv.variant
		}
	}
	return ""
}

// PillClassFrom returns the full class attribute for a pill. An explicit hint
// wins; empty, unknown or neutral hints defer to the link host; the final
// fallback is btn--primary.
func PillClassFrom(btnRaw, href string) string {
	raw := strings.TrimSpace(btnRaw)
	var v string
	if canonicalToken.MatchString(raw) {
		v = rewriteToken(textutil.Lower(raw))
	} else {
		v = resolveHint(raw)
	}
	if v == "" || v == VariantBase {
		v = VariantFromURL(href)
	}
	if v == "" {
		v = VariantPrimary
	}
	return "btn " + v + " btn--sm"
}

// PillLabel returns the trimmed label, else the host of href resolved against
// base, else DefaultPillLabel.
func PillLabel(label, href string, base *url.URL) string {
	if l := strings.TrimSpace(label); l != "" {
		return l
	}
	if host := textutil.Host(base, href); host != "" {
		return host
	}
	return DefaultPillLabel
}

// Pill is a secondary link rendered in the item panel.
type Pill struct {
	URL   string
	Label string
	Class string
}

// Election is the outcome of primary-link selection for one item.
type Election struct {
	// PrimaryURL is empty when no link was elected or the elected link has no href.
	PrimaryURL string
	Pills      []Pill
}

// ElectLinks orders links by sort_order (stable) and elects the primary link:
// the first whose style hint contains the word "primary", otherwise the first
// with a non-empty href. Every other link with an href becomes a pill.
func ElectLinks(links []Link, base *url.URL) Election {
	sorted := make([]Link, len(links))
	copy(sorted, links)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortOrder < sorted[j].SortOrder
	})

	primary := -1
	for i, l := range sorted {
		if primaryWord.MatchString(strings.TrimSpace(l.StyleHint())) {
			primary = i
			break
		}
	}
	if primary < 0 {
		for i, l := range sorted {
			if strings.TrimSpace(l.Href) != "" {
				primary = i
				break
			}
		}
	}

	var e Election
	if primary >= 0 {
		e.PrimaryURL = strings.TrimSpace(sorted[primary].Href)
	}
	for i, l := range sorted {
		if i == primary {
			continue
		}
		href := strings.TrimSpace(l.Href)
		if href == "" {
			continue
		}
		e.Pills = append(e.Pills, Pill{
			URL:   href,
			Label: PillLabel(l.Label, href, base),
			Class: PillClassFrom(l.BtnClass, href),
		})
	}
	return e
}
