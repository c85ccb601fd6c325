// Package textutil holds the string and URL helpers shared by the archive pipeline.
package textutil

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	absoluteURL    = regexp.MustCompile(`(?i)^(data:|https?:|//)`)
	invalidIDChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	htmlEscaper    = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
		"`", "&#96;",
	)
)

// Trim removes surrounding whitespace.
func Trim(s string) string { return strings.TrimSpace(s) }

// Lower lower-cases s.
func Lower(s string) string { return strings.ToLower(s) }

// EscapeHTML escapes s for use in element text and quoted attribute values.
func EscapeHTML(s string) string { return htmlEscaper.Replace(s) }

// Like reports whether needle occurs in haystack, ignoring case.
func Like(haystack, needle string) bool {
	return strings.Contains(Lower(haystack), Lower(needle))
}

// SafeID collapses every run of characters outside [A-Za-z0-9_-] into a dash.
func SafeID(s string) string {
	return invalidIDChars.ReplaceAllString(s, "-")
}

// Truncate cuts s to at most n runes and reports whether anything was dropped.
func Truncate(s string, n int) (string, bool) {
	r := []rune(s)
	if len(r) <= n {
		return s, false
	}
	return string(r[:n]), true
}

// IsAbsolute reports whether u is a data URI, an http(s) URL or protocol-relative.
func IsAbsolute(u string) bool { return absoluteURL.MatchString(u) }

// ToSiteURL resolves a site-relative asset path against the page's base URL prefix.
// Absolute references are returned untouched.
func ToSiteURL(baseURL, u string) string {
	if u == "" {
		return ""
	}
	if IsAbsolute(u) {
		return u
	}
	base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	clean := strings.TrimLeft(u, "/")
	if base != "" {
		return base + "/" + clean
	}
	return "/" + clean
}

// BustIfLocal resolves u like ToSiteURL and, for local assets, appends a v=<ver>
// cache-busting parameter.
func BustIfLocal(baseURL, u, ver string) string {
	src := ToSiteURL(baseURL, u)
	if ver == "" || src == "" || IsAbsolute(u) {
		return src
	}
	sep := "?"
	if strings.Contains(src, "?") {
		sep = "&"
	}
	return src + sep + "v=" + url.QueryEscape(ver)
}

// DefaultArchiveEndpoint is used when no endpoint path is configured.
const DefaultArchiveEndpoint = "/archive/list.json"

// BuildArchiveEndpoint resolves the archive data endpoint for a page.
// An empty base falls back to DefaultArchiveEndpoint. When version is set it is
// written to the v query parameter against the page origin; otherwise the path
// resolves against the page itself.
func BuildArchiveEndpoint(page *url.URL, base, version string) string {
	finalBase := Trim(base)
	if finalBase == "" {
		finalBase = DefaultArchiveEndpoint
	}
	ver := Trim(version)

	ref, err := url.Parse(finalBase)
	if err != nil || page == nil {
		if ver == "" {
			return finalBase
		}
		sep := "?"
		if strings.Contains(finalBase, "?") {
			sep = "&"
		}
		return finalBase + sep + "v=" + url.QueryEscape(ver)
	}

	if ver == "" {
		return page.ResolveReference(ref).String()
	}
	origin := &url.URL{Scheme: page.Scheme, Host: page.Host, Path: "/"}
	resolved := origin.ResolveReference(ref)
	q := resolved.Query()
	q.Set("v", ver)
	resolved.RawQuery = q.Encode()
	return resolved.String()
}

// Origin returns scheme://host for u.
func Origin(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Host returns the host portion of raw resolved against base, or "" when it
// cannot be parsed.
func Host(base *url.URL, raw string) string {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	return ref.Host
}
