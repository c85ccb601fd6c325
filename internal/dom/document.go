// Package dom wraps a parsed HTML page and exposes the parts of it the archive
// pipeline reads and writes.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/JakeFAU/archivist/internal/textutil"
)

// Selectors for the archive page structure.
const (
	SectionSelector   = "section.archive"
	ContainerSelector = ".container"
	ListSelector      = "ol.archive-timeline"
	ItemSelector      = "li.archive-item"
	SkeletonSelector  = "li.archive-item.skeleton"
	EmptySelector     = "p.empty"
	PagerSelector     = ".archive-pager"
	HeroCountSelector = ".archive-hero .filter-note strong"
)

// Page attributes read from the root element.
const (
	AttrAppVersion     = "data-app-ver"
	AttrArchiveVersion = "data-archive-ver"
	AttrPageSize       = "data-archive-page-size"
	AttrBaseURL        = "data-base-url"
	AttrSSR            = "data-ssr"
	AttrReady          = "data-archive-ready"
)

// Document is an HTML page together with the URL it was loaded from.
type Document struct {
	doc *goquery.Document
	url *url.URL
}

// Parse reads an HTML page. pageURL is the address the page is served at; its
// query carries the list state.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	return &Document{doc: doc, url: u}, nil
}

// ParseString is Parse over an in-memory page.
func ParseString(page, pageURL string) (*Document, error) {
	return Parse(strings.NewReader(page), pageURL)
}

// URL returns a copy of the page URL.
func (d *Document) URL() *url.URL {
	u := *d.url
	return &u
}

// Origin returns scheme://host of the page.
func (d *Document) Origin() string {
	return textutil.Origin(d.url)
}

// Param returns the first value of the named query parameter.
func (d *Document) Param(name string) string {
	return d.url.Query().Get(name)
}

// Attr returns the trimmed value of an attribute on the root element.
func (d *Document) Attr(name string) string {
	v, _ := d.doc.Find("html").First().Attr(name)
	return strings.TrimSpace(v)
}

// BaseURL returns the data-base-url prefix without its trailing slash.
func (d *Document) BaseURL() string {
	return strings.TrimSuffix(d.Attr(AttrBaseURL), "/")
}

// Find runs a selector over the whole page.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Section returns the archive section, or an empty selection when the page has none.
func (d *Document) Section() *goquery.Selection {
	return d.doc.Find(SectionSelector).First()
}

// HasArchive reports whether the page carries an archive section.
func (d *Document) HasArchive() bool {
	return d.Section().Length() > 0
}

// Container returns the section's .container, or the section itself.
func (d *Document) Container() *goquery.Selection {
	section := d.Section()
	if c := section.Find(ContainerSelector).First(); c.Length() > 0 {
		return c
	}
	return section
}

// ServerRendered reports whether the server marked the archive with data-ssr="1"
// and already rendered its result: at least one real row or the empty-state message.
func (d *Document) ServerRendered() bool {
	section := d.Section()
	if section.Length() == 0 {
		return false
	}
	marked := section.Is("[" + AttrSSR + `="1"]`) ||
		section.Find(ListSelector+"["+AttrSSR+`="1"]`).Length() > 0
	if !marked {
		return false
	}
	container := d.Container()
	rows := container.Find(ItemSelector).Not(".skeleton").Length()
	return rows > 0 || container.Find(EmptySelector).Length() > 0
}

// Ready reports whether the pipeline already ran against this page.
func (d *Document) Ready() bool {
	v, _ := d.Section().Attr(AttrReady)
	return v == "1"
}

// MarkReady flags the archive section as processed.
func (d *Document) MarkReady() {
	d.Section().SetAttr(AttrReady, "1")
}

// HTML renders the whole page.
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	for _, n := range d.doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render page: %w", err)
		}
	}
	return buf.String(), nil
}

// ListView returns the reconciliation view over the archive list.
func (d *Document) ListView() *ListView {
	return &ListView{container: d.Container()}
}
