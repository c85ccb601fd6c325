// Package render turns archive items into list rows and reconciles them with
// the page's existing list markup.
package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/JakeFAU/archivist/internal/archive"
	"github.com/JakeFAU/archivist/internal/config"
	"github.com/JakeFAU/archivist/internal/dom"
	"github.com/JakeFAU/archivist/internal/metrics"
	"github.com/JakeFAU/archivist/internal/textutil"
)

var errSplitMarkup = errors.New("parse markup: more than one top-level node")

// Renderer writes archive results into a Document.
type Renderer struct {
	doc     *dom.Document
	printer *message.Printer
	logger  *zap.Logger
}

// New builds a Renderer. locale selects digit grouping for the result count and
// falls back to it-IT when it cannot be parsed.
func New(doc *dom.Document, locale string, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	tag, err := language.Parse(locale)
	if err != nil {
		logger.Warn("unknown locale, using default", zap.String("locale", locale), zap.Error(err))
		tag = language.MustParse(config.DefaultLocale)
	}
	return &Renderer{
		doc:     doc,
		printer: message.NewPrinter(tag),
		logger:  logger.Named("render"),
	}
}

// RenderItem builds the list row for the item at index within a page of total rows.
func (r *Renderer) RenderItem(it archive.Item, index, total int) (*html.Node, error) {
	v := r.view(it, index, total)
	row, err := parseRow(itemMarkup(v))
	if err != nil {
		return nil, err
	}
	fillPanel(row, v)
	return row, nil
}

// RenderList makes the archive list show exactly items, in order. Skeleton and
// server placeholders are replaced in place; a hydrated list is rebuilt. An
// empty collection replaces the list with the no-results message for q.
// It returns the state the list was found in.
func (r *Renderer) RenderList(items []archive.Item, q string) (dom.ListRenderState, error) {
	lv := r.doc.ListView()
	if len(items) == 0 {
		msg, err := emptyMessage(q)
		if err != nil {
			return dom.StateEmpty, err
		}
		lv.ShowEmpty(msg)
		metrics.ObserveRender(dom.StateEmpty.String(), 0)
		return dom.StateEmpty, nil
	}

	lv.EnsureList()
	state := lv.State()

	rows := make([]*html.Node, 0, len(items))
	for i, it := range items {
		row, err := r.RenderItem(it, i, len(items))
		if err != nil {
			return state, fmt.Errorf("render item %s: %w", it.ID, err)
		}
		rows = append(rows, row)
	}

	switch state {
	case dom.StateSkeleton:
		replaceInPlace(lv, lv.Skeletons(), rows)
	case dom.StateServerPlaceholder:
		replaceInPlace(lv, lv.Placeholders(), rows)
	default:
		lv.Clear()
		lv.Append(rows...)
	}

	r.logger.Debug("list rendered", zap.Stringer("state", state), zap.Int("items", len(rows)))
	metrics.ObserveRender(state.String(), len(rows))
	return state, nil
}

// replaceInPlace swaps targets for rows index by index, appends surplus rows,
// drops surplus targets and any other row left over from earlier markup.
func replaceInPlace(lv *dom.ListView, targets, rows []*html.Node) {
	count := min(len(targets), len(rows))
	for i := 0; i < count; i++ {
		lv.Replace(targets[i], rows[i])
	}
	for _, t := range targets[count:] {
		lv.Remove(t)
	}
	lv.Append(rows[count:]...)

	fresh := make(map[*html.Node]struct{}, len(rows))
	for _, row := range rows {
		fresh[row] = struct{}{}
	}
	for _, existing := range lv.Rows() {
		if _, ok := fresh[existing]; !ok {
			lv.Remove(existing)
		}
	}
}

// UpdatePager points the prev/next links at the neighbouring pages, keeping q
// and kind, and labels the current position.
func (r *Renderer) UpdatePager(p archive.Page) {
	pager := r.doc.Find(dom.PagerSelector).First()
	if pager.Length() == 0 {
		return
	}

	prevDisabled := p.Page <= 1
	prevTarget := p.Page - 1
	if prevDisabled {
		prevTarget = 1
	}
	nextDisabled := p.Page >= p.Pages
	nextTarget := p.Page + 1
	if nextDisabled {
		nextTarget = p.Pages
	}

	if prev := pager.Find(`a[rel="prev"]`).First(); prev.Length() > 0 {
		toggleDisabled(prev, prevDisabled)
		prev.SetAttr("href", r.pageHref(prevTarget))
		prev.SetAttr("rel", "prev")
	}
	pager.Find(".curr").First().SetText(fmt.Sprintf("Pag. %d / %d", p.Page, p.Pages))
	if next := pager.Find(`a[rel="next"]`).First(); next.Length() > 0 {
		toggleDisabled(next, nextDisabled)
		next.SetAttr("href", r.pageHref(nextTarget))
		next.SetAttr("rel", "next")
	}
}

func (r *Renderer) pageHref(target int) string {
	u := r.doc.URL()
	q := u.Query()
	q.Set("p", strconv.Itoa(target))
	for _, key := range []string{"q", "kind"} {
		if v := r.doc.Param(key); v != "" {
			q.Set(key, v)
		} else {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// UpdateHeroCount writes the match count with locale digit grouping.
func (r *Renderer) UpdateHeroCount(n int) {
	r.doc.Find(dom.HeroCountSelector).First().SetText(r.FormatCount(n))
}

// FormatCount groups the digits of n for the renderer's locale.
func (r *Renderer) FormatCount(n int) string {
	return r.printer.Sprintf("%d", n)
}

// ShowError appends the generic error panel to the archive container,
// replacing an earlier one. No diagnostic detail reaches the page.
func (r *Renderer) ShowError() error {
	container := r.doc.Container()
	if container.Length() == 0 {
		return nil
	}
	markup := `<div class="archive-error" role="alert" aria-live="assertive">` +
		`<p><strong>Impossibile caricare l&#39;archivio.</strong></p>` +
		`<p>Riprova più tardi o <a href="` + textutil.EscapeHTML(r.doc.Origin()) + `">torna alla home</a>.</p>` +
		`</div>`
	panel, err := parseElement(markup, atom.Div)
	if err != nil {
		return err
	}
	container.Find(".archive-error").Remove()
	container.AppendNodes(panel)
	return nil
}

func emptyMessage(q string) (*html.Node, error) {
	markup := `<p class="empty" role="status" aria-live="polite">Nessun risultato per <em>` +
		textutil.EscapeHTML(textutil.Trim(q)) + `</em>.</p>`
	return parseElement(markup, atom.Div)
}

func parseRow(markup string) (*html.Node, error) {
	return parseElement(markup, atom.Ol)
}

// parseElement parses markup in the given parent context and returns its
// single top-level element. Markup the parser splits into siblings is an error.
func parseElement(markup string, parent atom.Atom) (*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: parent.String(), DataAtom: parent}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	var el *html.Node
	for _, n := range nodes {
		switch {
		case n.Type == html.ElementNode && el == nil:
			el = n
		case n.Type == html.ElementNode:
			return nil, fmt.Errorf("%w: extra <%s> after <%s>", errSplitMarkup, n.Data, el.Data)
		case n.Type == html.TextNode && textutil.Trim(n.Data) == "":
		case n.Type == html.CommentNode:
		default:
			return nil, fmt.Errorf("%w: stray %q", errSplitMarkup, n.Data)
		}
	}
	if el == nil {
		return nil, fmt.Errorf("parse markup: no element in %q", markup)
	}
	return el, nil
}

func toggleDisabled(a *goquery.Selection, disabled bool) {
	if disabled {
		a.AddClass("disabled")
		a.SetAttr("aria-disabled", "true")
		return
	}
	a.RemoveClass("disabled")
	a.SetAttr("aria-disabled", "false")
}
