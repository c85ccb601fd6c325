package render

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/JakeFAU/archivist/internal/archive"
	"github.com/JakeFAU/archivist/internal/dom"
)

const testURL = "https://site.test/archive/?q=deck&kind=video&p=2"

func newDoc(t *testing.T, rootAttrs, body string) *dom.Document {
	t.Helper()
	page := `<!doctype html><html ` + rootAttrs + `><body>` + body + `</body></html>`
	doc, err := dom.ParseString(page, testURL)
	require.NoError(t, err)
	return doc
}

func archiveSection(list string) string {
	return `<section class="archive"><div class="container">` + list + `</div></section>`
}

func sectionHTML(t *testing.T, doc *dom.Document) string {
	t.Helper()
	out, err := goquery.OuterHtml(doc.Section())
	require.NoError(t, err)
	return out
}

func rowIDs(doc *dom.Document) []string {
	var ids []string
	doc.Find("li.archive-item article.item").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("data-item-id")
		ids = append(ids, id)
	})
	return ids
}

func sampleItems(ids ...string) []archive.Item {
	items := make([]archive.Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, archive.Item{ID: id, Title: "Item " + id, Kind: "content"})
	}
	return items
}

func TestRenderItemFullMarkup(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, `data-app-ver="9" data-base-url="https://site.test/"`, archiveSection(`<ol class="archive-timeline"></ol>`))
	r := New(doc, "it-IT", nil)

	item := archive.Item{
		ID:       "v 1",
		Kind:     "Video",
		Title:    `Deck <b>tech</b>`,
		Overline: "Episodio 3",
		Desc:     `Una descrizione <script>alert(1)</script>abbastanza lunga da superare il limite dei sessanta caratteri`,
		Content:  `<p onclick="x()">Esteso</p>`,
		Links: []archive.Link{
			{Href: "https://youtube.com/watch?v=1", BtnClass: "primary"},
			{Href: "https://scryfall.com/card", Label: "Carta", SortOrder: 1},
			{Href: "https://moxfield.com/decks/1", SortOrder: 2},
		},
	}
	node, err := r.RenderItem(item, 0, 3)
	require.NoError(t, err)
	li := goquery.NewDocumentFromNode(node).Selection

	assert.True(t, li.Is("li.archive-item.is-video"))
	num, _ := li.Attr("data-item-number")
	assert.Equal(t, "3", num)
	style, _ := li.Attr("style")
	assert.Contains(t, style, "--item-number: 3")
	assert.Contains(t, style, `--item-bg: url("https://site.test/images/cards/fblthp_placeholder.webp?v=9")`)

	article := li.Find("article.item")
	id, _ := article.Attr("data-item-id")
	assert.Equal(t, "v 1", id)
	kind, _ := article.Attr("data-kind")
	assert.Equal(t, "video", kind)
	role, _ := article.Attr("role")
	assert.Equal(t, "button", role)
	aria, _ := article.Attr("aria-label")
	assert.True(t, strings.HasPrefix(aria, "Apri video: Deck <b>tech</b> - Episodio 3. Una descrizione"))
	assert.True(t, strings.HasSuffix(aria, "..."))
	describedBy, _ := article.Attr("aria-describedby")
	assert.Equal(t, "links-v-1-desc", describedBy)

	thumb := li.Find("a.item-thumb")
	require.Equal(t, 1, thumb.Length())
	href, _ := thumb.Attr("href")
	assert.Equal(t, "https://youtube.com/watch?v=1", href)
	assert.Equal(t, 1, thumb.Find("svg.item-thumb-button-icon").Length())
	src, _ := thumb.Find("img").Attr("src")
	assert.Equal(t, "https://site.test/images/cards/fblthp_placeholder.webp?v=9", src)

	assert.Equal(t, "Deck <b>tech</b>", li.Find("h2.item-title").Text())
	assert.Equal(t, 0, li.Find("h2.item-title b").Length(), "title must be escaped")
	assert.Equal(t, "Video", li.Find(".item-badge").Text())
	assert.Contains(t, li.Find(".item-overline").Text(), "Episodio 3")
	assert.Equal(t, 0, li.Find("p.item-desc-preview script").Length())

	toggle := li.Find("button.item-actions-summary")
	controls, _ := toggle.Attr("aria-controls")
	assert.Equal(t, "links-v-1", controls)
	expanded, _ := toggle.Attr("aria-expanded")
	assert.Equal(t, "false", expanded)
	assert.Equal(t, "Dettagli e link (2)", toggle.Find(".sr-only").Text())
	assert.Equal(t, 1, li.Find("button.item-kebab").Length())
	assert.Equal(t, 1, li.Find("article.item > a.item-row-link").Length())

	panel := li.Find("div.item-panel#links-v-1")
	require.Equal(t, 1, panel.Length())
	_, hidden := panel.Attr("hidden")
	assert.True(t, hidden)
	assert.Equal(t, 0, panel.Find("script").Length())
	_, hasOnclick := panel.Find(".item-content-extended p").Attr("onclick")
	assert.False(t, hasOnclick)
	assert.Equal(t, 2, panel.Find("hr.item-separator").Length())

	pills := panel.Find(".item-ctas a")
	require.Equal(t, 2, pills.Length())
	cls, _ := pills.Eq(0).Attr("class")
	assert.Equal(t, "btn btn--scry btn--sm", cls)
	assert.Equal(t, "Carta", pills.Eq(0).Text())
	assert.Equal(t, "moxfield.com", pills.Eq(1).Text())
}

func TestRenderItemMinimal(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, ``, archiveSection(``))
	r := New(doc, "it-IT", nil)

	node, err := r.RenderItem(archive.Item{ID: "7", Title: "Solo titolo", Thumb: "https://cdn.test/x.webp"}, 1, 2)
	require.NoError(t, err)
	li := goquery.NewDocumentFromNode(node).Selection

	assert.True(t, li.Is("li.archive-item.is-content"))
	assert.Equal(t, 1, li.Find("figure.item-thumb").Length())
	assert.Equal(t, 0, li.Find("a.item-thumb").Length())
	src, _ := li.Find("img").Attr("src")
	assert.Equal(t, "https://cdn.test/x.webp", src)
	assert.Equal(t, "Contenuto", li.Find(".item-badge").Text())
	assert.Equal(t, 0, li.Find(".item-panel").Length())
	assert.Equal(t, 0, li.Find("button").Length())
	assert.Equal(t, 0, li.Find(".item-row-link").Length())
	aria, _ := li.Find("article").Attr("aria-label")
	assert.Equal(t, "Apri contenuto: Solo titolo", aria)
	num, _ := li.Attr("data-item-number")
	assert.Equal(t, "1", num)
}

func TestRenderItemPanelSeparators(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, ``, archiveSection(``))
	r := New(doc, "it-IT", nil)

	tests := []struct {
		name       string
		item       archive.Item
		separators int
		label      string
	}{
		{name: "desc only", item: archive.Item{ID: "1", Title: "t", Desc: "d"}, separators: 0, label: "Dettagli"},
		{name: "content only", item: archive.Item{ID: "2", Title: "t", Content: "c"}, separators: 0, label: "Dettagli"},
		{name: "desc and pills", item: archive.Item{ID: "3", Title: "t", Desc: "d", Links: []archive.Link{{Href: "https://a.test"}, {Href: "https://b.test"}}}, separators: 1, label: "Dettagli e link (1)"},
		{name: "pills only", item: archive.Item{ID: "4", Title: "t", Links: []archive.Link{{Href: "https://a.test"}, {Href: "https://b.test"}}}, separators: 0, label: "Dettagli e link (1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := r.RenderItem(tt.item, 0, 1)
			require.NoError(t, err)
			li := goquery.NewDocumentFromNode(node).Selection
			panel := li.Find(".item-panel")
			require.Equal(t, 1, panel.Length())
			assert.Equal(t, tt.separators, panel.Find("hr.item-separator").Length())
			assert.Equal(t, tt.label, li.Find(".item-actions-summary .sr-only").Text())
			assert.False(t, panel.Children().First().Is("hr"))
			assert.False(t, panel.Children().Last().Is("hr"))
		})
	}
}

func listItemRow() archive.Item {
	return archive.Item{
		ID:      "li-1",
		Title:   "Lista",
		Desc:    "Intro<li>uno</li>",
		Content: "Esteso",
		Links: []archive.Link{
			{Href: "https://youtube.com/watch?v=2", BtnClass: "primary"},
			{Href: "https://scryfall.com/card/2", Label: "Carta", SortOrder: 1},
		},
	}
}

func TestRenderItemKeepsPanelWithListDescription(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, ``, archiveSection(``))
	r := New(doc, "it-IT", nil)

	node, err := r.RenderItem(listItemRow(), 0, 1)
	require.NoError(t, err)
	li := goquery.NewDocumentFromNode(node).Selection

	panel := li.Find(".item-panel")
	require.Equal(t, 1, panel.Length())
	summary := panel.Find(".item-summary")
	require.Equal(t, 1, summary.Length())
	assert.True(t, summary.Is("div"))
	assert.Contains(t, summary.Text(), "Intro")
	assert.Equal(t, "uno", summary.Find("ul > li").Text())
	assert.Equal(t, 1, panel.Find(".item-content-extended").Length())
	assert.Equal(t, "Esteso", panel.Find(".item-content-extended").Text())
	assert.Equal(t, 1, panel.Find(".item-ctas a").Length())
	assert.Equal(t, 2, panel.Find("hr.item-separator").Length())
	assert.Equal(t, "Dettagli e link (1)", li.Find(".item-actions-summary .sr-only").Text())
}

func TestRenderItemSurvivesReparse(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, ``, archiveSection(``))
	r := New(doc, "it-IT", nil)

	node, err := r.RenderItem(listItemRow(), 0, 1)
	require.NoError(t, err)

	var buf strings.Builder
	buf.WriteString(`<ol class="archive-timeline">`)
	require.NoError(t, html.Render(&buf, node))
	buf.WriteString(`</ol>`)

	reparsed, err := goquery.NewDocumentFromReader(strings.NewReader(buf.String()))
	require.NoError(t, err)
	rows := reparsed.Find("ol.archive-timeline > li.archive-item")
	require.Equal(t, 1, rows.Length())
	panel := rows.Find(".item-panel")
	require.Equal(t, 1, panel.Length())
	assert.Equal(t, 1, panel.Find(".item-summary ul > li").Length())
	assert.Equal(t, 1, panel.Find(".item-content-extended").Length())
	assert.Equal(t, 1, panel.Find(".item-ctas a").Length())
}

func TestRenderItemInlineDescriptionUsesParagraph(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, ``, archiveSection(``))
	r := New(doc, "it-IT", nil)

	node, err := r.RenderItem(archive.Item{ID: "9", Title: "t", Desc: "testo <em>breve</em>"}, 0, 1)
	require.NoError(t, err)
	summary := goquery.NewDocumentFromNode(node).Find(".item-summary")
	require.Equal(t, 1, summary.Length())
	assert.True(t, summary.Is("p"))
	assert.Equal(t, "breve", summary.Find("em").Text())
}

func TestParseElementRejectsSplitMarkup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		markup string
		parent atom.Atom
	}{
		{name: "sibling elements", markup: `<li>a</li><li>b</li>`, parent: atom.Ol},
		{name: "nested row closes outer", markup: `<li class="row"><div><li>x</li></div></li>`, parent: atom.Ol},
		{name: "trailing text", markup: `<p>a</p>tail`, parent: atom.Div},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := parseElement(tt.markup, tt.parent)
			assert.ErrorIs(t, err, errSplitMarkup)
		})
	}

	node, err := parseElement("  <p>ok</p>\n", atom.Div)
	require.NoError(t, err)
	assert.Equal(t, "p", node.Data)
}

func TestRenderListReplacesSkeletons(t *testing.T) {
	t.Parallel()

	t.Run("fewer items than skeletons", func(t *testing.T) {
		t.Parallel()
		doc := newDoc(t, ``, archiveSection(`<ol class="archive-timeline"><li class="archive-item skeleton"></li><li class="archive-item skeleton"></li><li class="archive-item skeleton"></li></ol>`))
		state, err := New(doc, "it-IT", nil).RenderList(sampleItems("a", "b"), "")
		require.NoError(t, err)
		assert.Equal(t, dom.StateSkeleton, state)
		assert.Equal(t, []string{"a", "b"}, rowIDs(doc))
		assert.Equal(t, 0, doc.Find(".skeleton").Length())
	})

	t.Run("more items than skeletons", func(t *testing.T) {
		t.Parallel()
		doc := newDoc(t, ``, archiveSection(`<ol class="archive-timeline"><li class="archive-item skeleton"></li></ol>`))
		_, err := New(doc, "it-IT", nil).RenderList(sampleItems("a", "b", "c"), "")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, rowIDs(doc))
		assert.Equal(t, 0, doc.Find(".skeleton").Length())
	})
}

func TestRenderListReplacesServerPlaceholders(t *testing.T) {
	t.Parallel()

	list := `<ol class="archive-timeline">` +
		`<li class="archive-item"><article class="item" data-item-id="old1"></article></li>` +
		`<li class="archive-item"><article class="item" data-item-id="old2"></article></li>` +
		`</ol>`
	doc := newDoc(t, ``, archiveSection(list))
	state, err := New(doc, "it-IT", nil).RenderList(sampleItems("x"), "")
	require.NoError(t, err)
	assert.Equal(t, dom.StateServerPlaceholder, state)
	assert.Equal(t, []string{"x"}, rowIDs(doc))
	title := doc.Find("h2.item-title")
	require.Equal(t, 1, title.Length())
	assert.Equal(t, "Item x", title.Text())
}

func TestRenderListIsIdempotent(t *testing.T) {
	t.Parallel()

	items := []archive.Item{
		{ID: "1", Title: "Uno", Desc: "desc", Links: []archive.Link{{Href: "https://a.test"}, {Href: "https://b.test"}}},
		{ID: "2", Title: "Due", Content: "<p>extra</p>"},
	}

	once := newDoc(t, ``, archiveSection(`<ol class="archive-timeline"></ol>`))
	_, err := New(once, "it-IT", nil).RenderList(items, "")
	require.NoError(t, err)

	twice := newDoc(t, ``, archiveSection(`<ol class="archive-timeline"></ol>`))
	r := New(twice, "it-IT", nil)
	_, err = r.RenderList(items, "")
	require.NoError(t, err)
	state, err := r.RenderList(items, "")
	require.NoError(t, err)
	assert.Equal(t, dom.StateHydrated, state)

	assert.Equal(t, sectionHTML(t, once), sectionHTML(t, twice))
	assert.Equal(t, 1, twice.Find("ol.archive-timeline").Length())
	assert.Equal(t, 2, twice.Find("li.archive-item").Length())
}

func TestRenderListFromSkeletonMatchesCleanRender(t *testing.T) {
	t.Parallel()

	items := sampleItems("3", "2", "1")

	clean := newDoc(t, ``, archiveSection(`<ol class="archive-timeline"></ol>`))
	_, err := New(clean, "it-IT", nil).RenderList(items, "")
	require.NoError(t, err)

	skel := newDoc(t, ``, archiveSection(`<ol class="archive-timeline"><li class="archive-item skeleton"></li><li class="archive-item skeleton"></li></ol>`))
	r := New(skel, "it-IT", nil)
	_, err = r.RenderList(items, "")
	require.NoError(t, err)
	_, err = r.RenderList(items, "")
	require.NoError(t, err)

	assert.Equal(t, sectionHTML(t, clean), sectionHTML(t, skel))
}

func TestRenderListEmptyStateRoundTrip(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, ``, archiveSection(`<ol class="archive-timeline"><li class="archive-item skeleton"></li></ol>`))
	r := New(doc, "it-IT", nil)

	state, err := r.RenderList(nil, ` <img src=x onerror=alert(1)> `)
	require.NoError(t, err)
	assert.Equal(t, dom.StateEmpty, state)
	assert.Equal(t, 0, doc.Find("ol.archive-timeline").Length())
	empty := doc.Find("p.empty")
	require.Equal(t, 1, empty.Length())
	role, _ := empty.Attr("role")
	assert.Equal(t, "status", role)
	live, _ := empty.Attr("aria-live")
	assert.Equal(t, "polite", live)
	assert.Equal(t, "<img src=x onerror=alert(1)>", empty.Find("em").Text())
	assert.Equal(t, 0, empty.Find("img").Length())
	assert.Equal(t, "Nessun risultato per <img src=x onerror=alert(1)>.", empty.Text())

	_, err = r.RenderList(nil, "again")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("p.empty").Length())

	_, err = r.RenderList(sampleItems("a"), "")
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Find("p.empty").Length())
	assert.Equal(t, 1, doc.Find("ol.archive-timeline").Length())
	assert.Equal(t, []string{"a"}, rowIDs(doc))
}

func TestRenderListCreatesMissingList(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, ``, `<section class="archive"></section>`)
	_, err := New(doc, "it-IT", nil).RenderList(sampleItems("a", "b"), "")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("section.archive > ol.archive-timeline").Length())
	assert.Equal(t, []string{"a", "b"}, rowIDs(doc))
}

func TestUpdatePager(t *testing.T) {
	t.Parallel()

	pager := `<nav class="archive-pager"><a rel="prev" class="btn">Prec</a><span class="curr"></span><a rel="next" class="btn disabled">Succ</a></nav>`

	t.Run("first page", func(t *testing.T) {
		t.Parallel()
		doc := newDoc(t, ``, archiveSection(``)+pager)
		New(doc, "it-IT", nil).UpdatePager(archive.Page{Page: 1, Pages: 3})

		prev := doc.Find(`a[rel="prev"]`)
		assert.True(t, prev.HasClass("disabled"))
		disabled, _ := prev.Attr("aria-disabled")
		assert.Equal(t, "true", disabled)
		href, _ := prev.Attr("href")
		assert.Equal(t, "https://site.test/archive/?kind=video&p=1&q=deck", href)

		next := doc.Find(`a[rel="next"]`)
		assert.False(t, next.HasClass("disabled"))
		disabled, _ = next.Attr("aria-disabled")
		assert.Equal(t, "false", disabled)
		href, _ = next.Attr("href")
		assert.Equal(t, "https://site.test/archive/?kind=video&p=2&q=deck", href)

		assert.Equal(t, "Pag. 1 / 3", doc.Find(".curr").Text())
	})

	t.Run("last page", func(t *testing.T) {
		t.Parallel()
		doc := newDoc(t, ``, archiveSection(``)+pager)
		New(doc, "it-IT", nil).UpdatePager(archive.Page{Page: 3, Pages: 3})

		next := doc.Find(`a[rel="next"]`)
		assert.True(t, next.HasClass("disabled"))
		href, _ := next.Attr("href")
		assert.Equal(t, "https://site.test/archive/?kind=video&p=3&q=deck", href)
		href, _ = doc.Find(`a[rel="prev"]`).Attr("href")
		assert.Equal(t, "https://site.test/archive/?kind=video&p=2&q=deck", href)
	})

	t.Run("drops empty params", func(t *testing.T) {
		t.Parallel()
		page := `<!doctype html><html><body>` + archiveSection(``) + pager + `</body></html>`
		doc, err := dom.ParseString(page, "https://site.test/archive/?q=&p=1&utm=x")
		require.NoError(t, err)
		New(doc, "it-IT", nil).UpdatePager(archive.Page{Page: 1, Pages: 1})
		href, _ := doc.Find(`a[rel="next"]`).Attr("href")
		assert.Equal(t, "https://site.test/archive/?p=1&utm=x", href)
	})

	t.Run("no pager", func(t *testing.T) {
		t.Parallel()
		doc := newDoc(t, ``, archiveSection(``))
		New(doc, "it-IT", nil).UpdatePager(archive.Page{Page: 1, Pages: 1})
	})
}

func TestUpdateHeroCount(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, ``, `<div class="archive-hero"><p class="filter-note"><strong>0</strong> risultati</p></div>`+archiveSection(``))
	r := New(doc, "it-IT", nil)

	r.UpdateHeroCount(1234567)
	assert.Equal(t, "1.234.567", doc.Find(".archive-hero .filter-note strong").Text())

	r.UpdateHeroCount(12)
	assert.Equal(t, "12", doc.Find(".archive-hero .filter-note strong").Text())

	en := New(doc, "en-US", nil)
	assert.Equal(t, "1,234,567", en.FormatCount(1234567))

	fallback := New(doc, "not a locale!!", nil)
	assert.Equal(t, "1.234.567", fallback.FormatCount(1234567))
}

func TestShowError(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, ``, archiveSection(`<ol class="archive-timeline"><li class="archive-item skeleton"></li></ol>`))
	r := New(doc, "it-IT", nil)

	require.NoError(t, r.ShowError())
	require.NoError(t, r.ShowError())

	panel := doc.Find(".container > div.archive-error")
	require.Equal(t, 1, panel.Length())
	role, _ := panel.Attr("role")
	assert.Equal(t, "alert", role)
	live, _ := panel.Attr("aria-live")
	assert.Equal(t, "assertive", live)
	assert.Equal(t, "Impossibile caricare l'archivio.", panel.Find("strong").Text())
	home, _ := panel.Find("a").Attr("href")
	assert.Equal(t, "https://site.test", home)
	assert.Equal(t, 1, doc.Find(".skeleton").Length(), "existing list stays visible")
}
