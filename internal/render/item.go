package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/JakeFAU/archivist/internal/archive"
	"github.com/JakeFAU/archivist/internal/config"
	"github.com/JakeFAU/archivist/internal/dom"
	"github.com/JakeFAU/archivist/internal/sanitize"
	"github.com/JakeFAU/archivist/internal/textutil"
)

// PlaceholderThumb is shown for items without a thumbnail.
const PlaceholderThumb = "images/cards/fblthp_placeholder.webp"

const videoThumbButton = `<span class="item-thumb-button" aria-hidden="true">` +
	`<svg class="item-thumb-button-icon" viewBox="0 0 68 48" xmlns="http://www.w3.org/2000/svg">` +
	`<path class="item-thumb-button-shape" d="M66.52,7.74c-0.78-2.93-2.49-5.41-5.42-6.19C55.79,.13,34,0,34,0S12.21,.13,6.9,1.55 C3.97,2.33,2.27,4.81,1.48,7.74C0.06,13.05,0,24,0,24s0.06,10.95,1.48,16.26c0.78,2.93,2.49,5.41,5.42,6.19 C12.21,47.87,34,48,34,48s21.79-0.13,27.1-1.55c2.93-0.78,4.64-3.26,5.42-6.19C67.94,34.95,68,24,68,24S67.94,13.05,66.52,7.74z"></path>` +
	`<path class="item-thumb-button-symbol" d="M 45,24 27,14 27,34"></path>` +
	`</svg></span>`

const openThumbButton = `<span class="item-thumb-button" aria-hidden="true">Apri</span>`

const kebabIcon = `<svg class="item-kebab__icon" width="20" height="20" viewBox="0 0 24 24" fill="currentColor" aria-hidden="true">` +
	`<circle cx="12" cy="5" r="2"></circle><circle cx="12" cy="12" r="2"></circle><circle cx="12" cy="19" r="2"></circle></svg>`

// itemView holds the derived, unescaped values one row is built from.
type itemView struct {
	id         string
	kind       string
	kindLabel  string
	number     int
	overline   string
	title      string
	desc       string
	content    string
	descNodes  []*html.Node
	extNodes   []*html.Node
	summaryTag string
	thumbSrc   string
	bgSrc      string
	election   archive.Election
	panelID    string
	hasPanel   bool
	pillsCount int
}

func (r *Renderer) view(it archive.Item, index, total int) itemView {
	appVer := r.doc.Attr(dom.AttrAppVersion)
	base := r.doc.BaseURL()

	thumb := textutil.Trim(it.Thumb)
	if thumb == "" {
		thumb = PlaceholderThumb
	}
	thumbSrc := textutil.BustIfLocal(base, thumb, appVer)
	bgSrc := thumbSrc
	if bg := textutil.Trim(it.BackgroundImage); bg != "" {
		bgSrc = textutil.BustIfLocal(base, bg, appVer)
	}

	kind := it.KindClass()
	kindLabel := "Contenuto"
	if kind == "video" {
		kindLabel = "Video"
	}

	v := itemView{
		id:        it.ID,
		kind:      kind,
		kindLabel: kindLabel,
		number:    total - index,
		overline:  textutil.Trim(it.Overline),
		title:     textutil.Trim(it.Title),
		desc:      textutil.Trim(it.Desc),
		content:   textutil.Trim(it.Content),
		thumbSrc:  thumbSrc,
		bgSrc:     bgSrc,
		election:  archive.ElectLinks(it.Links, r.doc.URL()),
		panelID:   "links-" + textutil.SafeID(it.ID),
	}
	v.descNodes = sanitize.Nodes(v.desc)
	v.extNodes = sanitize.Nodes(v.content)
	v.summaryTag = "p"
	if sanitize.HasBlock(v.descNodes) {
		v.summaryTag = "div"
	}
	v.pillsCount = len(v.election.Pills)
	v.hasPanel = v.desc != "" || v.content != "" || v.pillsCount > 0
	return v
}

func (v itemView) summaryLabel() string {
	if v.pillsCount > 0 {
		return fmt.Sprintf("Dettagli e link (%d)", v.pillsCount)
	}
	return "Dettagli"
}

// ariaLabel reads "Apri <kind>: <title>[ - <overline>][. <desc>]" with the
// description cut to AriaDescriptionMaxChars.
func (v itemView) ariaLabel() string {
	var b strings.Builder
	b.WriteString("Apri ")
	b.WriteString(strings.ToLower(v.kindLabel))
	b.WriteString(": ")
	b.WriteString(v.title)
	if v.overline != "" {
		b.WriteString(" - ")
		b.WriteString(v.overline)
	}
	if v.desc != "" {
		short, cut := textutil.Truncate(v.desc, config.AriaDescriptionMaxChars)
		b.WriteString(". ")
		b.WriteString(short)
		if cut {
			b.WriteString("...")
		}
	}
	return b.String()
}

func cssURL(src string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", "", "\r", "")
	return `url("` + r.Replace(src) + `")`
}

// itemMarkup builds the <li> row for one item. Item text is escaped; the panel
// description and extended content are left empty for fillPanel.
func itemMarkup(v itemView) string {
	esc := textutil.EscapeHTML
	var b strings.Builder

	style := fmt.Sprintf("--item-number: %d; --item-bg: %s", v.number, cssURL(v.bgSrc))
	fmt.Fprintf(&b, `<li class="archive-item is-%s" data-item-number="%d" style="%s">`,
		esc(v.kind), v.number, esc(style))

	fmt.Fprintf(&b, `<article class="item" data-item-id="%s" data-kind="%s" role="button" tabindex="0" aria-label="%s"`,
		esc(v.id), esc(v.kind), esc(v.ariaLabel()))
	if v.desc != "" {
		fmt.Fprintf(&b, ` aria-describedby="%s-desc"`, esc(v.panelID))
	}
	b.WriteString(`>`)

	writeMedia(&b, v)
	writeContent(&b, v)

	if v.hasPanel {
		fmt.Fprintf(&b, `<button class="item-kebab" type="button" aria-controls="%s" aria-label="Dettagli e link" title="Dettagli">%s</button>`,
			esc(v.panelID), kebabIcon)
	}
	if url := v.election.PrimaryURL; url != "" {
		fmt.Fprintf(&b, `<a class="item-row-link" href="%s" target="_blank" rel="noopener" aria-hidden="true" tabindex="-1"></a>`, esc(url))
	}
	b.WriteString(`</article>`)

	if v.hasPanel {
		writePanel(&b, v)
	}
	b.WriteString(`</li>`)
	return b.String()
}

func writeMedia(b *strings.Builder, v itemView) {
	esc := textutil.EscapeHTML
	img := fmt.Sprintf(`<img src="%s" alt="%s" width="720" height="1280" loading="lazy" decoding="async">`,
		esc(v.thumbSrc), esc(v.title))

	b.WriteString(`<div class="item-media">`)
	if url := v.election.PrimaryURL; url != "" {
		button := openThumbButton
		if v.kind == "video" {
			button = videoThumbButton
		}
		fmt.Fprintf(b, `<a class="item-thumb" href="%s" target="_blank" rel="noopener" aria-label="Apri: %s">%s%s</a>`,
			esc(url), esc(v.title), img, button)
	} else {
		fmt.Fprintf(b, `<figure class="item-thumb">%s</figure>`, img)
	}
	b.WriteString(`</div>`)
}

func writeContent(b *strings.Builder, v itemView) {
	esc := textutil.EscapeHTML
	b.WriteString(`<div class="item-content"><div class="item-header"><div class="item-overline">`)
	b.WriteString(esc(v.overline))
	fmt.Fprintf(b, `<span class="item-badge">%s</span></div>`, v.kindLabel)
	fmt.Fprintf(b, `<h2 class="item-title">%s</h2></div>`, esc(v.title))
	if v.desc != "" {
		fmt.Fprintf(b, `<p class="item-desc-preview">%s</p>`, esc(v.desc))
	}
	if v.hasPanel {
		fmt.Fprintf(b, `<button class="item-actions-summary" type="button" aria-controls="%s" aria-expanded="false"><span class="sr-only">%s</span></button>`,
			esc(v.panelID), esc(v.summaryLabel()))
	}
	b.WriteString(`</div>`)
}

// writePanel emits the hidden detail panel. Separators only sit between
// sections that are present. The summary becomes a <div> when the
// description carries block elements.
func writePanel(b *strings.Builder, v itemView) {
	esc := textutil.EscapeHTML
	var sections []string
	if v.desc != "" {
		sections = append(sections, fmt.Sprintf(`<%s class="item-summary" id="%s-desc"></%s>`,
			v.summaryTag, esc(v.panelID), v.summaryTag))
	}
	if v.content != "" {
		sections = append(sections, `<div class="item-content-extended"></div>`)
	}
	if v.pillsCount > 0 {
		var pills strings.Builder
		for _, p := range v.election.Pills {
			fmt.Fprintf(&pills, `<a class="%s" href="%s" target="_blank" rel="noopener" title="%s">%s</a>`,
				esc(p.Class), esc(p.URL), esc(p.Label), esc(p.Label))
		}
		sections = append(sections, fmt.Sprintf(`<div class="item-ctas" role="group" aria-label="Collegamenti">%s</div>`, pills.String()))
	}

	fmt.Fprintf(b, `<div class="item-panel" id="%s" hidden="" aria-hidden="true">`, esc(v.panelID))
	b.WriteString(strings.Join(sections, `<hr class="item-separator">`))
	b.WriteString(`</div>`)
}

// fillPanel moves the sanitized description and extended content into the
// panel of a parsed row.
func fillPanel(row *html.Node, v itemView) {
	if !v.hasPanel {
		return
	}
	panel := goquery.NewDocumentFromNode(row).Find(".item-panel").First()
	if len(v.descNodes) > 0 {
		panel.Find(".item-summary").First().AppendNodes(v.descNodes...)
	}
	if len(v.extNodes) > 0 {
		panel.Find(".item-content-extended").First().AppendNodes(v.extNodes...)
	}
}
