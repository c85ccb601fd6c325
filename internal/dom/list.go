package dom

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ListRenderState classifies what the archive list holds before a render.
type ListRenderState int

const (
	// StateEmpty is a list without rows, or no list at all.
	StateEmpty ListRenderState = iota
	// StateSkeleton is a list holding layout placeholders.
	StateSkeleton
	// StateServerPlaceholder is a list of server-rendered rows lacking the
	// interactive panel and toggle markup.
	StateServerPlaceholder
	// StateHydrated is a list of fully rendered rows.
	StateHydrated
)

func (s ListRenderState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateSkeleton:
		return "skeleton"
	case StateServerPlaceholder:
		return "server_placeholder"
	case StateHydrated:
		return "hydrated"
	default:
		return "unknown"
	}
}

// ListView is the archive list inside its container. Only the renderer mutates it.
type ListView struct {
	container *goquery.Selection
}

// List returns the ol.archive-timeline, possibly empty.
func (lv *ListView) List() *goquery.Selection {
	return lv.container.Find(ListSelector).First()
}

// EmptyMessage returns the no-results paragraph, possibly empty.
func (lv *ListView) EmptyMessage() *goquery.Selection {
	return lv.container.Find(EmptySelector)
}

// State inspects the list once and classifies it.
func (lv *ListView) State() ListRenderState {
	list := lv.List()
	if list.Length() == 0 {
		return StateEmpty
	}
	rows := list.Find(ItemSelector)
	if rows.Length() == 0 {
		return StateEmpty
	}
	if rows.Filter(".skeleton").Length() > 0 {
		return StateSkeleton
	}
	if len(lv.Placeholders()) > 0 {
		return StateServerPlaceholder
	}
	return StateHydrated
}

// Skeletons returns the skeleton rows in document order.
func (lv *ListView) Skeletons() []*html.Node {
	return lv.List().Find(SkeletonSelector).Nodes
}

// Placeholders returns the non-skeleton rows that lack the panel and toggle markup.
func (lv *ListView) Placeholders() []*html.Node {
	var out []*html.Node
	lv.List().Find(ItemSelector).Not(".skeleton").Each(func(_ int, row *goquery.Selection) {
		if row.Find(".item-panel").Length() == 0 && row.Find(".item-actions-summary").Length() == 0 {
			out = append(out, row.Get(0))
		}
	})
	return out
}

// Rows returns every archive row in the list.
func (lv *ListView) Rows() []*html.Node {
	return lv.List().Find(ItemSelector).Nodes
}

// EnsureList drops a stale empty-state message and makes sure exactly one list
// exists, appending a fresh one to the container when needed. It returns the list.
func (lv *ListView) EnsureList() *goquery.Selection {
	if empty := lv.EmptyMessage(); empty.Length() > 0 {
		empty.Remove()
	}
	if list := lv.List(); list.Length() > 0 {
		return list
	}
	lv.container.AppendNodes(NewList())
	return lv.List()
}

// Append adds rows at the end of the list.
func (lv *ListView) Append(rows ...*html.Node) {
	if len(rows) == 0 {
		return
	}
	lv.EnsureList().AppendNodes(rows...)
}

// Replace swaps old for row in place.
func (lv *ListView) Replace(old, row *html.Node) {
	parent := old.Parent
	if parent == nil {
		lv.Append(row)
		return
	}
	if row.Parent != nil {
		row.Parent.RemoveChild(row)
	}
	parent.InsertBefore(row, old)
	parent.RemoveChild(old)
}

// Remove detaches a node from the list.
func (lv *ListView) Remove(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Clear removes every child of the list.
func (lv *ListView) Clear() {
	lv.List().Empty()
}

// ShowEmpty replaces the list with msg. When there is no list the message is
// appended to the container, replacing any previous one.
func (lv *ListView) ShowEmpty(msg *html.Node) {
	lv.EmptyMessage().Remove()
	if list := lv.List(); list.Length() > 0 {
		list.ReplaceWithNodes(msg)
		return
	}
	lv.container.AppendNodes(msg)
}

// NewList builds an empty ol.archive-timeline.
func NewList() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "ol",
		DataAtom: atom.Ol,
		Attr:     []html.Attribute{{Key: "class", Val: "archive-timeline"}},
	}
}
