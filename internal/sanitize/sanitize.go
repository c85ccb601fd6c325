// Package sanitize strips executable markup from item-supplied HTML fragments.
package sanitize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// droppedTags are removed together with their content.
var droppedTags = []string{"script", "iframe", "object", "embed", "link", "style", "meta"}

var urlAttrs = []string{"href", "src"}

// Nodes parses fragment as the body of a <div>, removes dangerous elements,
// event-handler attributes and javascript: URLs, and returns the top-level
// nodes left, detached and ready to be appended under another element.
func Nodes(fragment string) []*html.Node {
	root := clean(fragment)
	if root == nil {
		return nil
	}
	var out []*html.Node
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		root.RemoveChild(c)
		out = append(out, c)
		c = next
	}
	return out
}

// HasBlock reports whether any of nodes, or their descendants, is a
// block-level element that cannot sit inside a <p>.
func HasBlock(nodes []*html.Node) bool {
	for _, n := range nodes {
		if n.Type == html.ElementNode && blockTags[n.DataAtom] {
			return true
		}
		var children []*html.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, c)
		}
		if HasBlock(children) {
			return true
		}
	}
	return false
}

var blockTags = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Details: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true, atom.Li: true,
	atom.Main: true, atom.Menu: true, atom.Nav: true, atom.Ol: true, atom.P: true,
	atom.Pre: true, atom.Section: true, atom.Table: true, atom.Ul: true,
}

// clean parses fragment under a detached <div> and strips it in place.
func clean(fragment string) *html.Node {
	if fragment == "" {
		return nil
	}
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), root)
	if err != nil {
		return nil
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	sel := goquery.NewDocumentFromNode(root).Selection
	sel.Find(strings.Join(droppedTags, ",")).Remove()
	sel.Find("*").Each(func(_ int, el *goquery.Selection) {
		node := el.Get(0)
		kept := node.Attr[:0]
		for _, a := range node.Attr {
			if isEventHandler(a.Key) {
				continue
			}
			if isURLAttr(a.Key) && isScriptURL(a.Val) {
				continue
			}
			kept = append(kept, a)
		}
		node.Attr = kept
	})
	wrapOrphanItems(root)
	return root
}

// wrapOrphanItems moves <li> elements without a list parent into a <ul>,
// consecutive siblings sharing one, so they cannot close an enclosing row.
func wrapOrphanItems(root *html.Node) {
	var orphans []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Li && !isList(n) {
				orphans = append(orphans, c)
			}
			walk(c)
		}
	}
	walk(root)

	wrappers := make(map[*html.Node]bool)
	for _, li := range orphans {
		parent := li.Parent
		prev := li.PrevSibling
		parent.RemoveChild(li)
		if prev != nil && wrappers[prev] {
			prev.AppendChild(li)
			continue
		}
		ul := &html.Node{Type: html.ElementNode, Data: "ul", DataAtom: atom.Ul}
		if prev != nil {
			parent.InsertBefore(ul, prev.NextSibling)
		} else {
			parent.InsertBefore(ul, parent.FirstChild)
		}
		ul.AppendChild(li)
		wrappers[ul] = true
	}
}

func isList(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Ul, atom.Ol, atom.Menu:
		return true
	}
	return false
}

func isEventHandler(key string) bool {
	return len(key) > 2 && strings.HasPrefix(strings.ToLower(key), "on")
}

func isURLAttr(key string) bool {
	k := strings.ToLower(key)
	for _, a := range urlAttrs {
		if k == a {
			return true
		}
	}
	return false
}

// isScriptURL ignores the whitespace and control characters browsers skip
// while reading a URL scheme.
func isScriptURL(v string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, v)
	return strings.HasPrefix(strings.ToLower(cleaned), "javascript:")
}
