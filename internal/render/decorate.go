package render

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Decorate applies the live preview enhancements to an HTML fragment:
// technology badges, pseudo-badges, mentions, responsive tables and images,
// external link targets and copy buttons on code blocks. Text inside links
// and code is never rewritten, and decorating twice changes nothing.
func Decorate(fragment string) (string, error) {
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type: html.ElementNode, Data: "body", DataAtom: atom.Body,
	})
	if err != nil {
		return "", fmt.Errorf("parse preview html: %w", err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	pseudoBadgesIn(root)
	mentionsIn(root)
	techBadgesIn(root)
	tablesIn(root)
	linksAndImagesIn(root)
	copyButtonsIn(root)

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render preview html: %w", err)
		}
	}
	return buf.String(), nil
}

func elements(root *html.Node, tags ...atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && slices.Contains(tags, n.DataAtom) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func opaque(n *html.Node) bool {
	switch n.DataAtom {
	case atom.A, atom.Code, atom.Pre, atom.Script, atom.Style, atom.Button:
		return true
	case atom.Span:
		return hasClass(n, "preview-badge")
	}
	return false
}

// textNodes lists the text under n that decorations may rewrite.
func textNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				out = append(out, c)
			case c.Type == html.ElementNode && !opaque(c):
				walk(c)
			}
		}
	}
	walk(n)
	return out
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// replaceText swaps every rewritable text node under n for the nodes split
// returns; a nil result leaves the node alone.
func replaceText(n *html.Node, split func(string) []*html.Node) {
	for _, t := range textNodes(n) {
		repl := split(t.Data)
		if repl == nil {
			continue
		}
		for _, r := range repl {
			t.Parent.InsertBefore(r, t)
		}
		t.Parent.RemoveChild(t)
	}
}

func text(s string) *html.Node { return &html.Node{Type: html.TextNode, Data: s} }

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasClass(n *html.Node, class string) bool {
	v, _ := attr(n, "class")
	return slices.Contains(strings.Fields(v), class)
}

func addClass(n *html.Node, classes ...string) {
	v, _ := attr(n, "class")
	fields := strings.Fields(v)
	for _, c := range classes {
		if !slices.Contains(fields, c) {
			fields = append(fields, c)
		}
	}
	setAttr(n, "class", strings.Join(fields, " "))
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func techBadgesIn(root *html.Node) {
	for _, el := range elements(root, atom.P, atom.Li, atom.Td) {
		content := textContent(el)
		if !strings.ContainsAny(content, ",.") {
			continue
		}
		listed := el.Parent != nil && (el.Parent.DataAtom == atom.Ul || el.Parent.DataAtom == atom.Ol)
		if !listed && !strings.ContainsAny(content, ",|•") {
			continue
		}
		replaceText(el, splitTech)
	}
}

func splitTech(s string) []*html.Node {
	lower := asciiLower(s)
	var out []*html.Node
	start := 0
	for i := 0; i < len(s); {
		tb, ok := matchTech(s, lower, i)
		if !ok {
			i++
			continue
		}
		if start < i {
			out = append(out, text(s[start:i]))
		}
		out = append(out, element(atom.Img, "src", tb.url, "alt", tb.name, "class", "tech-badge"))
		i += len(tb.name)
		start = i
	}
	if out == nil {
		return nil
	}
	if start < len(s) {
		out = append(out, text(s[start:]))
	}
	return out
}

func pseudoBadgesIn(root *html.Node) {
	for _, el := range elements(root, atom.P, atom.Li, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6) {
		replaceText(el, func(s string) []*html.Node {
			return splitPattern(s, badgePattern.FindAllStringSubmatchIndex(s, -1), func(m []int) *html.Node {
				label := s[m[2]:m[3]]
				span := element(atom.Span, "class", "preview-badge", "style",
					"background-color: "+BadgeColor(label)+"; color: white; padding: 3px 8px; border-radius: 12px; font-size: 0.75rem; font-weight: 500;")
				span.AppendChild(text(label))
				return span
			})
		})
	}
}

func mentionsIn(root *html.Node) {
	for _, el := range elements(root, atom.P, atom.Li) {
		replaceText(el, func(s string) []*html.Node {
			matches := mentionPattern.FindAllStringSubmatchIndex(s, -1)
			// Keep the leading character captured by group 1 as text.
			for _, m := range matches {
				m[0] = m[3]
			}
			return splitPattern(s, matches, func(m []int) *html.Node {
				user := s[m[4]:m[5]]
				a := element(atom.A, "href", "https://github.com/"+user, "class", "mention", "target", "_blank")
				a.AppendChild(text("@" + user))
				return a
			})
		})
	}
}

// splitPattern cuts s around regexp match indexes, building a node per match.
func splitPattern(s string, matches [][]int, build func(m []int) *html.Node) []*html.Node {
	if len(matches) == 0 {
		return nil
	}
	var out []*html.Node
	start := 0
	for _, m := range matches {
		if start < m[0] {
			out = append(out, text(s[start:m[0]]))
		}
		out = append(out, build(m))
		start = m[1]
	}
	if start < len(s) {
		out = append(out, text(s[start:]))
	}
	return out
}

func tablesIn(root *html.Node) {
	for _, table := range elements(root, atom.Table) {
		addClass(table, "table", "preview-table")
		if p := table.Parent; p != nil && p.DataAtom == atom.Div && hasClass(p, "table-responsive") {
			continue
		}
		wrap := element(atom.Div, "class", "table-responsive")
		table.Parent.InsertBefore(wrap, table)
		table.Parent.RemoveChild(table)
		wrap.AppendChild(table)
	}
}

func linksAndImagesIn(root *html.Node) {
	for _, a := range elements(root, atom.A) {
		if href, _ := attr(a, "href"); strings.HasPrefix(href, "http") {
			setAttr(a, "target", "_blank")
			if !hasClass(a, "mention") {
				setAttr(a, "rel", "noopener noreferrer")
			}
		}
	}
	for _, img := range elements(root, atom.Img) {
		if hasClass(img, "tech-badge") {
			continue
		}
		addClass(img, "img-fluid")
		if title, _ := attr(img, "title"); title == "" {
			alt, _ := attr(img, "alt")
			setAttr(img, "title", alt)
		}
	}
}

func copyButtonsIn(root *html.Node) {
	for _, code := range elements(root, atom.Code) {
		pre := code.Parent
		if pre == nil || pre.DataAtom != atom.Pre {
			continue
		}
		exists := false
		for c := pre.FirstChild; c != nil; c = c.NextSibling {
			if c.DataAtom == atom.Button && hasClass(c, "copy-code-btn") {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		btn := element(atom.Button, "class", "copy-code-btn", "title", "Copy code", "type", "button")
		icon := element(atom.Span, "class", "copy-icon")
		icon.AppendChild(text("📋"))
		btn.AppendChild(icon)
		pre.AppendChild(btn)
	}
}
