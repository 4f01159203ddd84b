package view

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is the server-held copy of the app container's DOM. The view
// controller edits it; the web layer sends its markup to the browser.
// A Document is not safe for concurrent use.
type Document struct {
	root *html.Node
}

// ParseDocument parses markup whose first element becomes the document root
func ParseDocument(markup template.HTML) (*Document, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(string(markup)), body)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return &Document{root: n}, nil
		}
	}
	return nil, fmt.Errorf("parsing document: no root element")
}

// Render serializes the whole document
func (d *Document) Render() (template.HTML, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// ByID returns the element with the given id, or nil
func (d *Document) ByID(id string) *html.Node {
	return find(d.root, func(n *html.Node) bool {
		v, ok := attr(n, "id")
		return ok && v == id
	})
}

// Has reports whether an element with the id exists
func (d *Document) Has(id string) bool {
	return d.ByID(id) != nil
}

// QueryClass returns every element carrying class, in document order
func (d *Document) QueryClass(class string) []*html.Node {
	var out []*html.Node
	walk(d.root, func(n *html.Node) {
		if hasClass(n, class) {
			out = append(out, n)
		}
	})
	return out
}

// CountID returns how many elements carry the id. A well-formed page has at
// most one.
func (d *Document) CountID(id string) int {
	count := 0
	walk(d.root, func(n *html.Node) {
		if v, ok := attr(n, "id"); ok && v == id {
			count++
		}
	})
	return count
}

// SetInnerHTML replaces the children of the element with parsed markup
func (d *Document) SetInnerHTML(id string, markup template.HTML) error {
	n, err := d.mustByID(id)
	if err != nil {
		return err
	}
	children, err := html.ParseFragment(strings.NewReader(string(markup)), n)
	if err != nil {
		return fmt.Errorf("parsing markup for #%s: %w", id, err)
	}
	removeChildren(n)
	for _, c := range children {
		n.AppendChild(c)
	}
	return nil
}

// AppendHTML parses markup and appends it to the element's children
func (d *Document) AppendHTML(id string, markup template.HTML) error {
	n, err := d.mustByID(id)
	if err != nil {
		return err
	}
	children, err := html.ParseFragment(strings.NewReader(string(markup)), n)
	if err != nil {
		return fmt.Errorf("parsing markup for #%s: %w", id, err)
	}
	for _, c := range children {
		n.AppendChild(c)
	}
	return nil
}

// Remove detaches the element from the tree. It reports whether it existed.
func (d *Document) Remove(id string) bool {
	n := d.ByID(id)
	if n == nil || n.Parent == nil {
		return false
	}
	n.Parent.RemoveChild(n)
	return true
}

// Text returns the concatenated text content of the element
func (d *Document) Text(id string) string {
	n := d.ByID(id)
	if n == nil {
		return ""
	}
	return TextContent(n)
}

// Attr returns an attribute of the element
func (d *Document) Attr(id, key string) (string, bool) {
	n := d.ByID(id)
	if n == nil {
		return "", false
	}
	return attr(n, key)
}

// SetAttr sets an attribute, adding it if missing
func (d *Document) SetAttr(id, key, value string) error {
	n, err := d.mustByID(id)
	if err != nil {
		return err
	}
	setAttr(n, key, value)
	return nil
}

// RemoveAttr deletes an attribute if present
func (d *Document) RemoveAttr(id, key string) error {
	n, err := d.mustByID(id)
	if err != nil {
		return err
	}
	removeAttr(n, key)
	return nil
}

// SetFlag adds a boolean attribute such as hidden or disabled when on and
// removes it otherwise.
func (d *Document) SetFlag(id, key string, on bool) error {
	if on {
		return d.SetAttr(id, key, "")
	}
	return d.RemoveAttr(id, key)
}

// HasFlag reports whether a boolean attribute is present
func (d *Document) HasFlag(id, key string) bool {
	_, ok := d.Attr(id, key)
	return ok
}

// SwapClass replaces class from with class to on the element, keeping the
// other classes in place. The element ends up carrying to exactly once.
func (d *Document) SwapClass(id, from, to string) error {
	n, err := d.mustByID(id)
	if err != nil {
		return err
	}
	classes := strings.Fields(attrOr(n, "class"))
	out := make([]string, 0, len(classes)+1)
	seen := false
	for _, c := range classes {
		switch c {
		case from, to:
			if !seen {
				out = append(out, to)
				seen = true
			}
		default:
			out = append(out, c)
		}
	}
	if !seen {
		out = append(out, to)
	}
	setAttr(n, "class", strings.Join(out, " "))
	return nil
}

// HasClass reports whether the element carries class
func (d *Document) HasClass(id, class string) bool {
	n := d.ByID(id)
	return n != nil && hasClass(n, class)
}

// SetValue sets a form control's value: the value attribute for inputs, the
// text content for textareas.
func (d *Document) SetValue(id, value string) error {
	n, err := d.mustByID(id)
	if err != nil {
		return err
	}
	if n.DataAtom == atom.Textarea {
		removeChildren(n)
		if value != "" {
			n.AppendChild(&html.Node{Type: html.TextNode, Data: value})
		}
		return nil
	}
	setAttr(n, "value", value)
	return nil
}

// Value returns a form control's value
func (d *Document) Value(id string) string {
	n := d.ByID(id)
	if n == nil {
		return ""
	}
	if n.DataAtom == atom.Textarea {
		return TextContent(n)
	}
	return attrOr(n, "value")
}

func (d *Document) mustByID(id string) (*html.Node, error) {
	n := d.ByID(id)
	if n == nil {
		return nil, fmt.Errorf("no element #%s", id)
	}
	return n, nil
}

// TextContent returns the text beneath n
func TextContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

// AttrOf returns an attribute of n
func AttrOf(n *html.Node, key string) (string, bool) {
	return attr(n, key)
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrOr(n *html.Node, key string) string {
	v, _ := attr(n, key)
	return v
}

func setAttr(n *html.Node, key, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attrOr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
