package richtext

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var fontSizeRe = regexp.MustCompile(`^\d+(\.\d+)?(px|pt|em|rem|%)$`)

var fontSizeKeywords = map[string]bool{
	"xx-small": true, "x-small": true, "small": true, "medium": true,
	"large": true, "x-large": true, "xx-large": true, "xxx-large": true,
	"smaller": true, "larger": true,
}

// legacyFontSizes maps <font size="N"> to CSS.
var legacyFontSizes = map[string]string{
	"1": "x-small", "2": "small", "3": "medium", "4": "large",
	"5": "x-large", "6": "xx-large", "7": "xxx-large",
}

func validFontSize(s string) bool {
	return fontSizeRe.MatchString(s) || fontSizeKeywords[s]
}

func safeLink(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto", "tel":
		return true
	}
	return false
}

// Parse reads the HTML subset the editor produces. Unknown elements
// contribute their text; scripts and styles are dropped.
func Parse(s string) (*Document, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), body)
	if err != nil {
		return nil, fmt.Errorf("richtext: parse: %w", err)
	}
	p := &parser{}
	for _, n := range nodes {
		p.walk(n, Run{}, AlignDefault)
	}
	p.close()
	doc := &Document{Blocks: p.blocks}
	doc.normalize()
	return doc, nil
}

// Sanitize reduces s to the supported subset.
func Sanitize(s string) string {
	doc, err := Parse(s)
	if err != nil {
		return html.EscapeString(s)
	}
	return doc.HTML()
}

type parser struct {
	blocks []Block
	cur    *Block
}

func (p *parser) open(a Align) {
	if p.cur != nil && len(p.cur.Runs) == 0 {
		p.cur = nil
	}
	p.close()
	p.cur = &Block{Align: a}
}

func (p *parser) close() {
	if p.cur != nil {
		p.blocks = append(p.blocks, *p.cur)
		p.cur = nil
	}
}

func (p *parser) text(s string, style Run, a Align) {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(s)
	if s == "" || (p.cur == nil && strings.TrimSpace(s) == "") {
		return
	}
	if p.cur == nil {
		p.cur = &Block{Align: a}
	}
	style.Text = s
	p.cur.Runs = append(p.cur.Runs, style)
}

func (p *parser) walk(n *html.Node, style Run, a Align) {
	switch n.Type {
	case html.TextNode:
		p.text(n.Data, style, a)
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head, atom.Title:
		return
	case atom.Br:
		if p.cur == nil {
			p.cur = &Block{Align: a}
		}
		p.close()
		return
	case atom.B, atom.Strong:
		style.Bold = true
	case atom.I, atom.Em:
		style.Italic = true
	case atom.U:
		style.Underline = true
	case atom.A:
		if href := attr(n, "href"); href != "" && safeLink(href) {
			style.Link = href
		}
	case atom.Font:
		if size, ok := legacyFontSizes[attr(n, "size")]; ok {
			style.FontSize = size
		}
	}
	style = applyStyle(style, attr(n, "style"))

	if isBlock(n.DataAtom) {
		if v := blockAlign(n); v != AlignDefault {
			a = v
		}
		p.open(a)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			p.walk(c, style, a)
		}
		p.close()
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, style, a)
	}
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Li, atom.Blockquote, atom.Pre:
		return true
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func styleDecls(s string) map[string]string {
	out := map[string]string{}
	for _, decl := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

func applyStyle(r Run, style string) Run {
	if style == "" {
		return r
	}
	decls := styleDecls(style)
	if v := decls["font-size"]; validFontSize(v) {
		r.FontSize = v
	}
	switch decls["font-weight"] {
	case "bold", "bolder", "600", "700", "800", "900":
		r.Bold = true
	}
	if decls["font-style"] == "italic" {
		r.Italic = true
	}
	if strings.Contains(decls["text-decoration"], "underline") || strings.Contains(decls["text-decoration-line"], "underline") {
		r.Underline = true
	}
	return r
}

func blockAlign(n *html.Node) Align {
	v := Align(styleDecls(attr(n, "style"))["text-align"])
	if v == AlignDefault {
		v = Align(strings.ToLower(attr(n, "align")))
	}
	if !v.valid() {
		return AlignDefault
	}
	return v
}

// HTML serialises the document. Every block becomes a paragraph.
func (d *Document) HTML() string {
	var sb strings.Builder
	for _, b := range d.Blocks {
		if b.Align != AlignDefault {
			fmt.Fprintf(&sb, `<p style="text-align: %s;">`, b.Align)
		} else {
			sb.WriteString("<p>")
		}
		if len(b.Runs) == 0 {
			sb.WriteString("<br>")
		}
		for _, r := range b.Runs {
			writeRun(&sb, r)
		}
		sb.WriteString("</p>")
	}
	return sb.String()
}

func writeRun(sb *strings.Builder, r Run) {
	var closers []string
	if r.Link != "" {
		fmt.Fprintf(sb, `<a href="%s">`, html.EscapeString(r.Link))
		closers = append(closers, "</a>")
	}
	if r.FontSize != "" {
		fmt.Fprintf(sb, `<span style="font-size: %s;">`, html.EscapeString(r.FontSize))
		closers = append(closers, "</span>")
	}
	if r.Bold {
		sb.WriteString("<b>")
		closers = append(closers, "</b>")
	}
	if r.Italic {
		sb.WriteString("<i>")
		closers = append(closers, "</i>")
	}
	if r.Underline {
		sb.WriteString("<u>")
		closers = append(closers, "</u>")
	}
	sb.WriteString(html.EscapeString(r.Text))
	for i := len(closers) - 1; i >= 0; i-- {
		sb.WriteString(closers[i])
	}
}
