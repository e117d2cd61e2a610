// Package richtext is the document model behind the WYSIWYG editor of CMS
// html nodes: aligned blocks of formatted runs, parsed from and serialised
// to the HTML subset the editor produces.
package richtext

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Align is the horizontal alignment of a block. The zero value is the
// browser default.
type Align string

const (
	AlignDefault Align = ""
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
	AlignJustify Align = "justify"
)

func (a Align) valid() bool {
	switch a {
	case AlignDefault, AlignLeft, AlignCenter, AlignRight, AlignJustify:
		return true
	}
	return false
}

var (
	ErrSelection = errors.New("richtext: selection out of range")
	ErrAlign     = errors.New("richtext: unknown alignment")
	ErrFontSize  = errors.New("richtext: invalid font size")
	ErrLink      = errors.New("richtext: invalid link")
	ErrCommand   = errors.New("richtext: unknown command")
)

// Run is a span of text with uniform formatting.
type Run struct {
	Text      string `json:"text"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
	FontSize  string `json:"fontSize,omitempty"`
	Link      string `json:"link,omitempty"`
}

func (r Run) sameFormat(o Run) bool {
	return r.Bold == o.Bold && r.Italic == o.Italic && r.Underline == o.Underline &&
		r.FontSize == o.FontSize && r.Link == o.Link
}

func (r Run) len() int { return utf8.RuneCountInString(r.Text) }

// Block is a paragraph.
type Block struct {
	Align Align `json:"align,omitempty"`
	Runs  []Run `json:"runs"`
}

func (b Block) len() int {
	n := 0
	for _, r := range b.Runs {
		n += r.len()
	}
	return n
}

// Document is an ordered list of blocks.
type Document struct {
	Blocks []Block `json:"blocks"`
}

// Selection is a half-open range of rune offsets into Text. Blocks are
// separated by one position.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Collapsed reports whether the selection is a caret.
func (s Selection) Collapsed() bool { return s.Start == s.End }

// Format is the formatting state reported for a selection.
type Format struct {
	Bold      bool `json:"bold"`
	Italic    bool `json:"italic"`
	Underline bool `json:"underline"`
}

// Text returns the plain text, blocks joined by newlines.
func (d *Document) Text() string {
	var sb strings.Builder
	for i, b := range d.Blocks {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for _, r := range b.Runs {
			sb.WriteString(r.Text)
		}
	}
	return sb.String()
}

// Len returns the length of Text in runes.
func (d *Document) Len() int {
	if len(d.Blocks) == 0 {
		return 0
	}
	n := len(d.Blocks) - 1
	for _, b := range d.Blocks {
		n += b.len()
	}
	return n
}

func (d *Document) check(sel Selection) (Selection, error) {
	if sel.Start > sel.End {
		sel.Start, sel.End = sel.End, sel.Start
	}
	if sel.Start < 0 || sel.End > d.Len() {
		return sel, ErrSelection
	}
	return sel, nil
}

// split makes pos a run boundary.
func (d *Document) split(pos int) {
	off := 0
	for bi := range d.Blocks {
		b := &d.Blocks[bi]
		for ri := 0; ri < len(b.Runs); ri++ {
			r := b.Runs[ri]
			n := r.len()
			if pos > off && pos < off+n {
				rs := []rune(r.Text)
				left, right := r, r
				left.Text = string(rs[:pos-off])
				right.Text = string(rs[pos-off:])
				b.Runs = append(b.Runs[:ri], append([]Run{left, right}, b.Runs[ri+1:]...)...)
				return
			}
			off += n
		}
		off++
	}
}

// runsIn returns the non-empty runs lying inside sel, splitting runs at
// its edges first.
func (d *Document) runsIn(sel Selection) []*Run {
	d.split(sel.Start)
	d.split(sel.End)
	var out []*Run
	off := 0
	for bi := range d.Blocks {
		b := &d.Blocks[bi]
		for ri := range b.Runs {
			n := b.Runs[ri].len()
			if n > 0 && off >= sel.Start && off+n <= sel.End {
				out = append(out, &b.Runs[ri])
			}
			off += n
		}
		off++
	}
	return out
}

// locate maps an offset to a block index and an offset within the block.
func (d *Document) locate(pos int) (int, int) {
	if len(d.Blocks) == 0 {
		d.Blocks = append(d.Blocks, Block{})
	}
	off := 0
	for bi, b := range d.Blocks {
		n := b.len()
		if pos <= off+n {
			return bi, pos - off
		}
		off += n + 1
	}
	last := len(d.Blocks) - 1
	return last, d.Blocks[last].len()
}

// normalize drops empty runs and merges neighbours with equal formatting.
func (d *Document) normalize() {
	for bi := range d.Blocks {
		b := &d.Blocks[bi]
		merged := b.Runs[:0]
		for _, r := range b.Runs {
			if r.Text == "" {
				continue
			}
			if k := len(merged) - 1; k >= 0 && merged[k].sameFormat(r) {
				merged[k].Text += r.Text
				continue
			}
			merged = append(merged, r)
		}
		b.Runs = merged
	}
}

// State reports the formatting at sel. A caret reports the formatting of
// the character before it; a range reports attributes shared by all of it.
func (d *Document) State(sel Selection) Format {
	sel, err := d.check(sel)
	if err != nil || d.Len() == 0 {
		return Format{}
	}
	start, end := sel.Start, sel.End
	if sel.Collapsed() {
		if start > 0 {
			start--
		} else {
			end++
		}
	}

	f := Format{Bold: true, Italic: true, Underline: true}
	seen := false
	off := 0
	for _, b := range d.Blocks {
		for _, r := range b.Runs {
			n := r.len()
			if n > 0 && off < end && off+n > start {
				seen = true
				f.Bold = f.Bold && r.Bold
				f.Italic = f.Italic && r.Italic
				f.Underline = f.Underline && r.Underline
			}
			off += n
		}
		off++
	}
	if !seen {
		return Format{}
	}
	return f
}

func (d *Document) toggle(sel Selection, attr func(*Run) *bool) error {
	sel, err := d.check(sel)
	if err != nil {
		return err
	}
	runs := d.runsIn(sel)
	all := true
	for _, r := range runs {
		all = all && *attr(r)
	}
	for _, r := range runs {
		*attr(r) = !all
	}
	d.normalize()
	return nil
}

// Bold sets bold on sel, or clears it when all of sel is already bold.
func (d *Document) Bold(sel Selection) error {
	return d.toggle(sel, func(r *Run) *bool { return &r.Bold })
}

// Italic toggles italics like Bold.
func (d *Document) Italic(sel Selection) error {
	return d.toggle(sel, func(r *Run) *bool { return &r.Italic })
}

// Underline toggles underlining like Bold.
func (d *Document) Underline(sel Selection) error {
	return d.toggle(sel, func(r *Run) *bool { return &r.Underline })
}

// Align sets the alignment of every block touched by sel.
func (d *Document) Align(sel Selection, a Align) error {
	if !a.valid() {
		return ErrAlign
	}
	sel, err := d.check(sel)
	if err != nil {
		return err
	}
	if len(d.Blocks) == 0 {
		d.Blocks = append(d.Blocks, Block{})
	}
	off := 0
	for bi := range d.Blocks {
		n := d.Blocks[bi].len()
		if off <= sel.End && off+n >= sel.Start {
			d.Blocks[bi].Align = a
		}
		off += n + 1
	}
	return nil
}

// FontSize sets a CSS font size on sel. An empty size resets it.
func (d *Document) FontSize(sel Selection, size string) error {
	size = strings.TrimSpace(size)
	if size != "" && !validFontSize(size) {
		return ErrFontSize
	}
	sel, err := d.check(sel)
	if err != nil {
		return err
	}
	for _, r := range d.runsIn(sel) {
		r.FontSize = size
	}
	d.normalize()
	return nil
}

// CreateLink points sel at href. An empty href removes links.
func (d *Document) CreateLink(sel Selection, href string) error {
	href = strings.TrimSpace(href)
	if href != "" && !safeLink(href) {
		return ErrLink
	}
	sel, err := d.check(sel)
	if err != nil {
		return err
	}
	for _, r := range d.runsIn(sel) {
		r.Link = href
	}
	d.normalize()
	return nil
}

// InsertText inserts s at pos. The text inherits the formatting of the
// character before pos; newlines start new blocks with the same alignment.
func (d *Document) InsertText(pos int, s string) error {
	if pos < 0 || pos > d.Len() {
		return ErrSelection
	}
	for i, seg := range strings.Split(s, "\n") {
		if i > 0 {
			d.splitBlock(pos)
			pos++
		}
		d.insertPlain(pos, seg)
		pos += utf8.RuneCountInString(seg)
	}
	d.normalize()
	return nil
}

func (d *Document) insertPlain(pos int, text string) {
	if text == "" {
		return
	}
	bi, local := d.locate(pos)
	b := &d.Blocks[bi]
	off := 0
	for ri := range b.Runs {
		n := b.Runs[ri].len()
		if local <= off+n {
			rs := []rune(b.Runs[ri].Text)
			k := local - off
			b.Runs[ri].Text = string(rs[:k]) + text + string(rs[k:])
			return
		}
		off += n
	}
	b.Runs = append(b.Runs, Run{Text: text})
}

func (d *Document) splitBlock(pos int) {
	d.split(pos)
	bi, local := d.locate(pos)
	b := d.Blocks[bi]
	var left, right []Run
	off := 0
	for _, r := range b.Runs {
		if off < local {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
		off += r.len()
	}
	d.Blocks[bi].Runs = left
	tail := Block{Align: b.Align, Runs: right}
	d.Blocks = append(d.Blocks[:bi+1], append([]Block{tail}, d.Blocks[bi+1:]...)...)
}
