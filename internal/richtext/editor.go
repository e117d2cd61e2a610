package richtext

import (
	"fmt"
	"sync"
)

// Command is one formatting or input action, as sent by the browser page.
type Command struct {
	Name      string    `json:"name"`
	Selection Selection `json:"selection"`
	Value     string    `json:"value,omitempty"`
}

// Command names.
const (
	CmdBold       = "bold"
	CmdItalic     = "italic"
	CmdUnderline  = "underline"
	CmdAlign      = "align"
	CmdFontSize   = "fontSize"
	CmdCreateLink = "createLink"
	CmdInsertText = "insertText"
)

// Editor owns a document and reports every change through OnChange, the
// way the page syncs editor content on each input event.
type Editor struct {
	mu       sync.Mutex
	doc      *Document
	onChange func(html string)
}

// NewEditor parses initial and returns an editor over it. onChange may be
// nil.
func NewEditor(initial string, onChange func(html string)) (*Editor, error) {
	doc, err := Parse(initial)
	if err != nil {
		return nil, err
	}
	return &Editor{doc: doc, onChange: onChange}, nil
}

// HTML returns the current content.
func (e *Editor) HTML() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.HTML()
}

// State returns the formatting state at sel.
func (e *Editor) State(sel Selection) Format {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.State(sel)
}

// Apply runs cmd and reports the new content to OnChange.
func (e *Editor) Apply(cmd Command) error {
	e.mu.Lock()
	err := e.doc.apply(cmd)
	html := e.doc.HTML()
	e.mu.Unlock()
	if err != nil {
		return err
	}
	if e.onChange != nil {
		e.onChange(html)
	}
	return nil
}

func (d *Document) apply(cmd Command) error {
	sel := cmd.Selection
	switch cmd.Name {
	case CmdBold:
		return d.Bold(sel)
	case CmdItalic:
		return d.Italic(sel)
	case CmdUnderline:
		return d.Underline(sel)
	case CmdAlign:
		return d.Align(sel, Align(cmd.Value))
	case CmdFontSize:
		return d.FontSize(sel, cmd.Value)
	case CmdCreateLink:
		return d.CreateLink(sel, cmd.Value)
	case CmdInsertText:
		return d.InsertText(sel.Start, cmd.Value)
	}
	return fmt.Errorf("%w: %q", ErrCommand, cmd.Name)
}

// Apply parses content, runs cmds in order and returns the resulting HTML
// with the formatting state at the last command's selection.
func Apply(content string, cmds ...Command) (string, Format, error) {
	doc, err := Parse(content)
	if err != nil {
		return "", Format{}, err
	}
	var last Selection
	for _, cmd := range cmds {
		if err := doc.apply(cmd); err != nil {
			return "", Format{}, err
		}
		last = cmd.Selection
	}
	return doc.HTML(), doc.State(last), nil
}
