// Package render maps field and content type tags to their renderers and
// produces HTML fragments for previews.
//
// Both tables are closed: every tag of models.AllPropertyTypes and
// models.AllContentTypes has exactly one renderer, which is checked when
// the package is initialised.
package render

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"sort"

	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/richtext"
)

//go:embed templates/*.html
var templateFS embed.FS

var tpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// MaxDepth bounds item recursion in content rendering.
const MaxDepth = 16

// ErrTooDeep is returned when a content tree nests deeper than MaxDepth.
var ErrTooDeep = errors.New("render: content nested too deep")

// FieldProps are the uniform props every field renderer receives.
type FieldProps struct {
	Label    string
	Options  []string
	Required bool
}

// FieldRenderer draws one form field type.
type FieldRenderer interface {
	RenderField(w io.Writer, p FieldProps) error
}

type templateField string

func (name templateField) RenderField(w io.Writer, p FieldProps) error {
	return tpl.ExecuteTemplate(w, string(name), p)
}

var placeholderField FieldRenderer = templateField("field_placeholder")

var fieldRenderers = map[models.PropertyType]FieldRenderer{
	models.PropertyShortText: templateField("field_short_text"),
	models.PropertyLongText:  templateField("field_long_text"),
	models.PropertyBoolean:   templateField("field_boolean"),
	models.PropertyRadio:     templateField("field_radio"),
	models.PropertyCheckbox:  templateField("field_checkbox"),
	models.PropertySelection: templateField("field_selection"),
	models.PropertyDateTime:  templateField("field_date_time"),
	models.PropertyTime:      templateField("field_time"),
	models.PropertyFile:      templateField("field_file"),
}

// Field returns the renderer for t, or the neutral placeholder when t is
// empty or unknown.
func Field(t models.PropertyType) FieldRenderer {
	if r, ok := fieldRenderers[t]; ok {
		return r
	}
	return placeholderField
}

// FieldHTML renders a single field definition.
func FieldHTML(f models.FieldDefinition) (template.HTML, error) {
	var buf bytes.Buffer
	p := FieldProps{Label: f.Label, Options: f.Options, Required: f.Required}
	if err := Field(f.PropertyType).RenderField(&buf, p); err != nil {
		return "", fmt.Errorf("render: field %q: %w", f.Key, err)
	}
	return template.HTML(buf.String()), nil
}

// Form writes a preview of fields in position order.
func Form(w io.Writer, fields []models.FieldDefinition) error {
	sorted := append([]models.FieldDefinition(nil), fields...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	parts := make([]template.HTML, 0, len(sorted))
	for _, f := range sorted {
		h, err := FieldHTML(f)
		if err != nil {
			return err
		}
		parts = append(parts, h)
	}
	return tpl.ExecuteTemplate(w, "form", parts)
}

func init() {
	if len(fieldRenderers) != len(models.AllPropertyTypes) {
		panic("render: field renderer table does not match property types")
	}
	for _, t := range models.AllPropertyTypes {
		r, ok := fieldRenderers[t]
		if !ok {
			panic(fmt.Sprintf("render: no field renderer for %q", t))
		}
		if name, ok := r.(templateField); ok && tpl.Lookup(string(name)) == nil {
			panic(fmt.Sprintf("render: missing template %q", name))
		}
	}
	if len(contentRenderers) != len(models.AllContentTypes) {
		panic("render: content renderer table does not match content types")
	}
	for _, t := range models.AllContentTypes {
		if _, ok := contentRenderers[t]; !ok {
			panic(fmt.Sprintf("render: no content renderer for %q", t))
		}
		if tpl.Lookup("content_"+string(t)) == nil {
			panic(fmt.Sprintf("render: missing template for %q", t))
		}
	}
}

// Resolver fetches a nested node by id.
type Resolver func(ctx context.Context, id string) (models.ContentNode, error)

// ContentProps are the props every content renderer receives.
type ContentProps struct {
	Content models.ContentNode
	RootID  string
	Resolve Resolver
	Depth   int
}

// ContentRenderer draws one content type.
type ContentRenderer interface {
	RenderContent(ctx context.Context, w io.Writer, p ContentProps) error
}

type leafContent struct {
	name  string
	value func(models.ContentNode) any
}

func (l leafContent) RenderContent(_ context.Context, w io.Writer, p ContentProps) error {
	return tpl.ExecuteTemplate(w, l.name, l.value(p.Content))
}

type itemContent struct{}

type entry struct {
	Key  string
	Body template.HTML
}

func (itemContent) RenderContent(ctx context.Context, w io.Writer, p ContentProps) error {
	entries, err := renderProperties(ctx, p, p.Content.ItemContent)
	if err != nil {
		return err
	}
	return tpl.ExecuteTemplate(w, "content_item_content", entries)
}

type listItemContent struct{}

func (listItemContent) RenderContent(ctx context.Context, w io.Writer, p ContentProps) error {
	groups := make([][]entry, 0, len(p.Content.ListItemContent))
	for _, g := range p.Content.ListItemContent {
		entries, err := renderProperties(ctx, p, g)
		if err != nil {
			return err
		}
		groups = append(groups, entries)
	}
	return tpl.ExecuteTemplate(w, "content_list_item_content", groups)
}

func renderProperties(ctx context.Context, p ContentProps, props []models.ItemProperty) ([]entry, error) {
	if p.Depth >= MaxDepth {
		return nil, ErrTooDeep
	}
	out := make([]entry, 0, len(props))
	for _, prop := range props {
		var buf bytes.Buffer
		if p.Resolve != nil {
			child, err := p.Resolve(ctx, prop.ContentID)
			if err != nil {
				return nil, fmt.Errorf("render: resolve %s: %w", prop.ContentID, err)
			}
			err = Node(ctx, &buf, ContentProps{Content: child, RootID: p.RootID, Resolve: p.Resolve, Depth: p.Depth + 1})
			if err != nil {
				return nil, err
			}
		}
		out = append(out, entry{Key: prop.Key, Body: template.HTML(buf.String())})
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func textValue(n models.ContentNode) any     { return deref(n.Text) }
func imageValue(n models.ContentNode) any    { return deref(n.Image) }
func listTextValue(n models.ContentNode) any { return n.ListTextContent }

// htmlValue is trusted only after reduction to the editor's subset.
func htmlValue(n models.ContentNode) any {
	return template.HTML(richtext.Sanitize(deref(n.HTML)))
}

var contentRenderers = map[models.ContentType]ContentRenderer{
	models.ContentText:     leafContent{"content_text", textValue},
	models.ContentImage:    leafContent{"content_image", imageValue},
	models.ContentHTML:     leafContent{"content_html", htmlValue},
	models.ContentListText: leafContent{"content_list_text_content", listTextValue},
	models.ContentItem:     itemContent{},
	models.ContentListItem: listItemContent{},
}

// Content returns the renderer for t.
func Content(t models.ContentType) (ContentRenderer, bool) {
	r, ok := contentRenderers[t]
	return r, ok
}

// Node renders p.Content with the renderer of its type. Nodes without a
// type render the type picker placeholder.
func Node(ctx context.Context, w io.Writer, p ContentProps) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r, ok := Content(p.Content.Type())
	if !ok {
		return tpl.ExecuteTemplate(w, "content_unset", nil)
	}
	return r.RenderContent(ctx, w, p)
}
