// Package formschema edits the field schema of a contact-capture form.
//
// Every edit is local to the Editor until Save submits the whole schema in
// one replace-all request.
package formschema

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/brandoo/console/internal/apperr"
	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/registry"
)

// Client is the part of the backend API the editor needs.
type Client interface {
	CreateForm(ctx context.Context, userID string, info models.FormBasicInfo) (string, error)
	GetForm(ctx context.Context, id string) (models.FormWithProperties, error)
	UpdateForm(ctx context.Context, id string, upd models.FormUpdate) error
	DeleteForm(ctx context.Context, id string) error
	ResetForm(ctx context.Context, id string) error
}

// Editor holds the working copy of one form schema. It is safe for
// concurrent use.
type Editor struct {
	mu          sync.Mutex
	formID      string
	name        string
	description string
	fields      []models.FieldDefinition
}

// NewEditor starts an editor over a fetched form.
func NewEditor(f models.FormWithProperties) *Editor {
	e := &Editor{}
	e.reset(f)
	return e
}

// Load fetches form id and returns an editor over it.
func Load(ctx context.Context, c Client, id string) (*Editor, error) {
	f, err := c.GetForm(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("formschema: load %s: %w", id, err)
	}
	if f.ID == "" {
		f.ID = id
	}
	return NewEditor(f), nil
}

// Create makes a new form for userID and loads it. The backend seeds the
// reserved fields.
func Create(ctx context.Context, c Client, userID, name, description string) (*Editor, error) {
	id, err := c.CreateForm(ctx, userID, models.FormBasicInfo{Name: name, Description: description})
	if err != nil {
		return nil, fmt.Errorf("formschema: create: %w", err)
	}
	return Load(ctx, c, id)
}

// Delete removes form id with all its responses.
func Delete(ctx context.Context, c Client, id string) error {
	if err := c.DeleteForm(ctx, id); err != nil {
		return fmt.Errorf("formschema: delete %s: %w", id, err)
	}
	return nil
}

// Reset clears the responses of form id and keeps its schema.
func Reset(ctx context.Context, c Client, id string) error {
	if err := c.ResetForm(ctx, id); err != nil {
		return fmt.Errorf("formschema: reset %s: %w", id, err)
	}
	return nil
}

// caller holds e.mu (or owns e exclusively).
func (e *Editor) reset(f models.FormWithProperties) {
	e.formID = f.ID
	e.name = f.Name
	e.description = f.Description
	e.fields = append([]models.FieldDefinition(nil), f.Properties...)
	sortByPosition(e.fields)
	for i := range e.fields {
		if e.fields[i].IsPrivacyPolicy() {
			e.fields[i].Required = true
		}
	}
}

// Snapshot returns a copy of the working state.
func (e *Editor) Snapshot() models.FormWithProperties {
	e.mu.Lock()
	defer e.mu.Unlock()
	fields := make([]models.FieldDefinition, len(e.fields))
	for i, f := range e.fields {
		f.Options = append([]string(nil), f.Options...)
		fields[i] = f
	}
	return models.FormWithProperties{
		ID:          e.formID,
		Name:        e.name,
		Description: e.description,
		Properties:  fields,
	}
}

// FormID returns the id of the edited form.
func (e *Editor) FormID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.formID
}

func (e *Editor) SetName(name string) {
	e.mu.Lock()
	e.name = name
	e.mu.Unlock()
}

func (e *Editor) SetDescription(description string) {
	e.mu.Lock()
	e.description = description
	e.mu.Unlock()
}

// Add appends a new required short-text field with a placeholder id.
func (e *Editor) Add() models.FieldDefinition {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.fields) + 1
	f := models.FieldDefinition{
		ID:           models.PlaceholderPrefix + "-" + uuid.NewString(),
		Label:        fmt.Sprintf("Nová vlastnost %d", n),
		PropertyType: models.PropertyShortText,
		Position:     n,
		Required:     true,
	}
	f.Key = DeriveKey(f.Label)
	e.fields = append(e.fields, f)
	return f
}

func (e *Editor) find(id string) (int, error) {
	for i := range e.fields {
		if e.fields[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("formschema: field %s: %w", id, apperr.ErrNotFound)
}

func (e *Editor) update(id string, fn func(*models.FieldDefinition) error) (models.FieldDefinition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, err := e.find(id)
	if err != nil {
		return models.FieldDefinition{}, err
	}
	f := e.fields[i]
	if err := fn(&f); err != nil {
		return models.FieldDefinition{}, err
	}
	e.fields[i] = f
	return f, nil
}

// SetLabel changes the label of field id. The key follows the label on
// save unless the field is reserved.
func (e *Editor) SetLabel(id, label string) (models.FieldDefinition, error) {
	return e.update(id, func(f *models.FieldDefinition) error {
		f.Label = label
		if !f.IsReserved() {
			f.Key = DeriveKey(label)
		}
		return nil
	})
}

// SetType changes the value type of field id and always clears its options.
func (e *Editor) SetType(id string, t models.PropertyType) (models.FieldDefinition, error) {
	if !t.Valid() {
		return models.FieldDefinition{}, fmt.Errorf("formschema: %q: %w", t, apperr.ErrInvalidType)
	}
	return e.update(id, func(f *models.FieldDefinition) error {
		f.PropertyType = t
		f.Options = nil
		return nil
	})
}

// SetOptions replaces the options of a choice field.
func (e *Editor) SetOptions(id string, options []string) (models.FieldDefinition, error) {
	return e.update(id, func(f *models.FieldDefinition) error {
		if !registry.IsChoice(f.PropertyType) {
			return fmt.Errorf("formschema: %s takes no options: %w", f.PropertyType, apperr.ErrInvalidType)
		}
		f.Options = append([]string(nil), options...)
		return nil
	})
}

// SetRequired toggles whether field id must be answered. The privacy
// policy field is always required.
func (e *Editor) SetRequired(id string, required bool) (models.FieldDefinition, error) {
	return e.update(id, func(f *models.FieldDefinition) error {
		if f.IsPrivacyPolicy() && !required {
			return fmt.Errorf("formschema: %s: %w", f.Key, apperr.ErrLockedField)
		}
		f.Required = required
		return nil
	})
}

// Move takes the field at index from and inserts it at index to, then
// renumbers positions 1..N.
func (e *Editor) Move(from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.fields)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("formschema: move %d -> %d of %d: %w", from, to, n, apperr.ErrInvalidInput)
	}
	f := e.fields[from]
	e.fields = append(e.fields[:from], e.fields[from+1:]...)
	e.fields = append(e.fields[:to], append([]models.FieldDefinition{f}, e.fields[to:]...)...)
	renumber(e.fields)
	return nil
}

// Remove drops field id. The privacy policy field cannot be removed; the
// e-mail field can, and Validate then reports it missing.
func (e *Editor) Remove(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, err := e.find(id)
	if err != nil {
		return err
	}
	if e.fields[i].IsPrivacyPolicy() {
		return fmt.Errorf("formschema: %s: %w", e.fields[i].Key, apperr.ErrLockedField)
	}
	e.fields = append(e.fields[:i], e.fields[i+1:]...)
	renumber(e.fields)
	return nil
}

// Payload builds the replace-all update for the current state.
func (e *Editor) Payload() models.FormUpdate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.payload()
}

func (e *Editor) payload() models.FormUpdate {
	props := make([]models.FieldDefinition, 0, len(e.fields))
	for i, f := range e.fields {
		if !f.IsReserved() {
			f.Key = DeriveKey(f.Label)
		}
		if f.IsPrivacyPolicy() {
			f.Required = true
		}
		if f.IsPlaceholder() {
			f.ID = ""
		}
		f.Options = nonEmpty(f.Options)
		f.Position = i + 1
		props = append(props, f)
	}
	return models.FormUpdate{Name: e.name, Description: e.description, Properties: props}
}

// Save submits the schema and replaces the working copy with the stored
// form. On failure the local state is left as it was.
func (e *Editor) Save(ctx context.Context, c Client) error {
	e.mu.Lock()
	id, upd := e.formID, e.payload()
	e.mu.Unlock()

	if err := c.UpdateForm(ctx, id, upd); err != nil {
		return fmt.Errorf("formschema: save %s: %w", id, err)
	}
	f, err := c.GetForm(ctx, id)
	if err != nil {
		return fmt.Errorf("formschema: refetch %s: %w", id, err)
	}
	if f.ID == "" {
		f.ID = id
	}
	e.mu.Lock()
	e.reset(f)
	e.mu.Unlock()
	return nil
}

// Issue is a soft constraint the schema violates. Issues never block Save.
type Issue struct {
	FieldID string `json:"fieldId,omitempty"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

// Validate lists soft constraint violations of the current state.
func (e *Editor) Validate() []Issue {
	e.mu.Lock()
	upd := e.payload()
	ids := make([]string, len(e.fields))
	for i, f := range e.fields {
		ids[i] = f.ID
	}
	e.mu.Unlock()

	count := map[string]int{}
	for _, f := range upd.Properties {
		count[f.Key]++
	}
	var issues []Issue
	for _, key := range registry.Reserved {
		if count[key] == 0 {
			issues = append(issues, Issue{Key: key, Message: "reserved field missing"})
		}
	}
	for i, f := range upd.Properties {
		switch {
		case f.Key == "":
			issues = append(issues, Issue{FieldID: ids[i], Message: "label yields an empty key"})
		case count[f.Key] > 1:
			issues = append(issues, Issue{FieldID: ids[i], Key: f.Key, Message: "duplicate key"})
		}
		if registry.IsChoice(f.PropertyType) && len(f.Options) == 0 {
			issues = append(issues, Issue{FieldID: ids[i], Key: f.Key, Message: "choice field has no options"})
		}
	}
	return issues
}

func nonEmpty(options []string) []string {
	var out []string
	for _, o := range options {
		if strings.TrimSpace(o) != "" {
			out = append(out, o)
		}
	}
	return out
}

func renumber(fields []models.FieldDefinition) {
	for i := range fields {
		fields[i].Position = i + 1
	}
}

func sortByPosition(fields []models.FieldDefinition) {
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Position < fields[j].Position })
}
