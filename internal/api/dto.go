package api

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/brandoo/console/internal/formschema"
	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/registry"
	"github.com/brandoo/console/internal/richtext"
)

var (
	knownPropertyType = validation.By(func(v any) error {
		t, _ := v.(models.PropertyType)
		if p, ok := v.(*models.PropertyType); ok && p != nil {
			t = *p
		}
		if _, ok := registry.Property(t); !ok {
			return errors.New("unknown field type")
		}
		return nil
	})
	knownContentType = validation.By(func(v any) error {
		t, _ := v.(models.ContentType)
		if _, ok := registry.Content(t); !ok {
			return errors.New("unknown content type")
		}
		return nil
	})
)

// SignInRequest is the request body for signing in.
type SignInRequest struct {
	Email    string `json:"email" example:"owner@example.com" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Validate checks the credentials are present.
func (r *SignInRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

// UserFormInfoRequest is the public contact block shown on forms.
type UserFormInfoRequest models.UserFormInfo

// Validate checks the contact block.
func (r *UserFormInfoRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ContactEmail, is.EmailFormat),
		validation.Field(&r.ContactPhone, validation.Length(0, 30)),
		validation.Field(&r.RegistrationNo, validation.Length(0, 20), is.Digit),
	)
}

// CreateFormRequest is the request body for creating a form.
type CreateFormRequest struct {
	Name        string `json:"name" example:"Poptávka" validate:"required"`
	Description string `json:"description"`
}

// Validate checks the form name.
func (r *CreateFormRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 2000)),
	)
}

// FormInfoRequest renames a form in the editor.
type FormInfoRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Validate checks the new name.
func (r *FormInfoRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 2000)),
	)
}

// FieldPatchRequest changes one field in the form editor. Only the set
// members are applied, in the order label, type, options, required.
type FieldPatchRequest struct {
	Label    *string              `json:"label,omitempty"`
	Type     *models.PropertyType `json:"propertyType,omitempty"`
	Options  []string             `json:"options,omitempty"`
	Required *bool                `json:"required,omitempty"`
}

// Validate checks the patch.
func (r *FieldPatchRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Label, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Type, validation.When(r.Type != nil, knownPropertyType)),
		validation.Field(&r.Options, validation.Length(0, 100)),
	)
}

// MoveRequest moves a field from one position to another.
type MoveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Validate checks the indexes are not negative.
func (r *MoveRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.From, validation.Min(0)),
		validation.Field(&r.To, validation.Min(0)),
	)
}

// AliasRequest renames a content root.
type AliasRequest struct {
	Alias string `json:"alias" example:"Homepage" validate:"required"`
}

// Validate checks the alias.
func (r *AliasRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Alias, validation.Required, validation.Length(1, 200)),
	)
}

// ContentTypeRequest chooses the type of a content node.
type ContentTypeRequest struct {
	ContentType models.ContentType `json:"contentType" example:"text" validate:"required"`
}

// Validate checks the type is known.
func (r *ContentTypeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ContentType, validation.Required, knownContentType),
	)
}

// List text actions.
const (
	ListTextAdd    = "add"
	ListTextSet    = "set"
	ListTextRemove = "remove"
)

// ListTextEdit is one edit of a list-of-text node.
type ListTextEdit struct {
	Action string `json:"action"`
	Index  int    `json:"index"`
	Text   string `json:"text"`
}

// ContentUpdateRequest edits a leaf node. Exactly one member is set.
type ContentUpdateRequest struct {
	Text     *string       `json:"text,omitempty"`
	HTML     *string       `json:"html,omitempty"`
	ListText *ListTextEdit `json:"listText,omitempty"`
}

// Validate checks that exactly one edit is requested.
func (r *ContentUpdateRequest) Validate() error {
	n := 0
	for _, set := range []bool{r.Text != nil, r.HTML != nil, r.ListText != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return errors.New("exactly one of text, html, listText is required")
	}
	if r.ListText != nil {
		return validation.ValidateStruct(r.ListText,
			validation.Field(&r.ListText.Action, validation.Required, validation.In(ListTextAdd, ListTextSet, ListTextRemove)),
			validation.Field(&r.ListText.Index, validation.Min(0)),
		)
	}
	return nil
}

// PropertyRequest adds a property to an item.
type PropertyRequest struct {
	RootID string `json:"rootId" validate:"required"`
}

// Validate checks the root id.
func (r *PropertyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RootID, validation.Required),
	)
}

// KeyRequest renames a property.
type KeyRequest struct {
	Key string `json:"key" example:"title" validate:"required"`
}

// Validate checks the key.
func (r *KeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Key, validation.Required, validation.Length(1, 100)),
	)
}

// DragRequest names the group a drag starts at or hovers over.
type DragRequest struct {
	Index int `json:"index"`
}

// Validate checks the index.
func (r *DragRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Index, validation.Min(0)),
	)
}

// RichTextRequest applies formatting commands to HTML content.
type RichTextRequest struct {
	Content  string             `json:"content"`
	Commands []richtext.Command `json:"commands"`
}

// Validate checks the command list.
func (r *RichTextRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Commands, validation.Required, validation.Length(1, 100)),
	)
}

// RichTextResponse is the formatted content and the formatting state at
// the last command's selection.
type RichTextResponse struct {
	HTML  string          `json:"html"`
	State richtext.Format `json:"state"`
}

// SessionResponse describes the current session without its secrets.
type SessionResponse struct {
	SignedIn  bool         `json:"signedIn"`
	User      *models.User `json:"user,omitempty"`
	ExpiresAt string       `json:"expiresAt,omitempty"`
	DevMode   bool         `json:"devMode"`
}

// EditorResponse is the working copy of a form and its soft issues.
type EditorResponse struct {
	Form   models.FormWithProperties `json:"form"`
	Issues []formschema.Issue        `json:"issues"`
}
