// Package models defines the domain types shared by the console packages.
//
// JSON tags use camelCase: the backend speaks snake_case and the brandoo
// client rewrites keys at the HTTP boundary.
package models

import "strings"

// PropertyType is the value type of a form field.
type PropertyType string

const (
	PropertyShortText PropertyType = "short_text"
	PropertyLongText  PropertyType = "long_text"
	PropertyBoolean   PropertyType = "boolean"
	PropertyRadio     PropertyType = "radio"
	PropertyCheckbox  PropertyType = "checkbox"
	PropertySelection PropertyType = "selection"
	PropertyDateTime  PropertyType = "date_time"
	PropertyTime      PropertyType = "time"
	PropertyFile      PropertyType = "file"
)

// AllPropertyTypes lists every PropertyType in display order.
var AllPropertyTypes = []PropertyType{
	PropertyShortText,
	PropertyLongText,
	PropertyBoolean,
	PropertyRadio,
	PropertyCheckbox,
	PropertySelection,
	PropertyTime,
	PropertyDateTime,
	PropertyFile,
}

// Valid reports whether t is one of the enumerated property types.
func (t PropertyType) Valid() bool {
	for _, v := range AllPropertyTypes {
		if v == t {
			return true
		}
	}
	return false
}

// PlaceholderPrefix marks field ids generated locally for unsaved fields.
const PlaceholderPrefix = "subId"

// Reserved field keys every form is expected to carry.
const (
	KeyEmail                 = "email"
	KeyAgreedToPrivacyPolicy = "agreedToPrivacyPolicy"
)

// FieldDefinition is one column of a contact-capture form.
type FieldDefinition struct {
	ID           string       `json:"id,omitempty"`
	FormID       string       `json:"formId,omitempty"`
	UserID       string       `json:"userId,omitempty"`
	Key          string       `json:"key"`
	Label        string       `json:"label"`
	PropertyType PropertyType `json:"propertyType"`
	Options      []string     `json:"options,omitempty"`
	Position     int          `json:"position"`
	Required     bool         `json:"required"`
}

// IsPlaceholder reports whether the field has not been persisted yet.
func (f FieldDefinition) IsPlaceholder() bool {
	return f.ID == "" || strings.HasPrefix(f.ID, PlaceholderPrefix)
}

// IsPrivacyPolicy reports whether f is the distinguished privacy-policy field.
func (f FieldDefinition) IsPrivacyPolicy() bool {
	return f.Key == KeyAgreedToPrivacyPolicy
}

// IsReserved reports whether f carries one of the reserved keys.
func (f FieldDefinition) IsReserved() bool {
	return f.Key == KeyEmail || f.Key == KeyAgreedToPrivacyPolicy
}

// Form is the summary of a form as listed for a user.
type Form struct {
	ID             string   `json:"id"`
	UserID         string   `json:"userId,omitempty"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	FormProperties []string `json:"formProperties,omitempty"`
	CreatedAt      string   `json:"createdAt,omitempty"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
}

// FormWithProperties is a form together with its field schema.
type FormWithProperties struct {
	ID                string            `json:"id,omitempty"`
	UserID            string            `json:"userId,omitempty"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Properties        []FieldDefinition `json:"properties"`
	FormPropertiesIDs []string          `json:"formPropertiesIds,omitempty"`
}

// FormUpdate is the replace-all payload sent when a schema is saved.
type FormUpdate struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Properties  []FieldDefinition `json:"properties"`
}

// FormBasicInfo is the payload for creating a form.
type FormBasicInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PropertyOptions is the public options listing of a choice field.
type PropertyOptions struct {
	ID      string   `json:"id"`
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Options []string `json:"options"`
}

// TableHeader describes one column of a form response table.
type TableHeader struct {
	Key          string       `json:"key"`
	Label        string       `json:"label"`
	Position     int          `json:"position"`
	PropertyType PropertyType `json:"propertyType"`
}

// Response is one form submission row; keys follow the form's properties.
type Response map[string]any

// ID returns the response id.
func (r Response) ID() string {
	s, _ := r["id"].(string)
	return s
}

// Pagination is the paging block of a form table.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalPages int `json:"totalPages"`
	TotalItems int `json:"totalItems"`
}

// FormTable is a page of responses with its schema-driven header.
type FormTable struct {
	Table struct {
		Header []TableHeader `json:"header"`
		Body   []Response    `json:"body"`
	} `json:"table"`
	Pagination Pagination `json:"pagination"`
}

// TableQuery holds the paging and search parameters of a form table.
type TableQuery struct {
	Page        int
	PerPage     int
	SearchQuery string
	SortBy      string
	SortOrder   string
}
