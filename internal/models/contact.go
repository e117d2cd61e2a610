package models

import "encoding/json"

// Contact is one submission captured by a legacy contact form. Fixed
// metadata is typed; schema-driven fields live in Fields.
type Contact struct {
	ID                    string         `json:"id"`
	FormID                string         `json:"formId,omitempty"`
	Email                 string         `json:"email,omitempty"`
	Description           string         `json:"description,omitempty"`
	HasReadInitialMessage bool           `json:"hasReadInitialMessage"`
	Labels                []string       `json:"labels"`
	CreatedAt             string         `json:"createdAt,omitempty"`
	UpdatedAt             string         `json:"updatedAt,omitempty"`
	Fields                map[string]any `json:"-"`
}

// Label tags contacts and responses.
type Label struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Title     string `json:"title"`
	Color     string `json:"color"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// LabelInput is the create/update payload of a label.
type LabelInput struct {
	Title string `json:"title"`
	Color string `json:"color"`
}

// LabelColors are the colors offered by the label picker.
var LabelColors = []string{
	"primary", "secondary", "success", "warning", "danger",
	"red", "orange", "amber", "yellow", "lime", "green", "emerald", "teal",
	"cyan", "sky", "blue", "indigo", "violet", "purple", "fuchsia", "pink", "rose",
}

// ContactForm is a legacy contact form. FormProperties holds the keys of
// the predefined contact attributes it asks for.
type ContactForm struct {
	ID             string   `json:"id,omitempty"`
	UserID         string   `json:"userId,omitempty"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	FormProperties []string `json:"formProperties"`
}

// DetailedResponse is a single response with labelled values, used when
// creating events.
type DetailedResponse struct {
	ID        string          `json:"id"`
	CreatedAt string          `json:"createdAt"`
	Alias     string          `json:"alias"`
	Labels    []string        `json:"labels"`
	Response  []ResponseValue `json:"response"`
}

// ResponseValue is one labelled value of a DetailedResponse.
type ResponseValue struct {
	Value        any          `json:"value"`
	Label        string       `json:"label"`
	PropertyType PropertyType `json:"propertyType"`
}

// UnmarshalJSON decodes the fixed metadata and keeps every key in Fields.
func (c *Contact) UnmarshalJSON(data []byte) error {
	type plain Contact
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*c = Contact(p)
	c.Fields = fields
	return nil
}
