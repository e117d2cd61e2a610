package brandoo

import (
	"context"
	"net/http"

	"github.com/brandoo/console/internal/models"
)

// Contacts lists the contacts of userID.
func (c *Client) Contacts(ctx context.Context, userID string) ([]models.Contact, error) {
	var out []models.Contact
	err := c.do(ctx, call{method: http.MethodGet, path: p("contacts/get-contacts/", userID), out: &out})
	return out, emptyOnNotFound(err)
}

// Contact fetches a single contact.
func (c *Client) Contact(ctx context.Context, id string) (models.Contact, error) {
	var out models.Contact
	err := c.do(ctx, call{method: http.MethodGet, path: p("contacts/get-contact/", id), out: &out, privateKey: true})
	return out, err
}

// UnseenContacts returns how many contacts of userID are unread.
func (c *Client) UnseenContacts(ctx context.Context, userID string) (int, error) {
	var out int
	err := c.do(ctx, call{method: http.MethodGet, path: p("contacts/get-unseen-contacts/", userID), out: &out})
	return out, err
}

// MarkContactRead flags the initial message of a contact as read.
func (c *Client) MarkContactRead(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodPut, path: p("contacts/has-read-initial-message/", id)})
}

// UpdateContactDescription replaces the private note of a contact.
func (c *Client) UpdateContactDescription(ctx context.Context, id, description string) error {
	body := map[string]string{"description": description}
	return c.do(ctx, call{method: http.MethodPut, path: p("contacts/update-contact-description/", id), body: body})
}

// UpdateContactLabels replaces the label set of a contact.
func (c *Client) UpdateContactLabels(ctx context.Context, id string, labels []string) error {
	if labels == nil {
		labels = []string{}
	}
	body := map[string][]string{"labels": labels}
	return c.do(ctx, call{method: http.MethodPut, path: p("contacts/update-contact-labels/", id), body: body})
}

// DeleteContact deletes a contact.
func (c *Client) DeleteContact(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: p("contacts/delete-contact/", id)})
}

// Labels lists the labels of userID. A 404 yields an empty list.
func (c *Client) Labels(ctx context.Context, userID string) ([]models.Label, error) {
	var out []models.Label
	err := c.do(ctx, call{method: http.MethodGet, path: p("contacts/labels/", userID), out: &out})
	return out, emptyOnNotFound(err)
}

// CreateLabel creates a label for userID.
func (c *Client) CreateLabel(ctx context.Context, userID string, in models.LabelInput) error {
	return c.do(ctx, call{method: http.MethodPost, path: p("contacts/label/", userID), body: in})
}

// UpdateLabel changes the title and color of a label.
func (c *Client) UpdateLabel(ctx context.Context, id string, in models.LabelInput) error {
	return c.do(ctx, call{method: http.MethodPut, path: p("contacts/label/", id), body: in})
}

// DeleteLabel deletes a label.
func (c *Client) DeleteLabel(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: p("contacts/label/", id)})
}

// ContactForms lists the legacy contact forms of userID.
func (c *Client) ContactForms(ctx context.Context, userID string) ([]models.ContactForm, error) {
	var out []models.ContactForm
	err := c.do(ctx, call{method: http.MethodGet, path: p("contacts/forms/", userID), out: &out})
	return out, emptyOnNotFound(err)
}

// CreateContactForm creates a legacy contact form for userID.
func (c *Client) CreateContactForm(ctx context.Context, userID string, f models.ContactForm) error {
	return c.do(ctx, call{method: http.MethodPost, path: p("contacts/form/", userID), body: f})
}

// UpdateContactForm updates a legacy contact form.
func (c *Client) UpdateContactForm(ctx context.Context, id string, f models.ContactForm) error {
	return c.do(ctx, call{method: http.MethodPut, path: p("contacts/form/", id), body: f})
}

// DeleteContactForm deletes a legacy contact form.
func (c *Client) DeleteContactForm(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: p("contacts/form/", id)})
}
