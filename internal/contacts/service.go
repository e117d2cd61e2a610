package contacts

import (
	"context"
	"fmt"
	"io"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/brandoo/console/internal/apperr"
	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/registry"
)

// Client is the part of the backend API contacts need.
type Client interface {
	Contacts(ctx context.Context, userID string) ([]models.Contact, error)
	Contact(ctx context.Context, id string) (models.Contact, error)
	UnseenContacts(ctx context.Context, userID string) (int, error)
	MarkContactRead(ctx context.Context, id string) error
	UpdateContactDescription(ctx context.Context, id, description string) error
	UpdateContactLabels(ctx context.Context, id string, labels []string) error
	DeleteContact(ctx context.Context, id string) error

	Labels(ctx context.Context, userID string) ([]models.Label, error)
	CreateLabel(ctx context.Context, userID string, in models.LabelInput) error
	UpdateLabel(ctx context.Context, id string, in models.LabelInput) error
	DeleteLabel(ctx context.Context, id string) error

	FormTable(ctx context.Context, formID string, q models.TableQuery) (models.FormTable, error)
	UserFormsTable(ctx context.Context, userID string, q models.TableQuery) (models.FormTable, error)

	ContactForms(ctx context.Context, userID string) ([]models.ContactForm, error)
	CreateContactForm(ctx context.Context, userID string, f models.ContactForm) error
	UpdateContactForm(ctx context.Context, id string, f models.ContactForm) error
	DeleteContactForm(ctx context.Context, id string) error
}

// ToggleLabel returns labels with labelID removed when present and
// appended otherwise. The input is not modified.
func ToggleLabel(labels []string, labelID string) []string {
	if i := slices.Index(labels, labelID); i >= 0 {
		return slices.Delete(slices.Clone(labels), i, i+1)
	}
	return append(slices.Clone(labels), labelID)
}

// ValidateLabel checks a label payload.
func ValidateLabel(in models.LabelInput) error {
	colors := make([]any, len(models.LabelColors))
	for i, c := range models.LabelColors {
		colors[i] = c
	}
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 50)),
		validation.Field(&in.Color, validation.Required, validation.In(colors...)),
	)
	if err != nil {
		return fmt.Errorf("contacts: %w: %w", apperr.ErrInvalidInput, err)
	}
	return nil
}

// ValidateContactForm checks a legacy contact form: a name and a set of
// known attribute keys that includes the reserved ones.
func ValidateContactForm(f models.ContactForm) error {
	known := make([]any, len(registry.SelectFormProperties))
	for i, p := range registry.SelectFormProperties {
		known[i] = p.Key
	}
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&f.FormProperties,
			validation.Required,
			validation.Each(validation.In(known...)),
			validation.By(func(any) error {
				for _, k := range registry.Reserved {
					if !slices.Contains(f.FormProperties, k) {
						return fmt.Errorf("must include %s", k)
					}
				}
				return nil
			}),
		),
	)
	if err != nil {
		return fmt.Errorf("contacts: %w: %w", apperr.ErrInvalidInput, err)
	}
	return nil
}

// Service groups the contact and label operations.
type Service struct {
	client Client
}

// NewService returns a Service over c.
func NewService(c Client) *Service {
	return &Service{client: c}
}

func (s *Service) List(ctx context.Context, userID string) ([]models.Contact, error) {
	list, err := s.client.Contacts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("contacts: list: %w", err)
	}
	return list, nil
}

// Unseen counts contacts whose first message has not been read.
func (s *Service) Unseen(ctx context.Context, userID string) (int, error) {
	n, err := s.client.UnseenContacts(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("contacts: unseen: %w", err)
	}
	return n, nil
}

func (s *Service) MarkRead(ctx context.Context, id string) error {
	if err := s.client.MarkContactRead(ctx, id); err != nil {
		return fmt.Errorf("contacts: mark read %s: %w", id, err)
	}
	return nil
}

func (s *Service) SetDescription(ctx context.Context, id, description string) error {
	if err := s.client.UpdateContactDescription(ctx, id, description); err != nil {
		return fmt.Errorf("contacts: describe %s: %w", id, err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteContact(ctx, id); err != nil {
		return fmt.Errorf("contacts: delete %s: %w", id, err)
	}
	return nil
}

// ToggleLabel adds or removes labelID on contact id and returns the new
// label list.
func (s *Service) ToggleLabel(ctx context.Context, id, labelID string) ([]string, error) {
	c, err := s.client.Contact(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("contacts: get %s: %w", id, err)
	}
	labels := ToggleLabel(c.Labels, labelID)
	if err := s.client.UpdateContactLabels(ctx, id, labels); err != nil {
		return nil, fmt.Errorf("contacts: label %s: %w", id, err)
	}
	return labels, nil
}

func (s *Service) Labels(ctx context.Context, userID string) ([]models.Label, error) {
	labels, err := s.client.Labels(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("contacts: labels: %w", err)
	}
	return labels, nil
}

func (s *Service) CreateLabel(ctx context.Context, userID string, in models.LabelInput) error {
	if err := ValidateLabel(in); err != nil {
		return err
	}
	if err := s.client.CreateLabel(ctx, userID, in); err != nil {
		return fmt.Errorf("contacts: create label: %w", err)
	}
	return nil
}

func (s *Service) UpdateLabel(ctx context.Context, id string, in models.LabelInput) error {
	if err := ValidateLabel(in); err != nil {
		return err
	}
	if err := s.client.UpdateLabel(ctx, id, in); err != nil {
		return fmt.Errorf("contacts: update label %s: %w", id, err)
	}
	return nil
}

// DeleteLabel detaches label id from every contact of userID and deletes it.
func (s *Service) DeleteLabel(ctx context.Context, userID, id string) error {
	list, err := s.List(ctx, userID)
	if err != nil {
		return err
	}
	for _, c := range list {
		if !slices.Contains(c.Labels, id) {
			continue
		}
		if err := s.client.UpdateContactLabels(ctx, c.ID, ToggleLabel(c.Labels, id)); err != nil {
			return fmt.Errorf("contacts: detach label from %s: %w", c.ID, err)
		}
	}
	if err := s.client.DeleteLabel(ctx, id); err != nil {
		return fmt.Errorf("contacts: delete label %s: %w", id, err)
	}
	return nil
}

// AllResponses fetches a page of responses across every form of userID.
func (s *Service) AllResponses(ctx context.Context, userID string, q models.TableQuery) (models.FormTable, error) {
	t, err := s.client.UserFormsTable(ctx, userID, q)
	if err != nil {
		return models.FormTable{}, fmt.Errorf("contacts: responses: %w", err)
	}
	return t, nil
}

func (s *Service) ContactForms(ctx context.Context, userID string) ([]models.ContactForm, error) {
	list, err := s.client.ContactForms(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("contacts: contact forms: %w", err)
	}
	return list, nil
}

func (s *Service) CreateContactForm(ctx context.Context, userID string, f models.ContactForm) error {
	if err := ValidateContactForm(f); err != nil {
		return err
	}
	if err := s.client.CreateContactForm(ctx, userID, f); err != nil {
		return fmt.Errorf("contacts: create contact form: %w", err)
	}
	return nil
}

func (s *Service) UpdateContactForm(ctx context.Context, id string, f models.ContactForm) error {
	if err := ValidateContactForm(f); err != nil {
		return err
	}
	if err := s.client.UpdateContactForm(ctx, id, f); err != nil {
		return fmt.Errorf("contacts: update contact form %s: %w", id, err)
	}
	return nil
}

func (s *Service) DeleteContactForm(ctx context.Context, id string) error {
	if err := s.client.DeleteContactForm(ctx, id); err != nil {
		return fmt.Errorf("contacts: delete contact form %s: %w", id, err)
	}
	return nil
}

// exportPageSize is the page size used to walk a whole form table.
const exportPageSize = 100

// ExportForm fetches every response of formID and writes the xlsx export.
func (s *Service) ExportForm(ctx context.Context, userID, formID string, w io.Writer) error {
	var all models.FormTable
	for page := 1; ; page++ {
		t, err := s.client.FormTable(ctx, formID, models.TableQuery{Page: page, PerPage: exportPageSize})
		if err != nil {
			return fmt.Errorf("contacts: export %s: %w", formID, err)
		}
		if page == 1 {
			all.Table.Header = t.Table.Header
		}
		all.Table.Body = append(all.Table.Body, t.Table.Body...)
		if page >= t.Pagination.TotalPages || len(t.Table.Body) == 0 {
			break
		}
	}
	labels, err := s.Labels(ctx, userID)
	if err != nil {
		return err
	}
	return Export(w, all, labels)
}
