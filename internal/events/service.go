package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"github.com/brandoo/console/internal/apperr"
	"github.com/brandoo/console/internal/models"
)

// Client is the part of the backend API events need.
type Client interface {
	CreateEvent(ctx context.Context, e models.Event) error
	Event(ctx context.Context, id string) (models.Event, error)
	UpdateEvent(ctx context.Context, id string, patch map[string]any) error
	DeleteEvent(ctx context.Context, id string) error
	ResponseEvents(ctx context.Context, responseID string) ([]models.Event, error)
	UserEvents(ctx context.Context, userID string) ([]models.Event, error)
	LinkTitle(ctx context.Context, link string) (string, error)
}

// Patch is a partial event update. Nil fields are left untouched.
type Patch struct {
	Title    *string    `json:"title,omitempty"`
	Notes    *string    `json:"notes,omitempty"`
	Address  *string    `json:"address,omitempty"`
	Links    *string    `json:"links,omitempty"`
	FromDate *time.Time `json:"fromDate,omitempty"`
	ToDate   *time.Time `json:"toDate,omitempty"`
	AllDay   *bool      `json:"allDay,omitempty"`
	Files    []string   `json:"files,omitempty"`
}

// Validate checks the patch on its own; cross checks against the stored
// event happen in Service.Update.
func (p Patch) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&p.Links, validation.Length(0, 2000)),
	)
	if err != nil {
		return fmt.Errorf("events: %w: %w", apperr.ErrInvalidInput, err)
	}
	if p.FromDate != nil && p.ToDate != nil && p.ToDate.Before(*p.FromDate) {
		return fmt.Errorf("events: end before start: %w", apperr.ErrInvalidInput)
	}
	return nil
}

func (p Patch) toMap() map[string]any {
	m := make(map[string]any)
	if p.Title != nil {
		m["title"] = *p.Title
	}
	if p.Notes != nil {
		m["notes"] = *p.Notes
	}
	if p.Address != nil {
		m["address"] = *p.Address
	}
	if p.Links != nil {
		m["links"] = JoinLinks([]string{*p.Links})
	}
	if p.FromDate != nil {
		m["fromDate"] = p.FromDate.UTC().Format(time.RFC3339Nano)
	}
	if p.ToDate != nil {
		m["toDate"] = p.ToDate.UTC().Format(time.RFC3339Nano)
	}
	if p.AllDay != nil {
		m["allDay"] = *p.AllDay
	}
	if p.Files != nil {
		m["files"] = p.Files
	}
	return m
}

// LinkChip is a link of an event with its display title.
type LinkChip struct {
	Link  string `json:"link"`
	Title string `json:"title"`
}

// Service wraps the event endpoints.
type Service struct {
	client Client
	now    func() time.Time
}

// NewService returns a Service over c.
func NewService(c Client) *Service {
	return &Service{client: c, now: time.Now}
}

// CreateForResponse creates the default event of resp for userID.
func (s *Service) CreateForResponse(ctx context.Context, resp models.DetailedResponse, userID string) (models.Event, error) {
	e := NewForResponse(resp, userID, s.now())
	if err := s.client.CreateEvent(ctx, e); err != nil {
		return models.Event{}, fmt.Errorf("events: create for %s: %w", resp.ID, err)
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.Event, error) {
	e, err := s.client.Event(ctx, id)
	if err != nil {
		return models.Event{}, fmt.Errorf("events: get %s: %w", id, err)
	}
	return e, nil
}

// Update applies p to event id and returns the refetched event.
func (s *Service) Update(ctx context.Context, id string, p Patch) (models.Event, error) {
	if err := p.Validate(); err != nil {
		return models.Event{}, err
	}
	if (p.FromDate == nil) != (p.ToDate == nil) {
		cur, err := s.Get(ctx, id)
		if err != nil {
			return models.Event{}, err
		}
		from, to := p.FromDate, p.ToDate
		if from == nil {
			t, err := ParseDate(cur.FromDate)
			if err == nil {
				from = &t
			}
		}
		if to == nil {
			t, err := ParseDate(cur.ToDate)
			if err == nil {
				to = &t
			}
		}
		if from != nil && to != nil && to.Before(*from) {
			return models.Event{}, fmt.Errorf("events: %s would end before it starts: %w", id, apperr.ErrInvalidInput)
		}
	}
	if err := s.client.UpdateEvent(ctx, id, p.toMap()); err != nil {
		return models.Event{}, fmt.Errorf("events: update %s: %w", id, err)
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("events: delete %s: %w", id, err)
	}
	return nil
}

// ForResponse lists the events attached to a response.
func (s *Service) ForResponse(ctx context.Context, responseID string) ([]models.Event, error) {
	list, err := s.client.ResponseEvents(ctx, responseID)
	if err != nil {
		return nil, fmt.Errorf("events: list for response %s: %w", responseID, err)
	}
	return list, nil
}

// ForUser lists every event of userID.
func (s *Service) ForUser(ctx context.Context, userID string) ([]models.Event, error) {
	list, err := s.client.UserEvents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("events: list for user %s: %w", userID, err)
	}
	return list, nil
}

// LinkChips resolves a display title for every link of an event. Google
// Meet links are named without asking the backend; a link whose title
// cannot be fetched is shown as itself.
func (s *Service) LinkChips(ctx context.Context, links string) []LinkChip {
	list := SplitLinks(links)
	out := make([]LinkChip, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, link := range list {
		out[i] = LinkChip{Link: link, Title: link}
		if strings.Contains(link, "meet.google.com") {
			out[i].Title = "Google Meet"
			continue
		}
		g.Go(func() error {
			title, err := s.client.LinkTitle(gctx, link)
			if err == nil && title != "" {
				out[i].Title = title
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Calendar fetches event id and renders it as iCalendar.
func (s *Service) Calendar(ctx context.Context, id string) (string, []byte, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	data, err := ICS(e, s.now())
	if err != nil {
		return "", nil, err
	}
	return FileName(e), data, nil
}
