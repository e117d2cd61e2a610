package brandoo

import (
	"context"
	"net/http"
	"net/url"

	"github.com/brandoo/console/internal/models"
)

// CreateEvent creates an event.
func (c *Client) CreateEvent(ctx context.Context, e models.Event) error {
	if e.Files == nil {
		e.Files = []string{}
	}
	return c.do(ctx, call{method: http.MethodPost, path: "event", body: e})
}

// Event fetches an event.
func (c *Client) Event(ctx context.Context, id string) (models.Event, error) {
	var out models.Event
	err := c.do(ctx, call{method: http.MethodGet, path: p("event/", id), out: &out, privateKey: true})
	return out, err
}

// UpdateEvent applies a partial update to an event.
func (c *Client) UpdateEvent(ctx context.Context, id string, patch map[string]any) error {
	return c.do(ctx, call{method: http.MethodPut, path: p("event/", id), body: patch})
}

// DeleteEvent deletes an event.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: p("event/", id), privateKey: true})
}

// ResponseEvents lists the events attached to a response.
func (c *Client) ResponseEvents(ctx context.Context, responseID string) ([]models.Event, error) {
	var out []models.Event
	err := c.do(ctx, call{method: http.MethodGet, path: p("event/events/response/", responseID), out: &out, privateKey: true})
	return out, emptyOnNotFound(err)
}

// UserEvents lists the events of userID.
func (c *Client) UserEvents(ctx context.Context, userID string) ([]models.Event, error) {
	var out []models.Event
	err := c.do(ctx, call{method: http.MethodGet, path: p("event/events/user/", userID), out: &out, privateKey: true})
	return out, emptyOnNotFound(err)
}

// LinkTitle asks the backend for the page title behind link.
func (c *Client) LinkTitle(ctx context.Context, link string) (string, error) {
	var out models.LinkTitle
	err := c.do(ctx, call{method: http.MethodGet, path: "get-title", query: url.Values{"url": {link}}, out: &out})
	return out.Title, err
}
