package brandoo

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/brandoo/console/internal/models"
)

// CreateForm creates a form for userID and returns its id.
func (c *Client) CreateForm(ctx context.Context, userID string, info models.FormBasicInfo) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, call{method: http.MethodPost, path: p("forms/create-form/", userID), body: info, out: &out})
	return out.ID, err
}

// GetForm fetches a form with its schema.
func (c *Client) GetForm(ctx context.Context, id string) (models.FormWithProperties, error) {
	var out models.FormWithProperties
	err := c.do(ctx, call{method: http.MethodGet, path: p("forms/get-form/", id), out: &out})
	return out, err
}

// UpdateForm replaces the name, description and field set of a form.
func (c *Client) UpdateForm(ctx context.Context, id string, upd models.FormUpdate) error {
	return c.do(ctx, call{method: http.MethodPut, path: p("forms/update-form/", id), body: upd})
}

// DeleteForm deletes a form.
func (c *Client) DeleteForm(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: p("forms/delete-form/", id)})
}

// ResetForm removes every response of a form.
func (c *Client) ResetForm(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: p("forms/reset-form/", id)})
}

// UserForms lists the forms of userID. A 404 yields an empty list.
func (c *Client) UserForms(ctx context.Context, userID string) ([]models.Form, error) {
	var out []models.Form
	err := c.do(ctx, call{method: http.MethodGet, path: p("forms/get-users-forms/", userID), out: &out})
	return out, emptyOnNotFound(err)
}

// FormTable fetches a page of responses of one form.
func (c *Client) FormTable(ctx context.Context, formID string, q models.TableQuery) (models.FormTable, error) {
	var out models.FormTable
	err := c.do(ctx, call{
		method:     http.MethodGet,
		path:       p("forms/form-table/", formID),
		query:      tableQuery(q),
		out:        &out,
		privateKey: true,
	})
	return out, err
}

// UserFormsTable fetches a page of responses across all forms of userID.
func (c *Client) UserFormsTable(ctx context.Context, userID string, q models.TableQuery) (models.FormTable, error) {
	var out models.FormTable
	err := c.do(ctx, call{
		method:     http.MethodGet,
		path:       p("forms/users-forms-table/", userID),
		query:      tableQuery(q),
		out:        &out,
		privateKey: true,
	})
	return out, err
}

// PropertyOptions fetches the public option listing of a choice field.
func (c *Client) PropertyOptions(ctx context.Context, propertyID string) (models.PropertyOptions, error) {
	var out models.PropertyOptions
	err := c.do(ctx, call{method: http.MethodGet, path: p("forms/property/options/", propertyID), out: &out})
	return out, err
}

func tableQuery(q models.TableQuery) url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.SearchQuery != "" {
		v.Set("search_query", q.SearchQuery)
	}
	if q.SortBy != "" {
		v.Set("sort_by", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sort_order", q.SortOrder)
	}
	return v
}
