package brandoo

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/brandoo/console/internal/models"
)

// ContentRoots lists the root nodes of userID.
func (c *Client) ContentRoots(ctx context.Context, userID string) ([]models.ContentRoot, error) {
	var out []models.ContentRoot
	err := c.do(ctx, call{method: http.MethodGet, path: p("contents/root/users/", userID), out: &out})
	return out, emptyOnNotFound(err)
}

// ContentRoot fetches a root node.
func (c *Client) ContentRoot(ctx context.Context, id string) (models.ContentNode, error) {
	var out models.ContentNode
	err := c.do(ctx, call{method: http.MethodGet, path: p("contents/root/", id), out: &out})
	return out, err
}

// CreateContentRoot creates an empty root node for userID.
func (c *Client) CreateContentRoot(ctx context.Context, userID string) error {
	return c.do(ctx, call{method: http.MethodPost, path: p("contents/root/", userID)})
}

// RenameContentRoot sets the alias of a root node.
func (c *Client) RenameContentRoot(ctx context.Context, id, alias string) error {
	return c.do(ctx, call{
		method: http.MethodPut,
		path:   p("contents/root/", id),
		query:  url.Values{"alias": {alias}},
	})
}

// DeleteContentRoot deletes a root node and its subtree.
func (c *Client) DeleteContentRoot(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: p("contents/root/", id)})
}

// Content fetches a node.
func (c *Client) Content(ctx context.Context, id string) (models.ContentNode, error) {
	var out models.ContentNode
	err := c.do(ctx, call{method: http.MethodGet, path: p("contents/", id), out: &out})
	return out, err
}

// PublicContent fetches the resolved public JSON of a node, as served to
// websites.
func (c *Client) PublicContent(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, call{method: http.MethodGet, path: p("contents/", id) + "/public", out: &out})
	return out, err
}

// UpdateContent applies a partial update to a node. Nil patch entries are
// sent as explicit nulls.
func (c *Client) UpdateContent(ctx context.Context, id string, patch models.ContentPatch) error {
	return c.do(ctx, call{method: http.MethodPut, path: p("contents/", id), body: map[string]any(patch)})
}

// CreateProperty appends an empty property to an item node.
func (c *Client) CreateProperty(ctx context.Context, contentID, rootID string) error {
	return c.do(ctx, call{method: http.MethodPost, path: p("contents/property/", contentID, "/", rootID)})
}

// RenamePropertyKey changes the key of a property.
func (c *Client) RenamePropertyKey(ctx context.Context, propertyID, key string) error {
	return c.do(ctx, call{
		method: http.MethodPut,
		path:   p("contents/property/", propertyID),
		query:  url.Values{"key": {key}},
	})
}

// DeleteProperty removes a property and its subtree from an item node.
func (c *Client) DeleteProperty(ctx context.Context, contentID, propertyID string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: p("contents/", contentID, "/property/", propertyID)})
}

// CreateListItem appends an empty group to a list-of-items node.
func (c *Client) CreateListItem(ctx context.Context, contentID string) error {
	return c.do(ctx, call{method: http.MethodPost, path: p("contents/list-item-content/", contentID)})
}

// CreateListItemProperty appends a property to group idx.
func (c *Client) CreateListItemProperty(ctx context.Context, contentID string, idx int, rootID string) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   p("contents/list-item-content/", contentID, "/", strconv.Itoa(idx), "/", rootID) + "/property",
	})
}

// DeleteListItem removes group idx of a list-of-items node.
func (c *Client) DeleteListItem(ctx context.Context, contentID string, idx int) error {
	return c.do(ctx, call{
		method: http.MethodDelete,
		path:   p("contents/list-item-content/", contentID, "/", strconv.Itoa(idx)),
	})
}

// ReorderListItems permutes the groups of a list-of-items node:
// newOrder[original index] = new index.
func (c *Client) ReorderListItems(ctx context.Context, contentID string, newOrder []int) error {
	return c.do(ctx, call{
		method: http.MethodPut,
		path:   p("contents/list-item-content/", contentID) + "/reorder",
		body:   map[string][]int{"newOrder": newOrder},
	})
}
