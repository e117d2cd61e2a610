package brandoo

import (
	"context"
	"net/http"

	"github.com/brandoo/console/internal/models"
)

// Statistics lists the statistics of userID with their values.
func (c *Client) Statistics(ctx context.Context, userID string) ([]models.Statistic, error) {
	var out []models.Statistic
	err := c.do(ctx, call{method: http.MethodGet, path: p("statistics/users-statistics/", userID), out: &out})
	return out, emptyOnNotFound(err)
}

// CreateStatistic creates a statistic for userID.
func (c *Client) CreateStatistic(ctx context.Context, userID string, in models.StatisticInput) error {
	return c.do(ctx, call{method: http.MethodPost, path: p("statistics/new-statistic/", userID), body: in})
}

// UpdateStatistic changes the metadata of a statistic.
func (c *Client) UpdateStatistic(ctx context.Context, id string, in models.StatisticInput) error {
	return c.do(ctx, call{method: http.MethodPut, path: p("statistics/update-statistic/", id), body: in})
}

// DeleteStatistic deletes a statistic.
func (c *Client) DeleteStatistic(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: p("statistics/delete-statistic/", id)})
}

// ResetStatistic removes every recorded value of a statistic.
func (c *Client) ResetStatistic(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: p("statistics/reset/", id)})
}
