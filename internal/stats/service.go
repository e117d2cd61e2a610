package stats

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/brandoo/console/internal/apperr"
	"github.com/brandoo/console/internal/models"
)

// Client is the part of the backend API statistics need.
type Client interface {
	Statistics(ctx context.Context, userID string) ([]models.Statistic, error)
	CreateStatistic(ctx context.Context, userID string, in models.StatisticInput) error
	UpdateStatistic(ctx context.Context, id string, in models.StatisticInput) error
	DeleteStatistic(ctx context.Context, id string) error
	ResetStatistic(ctx context.Context, id string) error
}

// ValidateInput checks a create or update payload.
func ValidateInput(in models.StatisticInput) error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Type, validation.Required, validation.In(
			models.StatisticTime, models.StatisticBoolean, models.StatisticNumber, models.StatisticText,
		)),
		validation.Field(&in.Description, validation.Length(0, 500)),
	)
	if err != nil {
		return fmt.Errorf("stats: %w: %w", apperr.ErrInvalidInput, err)
	}
	return nil
}

// Service wraps the statistic endpoints with validation and aggregation.
type Service struct {
	client Client
	now    func() time.Time
}

// NewService returns a Service over c.
func NewService(c Client) *Service {
	return &Service{client: c, now: time.Now}
}

func (s *Service) List(ctx context.Context, userID string) ([]models.Statistic, error) {
	list, err := s.client.Statistics(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("stats: list: %w", err)
	}
	return list, nil
}

// Summary aggregates statistic id of userID over iv.
func (s *Service) Summary(ctx context.Context, userID, id string, iv Interval) (Summary, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	for _, st := range list {
		if st.ID == id {
			return Summarize(st, iv, s.now()), nil
		}
	}
	return Summary{}, fmt.Errorf("stats: statistic %s: %w", id, apperr.ErrNotFound)
}

func (s *Service) Create(ctx context.Context, userID string, in models.StatisticInput) error {
	if err := ValidateInput(in); err != nil {
		return err
	}
	if err := s.client.CreateStatistic(ctx, userID, in); err != nil {
		return fmt.Errorf("stats: create: %w", err)
	}
	return nil
}

func (s *Service) Update(ctx context.Context, id string, in models.StatisticInput) error {
	if err := ValidateInput(in); err != nil {
		return err
	}
	if err := s.client.UpdateStatistic(ctx, id, in); err != nil {
		return fmt.Errorf("stats: update %s: %w", id, err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteStatistic(ctx, id); err != nil {
		return fmt.Errorf("stats: delete %s: %w", id, err)
	}
	return nil
}

// Reset clears the value history of statistic id.
func (s *Service) Reset(ctx context.Context, id string) error {
	if err := s.client.ResetStatistic(ctx, id); err != nil {
		return fmt.Errorf("stats: reset %s: %w", id, err)
	}
	return nil
}
