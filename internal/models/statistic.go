package models

// StatisticType is the value kind recorded by a statistic.
type StatisticType string

const (
	StatisticTime    StatisticType = "time"
	StatisticBoolean StatisticType = "boolean"
	StatisticNumber  StatisticType = "number"
	StatisticText    StatisticType = "text"
)

// Statistic is a named metric with an append-only value history.
type Statistic struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	Name        string           `json:"name"`
	Icon        string           `json:"icon,omitempty"`
	Type        StatisticType    `json:"type"`
	Description string           `json:"description"`
	Values      []StatisticValue `json:"values"`
	CreatedAt   string           `json:"createdAt,omitempty"`
	UpdatedAt   string           `json:"updatedAt,omitempty"`
}

// StatisticValue is one recorded value; only the field matching the parent
// statistic's type is meaningful.
type StatisticValue struct {
	ID          string  `json:"id"`
	StatisticID string  `json:"statisticId"`
	CreatedAt   string  `json:"createdAt"`
	Time        string  `json:"time,omitempty"`
	Number      float64 `json:"number,omitempty"`
	Boolean     bool    `json:"boolean,omitempty"`
	Text        string  `json:"text,omitempty"`
}

// StatisticInput is the create/update payload of a statistic.
type StatisticInput struct {
	Name        string        `json:"name"`
	Icon        string        `json:"icon,omitempty"`
	Type        StatisticType `json:"type"`
	Description string        `json:"description"`
}
