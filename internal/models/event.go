package models

// Event is a calendar-like annotation attached to a response.
type Event struct {
	ID         string   `json:"id,omitempty"`
	ResponseID string   `json:"responseId"`
	UserID     string   `json:"userId"`
	Title      string   `json:"title"`
	Notes      string   `json:"notes"`
	FromDate   string   `json:"fromDate"`
	ToDate     string   `json:"toDate"`
	AllDay     bool     `json:"allDay"`
	Links      string   `json:"links,omitempty"`
	Address    string   `json:"address,omitempty"`
	Files      []string `json:"files"`
	CreatedAt  string   `json:"createdAt,omitempty"`
	UpdatedAt  string   `json:"updatedAt,omitempty"`
}

// LinkTitle is the backend's title lookup for an event link.
type LinkTitle struct {
	Title string `json:"title"`
}
