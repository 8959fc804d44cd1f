package models

import "time"

// ChangeLog is one audit trail entry.
type ChangeLog struct {
	ID         int64          `json:"id" validate:"required,gt=0"`
	Entity     string         `json:"entity" validate:"required"`
	EntityID   int64          `json:"entity_id"`
	Actor      *string        `json:"actor,omitempty"`
	ChangeAt   time.Time      `json:"change_at"`
	Reason     *string        `json:"reason,omitempty"`
	DiffBefore map[string]any `json:"diff_before,omitempty"`
	DiffAfter  map[string]any `json:"diff_after,omitempty"`
	Source     *string        `json:"source,omitempty"`
}

// ChangeLogFilter narrows the audit trail.
type ChangeLogFilter struct {
	Entity   string `form:"entity"`
	EntityID int64  `form:"entity_id"`
	Actor    string `form:"actor"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
}

// ImportResult is the answer to an HTML import.
type ImportResult struct {
	Message         string         `json:"message"`
	EventsCreated   int            `json:"events_created" validate:"gte=0"`
	ErrorsCount     int            `json:"errors_count" validate:"gte=0"`
	WarningsCount   int            `json:"warnings_count" validate:"gte=0"`
	EntitiesCreated map[string]int `json:"entities_created,omitempty"`
}

// ImportStatus describes the last import. Message is set when nothing was
// imported yet.
type ImportStatus struct {
	Message         string         `json:"message,omitempty"`
	EventsCreated   int            `json:"events_created"`
	Errors          []string       `json:"errors,omitempty"`
	Warnings        []string       `json:"warnings,omitempty"`
	EntitiesCreated map[string]int `json:"entities_created,omitempty"`
}

// Done reports whether an import has been recorded.
func (s ImportStatus) Done() bool {
	return s.Message == ""
}
