package models

import "time"

// FilterKind selects what a calendar subscription follows.
type FilterKind string

const (
	FilterKindGroup    FilterKind = "group"
	FilterKindLecturer FilterKind = "lecturer"
	FilterKindStream   FilterKind = "stream"
)

// Valid reports whether the kind is accepted upstream.
func (k FilterKind) Valid() bool {
	switch k {
	case FilterKindGroup, FilterKindLecturer, FilterKindStream:
		return true
	}
	return false
}

// Subscription is the answer to a subscription request.
type Subscription struct {
	Token          string `json:"token" validate:"required"`
	ICSURL         string `json:"ics_url" validate:"required,url"`
	SubscriptionID int64  `json:"subscription_id"`
}

// FeedEntry is one upcoming entry read from a subscription feed.
type FeedEntry struct {
	UID      string    `json:"uid"`
	Summary  string    `json:"summary"`
	Location string    `json:"location,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}
