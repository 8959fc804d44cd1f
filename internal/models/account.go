package models

import "time"

// User is the profile returned together with an access token.
type User struct {
	ID         int64  `json:"id" validate:"required,gt=0"`
	Email      string `json:"email" validate:"required"`
	FIO        string `json:"fio"`
	Role       string `json:"role"`
	GroupID    *int64 `json:"group_id,omitempty"`
	LecturerID *int64 `json:"lecturer_id,omitempty"`
	Active     bool   `json:"active"`
}

// AuthResponse is the login and registration payload.
type AuthResponse struct {
	AccessToken string `json:"access_token" validate:"required"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// LoginRequest carries the login form.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// RegisterRequest carries the registration form.
type RegisterRequest struct {
	Email      string `json:"email" form:"email" validate:"required,email"`
	Password   string `json:"password" form:"password" validate:"required,min=6"`
	FIO        string `json:"fio" form:"fio" validate:"required"`
	Role       string `json:"role,omitempty" form:"role" validate:"omitempty,oneof=student lecturer admin"`
	GroupID    *int64 `json:"group_id,omitempty" form:"group_id" validate:"omitempty,gt=0"`
	LecturerID *int64 `json:"lecturer_id,omitempty" form:"lecturer_id" validate:"omitempty,gt=0"`
}

// Favorite is a named filter snapshot saved upstream.
type Favorite struct {
	ID        int64          `json:"id" validate:"required,gt=0"`
	UserID    int64          `json:"user_id"`
	Name      string         `json:"name" validate:"required"`
	Filters   map[string]any `json:"filters" validate:"required"`
	CreatedAt time.Time      `json:"created_at"`
}

// FavoriteCreate is the payload to save a favorite.
type FavoriteCreate struct {
	Name    string         `json:"name" validate:"required,max=120"`
	Filters map[string]any `json:"filters" validate:"required"`
}

// Notification informs a user about a schedule change.
type Notification struct {
	ID        int64     `json:"id" validate:"required,gt=0"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"type" validate:"required"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	EventID   *int64    `json:"event_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// UnreadCount is the unread notification counter.
type UnreadCount struct {
	Count int `json:"count" validate:"gte=0"`
}

// Message is the generic acknowledgement body.
type Message struct {
	Message string `json:"message"`
}
