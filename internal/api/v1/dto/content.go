package dto

import "time"

// ContentPostCreateDTO is used for incoming create requests.
type ContentPostCreateDTO struct {
	Platform     string     `json:"platform" validate:"required"`
	Content      string     `json:"content" validate:"required"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

// ContentPostUpdateDTO is used for incoming update requests.
type ContentPostUpdateDTO struct {
	Platform     string     `json:"platform" validate:"required"`
	Content      string     `json:"content" validate:"required"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

// ContentPostResponseDTO is returned in API responses.
type ContentPostResponseDTO struct {
	PostID       string     `json:"post_id"`
	Platform     string     `json:"platform"`
	Content      string     `json:"content"`
	Status       string     `json:"status"`
	Locked       bool       `json:"locked"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ContentLockedDTO is returned when a lock-policy check refuses an operation.
type ContentLockedDTO struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
