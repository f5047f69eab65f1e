package model

import "time"

// Notice is a message on the staff board.  Pinned notices are listed first.
type Notice struct {
	ID             uint64    `json:"id"`
	OrganizationID uint64    `json:"organization_id"`
	AuthorID       uint64    `json:"author_id"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Pinned         bool      `json:"pinned"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
