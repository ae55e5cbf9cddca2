package model

import "time"

const (
	ModeOpen     = "open"
	ModeGrounded = "grounded"
)

// Conversation mode is fixed at creation.
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Mode      string    `gorm:"size:16;not null" json:"mode"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Conversation) Grounded() bool {
	return c.Mode == ModeGrounded
}
