package models

import (
	"time"

	"github.com/lib/pq"
)

// NotificationOutbox keeps a copy of every dispatched event for staff review.
type NotificationOutbox struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Kind      string         `gorm:"type:varchar(64);not null;index" json:"kind"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Payload   JSON           `gorm:"type:jsonb" json:"payload"`
	UserIDs   pq.StringArray `gorm:"type:text[]" json:"user_ids"`
	Roles     pq.StringArray `gorm:"type:text[]" json:"roles"`
	CreatedAt time.Time      `json:"created_at"`
}
