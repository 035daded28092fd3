package notification

import (
	"context"
	"time"

	"civicreward/internal/models"
)

// Kind names an outbound event.
type Kind string

const (
	KindLevelUp             Kind = "level_up"
	KindBadgeUnlocked       Kind = "badge_unlocked"
	KindRewardsExchange     Kind = "rewards_exchange"
	KindWithdrawalRequested Kind = "withdrawal_requested"
)

// Audience selects recipients by user id and/or role.
type Audience struct {
	UserIDs []string `json:"user_ids,omitempty"`
	Roles   []string `json:"roles,omitempty"`
}

// Event is one fire-and-forget notification.
type Event struct {
	Kind      Kind                   `json:"kind"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Audience  Audience               `json:"audience"`
	CreatedAt time.Time              `json:"created_at"`
}

// Notifier accepts events for best-effort delivery. It never blocks on
// delivery and never reports failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Sink delivers an event to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event Event) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Notify(context.Context, Event) {}

// ToUser addresses a single user.
func ToUser(userID string) Audience {
	return Audience{UserIDs: []string{userID}}
}

// ToStaff addresses administrators.
func ToStaff() Audience {
	return Audience{Roles: []string{models.RoleAdmin, models.RoleSuperAdmin}}
}
