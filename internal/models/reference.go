package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reference prefixes
const (
	ReferenceExchange   = "EX"
	ReferenceQR         = "WD"
	ReferenceWithdrawal = "WR"
)

// NewReference builds a human-readable unique reference such as
// EX-1767225600-3F2A9C1B.
func NewReference(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%d-%s", prefix, now.Unix(), suffix)
}
