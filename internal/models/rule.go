package models

import "time"

type RuleAction string

const (
	ActionAutoAccept RuleAction = "AUTO_ACCEPT"
	ActionAutoReject RuleAction = "AUTO_REJECT"
)

// Rule is one admission policy line. Lower priority evaluates first,
// ties broken by id ascending. Patterns are validated at creation time;
// an uncompilable pattern is never stored.
type Rule struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	Priority    int        `gorm:"index;not null" json:"priority"`
	Pattern     string     `gorm:"size:255;not null" json:"pattern"`
	Action      RuleAction `gorm:"size:32;not null" json:"action"`
	Description string     `gorm:"size:255" json:"description"`
	CreatedBy   *int64     `gorm:"index" json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
