package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit action tags.
const (
	AuditCommandExecuted = "COMMAND_EXECUTED"
	AuditCommandRejected = "COMMAND_REJECTED"
	AuditRuleCreated     = "RULE_CREATED"
	AuditRuleDeleted     = "RULE_DELETED"
	AuditCreditsAdjusted = "CREDITS_ADJUSTED"
	AuditUserCreated     = "USER_CREATED"
)

// AuditLog is an append-only decision record. Rows are never mutated or
// deleted; ordering is by created_at with id as the insertion tie-break.
type AuditLog struct {
	ID          int64          `gorm:"primaryKey" json:"id"`
	UserID      *int64         `gorm:"index" json:"user_id,omitempty"` // nullable (system actions possible)
	Action      string         `gorm:"size:64;index;not null" json:"action"`
	CommandText string         `gorm:"size:1000" json:"command_text,omitempty"`
	Details     string         `gorm:"size:512" json:"details"`
	IP          string         `gorm:"size:64" json:"ip,omitempty"`
	Metadata    datatypes.JSON `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}
