package models

import "time"

type CommandStatus string

const (
	StatusExecuted CommandStatus = "executed"
	StatusRejected CommandStatus = "rejected"
)

// Command is one submission instance, written once and never updated.
// Credited is true iff the submission ended in executed status.
type Command struct {
	ID             int64         `gorm:"primaryKey" json:"id"`
	UserID         int64         `gorm:"index;not null" json:"user_id"`
	CommandText    string        `gorm:"size:1000;not null" json:"command_text"`
	Status         CommandStatus `gorm:"size:16;index;not null" json:"status"`
	MatchedRuleID  *int64        `gorm:"index" json:"matched_rule_id,omitempty"`
	MatchedPattern string        `gorm:"size:255" json:"matched_pattern,omitempty"`
	Reason         string        `gorm:"size:255" json:"reason,omitempty"`
	Result         string        `gorm:"type:text" json:"result,omitempty"`
	Credited       bool          `gorm:"not null;default:false" json:"credited"`
	CreatedAt      time.Time     `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}
