package models

import "time"

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// User is an identity that may submit commands. Credits is the
// authoritative balance; it is mutated only through the ledger
// operations (debit on execution, admin set).
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name         string    `gorm:"size:200" json:"name"`
	Role         Role      `gorm:"size:16;not null;default:member" json:"role"`
	APIKey       string    `gorm:"uniqueIndex;size:128;not null" json:"-"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Credits      int64     `gorm:"not null;default:0" json:"credits"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
