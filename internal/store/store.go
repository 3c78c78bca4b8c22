// Package store is the persistence boundary of the gateway. Every read
// and write happens inside a transaction obtained from Store.Tx; an
// error returned from the callback rolls the whole unit back, so a
// submission's command row, ledger mutation, and audit entry commit as
// one all-or-nothing unit.
package store

import (
	"context"
	"errors"

	"cmdgate/internal/models"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// CommandQuery filters and pages submission listings (newest first).
type CommandQuery struct {
	UserID  *int64               // nil = all users
	Status  models.CommandStatus // empty = all statuses
	AfterID int64                // cursor: only rows with id < AfterID
	Limit   int
}

// AuditQuery pages the audit trail (newest first).
type AuditQuery struct {
	AfterID int64
	Limit   int
}

// UserWithCount is the admin listing projection: a user plus how many
// commands they have submitted.
type UserWithCount struct {
	models.User
	CommandCount int64 `json:"command_count"`
}

type Store interface {
	Tx(ctx context.Context, fn func(Tx) error) error
}

type Tx interface {
	UserByID(id int64) (*models.User, error)
	UserByAPIKey(key string) (*models.User, error)
	UserByEmail(email string) (*models.User, error)
	CreateUser(u *models.User) error
	ListUsers() ([]UserWithCount, error)

	// Rules returns the active rule set ordered by (priority asc, id
	// asc). Within a transaction this is the evaluation snapshot:
	// concurrent rule mutations cannot affect it.
	Rules() ([]models.Rule, error)
	CreateRule(r *models.Rule) error
	DeleteRule(id int64) error

	Balance(userID int64) (int64, error)
	// TryDebit atomically decrements the balance by exactly 1 if it is
	// positive. It returns whether the debit happened and the balance
	// after the call. Two concurrent debits never both succeed when
	// only one credit remains.
	TryDebit(userID int64) (bool, int64, error)
	SetBalance(userID, value int64) error

	CreateCommand(c *models.Command) error
	ListCommands(q CommandQuery) ([]models.Command, error)

	AppendAudit(a *models.AuditLog) error
	ListAudit(q AuditQuery) ([]models.AuditLog, error)
}
