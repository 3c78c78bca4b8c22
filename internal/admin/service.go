// Package admin implements the admin-facing operations: rule CRUD,
// credit adjustment, identity creation, and the read-only projections.
// Every mutation commits together with its audit entry in one store
// transaction. Role checks happen at the transport layer before any of
// these run; the service trusts the resolved identity's role claim.
package admin

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"cmdgate/internal/apperr"
	"cmdgate/internal/models"
	"cmdgate/internal/rules"
	"cmdgate/internal/store"
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// storeErr maps persistence failures onto the caller-facing taxonomy.
func storeErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.New(apperr.NotFound, "record not found")
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return apperr.New(apperr.Transient, "persistence failure, safe to retry")
}

// CreateRule validates and stores a new rule. Uncompilable patterns are
// rejected here and never stored. The rule takes effect for all
// subsequent evaluations as soon as the transaction commits.
func (s *Service) CreateRule(ctx context.Context, actor *models.User, pattern string, action models.RuleAction, priority int, description string) (*models.Rule, error) {
	if err := rules.ValidatePattern(pattern); err != nil {
		return nil, apperr.Newf(apperr.InvalidPattern, "invalid regex pattern: %v", err)
	}
	if priority <= 0 {
		priority = 10
	}

	var rule *models.Rule
	err := s.store.Tx(ctx, func(tx store.Tx) error {
		r := &models.Rule{
			Priority:    priority,
			Pattern:     pattern,
			Action:      action,
			Description: description,
			CreatedBy:   &actor.ID,
		}
		if err := tx.CreateRule(r); err != nil {
			return err
		}
		meta, _ := json.Marshal(map[string]any{"rule_id": r.ID, "priority": r.Priority})
		if err := tx.AppendAudit(&models.AuditLog{
			UserID:   &actor.ID,
			Action:   models.AuditRuleCreated,
			Details:  fmt.Sprintf("Created rule: %s -> %s", pattern, action),
			Metadata: meta,
		}); err != nil {
			return err
		}
		rule = r
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return rule, nil
}

// DeleteRule removes a rule and audits the deletion. Evaluations that
// already captured their snapshot are unaffected.
func (s *Service) DeleteRule(ctx context.Context, actor *models.User, ruleID int64) error {
	err := s.store.Tx(ctx, func(tx store.Tx) error {
		if err := tx.DeleteRule(ruleID); err != nil {
			return err
		}
		meta, _ := json.Marshal(map[string]any{"rule_id": ruleID})
		return tx.AppendAudit(&models.AuditLog{
			UserID:   &actor.ID,
			Action:   models.AuditRuleDeleted,
			Details:  fmt.Sprintf("Deleted rule %d", ruleID),
			Metadata: meta,
		})
	})
	if err != nil {
		return storeErr(err)
	}
	return nil
}

// AdjustCredits sets an identity's balance to an absolute value.
func (s *Service) AdjustCredits(ctx context.Context, actor *models.User, userID, newValue int64) (*models.User, error) {
	if newValue < 0 {
		return nil, apperr.New(apperr.InvalidAmount, "credit balance must be >= 0")
	}
	var updated *models.User
	err := s.store.Tx(ctx, func(tx store.Tx) error {
		target, err := tx.UserByID(userID)
		if err != nil {
			return err
		}
		old := target.Credits
		if err := tx.SetBalance(userID, newValue); err != nil {
			return err
		}
		meta, _ := json.Marshal(map[string]any{"target_user_id": userID, "old": old, "new": newValue})
		if err := tx.AppendAudit(&models.AuditLog{
			UserID:   &actor.ID,
			Action:   models.AuditCreditsAdjusted,
			Details:  fmt.Sprintf("Adjusted credits for %s: %d -> %d", target.Email, old, newValue),
			Metadata: meta,
		}); err != nil {
			return err
		}
		target.Credits = newValue
		updated = target
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return updated, nil
}

// CreateUser creates an identity with an initial balance and a freshly
// generated API key. The key is returned once and not retrievable
// afterwards.
func (s *Service) CreateUser(ctx context.Context, actor *models.User, email, name, password string, role models.Role, credits int64) (*models.User, error) {
	if credits < 0 {
		return nil, apperr.New(apperr.InvalidAmount, "initial credit balance must be >= 0")
	}
	if role == "" {
		role = models.RoleMember
	}

	apiKey, err := GenerateAPIKey()
	if err != nil {
		return nil, apperr.New(apperr.Transient, "could not generate api key")
	}
	var passwordHash string
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperr.New(apperr.Transient, "could not hash password")
		}
		passwordHash = string(hash)
	}

	var created *models.User
	err = s.store.Tx(ctx, func(tx store.Tx) error {
		if _, err := tx.UserByEmail(email); err == nil {
			return apperr.New(apperr.Conflict, "email already exists")
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		u := &models.User{
			Email:        email,
			Name:         name,
			Role:         role,
			APIKey:       apiKey,
			PasswordHash: passwordHash,
			Credits:      credits,
		}
		if err := tx.CreateUser(u); err != nil {
			return err
		}
		meta, _ := json.Marshal(map[string]any{"target_user_id": u.ID, "role": role, "credits": credits})
		if err := tx.AppendAudit(&models.AuditLog{
			UserID:   &actor.ID,
			Action:   models.AuditUserCreated,
			Details:  fmt.Sprintf("Created user: %s (%s)", email, role),
			Metadata: meta,
		}); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return created, nil
}

func (s *Service) ListRules(ctx context.Context) ([]models.Rule, error) {
	var out []models.Rule
	err := s.store.Tx(ctx, func(tx store.Tx) error {
		rs, err := tx.Rules()
		if err != nil {
			return err
		}
		out = rs
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]store.UserWithCount, error) {
	var out []store.UserWithCount
	err := s.store.Tx(ctx, func(tx store.Tx) error {
		us, err := tx.ListUsers()
		if err != nil {
			return err
		}
		out = us
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *Service) ListCommands(ctx context.Context, q store.CommandQuery) ([]models.Command, error) {
	var out []models.Command
	err := s.store.Tx(ctx, func(tx store.Tx) error {
		cs, err := tx.ListCommands(q)
		if err != nil {
			return err
		}
		out = cs
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *Service) ListAudit(ctx context.Context, q store.AuditQuery) ([]models.AuditLog, error) {
	var out []models.AuditLog
	err := s.store.Tx(ctx, func(tx store.Tx) error {
		as, err := tx.ListAudit(q)
		if err != nil {
			return err
		}
		out = as
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// Balance reads an identity's current balance.
func (s *Service) Balance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := s.store.Tx(ctx, func(tx store.Tx) error {
		b, err := tx.Balance(userID)
		if err != nil {
			return err
		}
		balance = b
		return nil
	})
	if err != nil {
		return 0, storeErr(err)
	}
	return balance, nil
}

// GenerateAPIKey returns a 64-hex-char opaque credential.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
