// Package gateway orchestrates one command submission end to end:
// credit precheck, rule evaluation, optional debit and mock execution,
// then an atomic commit of the submission record, ledger mutation, and
// audit entry.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"cmdgate/internal/apperr"
	"cmdgate/internal/models"
	"cmdgate/internal/rules"
	"cmdgate/internal/store"
)

const (
	ReasonInsufficientCredits = "insufficient credits"
	ReasonNoMatchingRule      = "no matching rule"
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Result is what the caller gets back. Domain rejections are normal
// results with StatusRejected, never errors.
type Result struct {
	Status           models.CommandStatus `json:"status"`
	Message          string               `json:"message"`
	Command          *models.Command      `json:"command,omitempty"`
	CreditsRemaining int64                `json:"credits_remaining"`
}

// Submit runs the whole admission flow inside one store transaction.
// If any of the three writes (command row, debit, audit entry) fails,
// none of them becomes visible; the caller receives a transient error
// and may safely retry because no debit survived.
func (s *Service) Submit(ctx context.Context, user *models.User, commandText, ip string) (*Result, error) {
	var res Result
	err := s.store.Tx(ctx, func(tx store.Tx) error {
		balance, err := tx.Balance(user.ID)
		if err != nil {
			return err
		}

		// Zero balance short-circuits before any rule evaluation.
		if balance <= 0 {
			return recordRejection(tx, &res, user, commandText, ip, nil, ReasonInsufficientCredits, "Insufficient credits", balance)
		}

		ruleSet, err := tx.Rules()
		if err != nil {
			return err
		}
		v := rules.Evaluate(ruleSet, commandText)
		for _, id := range v.Invalid {
			log.Printf("⚠️ rule %d has an uncompilable stored pattern, skipped during evaluation", id)
		}

		if !v.Matched {
			return recordRejection(tx, &res, user, commandText, ip, nil, ReasonNoMatchingRule,
				"No matching rule found - command rejected by default", balance)
		}
		if v.Action == models.ActionAutoReject {
			return recordRejection(tx, &res, user, commandText, ip, v.Rule, fmt.Sprintf("rejected by rule %d", v.Rule.ID),
				fmt.Sprintf("Command rejected by rule: %s", v.Rule.Pattern), balance)
		}

		ok, newBalance, err := tx.TryDebit(user.ID)
		if err != nil {
			return err
		}
		if !ok {
			// A concurrent submission exhausted the balance between the
			// precheck and the debit. Downgrade, do not error.
			return recordRejection(tx, &res, user, commandText, ip, nil, ReasonInsufficientCredits, "Insufficient credits", newBalance)
		}

		output := mockExecute(commandText)
		cmd := &models.Command{
			UserID:         user.ID,
			CommandText:    commandText,
			Status:         models.StatusExecuted,
			MatchedRuleID:  &v.Rule.ID,
			MatchedPattern: v.Rule.Pattern,
			Result:         output,
			Credited:       true,
		}
		if err := tx.CreateCommand(cmd); err != nil {
			return err
		}

		meta, _ := json.Marshal(map[string]any{
			"matched_rule_id": v.Rule.ID,
			"balance_after":   newBalance,
		})
		entry := &models.AuditLog{
			UserID:      &user.ID,
			Action:      models.AuditCommandExecuted,
			CommandText: commandText,
			Details:     fmt.Sprintf("Command executed successfully (matched rule %d: %s)", v.Rule.ID, v.Rule.Pattern),
			IP:          ip,
			Metadata:    meta,
		}
		if err := tx.AppendAudit(entry); err != nil {
			return err
		}

		res = Result{
			Status:           models.StatusExecuted,
			Message:          fmt.Sprintf("Command executed successfully (matched rule: %s)", v.Rule.Pattern),
			Command:          cmd,
			CreditsRemaining: newBalance,
		}
		return nil
	})
	if err != nil {
		log.Printf("submission commit failed for user %d: %v", user.ID, err)
		return nil, apperr.New(apperr.Transient, "could not commit submission, safe to retry")
	}
	return &res, nil
}

// recordRejection writes the rejected command row plus its audit entry
// and fills the caller-facing result. No debit happens on this path.
func recordRejection(tx store.Tx, res *Result, user *models.User, commandText, ip string, rule *models.Rule, reason, message string, balance int64) error {
	cmd := &models.Command{
		UserID:      user.ID,
		CommandText: commandText,
		Status:      models.StatusRejected,
		Reason:      reason,
	}
	metaFields := map[string]any{"balance_after": balance}
	if rule != nil {
		cmd.MatchedRuleID = &rule.ID
		cmd.MatchedPattern = rule.Pattern
		metaFields["matched_rule_id"] = rule.ID
	}
	if err := tx.CreateCommand(cmd); err != nil {
		return err
	}

	meta, _ := json.Marshal(metaFields)
	entry := &models.AuditLog{
		UserID:      &user.ID,
		Action:      models.AuditCommandRejected,
		CommandText: commandText,
		Details:     message,
		IP:          ip,
		Metadata:    meta,
	}
	if err := tx.AppendAudit(entry); err != nil {
		return err
	}

	*res = Result{
		Status:           models.StatusRejected,
		Message:          message,
		Command:          cmd,
		CreditsRemaining: balance,
	}
	return nil
}
