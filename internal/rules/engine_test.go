package rules

import (
	"testing"

	"cmdgate/internal/models"
)

func TestEvaluate_FailClosedDefault(t *testing.T) {
	ruleSet := []models.Rule{
		{ID: 1, Priority: 1, Pattern: `^ls`, Action: models.ActionAutoAccept},
	}
	v := Evaluate(ruleSet, "rm -rf /tmp/thing")
	if v.Matched {
		t.Fatalf("expected no match, got rule %v", v.Rule)
	}
	if v.Action != models.ActionAutoReject {
		t.Fatalf("expected AUTO_REJECT default, got %s", v.Action)
	}
}

func TestEvaluate_EmptyRuleSetRejects(t *testing.T) {
	v := Evaluate(nil, "ls")
	if v.Matched || v.Action != models.ActionAutoReject {
		t.Fatalf("empty rule set must reject, got matched=%v action=%s", v.Matched, v.Action)
	}
}

func TestEvaluate_PriorityDeterminism(t *testing.T) {
	// Both rules match; priority 1 must win regardless of slice order.
	lowPriority := models.Rule{ID: 1, Priority: 2, Pattern: `ls`, Action: models.ActionAutoAccept}
	highPriority := models.Rule{ID: 2, Priority: 1, Pattern: `ls`, Action: models.ActionAutoReject}

	for _, ruleSet := range [][]models.Rule{
		{lowPriority, highPriority},
		{highPriority, lowPriority},
	} {
		v := Evaluate(ruleSet, "ls -la")
		if !v.Matched {
			t.Fatal("expected a match")
		}
		if v.Rule.ID != 2 {
			t.Fatalf("expected priority-1 rule (id 2) to win, got rule %d", v.Rule.ID)
		}
		if v.Action != models.ActionAutoReject {
			t.Fatalf("expected AUTO_REJECT, got %s", v.Action)
		}
	}
}

func TestEvaluate_TieBrokenByID(t *testing.T) {
	ruleSet := []models.Rule{
		{ID: 7, Priority: 5, Pattern: `ls`, Action: models.ActionAutoReject},
		{ID: 3, Priority: 5, Pattern: `ls`, Action: models.ActionAutoAccept},
	}
	v := Evaluate(ruleSet, "ls")
	if v.Rule == nil || v.Rule.ID != 3 {
		t.Fatalf("expected lower id to win the tie, got %+v", v.Rule)
	}
}

func TestEvaluate_FirstMatchStopsScan(t *testing.T) {
	ruleSet := []models.Rule{
		{ID: 1, Priority: 1, Pattern: `^git\s+status`, Action: models.ActionAutoAccept},
		{ID: 2, Priority: 2, Pattern: `git`, Action: models.ActionAutoReject},
	}
	v := Evaluate(ruleSet, "git status")
	if !v.Matched || v.Action != models.ActionAutoAccept {
		t.Fatalf("expected first match to decide, got %+v", v)
	}
}

func TestEvaluate_CaseSensitive(t *testing.T) {
	ruleSet := []models.Rule{
		{ID: 1, Priority: 1, Pattern: `^ls`, Action: models.ActionAutoAccept},
	}
	if v := Evaluate(ruleSet, "LS -la"); v.Matched {
		t.Fatal("matching must be case-sensitive")
	}
}

func TestEvaluate_AnchorsRespected(t *testing.T) {
	ruleSet := []models.Rule{
		{ID: 1, Priority: 1, Pattern: `^ls`, Action: models.ActionAutoAccept},
	}
	if v := Evaluate(ruleSet, "ls -la"); !v.Matched {
		t.Fatal("anchored pattern should match at start")
	}
	if v := Evaluate(ruleSet, "echo ls"); v.Matched {
		t.Fatal("anchored pattern must not match mid-string")
	}

	unanchored := []models.Rule{
		{ID: 1, Priority: 1, Pattern: `mkfs`, Action: models.ActionAutoReject},
	}
	if v := Evaluate(unanchored, "sudo mkfs.ext4 /dev/sda1"); !v.Matched {
		t.Fatal("unanchored pattern should match anywhere")
	}
}

func TestEvaluate_InvalidPatternSkippedAndReported(t *testing.T) {
	ruleSet := []models.Rule{
		{ID: 1, Priority: 1, Pattern: `([`, Action: models.ActionAutoReject},
		{ID: 2, Priority: 2, Pattern: `^ls`, Action: models.ActionAutoAccept},
	}
	v := Evaluate(ruleSet, "ls -la")
	if !v.Matched || v.Rule.ID != 2 {
		t.Fatalf("invalid pattern must not abort evaluation, got %+v", v)
	}
	if len(v.Invalid) != 1 || v.Invalid[0] != 1 {
		t.Fatalf("expected rule 1 flagged invalid, got %v", v.Invalid)
	}
}

func TestValidatePattern(t *testing.T) {
	if err := ValidatePattern(`^git\s+(status|log)`); err != nil {
		t.Fatalf("valid pattern rejected: %v", err)
	}
	if err := ValidatePattern(`([`); err == nil {
		t.Fatal("expected error for uncompilable pattern")
	}
}
