// Package rules implements the admission rule engine: a pure,
// deterministic first-match scan over a rule set snapshot.
package rules

import (
	"regexp"
	"sort"

	"cmdgate/internal/models"
)

// Verdict is the outcome of evaluating a command against a rule set.
// When no rule matches, Matched is false and Action is AUTO_REJECT
// (fail-closed: unmatched commands are never permitted by default).
type Verdict struct {
	Matched bool
	Action  models.RuleAction
	Rule    *models.Rule

	// Invalid lists ids of rules whose stored pattern no longer
	// compiles. Such rules are skipped, never aborting evaluation;
	// callers should surface an integrity warning.
	Invalid []int64
}

// Evaluate scans ruleSet in (priority ascending, id ascending) order and
// returns the verdict of the first rule whose pattern matches command.
// Matching is case-sensitive and unanchored unless the pattern itself
// anchors. The command text is matched raw, without normalization.
func Evaluate(ruleSet []models.Rule, command string) Verdict {
	sorted := make([]models.Rule, len(ruleSet))
	copy(sorted, ruleSet)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].ID < sorted[j].ID
	})

	v := Verdict{Action: models.ActionAutoReject}
	for i := range sorted {
		re, err := regexp.Compile(sorted[i].Pattern)
		if err != nil {
			v.Invalid = append(v.Invalid, sorted[i].ID)
			continue
		}
		if re.MatchString(command) {
			v.Matched = true
			v.Action = sorted[i].Action
			v.Rule = &sorted[i]
			return v
		}
	}
	return v
}

// ValidatePattern reports whether pattern compiles. Used at rule
// creation time so uncompilable patterns are never stored.
func ValidatePattern(pattern string) error {
	_, err := regexp.Compile(pattern)
	return err
}
