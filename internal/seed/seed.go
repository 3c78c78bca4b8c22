package seed

import (
	"context"
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"

	"cmdgate/internal/admin"
	"cmdgate/internal/models"
	"cmdgate/internal/store"
)

// FirstSetup bootstraps the gateway: a default admin identity (the API
// key is printed once, at creation) and the default rule set when the
// rule table is empty.
func FirstSetup(st store.Store, adminEmail, adminPassword string) error {
	return st.Tx(context.Background(), func(tx store.Tx) error {
		// -------------------------
		// 1) Ensure admin user
		// -------------------------
		_, err := tx.UserByEmail(adminEmail)
		if errors.Is(err, store.ErrNotFound) {
			apiKey, err := admin.GenerateAPIKey()
			if err != nil {
				return err
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			adminUser := &models.User{
				Email:        adminEmail,
				Name:         "Admin User",
				Role:         models.RoleAdmin,
				APIKey:       apiKey,
				PasswordHash: string(hash),
				Credits:      1000,
			}
			if err := tx.CreateUser(adminUser); err != nil {
				return err
			}
			log.Printf("✅ Created default admin user %s | api-key=%s", adminEmail, apiKey)
		} else if err != nil {
			return err
		}

		// -------------------------
		// 2) Seed default rules
		// -------------------------
		existing, err := tx.Rules()
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			defaults := DefaultRules()
			for i := range defaults {
				if err := tx.CreateRule(&defaults[i]); err != nil {
					return err
				}
			}
			log.Printf("✅ Seeded %d default rules", len(defaults))
		}

		return nil
	})
}

// DefaultRules is the initial policy: dangerous commands rejected at
// the lowest priorities, common read-only commands accepted after.
func DefaultRules() []models.Rule {
	return []models.Rule{
		{Pattern: `rm\s+-rf\s+/`, Action: models.ActionAutoReject, Priority: 1, Description: "Block recursive delete of root"},
		{Pattern: `mkfs`, Action: models.ActionAutoReject, Priority: 2, Description: "Block filesystem formatting"},
		{Pattern: `:\(\)\{\s*:\|:\&\s*\};:`, Action: models.ActionAutoReject, Priority: 3, Description: "Block fork bomb"},
		{Pattern: `dd\s+if=.*of=/dev/`, Action: models.ActionAutoReject, Priority: 4, Description: "Block direct disk writes"},
		{Pattern: `chmod\s+777\s+/`, Action: models.ActionAutoReject, Priority: 5, Description: "Block chmod 777 on root"},
		{Pattern: `>\s*/dev/sd[a-z]`, Action: models.ActionAutoReject, Priority: 6, Description: "Block writing to disk devices"},
		{Pattern: `^git\s+(status|log|diff|branch|show)`, Action: models.ActionAutoAccept, Priority: 10, Description: "Allow safe git commands"},
		{Pattern: `^(ls|cat|pwd|whoami|date|echo|hostname)`, Action: models.ActionAutoAccept, Priority: 11, Description: "Allow basic info commands"},
		{Pattern: `^(grep|find|head|tail|wc|sort|uniq)`, Action: models.ActionAutoAccept, Priority: 12, Description: "Allow text processing commands"},
		{Pattern: `^(ps|top|df|du|free|uptime)`, Action: models.ActionAutoAccept, Priority: 13, Description: "Allow system monitoring commands"},
	}
}
