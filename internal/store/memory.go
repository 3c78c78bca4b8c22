package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"cmdgate/internal/models"
)

// MemoryStore keeps all state in process memory. It backs the server
// when no DSN is configured and every test that exercises transaction
// semantics. Tx clones the state, runs the callback against the clone,
// and swaps it in only on success, so a failed callback leaves nothing
// behind.
type MemoryStore struct {
	mu    sync.Mutex
	state memState
	now   func() time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		state: memState{
			users: map[int64]models.User{},
			rules: map[int64]models.Rule{},
		},
		now: time.Now,
	}
}

func (s *MemoryStore) Tx(_ context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	if err := fn(&memTx{state: &next, now: s.now}); err != nil {
		return err
	}
	s.state = next
	return nil
}

type memState struct {
	users    map[int64]models.User
	rules    map[int64]models.Rule
	commands []models.Command
	audits   []models.AuditLog

	nextUserID    int64
	nextRuleID    int64
	nextCommandID int64
	nextAuditID   int64
}

func (st memState) clone() memState {
	users := make(map[int64]models.User, len(st.users))
	for id, u := range st.users {
		users[id] = u
	}
	rules := make(map[int64]models.Rule, len(st.rules))
	for id, r := range st.rules {
		rules[id] = r
	}
	out := st
	out.users = users
	out.rules = rules
	out.commands = append([]models.Command(nil), st.commands...)
	out.audits = append([]models.AuditLog(nil), st.audits...)
	return out
}

type memTx struct {
	state *memState
	now   func() time.Time
}

func (t *memTx) UserByID(id int64) (*models.User, error) {
	u, ok := t.state.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (t *memTx) UserByAPIKey(key string) (*models.User, error) {
	for _, u := range t.state.users {
		if u.APIKey == key {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) UserByEmail(email string) (*models.User, error) {
	for _, u := range t.state.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) CreateUser(u *models.User) error {
	t.state.nextUserID++
	u.ID = t.state.nextUserID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = t.now()
	}
	u.UpdatedAt = u.CreatedAt
	t.state.users[u.ID] = *u
	return nil
}

func (t *memTx) ListUsers() ([]UserWithCount, error) {
	counts := map[int64]int64{}
	for _, c := range t.state.commands {
		counts[c.UserID]++
	}
	out := make([]UserWithCount, 0, len(t.state.users))
	for id := int64(1); id <= t.state.nextUserID; id++ {
		if u, ok := t.state.users[id]; ok {
			out = append(out, UserWithCount{User: u, CommandCount: counts[id]})
		}
	}
	return out, nil
}

func (t *memTx) Rules() ([]models.Rule, error) {
	out := make([]models.Rule, 0, len(t.state.rules))
	for id := int64(1); id <= t.state.nextRuleID; id++ {
		if r, ok := t.state.rules[id]; ok {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *memTx) CreateRule(r *models.Rule) error {
	t.state.nextRuleID++
	r.ID = t.state.nextRuleID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = t.now()
	}
	t.state.rules[r.ID] = *r
	return nil
}

func (t *memTx) DeleteRule(id int64) error {
	if _, ok := t.state.rules[id]; !ok {
		return ErrNotFound
	}
	delete(t.state.rules, id)
	return nil
}

func (t *memTx) Balance(userID int64) (int64, error) {
	u, ok := t.state.users[userID]
	if !ok {
		return 0, ErrNotFound
	}
	return u.Credits, nil
}

func (t *memTx) TryDebit(userID int64) (bool, int64, error) {
	u, ok := t.state.users[userID]
	if !ok {
		return false, 0, ErrNotFound
	}
	if u.Credits <= 0 {
		return false, u.Credits, nil
	}
	u.Credits--
	u.UpdatedAt = t.now()
	t.state.users[userID] = u
	return true, u.Credits, nil
}

func (t *memTx) SetBalance(userID, value int64) error {
	u, ok := t.state.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Credits = value
	u.UpdatedAt = t.now()
	t.state.users[userID] = u
	return nil
}

func (t *memTx) CreateCommand(c *models.Command) error {
	t.state.nextCommandID++
	c.ID = t.state.nextCommandID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = t.now()
	}
	t.state.commands = append(t.state.commands, *c)
	return nil
}

func (t *memTx) ListCommands(q CommandQuery) ([]models.Command, error) {
	var out []models.Command
	for i := len(t.state.commands) - 1; i >= 0; i-- {
		c := t.state.commands[i]
		if q.UserID != nil && c.UserID != *q.UserID {
			continue
		}
		if q.Status != "" && c.Status != q.Status {
			continue
		}
		if q.AfterID > 0 && c.ID >= q.AfterID {
			continue
		}
		out = append(out, c)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func (t *memTx) AppendAudit(a *models.AuditLog) error {
	t.state.nextAuditID++
	a.ID = t.state.nextAuditID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = t.now()
	}
	t.state.audits = append(t.state.audits, *a)
	return nil
}

func (t *memTx) ListAudit(q AuditQuery) ([]models.AuditLog, error) {
	var out []models.AuditLog
	for i := len(t.state.audits) - 1; i >= 0; i-- {
		a := t.state.audits[i]
		if q.AfterID > 0 && a.ID >= q.AfterID {
			continue
		}
		if a.UserID != nil {
			if u, ok := t.state.users[*a.UserID]; ok {
				u := u
				a.User = &u
			}
		}
		out = append(out, a)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}
