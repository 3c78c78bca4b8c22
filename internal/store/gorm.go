package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"cmdgate/internal/models"
)

// GormStore persists through a relational database. All Tx callbacks
// run inside a single gorm transaction.
type GormStore struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Tx(ctx context.Context, fn func(Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

func mapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (t gormTx) UserByID(id int64) (*models.User, error) {
	var u models.User
	if err := t.db.First(&u, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (t gormTx) UserByAPIKey(key string) (*models.User, error) {
	var u models.User
	if err := t.db.Where("api_key = ?", key).First(&u).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (t gormTx) UserByEmail(email string) (*models.User, error) {
	var u models.User
	if err := t.db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (t gormTx) CreateUser(u *models.User) error {
	return t.db.Create(u).Error
}

func (t gormTx) ListUsers() ([]UserWithCount, error) {
	var users []models.User
	if err := t.db.Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	out := make([]UserWithCount, 0, len(users))
	for _, u := range users {
		var n int64
		if err := t.db.Model(&models.Command{}).Where("user_id = ?", u.ID).Count(&n).Error; err != nil {
			return nil, err
		}
		out = append(out, UserWithCount{User: u, CommandCount: n})
	}
	return out, nil
}

func (t gormTx) Rules() ([]models.Rule, error) {
	var rs []models.Rule
	if err := t.db.Order("priority ASC, id ASC").Find(&rs).Error; err != nil {
		return nil, err
	}
	return rs, nil
}

func (t gormTx) CreateRule(r *models.Rule) error {
	return t.db.Create(r).Error
}

func (t gormTx) DeleteRule(id int64) error {
	res := t.db.Delete(&models.Rule{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t gormTx) Balance(userID int64) (int64, error) {
	u, err := t.UserByID(userID)
	if err != nil {
		return 0, err
	}
	return u.Credits, nil
}

func (t gormTx) TryDebit(userID int64) (bool, int64, error) {
	// The conditional UPDATE is the linearization point: the row lock
	// taken here serializes concurrent debits for the same identity,
	// and `credits > 0` guarantees the balance never goes negative.
	res := t.db.Model(&models.User{}).
		Where("id = ? AND credits > 0", userID).
		UpdateColumn("credits", gorm.Expr("credits - 1"))
	if res.Error != nil {
		return false, 0, res.Error
	}
	balance, err := t.Balance(userID)
	if err != nil {
		return false, 0, err
	}
	return res.RowsAffected > 0, balance, nil
}

func (t gormTx) SetBalance(userID, value int64) error {
	if _, err := t.UserByID(userID); err != nil {
		return err
	}
	return t.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("credits", value).Error
}

func (t gormTx) CreateCommand(c *models.Command) error {
	return t.db.Create(c).Error
}

func (t gormTx) ListCommands(q CommandQuery) ([]models.Command, error) {
	query := t.db.Model(&models.Command{}).Order("id DESC")
	if q.UserID != nil {
		query = query.Where("user_id = ?", *q.UserID)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.AfterID > 0 {
		query = query.Where("id < ?", q.AfterID)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	var cmds []models.Command
	if err := query.Find(&cmds).Error; err != nil {
		return nil, err
	}
	return cmds, nil
}

func (t gormTx) AppendAudit(a *models.AuditLog) error {
	return t.db.Create(a).Error
}

func (t gormTx) ListAudit(q AuditQuery) ([]models.AuditLog, error) {
	query := t.db.Model(&models.AuditLog{}).Preload("User").Order("id DESC")
	if q.AfterID > 0 {
		query = query.Where("id < ?", q.AfterID)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
