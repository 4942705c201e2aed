package database

import (
	"context"
	"errors"

	"interview-scheduler/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConfirmationStore keeps pending confirmations in the pending_confirmations
// table so several API instances share them. Actor is the primary key, which
// preserves the one-pending-per-actor rule.
type ConfirmationStore struct {
	db *gorm.DB
}

func NewConfirmationStore(db *gorm.DB) *ConfirmationStore {
	return &ConfirmationStore{db: db}
}

func (s *ConfirmationStore) Get(ctx context.Context, actor string) (models.PendingConfirmation, bool, error) {
	var p models.PendingConfirmation
	err := s.db.WithContext(ctx).Where("actor = ?", actor).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PendingConfirmation{}, false, nil
	}
	if err != nil {
		return models.PendingConfirmation{}, false, err
	}
	return p, true, nil
}

// Set upserts the actor's pending confirmation, replacing any previous one.
func (s *ConfirmationStore) Set(ctx context.Context, p models.PendingConfirmation) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "actor"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "tool_name", "fingerprint", "arguments", "created_at"}),
	}).Create(&p).Error
}

// Delete removes the actor's record only while it still carries token, so a
// token can be consumed at most once even across instances.
func (s *ConfirmationStore) Delete(ctx context.Context, actor, token string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("actor = ? AND token = ?", actor, token).
		Delete(&models.PendingConfirmation{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
