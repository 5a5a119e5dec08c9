package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/construction-pm-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormResetCodeStore keeps reset codes in the password_reset_codes table.
type GormResetCodeStore struct {
	db *gorm.DB
}

// NewResetCodeStore creates a database backed ResetCodeStore
func NewResetCodeStore(db *gorm.DB) ResetCodeStore {
	return &GormResetCodeStore{db: db}
}

// Save upserts the code for userID
func (s *GormResetCodeStore) Save(ctx context.Context, userID uint64, codeHash string, ttl time.Duration) error {
	code := models.PasswordResetCode{
		UserID:    userID,
		CodeHash:  codeHash,
		ExpiresAt: time.Now().Add(ttl),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code_hash", "expires_at"}),
	}).Create(&code).Error
}

// Fetch returns the live code hash for userID
func (s *GormResetCodeStore) Fetch(ctx context.Context, userID uint64) (string, error) {
	var code models.PasswordResetCode
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, time.Now()).
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrResetCodeNotFound
		}
		return "", err
	}
	return code.CodeHash, nil
}

// Delete removes the code for userID
func (s *GormResetCodeStore) Delete(ctx context.Context, userID uint64) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.PasswordResetCode{}).Error
}
