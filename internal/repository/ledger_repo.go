package repository

import (
	"context"

	"tillpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LedgerRepository interface {
	Create(ctx context.Context, entries []model.LedgerEntry) error
	ExistsForReference(ctx context.Context, reference uuid.UUID) (bool, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.LedgerEntry, error)
}

type ledgerRepo struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) LedgerRepository { return &ledgerRepo{db: db} }

func (r *ledgerRepo) Create(ctx context.Context, entries []model.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

// ExistsForReference lets the worker skip a job it has already posted
// (redelivery after a crash between BRPOP and commit).
func (r *ledgerRepo) ExistsForReference(ctx context.Context, reference uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).
		Where("reference = ?", reference).Count(&count).Error
	return count > 0, err
}

func (r *ledgerRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("posted_at ASC").
		Find(&entries).Error
	return entries, err
}
