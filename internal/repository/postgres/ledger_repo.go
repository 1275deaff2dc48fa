package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/think2win/quiz-platform/internal/domain/entity"
	apperrors "github.com/think2win/quiz-platform/internal/pkg/errors"
)

// LedgerRepo реализует repository.LedgerRepository
type LedgerRepo struct {
	db *gorm.DB
}

// NewLedgerRepo создает новый репозиторий журнала баланса
func NewLedgerRepo(db *gorm.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// Create вставляет запись журнала внутри транзакции tx.
// Нарушение уникального индекса по idempotency_token транслируется
// в apperrors.ErrConflict.
func (r *LedgerRepo) Create(tx *gorm.DB, entry *entity.LedgerEntry) error {
	if err := tx.Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrConflict
		}
		return err
	}
	return nil
}

// TokenExists проверяет, использовался ли идемпотентный токен
func (r *LedgerRepo) TokenExists(tx *gorm.DB, token string) (bool, error) {
	var count int64
	err := tx.Model(&entity.LedgerEntry{}).
		Where("idempotency_token = ?", token).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByUser возвращает записи журнала пользователя, новые первыми
func (r *LedgerRepo) ListByUser(userID uint, limit, offset int) ([]entity.LedgerEntry, int64, error) {
	var entries []entity.LedgerEntry
	var total int64

	if err := r.db.Model(&entity.LedgerEntry{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
