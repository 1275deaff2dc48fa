package repository

import (
	"gorm.io/gorm"

	"github.com/think2win/quiz-platform/internal/domain/entity"
)

// LedgerRepository определяет методы для работы с журналом баланса.
// Записи журнала неизменяемы, поэтому методов обновления нет.
type LedgerRepository interface {
	// Create вставляет запись внутри транзакции tx. Уникальный индекс по
	// idempotency_token — последний рубеж против гонки между TokenExists
	// и вставкой.
	Create(tx *gorm.DB, entry *entity.LedgerEntry) error

	// TokenExists проверяет, использовался ли идемпотентный токен.
	// Вызывается внутри транзакции списания до какой-либо мутации.
	TokenExists(tx *gorm.DB, token string) (bool, error)

	ListByUser(userID uint, limit, offset int) ([]entity.LedgerEntry, int64, error)
}

// AccessGrantRepository определяет методы для работы с грантами доступа
type AccessGrantRepository interface {
	// Create вставляет грант внутри транзакции tx списания.
	Create(tx *gorm.DB, grant *entity.AccessGrant) error

	// GetLatest возвращает самый свежий грант пользователя на викторину
	// или apperrors.ErrNotFound.
	GetLatest(userID, quizID uint) (*entity.AccessGrant, error)
}
