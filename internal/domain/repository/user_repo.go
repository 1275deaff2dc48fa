package repository

import (
	"gorm.io/gorm"

	"github.com/think2win/quiz-platform/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)

	// GetForUpdate читает пользователя внутри транзакции tx с блокировкой
	// строки (SELECT ... FOR UPDATE). Второе конкурентное списание не сможет
	// прочитать баланс до коммита первого — это закрывает гонку double-spend.
	GetForUpdate(tx *gorm.DB, id uint) (*entity.User, error)

	// DecrementBalance уменьшает баланс внутри транзакции tx.
	// Предполагает, что строка уже заблокирована через GetForUpdate.
	DecrementBalance(tx *gorm.DB, id uint, amount int64) error
}
