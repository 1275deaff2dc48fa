package entity

import (
	"time"
)

// Роли пользователей. Аутентификация делегирована внешнему IdP,
// приложение хранит только профиль и баланс кошелька.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет пользователя платформы
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email    string `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Role     string `gorm:"size:20;not null;default:'user'" json:"-"` // "user" или "admin"

	// Balance хранится в минимальных денежных единицах (тиын).
	// Мутируется только внутри транзакции WalletService; CHECK (balance >= 0)
	// в миграции не позволяет уйти в минус даже при ошибке в коде.
	Balance int64 `gorm:"not null;default:0" json:"balance"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin возвращает true для пользователей с административной ролью
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}
