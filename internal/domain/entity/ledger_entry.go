package entity

import "time"

// Статусы записей журнала. Системные списания сразу получают approved.
const (
	LedgerStatusApproved = "approved"
)

// LedgerEntry представляет неизменяемую запись журнала об изменении баланса.
// Сумма подписанная: отрицательная для списаний, положительная для начислений.
// IdempotencyToken уникален глобально — повторный запрос с тем же токеном
// отклоняется до какой-либо мутации баланса.
type LedgerEntry struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	UserID           uint   `gorm:"not null;index" json:"user_id"`
	Amount           int64  `gorm:"not null" json:"amount"`
	IdempotencyToken string `gorm:"size:64;not null;uniqueIndex" json:"idempotency_token"`
	Status           string `gorm:"size:20;not null;default:'approved'" json:"status"`
	QuizID           *uint  `gorm:"index" json:"quiz_id,omitempty"`
	Note             string `gorm:"size:255;not null;default:''" json:"note"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
