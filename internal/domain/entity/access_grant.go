package entity

import "time"

// AccessGrant представляет ограниченное по времени право доступа к контенту
// викторины. Создается атомарно вместе с LedgerEntry при списании и никогда
// не мутируется: по истечении окна запись просто перестает считаться активной,
// физически не удаляется.
type AccessGrant struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index:idx_access_grants_user_quiz" json:"user_id"`
	QuizID           uint      `gorm:"not null;index:idx_access_grants_user_quiz" json:"quiz_id"`
	AmountCharged    int64     `gorm:"not null" json:"amount_charged"`
	IdempotencyToken string    `gorm:"size:64;not null" json:"idempotency_token"`
	ExpiresAt        time.Time `gorm:"not null;index" json:"expires_at"`

	CreatedAt time.Time `json:"created_at"`
}

// Active возвращает true, пока окно доступа не закрылось.
// Грант, созданный в момент T, действителен ровно в [T, T+window):
// проверка в T+window уже возвращает false.
func (g *AccessGrant) Active(now time.Time) bool {
	return now.Before(g.ExpiresAt)
}

// TableName определяет имя таблицы для GORM
func (AccessGrant) TableName() string {
	return "access_grants"
}
