package dto

import (
	"time"

	"github.com/think2win/quiz-platform/internal/domain/entity"
)

// DeductResponse — ответ на успешное списание
type DeductResponse struct {
	NewBalance int64     `json:"newBalance"`
	Message    string    `json:"message"`
	AccessTo   time.Time `json:"accessTo"`
}

// BalanceResponse — текущий баланс пользователя
type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

// LedgerEntryResponse — запись журнала для клиента
type LedgerEntryResponse struct {
	ID        uint      `json:"id"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	QuizID    *uint     `json:"quiz_id,omitempty"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// LedgerResponse — страница истории журнала
type LedgerResponse struct {
	Entries []LedgerEntryResponse `json:"entries"`
	Total   int64                 `json:"total"`
	Page    int                   `json:"page"`
}

// NewLedgerResponse собирает страницу истории из записей журнала
func NewLedgerResponse(entries []entity.LedgerEntry, total int64, page int) LedgerResponse {
	resp := LedgerResponse{
		Entries: make([]LedgerEntryResponse, 0, len(entries)),
		Total:   total,
		Page:    page,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, LedgerEntryResponse{
			ID:        e.ID,
			Amount:    e.Amount,
			Status:    e.Status,
			QuizID:    e.QuizID,
			Note:      e.Note,
			CreatedAt: e.CreatedAt,
		})
	}
	return resp
}
