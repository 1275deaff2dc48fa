package service

import (
	"errors"
	"fmt"
)

// Ожидаемые бизнес-исходы и ошибки валидации сервисов.
// Недостаток средств и повторный токен — нормальные исходы работы,
// обработчики транслируют их в типизированные ответы, а не в 500.
var (
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrMissingToken         = errors.New("idempotency token is required")
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrUserNotFound         = errors.New("user not found")
	ErrQuizNotFound         = errors.New("quiz not found")
	ErrAccessDenied         = errors.New("no active access grant for quiz")
	ErrAttemptExists        = errors.New("attempt already submitted for quiz")
	ErrAttemptNotFound      = errors.New("attempt not found")
)

// InsufficientBalanceError возвращается, когда баланс не покрывает списание.
// Несет контекст для ответа клиенту: сколько требовалось и сколько есть.
type InsufficientBalanceError struct {
	Required int64
	Current  int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %d, current %d", e.Required, e.Current)
}

// IncompleteAnswerKeyError возвращается, когда ключ ответов не покрывает
// все вопросы викторины. Частичная оценка не допускается.
type IncompleteAnswerKeyError struct {
	MissingQuestionIDs []uint
}

func (e *IncompleteAnswerKeyError) Error() string {
	return fmt.Sprintf("answer key is missing %d question(s)", len(e.MissingQuestionIDs))
}
