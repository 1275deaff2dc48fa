package repository

import (
	"gorm.io/gorm"

	"github.com/think2win/quiz-platform/internal/domain/entity"
)

// AttemptRepository определяет методы для работы с попытками прохождения
type AttemptRepository interface {
	// CreateWithAnswers сохраняет попытку вместе с ответами в одной транзакции.
	CreateWithAnswers(attempt *entity.QuizAttempt) error

	GetByUserAndQuiz(userID, quizID uint) (*entity.QuizAttempt, error)

	// GetPendingForUpdate загружает внутри транзакции tx все незавершенные
	// оценкой попытки викторины (is_evaluated = false) вместе с ответами,
	// блокируя строки попыток до коммита.
	GetPendingForUpdate(tx *gorm.DB, quizID uint) ([]entity.QuizAttempt, error)

	// SaveEvaluation записывает результат оценки попытки и флаги ответов
	// внутри транзакции tx.
	SaveEvaluation(tx *gorm.DB, attempt *entity.QuizAttempt) error

	// GetEvaluatedByQuiz возвращает все оцененные попытки викторины
	// (для отчета по результатам).
	GetEvaluatedByQuiz(quizID uint) ([]entity.QuizAttempt, error)
}
