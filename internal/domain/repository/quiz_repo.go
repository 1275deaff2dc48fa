package repository

import (
	"gorm.io/gorm"

	"github.com/think2win/quiz-platform/internal/domain/entity"
)

// QuizRepository определяет методы для работы с викторинами
type QuizRepository interface {
	GetByID(id uint) (*entity.Quiz, error)
	// GetWithQuestions возвращает викторину с вопросами, упорядоченными
	// по времени создания.
	GetWithQuestions(id uint) (*entity.Quiz, error)
	List(limit, offset int) ([]entity.Quiz, int64, error)

	// LockForEvaluation блокирует строку викторины внутри транзакции tx,
	// сериализуя конкурентные вызовы оценки одной и той же викторины.
	LockForEvaluation(tx *gorm.DB, id uint) (*entity.Quiz, error)
}

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	GetByQuizID(quizID uint) ([]entity.Question, error)

	// ListForEvaluation возвращает вопросы викторины внутри транзакции tx.
	// Вызывается после блокировки строки викторины, чтобы оценка работала
	// с актуальным набором вопросов, а не со снимком до транзакции.
	ListForEvaluation(tx *gorm.DB, quizID uint) ([]entity.Question, error)

	// SetCorrectOption записывает правильный вариант вопроса внутри
	// транзакции tx и поднимает флаг has_correct_answer. Обновление
	// ограничено викториной quizID: вопрос чужой викторины не может быть
	// изменен даже при некорректном questionID.
	SetCorrectOption(tx *gorm.DB, quizID, questionID uint, option int) error
}
