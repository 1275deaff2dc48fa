package postgres

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/think2win/quiz-platform/internal/domain/entity"
	apperrors "github.com/think2win/quiz-platform/internal/pkg/errors"
)

// AttemptRepo реализует repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// CreateWithAnswers сохраняет попытку вместе с ответами в одной транзакции.
// GORM вставляет ассоциацию Answers каскадно.
func (r *AttemptRepo) CreateWithAnswers(attempt *entity.QuizAttempt) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(attempt).Error
	})
}

// GetByUserAndQuiz возвращает попытку пользователя для викторины
func (r *AttemptRepo) GetByUserAndQuiz(userID, quizID uint) (*entity.QuizAttempt, error) {
	var attempt entity.QuizAttempt
	err := r.db.Preload("Answers").
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// GetPendingForUpdate загружает все неоцененные попытки викторины с ответами,
// блокируя строки попыток (FOR UPDATE) до коммита транзакции tx
func (r *AttemptRepo) GetPendingForUpdate(tx *gorm.DB, quizID uint) ([]entity.QuizAttempt, error) {
	var attempts []entity.QuizAttempt
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "quiz_attempts"}}).
		Preload("Answers").
		Where("quiz_id = ? AND is_completed = ? AND is_evaluated = ?", quizID, true, false).
		Order("id ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

// SaveEvaluation записывает результат оценки попытки и флаги корректности
// ее ответов внутри транзакции tx
func (r *AttemptRepo) SaveEvaluation(tx *gorm.DB, attempt *entity.QuizAttempt) error {
	err := tx.Model(&entity.QuizAttempt{}).
		Where("id = ?", attempt.ID).
		Updates(map[string]interface{}{
			"score":           attempt.Score,
			"correct_answers": attempt.CorrectAnswers,
			"is_evaluated":    true,
		}).Error
	if err != nil {
		return err
	}

	for i := range attempt.Answers {
		a := &attempt.Answers[i]
		if err := tx.Model(&entity.Answer{}).
			Where("id = ?", a.ID).
			UpdateColumn("is_correct", a.IsCorrect).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetEvaluatedByQuiz возвращает все оцененные попытки викторины
func (r *AttemptRepo) GetEvaluatedByQuiz(quizID uint) ([]entity.QuizAttempt, error) {
	var attempts []entity.QuizAttempt
	err := r.db.Where("quiz_id = ? AND is_evaluated = ?", quizID, true).
		Order("score DESC, id ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}
