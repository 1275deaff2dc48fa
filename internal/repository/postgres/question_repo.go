package postgres

import (
	"gorm.io/gorm"

	"github.com/think2win/quiz-platform/internal/domain/entity"
	apperrors "github.com/think2win/quiz-platform/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// GetByQuizID возвращает вопросы викторины в порядке создания
func (r *QuestionRepo) GetByQuizID(quizID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.Where("quiz_id = ?", quizID).
		Order("created_at ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// ListForEvaluation возвращает вопросы викторины внутри транзакции tx
func (r *QuestionRepo) ListForEvaluation(tx *gorm.DB, quizID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := tx.Where("quiz_id = ?", quizID).
		Order("created_at ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// SetCorrectOption записывает правильный вариант вопроса внутри транзакции tx.
// quiz_id в условии не дает ключу ответов затронуть вопросы других викторин.
func (r *QuestionRepo) SetCorrectOption(tx *gorm.DB, quizID, questionID uint, option int) error {
	result := tx.Model(&entity.Question{}).
		Where("id = ? AND quiz_id = ?", questionID, quizID).
		Updates(map[string]interface{}{
			"correct_option":     option,
			"has_correct_answer": true,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
