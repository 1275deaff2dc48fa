package entity

import (
	"math"
	"time"
)

// QuizAttempt представляет попытку прохождения викторины пользователем.
// Оценивается ровно один раз: EvaluationService трогает только попытки
// с IsEvaluated = false.
type QuizAttempt struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index:idx_attempts_user_quiz" json:"user_id"`
	QuizID uint `gorm:"not null;index:idx_attempts_user_quiz" json:"quiz_id"`

	IsCompleted bool `gorm:"not null;default:false" json:"is_completed"`
	IsEvaluated bool `gorm:"not null;default:false" json:"is_evaluated"`

	// Score — процент 0-100, округленный арифметически.
	Score          int `gorm:"not null;default:0" json:"score"`
	CorrectAnswers int `gorm:"not null;default:0" json:"correct_answers"`

	Answers []Answer `gorm:"foreignKey:AttemptID" json:"answers,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// Answer представляет выбранный вариант ответа в рамках попытки
type Answer struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	AttemptID      uint `gorm:"not null;index" json:"attempt_id"`
	QuestionID     uint `gorm:"not null;index" json:"question_id"`
	SelectedOption int  `gorm:"not null" json:"selected_option"`
	IsCorrect      bool `gorm:"not null;default:false" json:"is_correct"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Answer) TableName() string {
	return "answers"
}

// ScorePercentage вычисляет процент правильных ответов с арифметическим
// округлением. totalQuestions — количество вопросов викторины на момент
// оценки: пропущенный вопрос считается неправильным, а не исключается.
func ScorePercentage(correctCount, totalQuestions int) int {
	if totalQuestions <= 0 {
		return 0
	}
	return int(math.Round(float64(correctCount) / float64(totalQuestions) * 100))
}
