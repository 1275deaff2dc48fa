package entity

import "time"

// Quiz представляет викторину
type Quiz struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:100;not null" json:"title"`
	Description string `gorm:"size:500;not null;default:''" json:"description"`

	// EntryFee — стоимость доступа в минимальных единицах.
	// 0 означает бесплатную викторину (грант не требуется).
	EntryFee int64 `gorm:"not null;default:0" json:"entry_fee"`

	// QuestionCount кешированное количество вопросов; авторитетный
	// источник — таблица questions.
	QuestionCount int `gorm:"not null;default:0" json:"question_count"`

	Questions []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsFree возвращает true, если доступ к викторине не требует списания
func (q *Quiz) IsFree() bool {
	return q.EntryFee <= 0
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}
