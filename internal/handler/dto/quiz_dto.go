package dto

import (
	"time"

	"github.com/think2win/quiz-platform/internal/domain/entity"
)

// QuizResponse — представление викторины для клиента
type QuizResponse struct {
	ID            uint               `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	EntryFee      int64              `json:"entry_fee"`
	QuestionCount int                `json:"question_count"`
	Questions     []QuestionResponse `json:"questions,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// QuestionResponse — вопрос без правильного ответа
type QuestionResponse struct {
	ID      uint     `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// NewQuizResponse строит ответ по викторине.
// withQuestions управляет включением вопросов (правильные варианты
// не попадают в JSON в любом случае).
func NewQuizResponse(quiz *entity.Quiz, withQuestions bool) QuizResponse {
	resp := QuizResponse{
		ID:            quiz.ID,
		Title:         quiz.Title,
		Description:   quiz.Description,
		EntryFee:      quiz.EntryFee,
		QuestionCount: quiz.QuestionCount,
		CreatedAt:     quiz.CreatedAt,
	}
	if resp.QuestionCount == 0 {
		resp.QuestionCount = len(quiz.Questions)
	}
	if withQuestions {
		resp.Questions = make([]QuestionResponse, 0, len(quiz.Questions))
		for _, q := range quiz.Questions {
			resp.Questions = append(resp.Questions, QuestionResponse{
				ID:      q.ID,
				Text:    q.Text,
				Options: q.Options,
			})
		}
	}
	return resp
}

// NewListQuizResponse строит список викторин без вопросов
func NewListQuizResponse(quizzes []entity.Quiz) []QuizResponse {
	list := make([]QuizResponse, 0, len(quizzes))
	for i := range quizzes {
		list = append(list, NewQuizResponse(&quizzes[i], false))
	}
	return list
}

// AttemptResponse — попытка пользователя для клиента
type AttemptResponse struct {
	ID             uint      `json:"id"`
	QuizID         uint      `json:"quiz_id"`
	IsCompleted    bool      `json:"is_completed"`
	IsEvaluated    bool      `json:"is_evaluated"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correct_answers"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewAttemptResponse строит ответ по попытке
func NewAttemptResponse(attempt *entity.QuizAttempt) AttemptResponse {
	return AttemptResponse{
		ID:             attempt.ID,
		QuizID:         attempt.QuizID,
		IsCompleted:    attempt.IsCompleted,
		IsEvaluated:    attempt.IsEvaluated,
		Score:          attempt.Score,
		CorrectAnswers: attempt.CorrectAnswers,
		CreatedAt:      attempt.CreatedAt,
	}
}
