package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/think2win/quiz-platform/internal/domain/entity"
	"github.com/think2win/quiz-platform/internal/repository/postgres"
)

func newEvaluationServiceForDB(db *gorm.DB) *EvaluationService {
	return NewEvaluationService(
		postgres.NewQuizRepo(db),
		postgres.NewQuestionRepo(db),
		postgres.NewAttemptRepo(db),
		postgres.NewUserRepo(db),
		db,
		nil,
	)
}

// seedQuizWithQuestions создает викторину с двумя вопросами и возвращает их
func seedQuizWithQuestions(t *testing.T, db *gorm.DB) (*entity.Quiz, []entity.Question) {
	t.Helper()
	quiz := &entity.Quiz{Title: "Оцениваемая викторина", EntryFee: 0, QuestionCount: 2}
	require.NoError(t, db.Create(quiz).Error)

	questions := []entity.Question{
		{QuizID: quiz.ID, Text: "Столица Казахстана?", Options: entity.StringArray{"Астана", "Алматы", "Шымкент"}},
		{QuizID: quiz.ID, Text: "2 + 2?", Options: entity.StringArray{"3", "4", "5"}},
	}
	require.NoError(t, db.Create(&questions).Error)
	return quiz, questions
}

func seedCompletedAttempt(t *testing.T, db *gorm.DB, quizID uint, answers map[uint]int) *entity.QuizAttempt {
	t.Helper()
	user := &entity.User{Username: uuid.NewString()[:8], Email: uuid.NewString() + "@test.kz", Role: entity.RoleUser}
	require.NoError(t, db.Create(user).Error)

	attempt := &entity.QuizAttempt{UserID: user.ID, QuizID: quizID, IsCompleted: true}
	for questionID, option := range answers {
		attempt.Answers = append(attempt.Answers, entity.Answer{QuestionID: questionID, SelectedOption: option})
	}
	require.NoError(t, db.Create(attempt).Error)
	return attempt
}

func TestEvaluationService_Evaluate_ScoresCompletedAttempts(t *testing.T) {
	db := startPostgres(t)
	svc := newEvaluationServiceForDB(db)
	quiz, questions := seedQuizWithQuestions(t, db)

	answerKey := map[uint]int{questions[0].ID: 0, questions[1].ID: 1}
	perfect := seedCompletedAttempt(t, db, quiz.ID, map[uint]int{questions[0].ID: 0, questions[1].ID: 1})
	half := seedCompletedAttempt(t, db, quiz.ID, map[uint]int{questions[0].ID: 0, questions[1].ID: 2})

	summary, err := svc.Evaluate(quiz.ID, answerKey)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.EvaluatedCount)

	scores := map[uint]int{}
	for _, r := range summary.Results {
		scores[r.AttemptID] = r.Percentage
	}
	assert.Equal(t, 100, scores[perfect.ID])
	assert.Equal(t, 50, scores[half.ID])

	// Ключ зафиксирован в вопросах, попытки и ответы помечены в базе
	var stored []entity.Question
	require.NoError(t, db.Where("quiz_id = ?", quiz.ID).Order("id ASC").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.True(t, stored[0].HasCorrectAnswer)
	assert.Equal(t, 0, stored[0].CorrectOption)
	assert.True(t, stored[1].HasCorrectAnswer)
	assert.Equal(t, 1, stored[1].CorrectOption)

	var evaluated entity.QuizAttempt
	require.NoError(t, db.Preload("Answers").First(&evaluated, half.ID).Error)
	assert.True(t, evaluated.IsEvaluated)
	assert.Equal(t, 1, evaluated.CorrectAnswers)
	assert.Equal(t, 50, evaluated.Score)
	correctFlags := 0
	for _, a := range evaluated.Answers {
		if a.IsCorrect {
			correctFlags++
		}
	}
	assert.Equal(t, 1, correctFlags)
}

// Повторная оценка трогает только попытки, появившиеся после предыдущей
func TestEvaluationService_Evaluate_Idempotent(t *testing.T) {
	db := startPostgres(t)
	svc := newEvaluationServiceForDB(db)
	quiz, questions := seedQuizWithQuestions(t, db)

	answerKey := map[uint]int{questions[0].ID: 0, questions[1].ID: 1}
	seedCompletedAttempt(t, db, quiz.ID, map[uint]int{questions[0].ID: 0, questions[1].ID: 1})

	first, err := svc.Evaluate(quiz.ID, answerKey)
	require.NoError(t, err)
	assert.Equal(t, 1, first.EvaluatedCount)

	// Тот же ключ без новых попыток — ноль оцененных
	second, err := svc.Evaluate(quiz.ID, answerKey)
	require.NoError(t, err)
	assert.Equal(t, 0, second.EvaluatedCount)
	assert.Empty(t, second.Results)

	// Новая попытка после публикации результатов оценивается при повторе
	late := seedCompletedAttempt(t, db, quiz.ID, map[uint]int{questions[0].ID: 1, questions[1].ID: 1})
	third, err := svc.Evaluate(quiz.ID, answerKey)
	require.NoError(t, err)
	require.Equal(t, 1, third.EvaluatedCount)
	assert.Equal(t, late.ID, third.Results[0].AttemptID)
	assert.Equal(t, 50, third.Results[0].Percentage)
}

// Повторная оценка с другим ключом не переписывает уже опубликованные
// результаты
func TestEvaluationService_Evaluate_RekeyDoesNotRescore(t *testing.T) {
	db := startPostgres(t)
	svc := newEvaluationServiceForDB(db)
	quiz, questions := seedQuizWithQuestions(t, db)

	attempt := seedCompletedAttempt(t, db, quiz.ID, map[uint]int{questions[0].ID: 0, questions[1].ID: 1})

	_, err := svc.Evaluate(quiz.ID, map[uint]int{questions[0].ID: 0, questions[1].ID: 1})
	require.NoError(t, err)

	// Инвертированный ключ не меняет счет уже оцененной попытки
	summary, err := svc.Evaluate(quiz.ID, map[uint]int{questions[0].ID: 2, questions[1].ID: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.EvaluatedCount)

	var stored entity.QuizAttempt
	require.NoError(t, db.First(&stored, attempt.ID).Error)
	assert.Equal(t, 100, stored.Score)
	assert.Equal(t, 2, stored.CorrectAnswers)
}

// Вопрос чужой викторины недостижим для оценки даже при подмене ID в ключе
func TestEvaluationService_Evaluate_ForeignQuestionUntouched(t *testing.T) {
	db := startPostgres(t)
	svc := newEvaluationServiceForDB(db)
	quiz, questions := seedQuizWithQuestions(t, db)
	otherQuiz, otherQuestions := seedQuizWithQuestions(t, db)

	key := map[uint]int{
		questions[0].ID:      0,
		questions[1].ID:      1,
		otherQuestions[0].ID: 2,
	}
	summary, err := svc.Evaluate(quiz.ID, key)
	require.Error(t, err)
	assert.Nil(t, summary)

	// Чужой вопрос не получил правильного варианта
	var foreign entity.Question
	require.NoError(t, db.First(&foreign, otherQuestions[0].ID).Error)
	assert.Equal(t, otherQuiz.ID, foreign.QuizID)
	assert.False(t, foreign.HasCorrectAnswer)
}
