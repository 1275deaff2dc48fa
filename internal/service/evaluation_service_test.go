package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/think2win/quiz-platform/internal/domain/entity"
	apperrors "github.com/think2win/quiz-platform/internal/pkg/errors"
)

// MockQuestionRepository реализует repository.QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) GetByQuizID(quizID uint) ([]entity.Question, error) {
	args := m.Called(quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) ListForEvaluation(tx *gorm.DB, quizID uint) ([]entity.Question, error) {
	args := m.Called(tx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) SetCorrectOption(tx *gorm.DB, quizID, questionID uint, option int) error {
	args := m.Called(tx, quizID, questionID, option)
	return args.Error(0)
}

// MockAttemptRepository реализует repository.AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) CreateWithAnswers(attempt *entity.QuizAttempt) error {
	args := m.Called(attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByUserAndQuiz(userID, quizID uint) (*entity.QuizAttempt, error) {
	args := m.Called(userID, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.QuizAttempt), args.Error(1)
}

func (m *MockAttemptRepository) GetPendingForUpdate(tx *gorm.DB, quizID uint) ([]entity.QuizAttempt, error) {
	args := m.Called(tx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.QuizAttempt), args.Error(1)
}

func (m *MockAttemptRepository) SaveEvaluation(tx *gorm.DB, attempt *entity.QuizAttempt) error {
	args := m.Called(tx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetEvaluatedByQuiz(quizID uint) ([]entity.QuizAttempt, error) {
	args := m.Called(quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.QuizAttempt), args.Error(1)
}

func newEvaluationServiceForTest(
	quizRepo *MockQuizRepository,
	questionRepo *MockQuestionRepository,
	attemptRepo *MockAttemptRepository,
	userRepo *MockUserRepository,
) *EvaluationService {
	return NewEvaluationService(quizRepo, questionRepo, attemptRepo, userRepo, nil, nil)
}

func TestEvaluationService_Evaluate_QuizNotFound(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	svc := newEvaluationServiceForTest(quizRepo, new(MockQuestionRepository), new(MockAttemptRepository), new(MockUserRepository))

	quizRepo.On("GetWithQuestions", uint(99)).Return(nil, apperrors.ErrNotFound)

	summary, err := svc.Evaluate(99, map[uint]int{1: 0})

	assert.ErrorIs(t, err, ErrQuizNotFound)
	assert.Nil(t, summary)
}

func TestEvaluationService_Evaluate_IncompleteAnswerKey(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	questionRepo := new(MockQuestionRepository)
	svc := newEvaluationServiceForTest(quizRepo, questionRepo, new(MockAttemptRepository), new(MockUserRepository))

	quiz := &entity.Quiz{
		ID: 5,
		Questions: []entity.Question{
			{ID: 10, QuizID: 5},
			{ID: 11, QuizID: 5},
			{ID: 12, QuizID: 5},
		},
	}
	quizRepo.On("GetWithQuestions", uint(5)).Return(quiz, nil)

	// Ключ покрывает только вопрос 10
	summary, err := svc.Evaluate(5, map[uint]int{10: 1})

	require.Error(t, err)
	assert.Nil(t, summary)

	var incompleteErr *IncompleteAnswerKeyError
	require.ErrorAs(t, err, &incompleteErr)
	assert.ElementsMatch(t, []uint{11, 12}, incompleteErr.MissingQuestionIDs)

	// Частичная оценка недопустима: ключ не должен быть записан
	questionRepo.AssertNotCalled(t, "SetCorrectOption", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluationService_Evaluate_ForeignQuestionInKey(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	questionRepo := new(MockQuestionRepository)
	svc := newEvaluationServiceForTest(quizRepo, questionRepo, new(MockAttemptRepository), new(MockUserRepository))

	quiz := &entity.Quiz{
		ID: 5,
		Questions: []entity.Question{
			{ID: 10, QuizID: 5},
			{ID: 11, QuizID: 5},
		},
	}
	quizRepo.On("GetWithQuestions", uint(5)).Return(quiz, nil)

	// Вопрос 999 принадлежит другой викторине
	summary, err := svc.Evaluate(5, map[uint]int{10: 0, 11: 1, 999: 2})

	require.Error(t, err)
	assert.Nil(t, summary)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "999")

	// Чужой вопрос не должен быть затронут
	questionRepo.AssertNotCalled(t, "SetCorrectOption", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMissingQuestionIDs(t *testing.T) {
	questions := []entity.Question{{ID: 1}, {ID: 2}, {ID: 3}}

	t.Run("полный ключ", func(t *testing.T) {
		missing := missingQuestionIDs(questions, map[uint]int{1: 0, 2: 1, 3: 2})
		assert.Empty(t, missing)
	})

	t.Run("неполный ключ", func(t *testing.T) {
		missing := missingQuestionIDs(questions, map[uint]int{2: 1})
		assert.ElementsMatch(t, []uint{1, 3}, missing)
	})

	t.Run("лишние вопросы в ключе не считаются недостающими", func(t *testing.T) {
		missing := missingQuestionIDs(questions, map[uint]int{1: 0, 2: 0, 3: 0, 99: 0})
		assert.Empty(t, missing)
	})
}

func TestScoreAttempt(t *testing.T) {
	answerKey := map[uint]int{10: 1, 11: 0, 12: 3}

	t.Run("смешанные ответы", func(t *testing.T) {
		attempt := &entity.QuizAttempt{
			Answers: []entity.Answer{
				{QuestionID: 10, SelectedOption: 1}, // правильный
				{QuestionID: 11, SelectedOption: 2}, // неправильный
				{QuestionID: 12, SelectedOption: 3}, // правильный
			},
		}

		correct := scoreAttempt(attempt, answerKey)

		assert.Equal(t, 2, correct)
		assert.True(t, attempt.Answers[0].IsCorrect)
		assert.False(t, attempt.Answers[1].IsCorrect)
		assert.True(t, attempt.Answers[2].IsCorrect)
	})

	t.Run("пропущенные вопросы считаются неправильными", func(t *testing.T) {
		attempt := &entity.QuizAttempt{
			Answers: []entity.Answer{
				{QuestionID: 10, SelectedOption: 1},
			},
		}

		correct := scoreAttempt(attempt, answerKey)

		// Один правильный из трех вопросов; процент считает вызывающая сторона
		assert.Equal(t, 1, correct)
		assert.Equal(t, 33, entity.ScorePercentage(correct, len(answerKey)))
	})

	t.Run("ответ на вопрос вне ключа", func(t *testing.T) {
		attempt := &entity.QuizAttempt{
			Answers: []entity.Answer{
				{QuestionID: 999, SelectedOption: 0},
			},
		}

		assert.Equal(t, 0, scoreAttempt(attempt, answerKey))
		assert.False(t, attempt.Answers[0].IsCorrect)
	})
}

func TestEvaluationService_BuildReport(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	userRepo := new(MockUserRepository)
	svc := newEvaluationServiceForTest(quizRepo, new(MockQuestionRepository), attemptRepo, userRepo)

	quiz := &entity.Quiz{
		ID:        5,
		Questions: []entity.Question{{ID: 10}, {ID: 11}},
	}
	quizRepo.On("GetWithQuestions", uint(5)).Return(quiz, nil)

	attempts := []entity.QuizAttempt{
		{ID: 100, UserID: 1, QuizID: 5, IsEvaluated: true, CorrectAnswers: 2, Score: 100},
		{ID: 101, UserID: 2, QuizID: 5, IsEvaluated: true, CorrectAnswers: 1, Score: 50},
	}
	attemptRepo.On("GetEvaluatedByQuiz", uint(5)).Return(attempts, nil)

	userRepo.On("GetByID", uint(1)).Return(&entity.User{ID: 1, Username: "aidar"}, nil).Once()
	userRepo.On("GetByID", uint(2)).Return(&entity.User{ID: 2, Username: "dana"}, nil).Once()

	rows, err := svc.BuildReport(5)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "aidar", rows[0].Username)
	assert.Equal(t, 100, rows[0].Percentage)
	assert.Equal(t, 2, rows[0].TotalQuestions)
	assert.Equal(t, "dana", rows[1].Username)
	assert.Equal(t, 50, rows[1].Percentage)

	userRepo.AssertExpectations(t)
}

func TestEvaluationService_BuildReport_QuizNotFound(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	svc := newEvaluationServiceForTest(quizRepo, new(MockQuestionRepository), new(MockAttemptRepository), new(MockUserRepository))

	quizRepo.On("GetWithQuestions", uint(99)).Return(nil, apperrors.ErrNotFound)

	_, err := svc.BuildReport(99)
	assert.ErrorIs(t, err, ErrQuizNotFound)
}
