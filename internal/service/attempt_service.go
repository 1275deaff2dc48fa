package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/think2win/quiz-platform/internal/domain/entity"
	"github.com/think2win/quiz-platform/internal/domain/repository"
	apperrors "github.com/think2win/quiz-platform/internal/pkg/errors"
)

// AccessChecker проверяет, открыт ли пользователю доступ к викторине.
// Реализуется WalletService.
type AccessChecker interface {
	HasActiveAccess(userID, quizID uint) (bool, error)
}

// SubmittedAnswer — ответ пользователя на вопрос при отправке попытки
type SubmittedAnswer struct {
	QuestionID     uint
	SelectedOption int
}

// AttemptService принимает завершенные попытки прохождения викторины.
// Попытка сохраняется с is_evaluated = false и ждет EvaluationService.
type AttemptService struct {
	attemptRepo  repository.AttemptRepository
	quizRepo     repository.QuizRepository
	questionRepo repository.QuestionRepository
	access       AccessChecker
}

// NewAttemptService создает новый сервис попыток
func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	quizRepo repository.QuizRepository,
	questionRepo repository.QuestionRepository,
	access AccessChecker,
) *AttemptService {
	return &AttemptService{
		attemptRepo:  attemptRepo,
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		access:       access,
	}
}

// Submit сохраняет завершенную попытку пользователя вместе с ответами.
// Для платных викторин требуется активный грант доступа. Повторная отправка
// попытки на ту же викторину отклоняется.
func (s *AttemptService) Submit(userID, quizID uint, answers []SubmittedAnswer) (*entity.QuizAttempt, error) {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}

	if !quiz.IsFree() {
		ok, err := s.access.HasActiveAccess(userID, quizID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAccessDenied
		}
	}

	if existing, err := s.attemptRepo.GetByUserAndQuiz(userID, quizID); err == nil && existing != nil {
		return nil, ErrAttemptExists
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	// Ответы должны ссылаться на вопросы этой викторины с допустимым вариантом
	questions, err := s.questionRepo.GetByQuizID(quizID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*entity.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	attempt := &entity.QuizAttempt{
		UserID:      userID,
		QuizID:      quizID,
		IsCompleted: true,
	}
	seen := make(map[uint]bool, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return nil, fmt.Errorf("%w: question %d does not belong to quiz %d", apperrors.ErrValidation, a.QuestionID, quizID)
		}
		if !q.IsValidOption(a.SelectedOption) {
			return nil, fmt.Errorf("%w: option %d out of range for question %d", apperrors.ErrValidation, a.SelectedOption, a.QuestionID)
		}
		if seen[a.QuestionID] {
			return nil, fmt.Errorf("%w: duplicate answer for question %d", apperrors.ErrValidation, a.QuestionID)
		}
		seen[a.QuestionID] = true
		attempt.Answers = append(attempt.Answers, entity.Answer{
			QuestionID:     a.QuestionID,
			SelectedOption: a.SelectedOption,
		})
	}

	if err := s.attemptRepo.CreateWithAnswers(attempt); err != nil {
		return nil, err
	}

	log.Printf("[AttemptService] Пользователь #%d отправил попытку #%d для викторины #%d (%d ответов)", userID, attempt.ID, quizID, len(attempt.Answers))
	return attempt, nil
}

// GetUserResult возвращает попытку пользователя для викторины.
// Score имеет смысл только после того, как попытка оценена.
func (s *AttemptService) GetUserResult(userID, quizID uint) (*entity.QuizAttempt, error) {
	attempt, err := s.attemptRepo.GetByUserAndQuiz(userID, quizID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return attempt, nil
}
