package service

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/think2win/quiz-platform/internal/domain/entity"
	"github.com/think2win/quiz-platform/internal/domain/repository"
	apperrors "github.com/think2win/quiz-platform/internal/pkg/errors"
)

// ResultNotifier отправляет уведомление о доступности результатов викторины.
// Реализуется WebSocket-менеджером; вызывается строго после коммита.
type ResultNotifier interface {
	BroadcastToQuiz(quizID uint, event interface{}) error
}

// AttemptResult — итог оценки одной попытки
type AttemptResult struct {
	AttemptID      uint `json:"attempt_id"`
	UserID         uint `json:"user_id"`
	CorrectAnswers int  `json:"correct_answers"`
	TotalQuestions int  `json:"total_questions"`
	Percentage     int  `json:"percentage"`
}

// EvaluationSummary — итог вызова оценки
type EvaluationSummary struct {
	QuizID         uint            `json:"quiz_id"`
	EvaluatedCount int             `json:"evaluated_attempts"`
	Results        []AttemptResult `json:"results"`
}

// EvaluationService записывает ключ ответов викторины и в той же транзакции
// оценивает все еще не оцененные попытки.
type EvaluationService struct {
	quizRepo     repository.QuizRepository
	questionRepo repository.QuestionRepository
	attemptRepo  repository.AttemptRepository
	userRepo     repository.UserRepository
	db           *gorm.DB
	notifier     ResultNotifier
}

// NewEvaluationService создает новый сервис оценки
func NewEvaluationService(
	quizRepo repository.QuizRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
	userRepo repository.UserRepository,
	db *gorm.DB,
	notifier ResultNotifier,
) *EvaluationService {
	return &EvaluationService{
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		userRepo:     userRepo,
		db:           db,
		notifier:     notifier,
	}
}

// Evaluate фиксирует ключ ответов (question -> правильный вариант) и оценивает
// все завершенные попытки с is_evaluated = false. Один вызов — одна
// транзакция: либо видны все вопросы с ключом и все оцененные попытки, либо
// ничего.
//
// Ключ должен покрывать в точности вопросы викторины: неполный ключ и ключ
// с чужими вопросами отклоняются до какой-либо мутации.
//
// Повторный вызов с тем же ключом затрагивает только попытки, появившиеся
// после предыдущего вызова. Повторный вызов с ДРУГИМ ключом не переоценивает
// уже оцененные попытки: опубликованные результаты не меняются задним числом.
func (s *EvaluationService) Evaluate(quizID uint, answerKey map[uint]int) (summary *EvaluationSummary, err error) {
	// Викторина и корректность ключа проверяются до открытия транзакции
	quiz, err := s.quizRepo.GetWithQuestions(quizID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}
	if err := validateAnswerKey(quiz.Questions, answerKey, quizID); err != nil {
		return nil, err
	}

	summary = &EvaluationSummary{QuizID: quizID, Results: []AttemptResult{}}

	// === Начало транзакции ===
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			log.Printf("PANIC recovered during Evaluate transaction for quiz #%d: %v", quizID, r)
			summary = nil
			err = fmt.Errorf("transaction failed: panic: %v", r)
		}
	}()
	if tx.Error != nil {
		return nil, fmt.Errorf("transaction failed: %w", tx.Error)
	}

	// Блокировка строки викторины сериализует конкурентные вызовы оценки
	if _, err := s.quizRepo.LockForEvaluation(tx, quizID); err != nil {
		tx.Rollback()
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("transaction failed: %w", err)
	}

	// Набор вопросов перечитывается уже под блокировкой: вопрос, добавленный
	// между предварительной проверкой и блокировкой, не должен оцениваться
	// по устаревшему счетчику
	questions, err := s.questionRepo.ListForEvaluation(tx, quizID)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("transaction failed: %w", err)
	}
	if err := validateAnswerKey(questions, answerKey, quizID); err != nil {
		tx.Rollback()
		return nil, err
	}
	totalQuestions := len(questions)

	// 1. Фиксируем правильные варианты вопросов
	for questionID, option := range answerKey {
		if err := s.questionRepo.SetCorrectOption(tx, quizID, questionID, option); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("transaction failed: %w", err)
		}
	}

	// 2. Загружаем неоцененные попытки под блокировкой
	pending, err := s.attemptRepo.GetPendingForUpdate(tx, quizID)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("transaction failed: %w", err)
	}

	// 3. Оцениваем каждую попытку; ошибка на любой из них откатывает всё
	for i := range pending {
		attempt := &pending[i]
		correct := scoreAttempt(attempt, answerKey)
		attempt.CorrectAnswers = correct
		attempt.Score = entity.ScorePercentage(correct, totalQuestions)

		if err := s.attemptRepo.SaveEvaluation(tx, attempt); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("transaction failed: %w", err)
		}

		summary.Results = append(summary.Results, AttemptResult{
			AttemptID:      attempt.ID,
			UserID:         attempt.UserID,
			CorrectAnswers: correct,
			TotalQuestions: totalQuestions,
			Percentage:     attempt.Score,
		})
	}
	summary.EvaluatedCount = len(pending)

	// === Коммит транзакции ===
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("transaction failed: %w", err)
	}

	log.Printf("[EvaluationService] Викторина #%d: оценено попыток %d (вопросов %d)", quizID, summary.EvaluatedCount, totalQuestions)

	// Уведомление о доступности результатов — best-effort ПОСЛЕ коммита
	s.sendResultsAvailableNotification(quizID)

	return summary, nil
}

// sendResultsAvailableNotification отправляет WS-событие о доступности
// результатов. Ошибка логируется и не влияет на итог оценки.
func (s *EvaluationService) sendResultsAvailableNotification(quizID uint) {
	if s.notifier == nil {
		return
	}
	event := map[string]interface{}{
		"type": "quiz:results_available",
		"data": map[string]interface{}{"quiz_id": quizID},
	}
	if err := s.notifier.BroadcastToQuiz(quizID, event); err != nil {
		log.Printf("[EvaluationService] WARNING: не удалось отправить quiz:results_available для викторины #%d: %v", quizID, err)
	}
}

// ReportRow — строка отчета по оцененным попыткам викторины
type ReportRow struct {
	AttemptID      uint
	UserID         uint
	Username       string
	CorrectAnswers int
	TotalQuestions int
	Percentage     int
}

// BuildReport собирает отчет по всем оцененным попыткам викторины
// для экспорта администратором.
func (s *EvaluationService) BuildReport(quizID uint) ([]ReportRow, error) {
	quiz, err := s.quizRepo.GetWithQuestions(quizID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}
	totalQuestions := len(quiz.Questions)

	attempts, err := s.attemptRepo.GetEvaluatedByQuiz(quizID)
	if err != nil {
		return nil, err
	}

	rows := make([]ReportRow, 0, len(attempts))
	usernames := make(map[uint]string, len(attempts))
	for i := range attempts {
		a := &attempts[i]
		name, ok := usernames[a.UserID]
		if !ok {
			user, err := s.userRepo.GetByID(a.UserID)
			if err != nil {
				log.Printf("[EvaluationService] WARNING: не удалось загрузить пользователя #%d для отчета: %v", a.UserID, err)
				name = ""
			} else {
				name = user.Username
			}
			usernames[a.UserID] = name
		}
		rows = append(rows, ReportRow{
			AttemptID:      a.ID,
			UserID:         a.UserID,
			Username:       name,
			CorrectAnswers: a.CorrectAnswers,
			TotalQuestions: totalQuestions,
			Percentage:     a.Score,
		})
	}
	return rows, nil
}

// validateAnswerKey проверяет, что ключ покрывает в точности вопросы
// викторины: без пропусков и без чужих вопросов
func validateAnswerKey(questions []entity.Question, answerKey map[uint]int, quizID uint) error {
	if missing := missingQuestionIDs(questions, answerKey); len(missing) > 0 {
		return &IncompleteAnswerKeyError{MissingQuestionIDs: missing}
	}
	if unknown := unknownQuestionIDs(questions, answerKey); len(unknown) > 0 {
		return fmt.Errorf("%w: answer key contains questions not in quiz %d: %v", apperrors.ErrValidation, quizID, unknown)
	}
	return nil
}

// missingQuestionIDs возвращает ID вопросов викторины, отсутствующих в ключе
func missingQuestionIDs(questions []entity.Question, answerKey map[uint]int) []uint {
	var missing []uint
	for _, q := range questions {
		if _, ok := answerKey[q.ID]; !ok {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// unknownQuestionIDs возвращает ID из ключа, не принадлежащие викторине
func unknownQuestionIDs(questions []entity.Question, answerKey map[uint]int) []uint {
	known := make(map[uint]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}
	var unknown []uint
	for id := range answerKey {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	return unknown
}

// scoreAttempt считает правильные ответы попытки по ключу.
// Ответ без вопроса в ключе (вопрос удален после отправки попытки)
// правильным не считается.
func scoreAttempt(attempt *entity.QuizAttempt, answerKey map[uint]int) int {
	correct := 0
	for i := range attempt.Answers {
		a := &attempt.Answers[i]
		expected, ok := answerKey[a.QuestionID]
		a.IsCorrect = ok && a.SelectedOption == expected
		if a.IsCorrect {
			correct++
		}
	}
	return correct
}
