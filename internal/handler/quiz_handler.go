package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/think2win/quiz-platform/internal/handler/dto"
	apperrors "github.com/think2win/quiz-platform/internal/pkg/errors"
	"github.com/think2win/quiz-platform/internal/service"
)

// QuizHandler обрабатывает запросы каталога викторин и попыток прохождения
type QuizHandler struct {
	quizService    *service.QuizService
	attemptService *service.AttemptService
	walletService  *service.WalletService
}

// NewQuizHandler создает новый обработчик викторин
func NewQuizHandler(
	quizService *service.QuizService,
	attemptService *service.AttemptService,
	walletService *service.WalletService,
) *QuizHandler {
	return &QuizHandler{
		quizService:    quizService,
		attemptService: attemptService,
		walletService:  walletService,
	}
}

// ListQuizzes возвращает страницу каталога викторин
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.quizService.ListQuizzes(page, pageSize)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quizzes": dto.NewListQuizResponse(result.Quizzes),
		"total":   result.Total,
		"page":    page,
	})
}

// GetQuiz возвращает информацию о викторине
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint) // Получаем из контекста

	quiz, err := h.quizService.GetQuizByID(quizID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz, false))
}

// GetQuizWithQuestions возвращает викторину с вопросами.
// Для платных викторин требуется активный грант доступа.
func (h *QuizHandler) GetQuizWithQuestions(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID := c.MustGet("user_id").(uint)

	ok, err := h.walletService.HasActiveAccess(userID, quizID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "AccessDenied", "detail": "no active access grant for quiz"})
		return
	}

	quiz, err := h.quizService.GetQuizWithQuestions(quizID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz, true))
}

// SubmitAttemptRequest представляет запрос на отправку попытки
type SubmitAttemptRequest struct {
	Answers []struct {
		QuestionID     uint `json:"question_id" binding:"required"`
		SelectedOption int  `json:"selected_option" binding:"min=0"`
	} `json:"answers" binding:"required"`
}

// SubmitAttempt обрабатывает POST /api/quizzes/:id/attempts
func (h *QuizHandler) SubmitAttempt(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID := c.MustGet("user_id").(uint)

	var req SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answers := make([]service.SubmittedAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, service.SubmittedAnswer{
			QuestionID:     a.QuestionID,
			SelectedOption: a.SelectedOption,
		})
	}

	attempt, err := h.attemptService.Submit(userID, quizID, answers)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewAttemptResponse(attempt))
}

// GetMyResult обрабатывает GET /api/quizzes/:id/my-result
func (h *QuizHandler) GetMyResult(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID := c.MustGet("user_id").(uint)

	attempt, err := h.attemptService.GetUserResult(userID, quizID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt))
}

// handleQuizError транслирует ошибки сервисов викторин в HTTP-ответы
func (h *QuizHandler) handleQuizError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrQuizNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "QuizNotFound"})
	case errors.Is(err, service.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "AttemptNotFound"})
	case errors.Is(err, service.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "AccessDenied"})
	case errors.Is(err, service.ErrAttemptExists):
		c.JSON(http.StatusConflict, gin.H{"error": "AttemptAlreadySubmitted"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
