package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/think2win/quiz-platform/internal/pkg/errors"
	"github.com/think2win/quiz-platform/internal/service"
)

// EvaluationHandler обрабатывает административные запросы оценки викторин
type EvaluationHandler struct {
	evaluationService *service.EvaluationService
}

// NewEvaluationHandler создает новый обработчик оценки
func NewEvaluationHandler(evaluationService *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluationService: evaluationService}
}

// EvaluateRequest представляет запрос на оценку викторины
type EvaluateRequest struct {
	QuizID uint `json:"quizId" binding:"required"`
	// CorrectAnswers: questionId (строкой, как приходит из JSON) -> индекс варианта
	CorrectAnswers map[string]int `json:"correctAnswers" binding:"required,min=1"`
}

// Evaluate обрабатывает POST /api/admin/quiz-evaluation
func (h *EvaluationHandler) Evaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// JSON-ключи объектов всегда строки; приводим к uint до вызова сервиса
	answerKey := make(map[uint]int, len(req.CorrectAnswers))
	for idStr, option := range req.CorrectAnswers {
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid question id %q", idStr)})
			return
		}
		if option < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid option index %d for question %s", option, idStr)})
			return
		}
		answerKey[uint(id)] = option
	}

	summary, err := h.evaluationService.Evaluate(req.QuizID, answerKey)
	if err != nil {
		h.handleEvaluationError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ExportReport экспортирует отчет по оцененным попыткам в CSV или Excel.
// GET /api/admin/quizzes/:id/evaluation-report?format=csv|xlsx
func (h *EvaluationHandler) ExportReport(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	format := c.DefaultQuery("format", "csv")

	rows, err := h.evaluationService.BuildReport(quizID)
	if err != nil {
		h.handleEvaluationError(c, err)
		return
	}

	filename := fmt.Sprintf("quiz_%d_evaluation_%s", quizID, time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, rows, filename)
	default:
		h.exportCSV(c, rows, filename)
	}
}

// exportCSV пишет отчет в CSV с корректным экранированием спецсимволов
func (h *EvaluationHandler) exportCSV(c *gin.Context, rows []service.ReportRow, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Попытка", "Пользователь", "Имя", "Правильных", "Всего вопросов", "Процент"})

	for _, r := range rows {
		writer.Write([]string{
			strconv.FormatUint(uint64(r.AttemptID), 10),
			strconv.FormatUint(uint64(r.UserID), 10),
			r.Username,
			strconv.Itoa(r.CorrectAnswers),
			strconv.Itoa(r.TotalQuestions),
			strconv.Itoa(r.Percentage),
		})
	}
}

// exportXLSX пишет отчет в Excel через StreamWriter
func (h *EvaluationHandler) exportXLSX(c *gin.Context, rows []service.ReportRow, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Результаты"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[EvaluationHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"Попытка", "Пользователь", "Имя", "Правильных", "Всего вопросов", "Процент"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[EvaluationHandler] Ошибка записи заголовков: %v", err)
	}

	for i, r := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{r.AttemptID, r.UserID, r.Username, r.CorrectAnswers, r.TotalQuestions, r.Percentage}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[EvaluationHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[EvaluationHandler] Ошибка завершения StreamWriter: %v", err)
		return
	}
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[EvaluationHandler] Ошибка записи файла в ответ: %v", err)
	}
}

// handleEvaluationError транслирует ошибки сервиса оценки в HTTP-ответы
func (h *EvaluationHandler) handleEvaluationError(c *gin.Context, err error) {
	var incompleteErr *service.IncompleteAnswerKeyError

	switch {
	case errors.As(err, &incompleteErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":            "IncompleteAnswerKey",
			"missingQuestions": incompleteErr.MissingQuestionIDs,
		})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrQuizNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "QuizNotFound"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "TransactionFailed"})
	}
}
