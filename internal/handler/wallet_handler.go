package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/think2win/quiz-platform/internal/handler/dto"
	"github.com/think2win/quiz-platform/internal/service"
)

// WalletHandler обрабатывает запросы кошелька
type WalletHandler struct {
	walletService *service.WalletService
}

// NewWalletHandler создает новый обработчик кошелька
func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// DeductRequest представляет запрос на списание
type DeductRequest struct {
	Amount           int64  `json:"amount" binding:"required"`
	QuizID           uint   `json:"quizId" binding:"required"`
	IdempotencyToken string `json:"idempotencyToken" binding:"required"`
	Note             string `json:"note" binding:"omitempty,max=255"`
}

// Deduct обрабатывает POST /api/wallet/deduct.
// Недостаток средств и повторный токен — ожидаемые исходы, они
// транслируются в 402 и 409, не в 500.
func (h *WalletHandler) Deduct(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req DeductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.walletService.Deduct(userID, req.Amount, req.IdempotencyToken, req.QuizID, req.Note)
	if err != nil {
		h.handleWalletError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DeductResponse{
		NewBalance: result.NewBalance,
		Message:    "deduction successful",
		AccessTo:   result.GrantedTo,
	})
}

// GetBalance обрабатывает GET /api/wallet/balance
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	balance, err := h.walletService.GetBalance(userID)
	if err != nil {
		h.handleWalletError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{Balance: balance})
}

// GetLedger обрабатывает GET /api/wallet/ledger с пагинацией
func (h *WalletHandler) GetLedger(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	entries, total, err := h.walletService.GetLedger(userID, page, pageSize)
	if err != nil {
		h.handleWalletError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewLedgerResponse(entries, total, page))
}

// handleWalletError транслирует ошибки сервиса кошелька в HTTP-ответы
func (h *WalletHandler) handleWalletError(c *gin.Context, err error) {
	var insufficientErr *service.InsufficientBalanceError

	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "InvalidAmount"})
	case errors.Is(err, service.ErrMissingToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "InvalidToken", "detail": "idempotencyToken must be a client-generated UUID"})
	case errors.As(err, &insufficientErr):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":          "InsufficientBalance",
			"requiredAmount": insufficientErr.Required,
			"currentBalance": insufficientErr.Current,
		})
	case errors.Is(err, service.ErrDuplicateTransaction):
		c.JSON(http.StatusConflict, gin.H{"error": "DuplicateTransaction"})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "UserNotFound"})
	case errors.Is(err, service.ErrQuizNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "QuizNotFound"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "TransactionFailed"})
	}
}
