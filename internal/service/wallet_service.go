package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/think2win/quiz-platform/internal/domain/entity"
	"github.com/think2win/quiz-platform/internal/domain/repository"
	apperrors "github.com/think2win/quiz-platform/internal/pkg/errors"
)

// WalletService выполняет транзакционные операции с балансом пользователя:
// атомарное списание с выдачей гранта доступа и чтение истории журнала.
type WalletService struct {
	userRepo   repository.UserRepository
	ledgerRepo repository.LedgerRepository
	grantRepo  repository.AccessGrantRepository
	quizRepo   repository.QuizRepository
	cacheRepo  repository.CacheRepository
	db         *gorm.DB

	// accessWindow — длительность действия гранта доступа (24h по умолчанию)
	accessWindow time.Duration
}

// NewWalletService создает новый сервис кошелька
func NewWalletService(
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerRepository,
	grantRepo repository.AccessGrantRepository,
	quizRepo repository.QuizRepository,
	cacheRepo repository.CacheRepository,
	db *gorm.DB,
	accessWindow time.Duration,
) *WalletService {
	if accessWindow <= 0 {
		accessWindow = 24 * time.Hour
	}
	return &WalletService{
		userRepo:     userRepo,
		ledgerRepo:   ledgerRepo,
		grantRepo:    grantRepo,
		quizRepo:     quizRepo,
		cacheRepo:    cacheRepo,
		db:           db,
		accessWindow: accessWindow,
	}
}

// DeductResult — итог успешного списания
type DeductResult struct {
	NewBalance int64
	GrantedTo  time.Time
}

// Deduct атомарно списывает amount с баланса пользователя, записывает
// LedgerEntry и выдает AccessGrant на викторину с окном accessWindow.
//
// Идемпотентный токен обязателен: повтор с тем же токеном возвращает
// ErrDuplicateTransaction, баланс не меняется. Проверка и декремент баланса
// выполняются под блокировкой строки пользователя, поэтому два конкурентных
// списания сериализуются и сумма успешных списаний никогда не превышает
// стартовый баланс.
func (s *WalletService) Deduct(userID uint, amount int64, token string, quizID uint, note string) (result *DeductResult, err error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if token == "" {
		return nil, ErrMissingToken
	}
	// Токен должен быть клиентским UUID: это исключает "токены" из таймстампов,
	// которые не защищают от двойной отправки.
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrMissingToken
	}

	// Пользователь и викторина должны существовать (до открытия транзакции)
	if _, err := s.userRepo.GetByID(userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if _, err := s.quizRepo.GetByID(quizID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}

	// === Начало транзакции ===
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			log.Printf("PANIC recovered during Deduct transaction for user #%d: %v", userID, r)
			result = nil
			err = fmt.Errorf("transaction failed: panic: %v", r)
		}
	}()
	if tx.Error != nil {
		return nil, fmt.Errorf("transaction failed: %w", tx.Error)
	}

	// 1. Дубликат токена — отклоняем до какой-либо мутации
	exists, err := s.ledgerRepo.TokenExists(tx, token)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("transaction failed: %w", err)
	}
	if exists {
		tx.Rollback()
		return nil, ErrDuplicateTransaction
	}

	// 2. Читаем баланс под блокировкой строки: конкурентное списание
	// не увидит значение до нашего коммита
	user, err := s.userRepo.GetForUpdate(tx, userID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("transaction failed: %w", err)
	}

	// 3. Недостаток средств — ожидаемый исход, откатываемся без мутаций
	if user.Balance < amount {
		tx.Rollback()
		return nil, &InsufficientBalanceError{Required: amount, Current: user.Balance}
	}

	// 4. Декремент баланса, запись журнала, грант доступа
	if err := s.userRepo.DecrementBalance(tx, userID, amount); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("transaction failed: %w", err)
	}

	now := time.Now()
	entry := &entity.LedgerEntry{
		UserID:           userID,
		Amount:           -amount,
		IdempotencyToken: token,
		Status:           entity.LedgerStatusApproved,
		QuizID:           &quizID,
		Note:             note,
	}
	if err := s.ledgerRepo.Create(tx, entry); err != nil {
		tx.Rollback()
		// Уникальный индекс поймал гонку между TokenExists и вставкой
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, ErrDuplicateTransaction
		}
		return nil, fmt.Errorf("transaction failed: %w", err)
	}

	grant := &entity.AccessGrant{
		UserID:           userID,
		QuizID:           quizID,
		AmountCharged:    amount,
		IdempotencyToken: token,
		ExpiresAt:        now.Add(s.accessWindow),
	}
	if err := s.grantRepo.Create(tx, grant); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("transaction failed: %w", err)
	}

	// === Коммит транзакции ===
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("transaction failed: %w", err)
	}

	result = &DeductResult{
		NewBalance: user.Balance - amount,
		GrantedTo:  grant.ExpiresAt,
	}

	// Инвалидация кешированного состояния доступа — best-effort ПОСЛЕ коммита.
	// Неудача не откатывает списание, но и не замалчивается.
	s.invalidateAccessCache(userID, quizID)

	log.Printf("[WalletService] Списание %d у пользователя #%d по токену %s, новый баланс %d", amount, userID, token, result.NewBalance)
	return result, nil
}

// GetBalance возвращает текущий баланс пользователя
func (s *WalletService) GetBalance(userID uint) (int64, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return user.Balance, nil
}

// GetLedger возвращает историю журнала пользователя с пагинацией
func (s *WalletService) GetLedger(userID uint, page, pageSize int) ([]entity.LedgerEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	} else if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize
	return s.ledgerRepo.ListByUser(userID, pageSize, offset)
}

// HasActiveAccess проверяет, открыт ли пользователю доступ к викторине.
// Бесплатные викторины доступны всем; для платных нужен неистекший грант.
func (s *WalletService) HasActiveAccess(userID, quizID uint) (bool, error) {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, ErrQuizNotFound
		}
		return false, err
	}
	if quiz.IsFree() {
		return true, nil
	}

	grant, err := s.grantRepo.GetLatest(userID, quizID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return grant.Active(time.Now()), nil
}

// invalidateAccessCache сбрасывает кешированное представление доступа
// пользователя к викторине. Ошибка логируется и проглатывается.
func (s *WalletService) invalidateAccessCache(userID, quizID uint) {
	if s.cacheRepo == nil {
		return
	}
	key := fmt.Sprintf("quiz:%d:access:%d", quizID, userID)
	if err := s.cacheRepo.Delete(key); err != nil {
		log.Printf("[WalletService] WARNING: не удалось инвалидировать кеш %s: %v", key, err)
	}
}
