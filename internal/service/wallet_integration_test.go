package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/think2win/quiz-platform/internal/domain/entity"
	"github.com/think2win/quiz-platform/internal/domain/repository"
	"github.com/think2win/quiz-platform/internal/repository/postgres"
)

func newWalletServiceForDB(db *gorm.DB, window time.Duration) *WalletService {
	return NewWalletService(
		postgres.NewUserRepo(db),
		postgres.NewLedgerRepo(db),
		postgres.NewAccessGrantRepo(db),
		postgres.NewQuizRepo(db),
		nil,
		db,
		window,
	)
}

func seedUserAndQuiz(t *testing.T, db *gorm.DB, balance, entryFee int64) (*entity.User, *entity.Quiz) {
	t.Helper()
	user := &entity.User{Username: uuid.NewString()[:8], Email: uuid.NewString() + "@test.kz", Role: entity.RoleUser, Balance: balance}
	require.NoError(t, db.Create(user).Error)
	quiz := &entity.Quiz{Title: "Интеграционная викторина", EntryFee: entryFee}
	require.NoError(t, db.Create(quiz).Error)
	return user, quiz
}

func TestWalletService_Deduct_TokenIdempotency(t *testing.T) {
	db := startPostgres(t)
	svc := newWalletServiceForDB(db, 24*time.Hour)
	user, quiz := seedUserAndQuiz(t, db, 50000, 10000)

	token := uuid.NewString()
	before := time.Now()
	result, err := svc.Deduct(user.ID, 10000, token, quiz.ID, "оплата доступа")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(40000), result.NewBalance)
	// Окно гранта отсчитывается от момента списания
	assert.WithinDuration(t, before.Add(24*time.Hour), result.GrantedTo, 5*time.Second)

	// Повтор с тем же токеном — отказ без мутаций
	result2, err := svc.Deduct(user.ID, 10000, token, quiz.ID, "оплата доступа")
	assert.ErrorIs(t, err, ErrDuplicateTransaction)
	assert.Nil(t, result2)

	balance, err := svc.GetBalance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40000), balance)

	var ledgerCount int64
	require.NoError(t, db.Model(&entity.LedgerEntry{}).Where("user_id = ?", user.ID).Count(&ledgerCount).Error)
	assert.Equal(t, int64(1), ledgerCount)

	hasAccess, err := svc.HasActiveAccess(user.ID, quiz.ID)
	require.NoError(t, err)
	assert.True(t, hasAccess)
}

func TestWalletService_Deduct_InsufficientBalance(t *testing.T) {
	db := startPostgres(t)
	svc := newWalletServiceForDB(db, 24*time.Hour)
	user, quiz := seedUserAndQuiz(t, db, 5000, 10000)

	result, err := svc.Deduct(user.ID, 10000, uuid.NewString(), quiz.ID, "оплата доступа")
	require.Error(t, err)
	assert.Nil(t, result)

	var insufficientErr *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, int64(10000), insufficientErr.Required)
	assert.Equal(t, int64(5000), insufficientErr.Current)

	// Баланс и журнал нетронуты
	balance, err := svc.GetBalance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), balance)

	var ledgerCount int64
	require.NoError(t, db.Model(&entity.LedgerEntry{}).Where("user_id = ?", user.ID).Count(&ledgerCount).Error)
	assert.Equal(t, int64(0), ledgerCount)

	hasAccess, err := svc.HasActiveAccess(user.ID, quiz.ID)
	require.NoError(t, err)
	assert.False(t, hasAccess)
}

// Десять конкурентных списаний по 10000 при балансе 30000: ровно три
// проходят, сумма успешных списаний не превышает стартовый баланс.
func TestWalletService_Deduct_ConcurrentBalanceInvariant(t *testing.T) {
	db := startPostgres(t)
	svc := newWalletServiceForDB(db, 24*time.Hour)
	user, quiz := seedUserAndQuiz(t, db, 30000, 10000)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Deduct(user.ID, 10000, uuid.NewString(), quiz.ID, "конкурентное списание")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var insufficientErr *InsufficientBalanceError
		require.ErrorAs(t, err, &insufficientErr, "неожиданная ошибка: %v", err)
	}
	assert.Equal(t, 3, succeeded)

	balance, err := svc.GetBalance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	var ledgerCount int64
	require.NoError(t, db.Model(&entity.LedgerEntry{}).Where("user_id = ?", user.ID).Count(&ledgerCount).Error)
	assert.Equal(t, int64(3), ledgerCount)
}

// panickyLedgerRepo ломается на проверке токена уже внутри транзакции
type panickyLedgerRepo struct {
	repository.LedgerRepository
}

func (r *panickyLedgerRepo) TokenExists(tx *gorm.DB, token string) (bool, error) {
	panic("ledger storage corrupted")
}

func TestWalletService_Deduct_PanicInTransactionReturnsError(t *testing.T) {
	db := startPostgres(t)
	svc := NewWalletService(
		postgres.NewUserRepo(db),
		&panickyLedgerRepo{LedgerRepository: postgres.NewLedgerRepo(db)},
		postgres.NewAccessGrantRepo(db),
		postgres.NewQuizRepo(db),
		nil,
		db,
		24*time.Hour,
	)
	user, quiz := seedUserAndQuiz(t, db, 50000, 10000)

	result, err := svc.Deduct(user.ID, 10000, uuid.NewString(), quiz.ID, "оплата доступа")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "panic")
	assert.False(t, errors.Is(err, ErrDuplicateTransaction))

	// Транзакция откачена, баланс не изменился
	balance, err := svc.GetBalance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), balance)
}
