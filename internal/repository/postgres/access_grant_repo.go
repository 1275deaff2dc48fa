package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/think2win/quiz-platform/internal/domain/entity"
	apperrors "github.com/think2win/quiz-platform/internal/pkg/errors"
)

// AccessGrantRepo реализует repository.AccessGrantRepository
type AccessGrantRepo struct {
	db *gorm.DB
}

// NewAccessGrantRepo создает новый репозиторий грантов доступа
func NewAccessGrantRepo(db *gorm.DB) *AccessGrantRepo {
	return &AccessGrantRepo{db: db}
}

// Create вставляет грант внутри транзакции tx
func (r *AccessGrantRepo) Create(tx *gorm.DB, grant *entity.AccessGrant) error {
	return tx.Create(grant).Error
}

// GetLatest возвращает самый свежий грант пользователя на викторину.
// Истекшие гранты не отфильтровываются здесь: решение об активности
// принимает вызывающая сторона через grant.Active(now).
func (r *AccessGrantRepo) GetLatest(userID, quizID uint) (*entity.AccessGrant, error) {
	var grant entity.AccessGrant
	err := r.db.Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("expires_at DESC").
		First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &grant, nil
}
