package service

import (
	"errors"
	"log"
	"time"

	"github.com/think2win/quiz-platform/internal/domain/entity"
	"github.com/think2win/quiz-platform/internal/domain/repository"
	apperrors "github.com/think2win/quiz-platform/internal/pkg/errors"
)

const quizListCacheKey = "quizzes:list"

// QuizListPage — страница каталога викторин
type QuizListPage struct {
	Quizzes []entity.Quiz `json:"quizzes"`
	Total   int64         `json:"total"`
}

// QuizService предоставляет чтение каталога викторин.
// Первая страница каталога кешируется в Redis с TTL из конфигурации;
// кеш промахивается насквозь при любой ошибке Redis.
type QuizService struct {
	quizRepo  repository.QuizRepository
	cacheRepo repository.CacheRepository
	cacheTTL  time.Duration
}

// NewQuizService создает новый сервис викторин
func NewQuizService(quizRepo repository.QuizRepository, cacheRepo repository.CacheRepository, cacheTTL time.Duration) *QuizService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &QuizService{
		quizRepo:  quizRepo,
		cacheRepo: cacheRepo,
		cacheTTL:  cacheTTL,
	}
}

// ListQuizzes возвращает страницу каталога. Кешируется только первая
// страница с размером по умолчанию — остальные запросы идут в базу.
func (s *QuizService) ListQuizzes(page, pageSize int) (*QuizListPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}

	cacheable := page == 1 && pageSize == 20
	if cacheable && s.cacheRepo != nil {
		var cached QuizListPage
		if err := s.cacheRepo.GetJSON(quizListCacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[QuizService] WARNING: ошибка чтения кеша каталога: %v", err)
		}
	}

	quizzes, total, err := s.quizRepo.List(pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	result := &QuizListPage{Quizzes: quizzes, Total: total}

	if cacheable && s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(quizListCacheKey, result, s.cacheTTL); err != nil {
			log.Printf("[QuizService] WARNING: ошибка записи кеша каталога: %v", err)
		}
	}
	return result, nil
}

// GetQuizByID возвращает викторину по ID
func (s *QuizService) GetQuizByID(quizID uint) (*entity.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}
	return quiz, nil
}

// GetQuizWithQuestions возвращает викторину с вопросами.
// Проверка гранта доступа выполняется обработчиком через WalletService.
func (s *QuizService) GetQuizWithQuestions(quizID uint) (*entity.Quiz, error) {
	quiz, err := s.quizRepo.GetWithQuestions(quizID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}
	return quiz, nil
}
