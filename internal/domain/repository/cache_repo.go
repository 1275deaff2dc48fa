package repository

import "time"

// CacheRepository определяет явную абстракцию кеша: ключ -> значение с TTL
// и инвалидацией при записи. Заменяет глобальную in-memory карту с ad-hoc
// проверкой TTL, которая была в исходной версии платформы.
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
}
