package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	migrateV4 "github.com/golang-migrate/migrate/v4"
	migratePostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// startPostgres поднимает контейнер PostgreSQL, применяет миграции и
// возвращает готовый *gorm.DB. Без Docker (или с -short) тесты пропускаются.
// Интеграционные тесты покрывают транзакционные ветки, недоступные
// юнит-тестам с db = nil.
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("интеграционные тесты пропускаются в -short режиме")
	}

	ctx := context.Background()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker недоступен: %v", err)
	}

	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker недоступен: %v", err)
		}
		t.Fatalf("запуск postgres: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("порт контейнера: %v", err)
	}

	dsn := fmt.Sprintf("host=%s port=%s user=quiz password=quizpass dbname=quizdb sslmode=disable", host, port.Port())
	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("подключение gorm: %v", err)
	}

	applyMigrations(t, db)
	return db
}

// applyMigrations прогоняет боевые SQL-миграции, чтобы тесты работали
// с теми же индексами и CHECK-ограничениями, что и продакшен
func applyMigrations(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("получение *sql.DB: %v", err)
	}
	driver, err := migratePostgres.WithInstance(sqlDB, &migratePostgres.Config{})
	if err != nil {
		t.Fatalf("драйвер migrate: %v", err)
	}
	m, err := migrateV4.NewWithDatabaseInstance("file://../../migrations", "postgres", driver)
	if err != nil {
		t.Fatalf("инстанс migrate: %v", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrateV4.ErrNoChange) {
		t.Fatalf("применение миграций: %v", err)
	}
}
