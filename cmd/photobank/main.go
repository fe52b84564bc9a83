// Точка входа Photobank — сервиса семейной фотогалереи.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ZeonEndOnly/Local-Photobank/internal/api/handlers"
	"github.com/ZeonEndOnly/Local-Photobank/internal/api/middleware"
	"github.com/ZeonEndOnly/Local-Photobank/internal/config"
	"github.com/ZeonEndOnly/Local-Photobank/internal/database"
	"github.com/ZeonEndOnly/Local-Photobank/internal/repository"
	"github.com/ZeonEndOnly/Local-Photobank/internal/server"
	"github.com/ZeonEndOnly/Local-Photobank/internal/service"
	"github.com/ZeonEndOnly/Local-Photobank/internal/storage/filestore"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Photobank запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
	)

	// --- Инициализация компонентов ---

	// 1. Миграции схемы каталога
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка применения миграций", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Пул соединений PostgreSQL
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 3. Файловое хранилище
	store, err := filestore.New(cfg.DataDir)
	if err != nil {
		logger.Error("Ошибка инициализации FileStore", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Репозитории каталога
	userRepo := repository.NewUserRepository(pool)
	mediaRepo := repository.NewMediaRepository(pool)

	// 5. Кэш метаданных
	cache := service.NewCacheService(cfg.CacheSize, cfg.CacheTTL)

	// 6. JWT (пользователь перепроверяется в каталоге на каждом запросе)
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret, cfg.TokenTTL, userRepo, logger)

	// 7. Сервисы
	authSvc := service.NewAuthService(userRepo, jwtAuth, logger)
	uploadSvc := service.NewUploadService(mediaRepo, store, cfg.MaxBatchBytes, cfg.MaxBatchFiles, logger)
	querySvc := service.NewQueryService(mediaRepo, logger)
	downloadSvc := service.NewDownloadService(mediaRepo, cache, store, logger)
	mediaSvc := service.NewMediaService(mediaRepo, store, cache, logger)
	userAdminSvc := service.NewUserAdminService(userRepo, mediaRepo, store, cache, logger)

	// 8. Handlers
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool))
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		authSvc,
		uploadSvc,
		querySvc,
		downloadSvc,
		mediaSvc,
		userAdminSvc,
		cfg.MaxBatchBytes,
		logger,
	)

	// 9. HTTP-сервер (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Photobank остановлен")
}
