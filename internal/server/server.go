// Пакет server — HTTP-сервер Photobank с graceful shutdown.
// Без TLS — HTTP за реверс-прокси домашней сети.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/ZeonEndOnly/Local-Photobank/internal/api/handlers"
	"github.com/ZeonEndOnly/Local-Photobank/internal/api/middleware"
	"github.com/ZeonEndOnly/Local-Photobank/internal/config"
)

// Server — HTTP-сервер Photobank.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// jwtAuth защищает закрытые маршруты; отдача содержимого
// GET /api/media/{mediaID} и health/metrics остаются открытыми.
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, jwtAuth *middleware.JWTAuth) *Server {
	router := chi.NewRouter()

	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Открытые endpoints
	router.Get("/health/live", handler.HealthLive)
	router.Get("/health/ready", handler.HealthReady)
	router.Get("/metrics", handler.GetMetrics)

	router.Post("/api/signup", handler.Signup)
	router.Post("/api/login", handler.Login)

	// Содержимое inline открыто: <img>/<video> теги браузера
	// не передают заголовок Authorization.
	router.Get("/api/media/{mediaID}", handler.GetMediaContent)

	// Закрытые endpoints (JWT)
	router.Group(func(r chi.Router) {
		r.Use(jwtAuth.Middleware())

		r.Post("/api/upload", handler.UploadMedia)
		r.Get("/api/media", handler.ListMedia)
		r.Get("/api/media/{mediaID}/download", handler.DownloadMedia)
		r.Delete("/api/media/{mediaID}", handler.DeleteMedia)
		r.Get("/api/folders", handler.ListFolders)
		r.Get("/api/disk-usage", handler.GetDiskUsage)

		// Управление пользователями (только admin)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/api/users", handler.ListUsers)
			r.Post("/api/users", handler.CreateUser)
			r.Delete("/api/users/{userID}", handler.DeleteUser)
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
