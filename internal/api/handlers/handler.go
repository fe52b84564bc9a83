// handler.go — основной обработчик HTTP API Photobank.
// Объединяет health и бизнес-обработчики, делегируя запросы
// в сервисный слой.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ZeonEndOnly/Local-Photobank/internal/domain/model"
	"github.com/ZeonEndOnly/Local-Photobank/internal/service"
)

// APIHandler — основной обработчик API Photobank.
type APIHandler struct {
	health    *HealthHandler
	auth      *service.AuthService
	upload    *service.UploadService
	query     *service.QueryService
	download  *service.DownloadService
	media     *service.MediaService
	userAdmin *service.UserAdminService

	// maxBatchBytes дублирует лимит сервиса загрузки для
	// MaxBytesReader на уровне транспорта
	maxBatchBytes int64

	logger *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	auth *service.AuthService,
	upload *service.UploadService,
	query *service.QueryService,
	download *service.DownloadService,
	media *service.MediaService,
	userAdmin *service.UserAdminService,
	maxBatchBytes int64,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:        health,
		auth:          auth,
		upload:        upload,
		query:         query,
		download:      download,
		media:         media,
		userAdmin:     userAdmin,
		maxBatchBytes: maxBatchBytes,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// --- Health endpoints (делегируются в HealthHandler) ---

// HealthLive — liveness probe.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe.
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// userView — представление пользователя в ответах API.
// PasswordHash наружу не отдаётся.
type userView struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Role      string  `json:"role"`
	CreatedAt string  `json:"created_at"`
	LastLogin *string `json:"last_login"`
}

// mapUser конвертирует доменную модель пользователя в API-представление.
func mapUser(u *model.User) userView {
	v := userView{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.LastLogin != nil {
		s := u.LastLogin.UTC().Format(time.RFC3339)
		v.LastLogin = &s
	}
	return v
}
