// users.go — обработчики /api/users endpoints (только admin).
// Доступ ограничен middleware.RequireAdmin на уровне роутера.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/ZeonEndOnly/Local-Photobank/internal/api/errors"
	"github.com/ZeonEndOnly/Local-Photobank/internal/api/middleware"
	"github.com/ZeonEndOnly/Local-Photobank/internal/service"
)

// createUserRequest — тело запроса создания пользователя.
type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// userListResponse — ответ списка пользователей.
type userListResponse struct {
	Items []userView `json:"items"`
	Total int        `json:"total"`
}

// ListUsers — GET /api/users.
// Возвращает всех пользователей с ролями.
func (h *APIHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userAdmin.List(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения списка пользователей", "error", err)
		apierrors.InternalError(w, "Ошибка получения списка пользователей")
		return
	}

	items := make([]userView, 0, len(users))
	for _, u := range users {
		items = append(items, mapUser(u))
	}

	writeJSON(w, http.StatusOK, userListResponse{Items: items, Total: len(items)})
}

// CreateUser — POST /api/users.
// Создаёт пользователя с заданной ролью (любое значение кроме admin
// нормализуется в user).
func (h *APIHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		apierrors.ValidationError(w, "Требуются username и password")
		return
	}

	user, err := h.userAdmin.Create(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			apierrors.Conflict(w, "Имя пользователя уже занято")
		case errors.Is(err, service.ErrInvalidInput):
			apierrors.ValidationError(w, err.Error())
		default:
			h.logger.Error("Ошибка создания пользователя", "username", req.Username, "error", err)
			apierrors.InternalError(w, "Ошибка создания пользователя")
		}
		return
	}

	writeJSON(w, http.StatusCreated, mapUser(user))
}

// DeleteUser — DELETE /api/users/{userID}.
// Удаляет пользователя вместе со всеми его медиафайлами (blob'ы и
// записи каталога). Удаление собственной учётной записи запрещено.
func (h *APIHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	userID := chi.URLParam(r, "userID")

	if err := h.userAdmin.Delete(r.Context(), userID, claims.UserID); err != nil {
		switch {
		case errors.Is(err, service.ErrSelfDeletion):
			apierrors.ValidationError(w, "Удаление собственной учётной записи запрещено")
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Пользователь не найден")
		default:
			h.logger.Error("Ошибка удаления пользователя", "user_id", userID, "error", err)
			apierrors.InternalError(w, "Ошибка удаления пользователя")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
