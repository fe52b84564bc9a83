// auth.go — обработчики регистрации и входа.
// POST /api/signup и POST /api/login — открытые endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	apierrors "github.com/ZeonEndOnly/Local-Photobank/internal/api/errors"
	"github.com/ZeonEndOnly/Local-Photobank/internal/service"
)

// credentialsRequest — тело запроса signup/login.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse — ответ успешного входа.
type loginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

// Signup — POST /api/signup.
// Регистрирует пользователя с ролью user и возвращает 201.
func (h *APIHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		apierrors.ValidationError(w, "Требуются username и password")
		return
	}

	user, err := h.auth.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			apierrors.Conflict(w, "Имя пользователя уже занято")
		case errors.Is(err, service.ErrInvalidInput):
			apierrors.ValidationError(w, err.Error())
		default:
			h.logger.Error("Ошибка регистрации", "username", req.Username, "error", err)
			apierrors.InternalError(w, "Ошибка регистрации пользователя")
		}
		return
	}

	writeJSON(w, http.StatusCreated, mapUser(user))
}

// Login — POST /api/login.
// Проверяет учётные данные и возвращает JWT-токен.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	if req.Username == "" || req.Password == "" {
		apierrors.ValidationError(w, "Требуются username и password")
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apierrors.Unauthorized(w, "Неверное имя пользователя или пароль")
			return
		}
		h.logger.Error("Ошибка входа", "username", req.Username, "error", err)
		apierrors.InternalError(w, "Ошибка входа")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  mapUser(user),
	})
}
