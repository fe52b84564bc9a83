// auth.go — сервис регистрации и входа пользователей.
// Пароли хранятся как bcrypt-хэши; токены выпускает middleware.JWTAuth.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/crypto/bcrypt"

	"github.com/ZeonEndOnly/Local-Photobank/internal/api/middleware"
	"github.com/ZeonEndOnly/Local-Photobank/internal/domain/model"
	"github.com/ZeonEndOnly/Local-Photobank/internal/repository"
)

// bcryptCost — стоимость хэширования пароля.
const bcryptCost = 10

// Prometheus-метрики аутентификации.
var (
	signupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pb_signups_total",
		Help: "Общее количество успешных регистраций.",
	})
	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pb_logins_total",
		Help: "Общее количество попыток входа (по статусу).",
	}, []string{"status"})
)

// AuthService — регистрация, вход и выпуск токенов.
type AuthService struct {
	users  repository.UserRepository
	tokens *middleware.JWTAuth
	logger *slog.Logger
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(
	users repository.UserRepository,
	tokens *middleware.JWTAuth,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger.With(slog.String("component", "auth_service")),
	}
}

// Signup регистрирует нового пользователя с ролью user.
// Возвращает ErrUsernameTaken при дублирующемся имени.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: имя пользователя и пароль обязательны", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	signupsTotal.Inc()
	s.logger.Info("Пользователь зарегистрирован",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login проверяет учётные данные и выпускает токен.
// Возвращает ErrInvalidCredentials и при неизвестном имени, и при
// неверном пароле — причину отказа наружу не различаем.
func (s *AuthService) Login(ctx context.Context, username, password string) (token string, user *model.User, err error) {
	user, err = s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			loginsTotal.WithLabelValues("invalid").Inc()
			return "", nil, ErrInvalidCredentials
		}
		loginsTotal.WithLabelValues("error").Inc()
		return "", nil, fmt.Errorf("поиск пользователя: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		loginsTotal.WithLabelValues("invalid").Inc()
		return "", nil, ErrInvalidCredentials
	}

	// Best-effort обновление времени входа: ошибка логируется,
	// но вход не блокирует.
	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("Не удалось обновить last_login",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	token, err = s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		loginsTotal.WithLabelValues("error").Inc()
		return "", nil, fmt.Errorf("выпуск токена: %w", err)
	}

	loginsTotal.WithLabelValues("success").Inc()
	s.logger.Info("Пользователь вошёл",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return token, user, nil
}
