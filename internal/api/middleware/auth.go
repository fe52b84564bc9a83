// auth.go — JWT middleware аутентификации и авторизации Photobank.
// Токены выпускаются локально (HS256) при входе и проверяются здесь же.
// Валидный токен удалённого пользователя отклоняется: существование
// пользователя перепроверяется по каталогу на каждый запрос
// (revocation-on-delete).
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/ZeonEndOnly/Local-Photobank/internal/api/errors"
	"github.com/ZeonEndOnly/Local-Photobank/internal/domain/model"
	"github.com/ZeonEndOnly/Local-Photobank/internal/repository"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyClaims — извлечённые claims в контексте запроса.
const ContextKeyClaims contextKey = "auth_claims"

// AuthClaims — проверенная идентичность запроса.
// Помещается в контекст для downstream handlers.
type AuthClaims struct {
	// UserID — UUID пользователя (sub из токена)
	UserID string
	// Username — имя пользователя
	Username string
	// IsAdmin — роль admin по данным каталога (не из токена:
	// роль могла измениться после выпуска токена)
	IsAdmin bool
}

// CanModify проверяет право на мутацию медиафайла:
// владелец или администратор.
func (c *AuthClaims) CanModify(m *model.Media) bool {
	return c.IsAdmin || m.UserID == c.UserID
}

// tokenClaims — формат claims выпускаемых токенов.
type tokenClaims struct {
	jwt.RegisteredClaims
	// Username — имя пользователя на момент выпуска токена.
	Username string `json:"username"`
}

// UserProvider — доступ к пользователям для проверки существования и роли.
// Реализуется repository.UserRepository.
type UserProvider interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// JWTAuth — выпуск и проверка JWT-токенов Photobank.
type JWTAuth struct {
	secret   []byte
	tokenTTL time.Duration
	users    UserProvider
	logger   *slog.Logger
}

// NewJWTAuth создаёт JWT middleware.
// secret — секрет подписи HS256, tokenTTL — срок жизни токена,
// users — провайдер пользователей для revocation-on-delete.
func NewJWTAuth(secret string, tokenTTL time.Duration, users UserProvider, logger *slog.Logger) *JWTAuth {
	return &JWTAuth{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		users:    users,
		logger:   logger.With(slog.String("component", "jwt_auth")),
	}
}

// Issue выпускает подписанный токен для пользователя.
func (j *JWTAuth) Issue(userID, username string) (string, error) {
	now := time.Now()
	claims := &tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, nil
}

// Middleware возвращает HTTP middleware аутентификации.
// Извлекает Bearer token, валидирует подпись и срок, перепроверяет
// существование пользователя в каталоге и помещает AuthClaims в контекст.
func (j *JWTAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Извлекаем Bearer token
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Отсутствует заголовок Authorization")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				apierrors.Unauthorized(w, "Неверный формат Authorization: ожидается Bearer <token>")
				return
			}

			tokenString := parts[1]
			if tokenString == "" {
				apierrors.Unauthorized(w, "Пустой Bearer token")
				return
			}

			// Парсинг и валидация подписи
			rawClaims := &tokenClaims{}
			token, err := jwt.ParseWithClaims(tokenString, rawClaims,
				func(_ *jwt.Token) (any, error) { return j.secret, nil },
				jwt.WithValidMethods([]string{"HS256"}),
				jwt.WithExpirationRequired(),
			)
			if err != nil || !token.Valid {
				j.logger.Debug("JWT валидация не пройдена",
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
				return
			}

			subject, err := rawClaims.GetSubject()
			if err != nil || subject == "" {
				apierrors.Unauthorized(w, "Отсутствует sub в токене")
				return
			}

			// Revocation-on-delete: токен удалённого пользователя
			// отклоняется даже до истечения срока. Заодно получаем
			// актуальную роль.
			user, err := j.users.GetByID(r.Context(), subject)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					apierrors.Unauthorized(w, "Пользователь не существует")
					return
				}
				j.logger.Error("Ошибка проверки пользователя",
					slog.String("user_id", subject),
					slog.String("error", err.Error()),
				)
				apierrors.InternalError(w, "Ошибка проверки пользователя")
				return
			}

			claims := &AuthClaims{
				UserID:   user.ID,
				Username: user.Username,
				IsAdmin:  user.Role == model.RoleAdmin,
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin возвращает middleware, пропускающий только администраторов.
// Должен использоваться ПОСЛЕ Middleware().
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			apierrors.Unauthorized(w, "Отсутствуют claims в контексте")
			return
		}
		if !claims.IsAdmin {
			apierrors.Forbidden(w, "Требуется роль admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Context helpers ---

// ClaimsFromContext извлекает AuthClaims из контекста запроса.
// Возвращает nil, если claims не найдены.
func ClaimsFromContext(ctx context.Context) *AuthClaims {
	claims, _ := ctx.Value(ContextKeyClaims).(*AuthClaims)
	return claims
}
