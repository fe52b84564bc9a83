// users.go — административное управление пользователями.
// Удаление пользователя каскадно удаляет его медиафайлы: сначала
// blob-объекты, затем строка пользователя (записи каталога и роль
// удаляются каскадом на уровне БД).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ZeonEndOnly/Local-Photobank/internal/domain/model"
	"github.com/ZeonEndOnly/Local-Photobank/internal/repository"
	"github.com/ZeonEndOnly/Local-Photobank/internal/storage/filestore"
)

// UserAdminService — операции администратора над пользователями.
type UserAdminService struct {
	users  repository.UserRepository
	media  repository.MediaRepository
	store  *filestore.FileStore
	cache  *CacheService
	logger *slog.Logger
}

// NewUserAdminService создаёт сервис управления пользователями.
func NewUserAdminService(
	users repository.UserRepository,
	media repository.MediaRepository,
	store *filestore.FileStore,
	cache *CacheService,
	logger *slog.Logger,
) *UserAdminService {
	return &UserAdminService{
		users:  users,
		media:  media,
		store:  store,
		cache:  cache,
		logger: logger.With(slog.String("component", "user_admin_service")),
	}
}

// List возвращает всех пользователей с ролями.
func (s *UserAdminService) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("список пользователей: %w", err)
	}
	return users, nil
}

// Create создаёт пользователя с указанной ролью.
// Любое значение роли кроме admin приводится к user.
func (s *UserAdminService) Create(ctx context.Context, username, password, role string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: имя пользователя и пароль обязательны", ErrInvalidInput)
	}

	if role != model.RoleAdmin {
		role = model.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	s.logger.Info("Пользователь создан администратором",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.String("role", user.Role),
	)

	return user, nil
}

// Delete удаляет пользователя и все его медиафайлы.
// Самоудаление запрещено (ErrSelfDeletion). Blob-объекты удаляются
// до строки пользователя; записи каталога убирает каскад БД.
func (s *UserAdminService) Delete(ctx context.Context, targetID, requesterID string) error {
	if targetID == requesterID {
		return ErrSelfDeletion
	}

	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("получение пользователя: %w", err)
	}

	owned, err := s.media.ListByOwner(ctx, targetID)
	if err != nil {
		return fmt.Errorf("список медиафайлов пользователя: %w", err)
	}

	// Удаляем blob-объекты. Ошибка одного объекта не прерывает
	// остальные: осиротевший blob недостижим после удаления строки
	// каталога, потеря пользователя хуже.
	for _, m := range owned {
		if err := s.store.DeleteFile(m.StorageKey); err != nil {
			s.logger.Error("Не удалось удалить blob при каскадном удалении",
				slog.String("media_id", m.ID),
				slog.String("storage_key", m.StorageKey),
				slog.String("error", err.Error()),
			)
		}
		s.cache.Delete(m.ID)
	}

	if err := s.users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление пользователя: %w", err)
	}

	s.logger.Info("Пользователь удалён",
		slog.String("user_id", targetID),
		slog.String("requester", requesterID),
		slog.Int("media_removed", len(owned)),
	)

	return nil
}
