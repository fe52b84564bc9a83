package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ZeonEndOnly/Local-Photobank/internal/domain/model"
	"github.com/ZeonEndOnly/Local-Photobank/internal/repository"
)

// mockUserRepo — мок UserRepository для unit-тестов.
type mockUserRepo struct {
	createFn         func(ctx context.Context, u *model.User) error
	getByIDFn        func(ctx context.Context, id string) (*model.User, error)
	getByUsernameFn  func(ctx context.Context, username string) (*model.User, error)
	listFn           func(ctx context.Context) ([]*model.User, error)
	deleteFn         func(ctx context.Context, id string) error
	touchLastLoginFn func(ctx context.Context, id string) error
}

func (m *mockUserRepo) Create(ctx context.Context, u *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) TouchLastLogin(ctx context.Context, id string) error {
	if m.touchLastLoginFn != nil {
		return m.touchLastLoginFn(ctx, id)
	}
	return nil
}

// --- Тесты UserAdminService ---

// TestUserAdminService_Create проверяет создание пользователя:
// пароль хэшируется bcrypt, роль сохраняется.
func TestUserAdminService_Create(t *testing.T) {
	var created *model.User
	users := &mockUserRepo{
		createFn: func(_ context.Context, u *model.User) error {
			created = u
			return nil
		},
	}

	svc := NewUserAdminService(users, &mockMediaRepo{}, newTestStore(t), NewCacheService(10, time.Minute), slog.Default())

	user, err := svc.Create(context.Background(), "maria", "секретный-пароль", model.RoleAdmin)
	if err != nil {
		t.Fatalf("Create ошибка: %v", err)
	}

	if user.Role != model.RoleAdmin {
		t.Errorf("Role = %q, ожидался admin", user.Role)
	}
	if created == nil {
		t.Fatal("Create репозитория не вызван")
	}
	if created.PasswordHash == "секретный-пароль" {
		t.Error("пароль сохранён открытым текстом")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("секретный-пароль")); err != nil {
		t.Errorf("bcrypt-хэш не совпадает с паролем: %v", err)
	}
}

// TestUserAdminService_Create_NormalizesRole проверяет приведение
// неизвестной роли к user.
func TestUserAdminService_Create_NormalizesRole(t *testing.T) {
	svc := NewUserAdminService(&mockUserRepo{}, &mockMediaRepo{}, newTestStore(t), NewCacheService(10, time.Minute), slog.Default())

	user, err := svc.Create(context.Background(), "petr", "пароль", "superuser")
	if err != nil {
		t.Fatalf("Create ошибка: %v", err)
	}
	if user.Role != model.RoleUser {
		t.Errorf("Role = %q, неизвестная роль должна приводиться к user", user.Role)
	}
}

// TestUserAdminService_Create_UsernameTaken проверяет маппинг конфликта
// уникальности в ErrUsernameTaken.
func TestUserAdminService_Create_UsernameTaken(t *testing.T) {
	users := &mockUserRepo{
		createFn: func(_ context.Context, _ *model.User) error {
			return repository.ErrConflict
		},
	}

	svc := NewUserAdminService(users, &mockMediaRepo{}, newTestStore(t), NewCacheService(10, time.Minute), slog.Default())

	_, err := svc.Create(context.Background(), "maria", "пароль", model.RoleUser)
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("Create err = %v, ожидался ErrUsernameTaken", err)
	}
}

// TestUserAdminService_Delete_Self проверяет запрет самоудаления.
func TestUserAdminService_Delete_Self(t *testing.T) {
	users := &mockUserRepo{
		deleteFn: func(_ context.Context, _ string) error {
			t.Error("Delete репозитория не должен вызываться при самоудалении")
			return nil
		},
	}

	svc := NewUserAdminService(users, &mockMediaRepo{}, newTestStore(t), NewCacheService(10, time.Minute), slog.Default())

	err := svc.Delete(context.Background(), "admin-1", "admin-1")
	if !errors.Is(err, ErrSelfDeletion) {
		t.Errorf("Delete err = %v, ожидался ErrSelfDeletion", err)
	}
}

// TestUserAdminService_Delete_NotFound проверяет отказ на
// несуществующем пользователе.
func TestUserAdminService_Delete_NotFound(t *testing.T) {
	svc := NewUserAdminService(&mockUserRepo{}, &mockMediaRepo{}, newTestStore(t), NewCacheService(10, time.Minute), slog.Default())

	err := svc.Delete(context.Background(), "missing", "admin-1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete err = %v, ожидался ErrNotFound", err)
	}
}

// TestUserAdminService_Delete_CascadesBlobs проверяет, что при удалении
// пользователя его blob-объекты удаляются и кэш инвалидируется.
func TestUserAdminService_Delete_CascadesBlobs(t *testing.T) {
	store := newTestStore(t)
	key1 := saveTestBlob(t, store, "a.jpg", "aaa")
	key2 := saveTestBlob(t, store, "b.jpg", "bbb")

	owned := []*model.Media{
		{ID: "media-1", UserID: "user-1", StorageKey: key1},
		{ID: "media-2", UserID: "user-1", StorageKey: key2},
	}

	users := &mockUserRepo{
		getByIDFn: func(_ context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Username: "maria"}, nil
		},
	}
	media := &mockMediaRepo{
		listByOwnerFn: func(_ context.Context, _ string) ([]*model.Media, error) {
			return owned, nil
		},
	}

	cache := NewCacheService(10, time.Minute)
	cache.Set("media-1", owned[0])
	cache.Set("media-2", owned[1])

	svc := NewUserAdminService(users, media, store, cache, slog.Default())

	if err := svc.Delete(context.Background(), "user-1", "admin-1"); err != nil {
		t.Fatalf("Delete ошибка: %v", err)
	}

	if store.FileExists(key1) || store.FileExists(key2) {
		t.Error("blob-объекты пользователя не удалены")
	}
	if _, ok := cache.Get("media-1"); ok {
		t.Error("запись кэша media-1 не инвалидирована")
	}
	if _, ok := cache.Get("media-2"); ok {
		t.Error("запись кэша media-2 не инвалидирована")
	}
}
