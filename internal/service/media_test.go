package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ZeonEndOnly/Local-Photobank/internal/api/middleware"
	"github.com/ZeonEndOnly/Local-Photobank/internal/domain/model"
	"github.com/ZeonEndOnly/Local-Photobank/internal/repository"
	"github.com/ZeonEndOnly/Local-Photobank/internal/storage/filestore"
)

// saveTestBlob записывает тестовый blob и возвращает его storage key.
func saveTestBlob(t *testing.T, store *filestore.FileStore, name, content string) string {
	t.Helper()
	saved, err := store.SaveFile(strings.NewReader(content), name)
	if err != nil {
		t.Fatalf("SaveFile ошибка: %v", err)
	}
	return saved.StorageKey
}

// TestMediaService_Delete_Owner проверяет удаление владельцем:
// удаляются и blob, и запись каталога.
func TestMediaService_Delete_Owner(t *testing.T) {
	store := newTestStore(t)
	key := saveTestBlob(t, store, "photo.jpg", "content")

	catalogDeleted := false
	repo := &mockMediaRepo{
		getByIDFn: func(_ context.Context, id string) (*model.Media, error) {
			return &model.Media{ID: id, UserID: "user-1", StorageKey: key}, nil
		},
		deleteFn: func(_ context.Context, _ string) error {
			catalogDeleted = true
			return nil
		},
	}

	cache := NewCacheService(10, time.Minute)
	svc := NewMediaService(repo, store, cache, slog.Default())

	claims := &middleware.AuthClaims{UserID: "user-1", IsAdmin: false}
	if err := svc.Delete(context.Background(), "media-1", claims); err != nil {
		t.Fatalf("Delete ошибка: %v", err)
	}

	if !catalogDeleted {
		t.Error("запись каталога не удалена")
	}
	if store.FileExists(key) {
		t.Error("blob не удалён из хранилища")
	}
}

// TestMediaService_Delete_AdminOverride проверяет, что admin может
// удалить чужой файл.
func TestMediaService_Delete_AdminOverride(t *testing.T) {
	store := newTestStore(t)
	key := saveTestBlob(t, store, "photo.jpg", "content")

	repo := &mockMediaRepo{
		getByIDFn: func(_ context.Context, id string) (*model.Media, error) {
			return &model.Media{ID: id, UserID: "user-1", StorageKey: key}, nil
		},
	}

	svc := NewMediaService(repo, store, NewCacheService(10, time.Minute), slog.Default())

	claims := &middleware.AuthClaims{UserID: "admin-1", IsAdmin: true}
	if err := svc.Delete(context.Background(), "media-1", claims); err != nil {
		t.Fatalf("Delete ошибка: %v", err)
	}
}

// TestMediaService_Delete_Forbidden проверяет отказ не-владельцу без
// роли admin. Ни blob, ни запись каталога не трогаются.
func TestMediaService_Delete_Forbidden(t *testing.T) {
	store := newTestStore(t)
	key := saveTestBlob(t, store, "photo.jpg", "content")

	repo := &mockMediaRepo{
		getByIDFn: func(_ context.Context, id string) (*model.Media, error) {
			return &model.Media{ID: id, UserID: "user-1", StorageKey: key}, nil
		},
		deleteFn: func(_ context.Context, _ string) error {
			t.Error("Delete каталога не должен вызываться при отказе")
			return nil
		},
	}

	svc := NewMediaService(repo, store, NewCacheService(10, time.Minute), slog.Default())

	claims := &middleware.AuthClaims{UserID: "user-2", IsAdmin: false}
	err := svc.Delete(context.Background(), "media-1", claims)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("Delete err = %v, ожидался ErrForbidden", err)
	}

	if !store.FileExists(key) {
		t.Error("blob удалён при отказе в доступе")
	}
}

// TestMediaService_Delete_NotFound проверяет отказ на несуществующем ID.
func TestMediaService_Delete_NotFound(t *testing.T) {
	repo := &mockMediaRepo{
		getByIDFn: func(_ context.Context, _ string) (*model.Media, error) {
			return nil, repository.ErrNotFound
		},
	}

	svc := NewMediaService(repo, newTestStore(t), NewCacheService(10, time.Minute), slog.Default())

	claims := &middleware.AuthClaims{UserID: "user-1"}
	err := svc.Delete(context.Background(), "missing", claims)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete err = %v, ожидался ErrNotFound", err)
	}
}

// TestMediaService_Delete_MissingBlob проверяет, что отсутствие blob
// на диске не блокирует удаление записи каталога.
func TestMediaService_Delete_MissingBlob(t *testing.T) {
	catalogDeleted := false
	repo := &mockMediaRepo{
		getByIDFn: func(_ context.Context, id string) (*model.Media, error) {
			return &model.Media{ID: id, UserID: "user-1", StorageKey: "20250101000000_gone.jpg"}, nil
		},
		deleteFn: func(_ context.Context, _ string) error {
			catalogDeleted = true
			return nil
		},
	}

	svc := NewMediaService(repo, newTestStore(t), NewCacheService(10, time.Minute), slog.Default())

	claims := &middleware.AuthClaims{UserID: "user-1"}
	if err := svc.Delete(context.Background(), "media-1", claims); err != nil {
		t.Fatalf("Delete ошибка: %v", err)
	}
	if !catalogDeleted {
		t.Error("запись каталога должна удаляться даже без blob")
	}
}

// TestMediaService_Delete_InvalidatesCache проверяет инвалидацию кэша
// метаданных при удалении.
func TestMediaService_Delete_InvalidatesCache(t *testing.T) {
	store := newTestStore(t)
	key := saveTestBlob(t, store, "photo.jpg", "content")

	media := &model.Media{ID: "media-1", UserID: "user-1", StorageKey: key}
	repo := &mockMediaRepo{
		getByIDFn: func(_ context.Context, _ string) (*model.Media, error) {
			return media, nil
		},
	}

	cache := NewCacheService(10, time.Minute)
	cache.Set("media-1", media)

	svc := NewMediaService(repo, store, cache, slog.Default())

	claims := &middleware.AuthClaims{UserID: "user-1"}
	if err := svc.Delete(context.Background(), "media-1", claims); err != nil {
		t.Fatalf("Delete ошибка: %v", err)
	}

	if _, ok := cache.Get("media-1"); ok {
		t.Error("запись кэша не инвалидирована после удаления")
	}
}
