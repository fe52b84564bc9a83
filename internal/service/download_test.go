package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZeonEndOnly/Local-Photobank/internal/domain/model"
	"github.com/ZeonEndOnly/Local-Photobank/internal/repository"
)

// TestDownloadService_ServeContent проверяет inline-отдачу содержимого.
func TestDownloadService_ServeContent(t *testing.T) {
	store := newTestStore(t)
	key := saveTestBlob(t, store, "photo.jpg", "jpeg-bytes")

	repo := &mockMediaRepo{
		getByIDFn: func(_ context.Context, id string) (*model.Media, error) {
			return &model.Media{
				ID:           id,
				StorageKey:   key,
				OriginalName: "photo.jpg",
				ContentType:  "image/jpeg",
				Size:         int64(len("jpeg-bytes")),
			}, nil
		},
	}

	svc := NewDownloadService(repo, NewCacheService(10, time.Minute), store, slog.Default())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/media/media-1", nil)

	if err := svc.ServeContent(w, r, "media-1"); err != nil {
		t.Fatalf("ServeContent ошибка: %v", err)
	}

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status = %d, ожидался 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q, ожидался image/jpeg", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		t.Errorf("Content-Disposition = %q, для inline не должен выставляться", cd)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "jpeg-bytes" {
		t.Errorf("body = %q, ожидался jpeg-bytes", body)
	}
}

// TestDownloadService_ServeDownload проверяет attachment-отдачу
// с восстановленным оригинальным именем.
func TestDownloadService_ServeDownload(t *testing.T) {
	store := newTestStore(t)
	key := saveTestBlob(t, store, "семейное фото.jpg", "jpeg-bytes")

	repo := &mockMediaRepo{
		getByIDFn: func(_ context.Context, id string) (*model.Media, error) {
			return &model.Media{
				ID:           id,
				StorageKey:   key,
				OriginalName: "семейное фото.jpg",
				ContentType:  "image/jpeg",
			}, nil
		},
	}

	svc := NewDownloadService(repo, NewCacheService(10, time.Minute), store, slog.Default())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/media/media-1/download", nil)

	if err := svc.ServeDownload(w, r, "media-1"); err != nil {
		t.Fatalf("ServeDownload ошибка: %v", err)
	}

	cd := w.Result().Header.Get("Content-Disposition")
	want := `attachment; filename="семейное фото.jpg"`
	if cd != want {
		t.Errorf("Content-Disposition = %q, ожидался %q", cd, want)
	}
}

// TestDownloadService_Serve_RangeRequest проверяет поддержку Range.
func TestDownloadService_Serve_RangeRequest(t *testing.T) {
	store := newTestStore(t)
	key := saveTestBlob(t, store, "video.mp4", "0123456789")

	repo := &mockMediaRepo{
		getByIDFn: func(_ context.Context, id string) (*model.Media, error) {
			return &model.Media{
				ID:           id,
				StorageKey:   key,
				OriginalName: "video.mp4",
				ContentType:  "video/mp4",
			}, nil
		},
	}

	svc := NewDownloadService(repo, NewCacheService(10, time.Minute), store, slog.Default())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/media/media-1", nil)
	r.Header.Set("Range", "bytes=2-5")

	if err := svc.ServeContent(w, r, "media-1"); err != nil {
		t.Fatalf("ServeContent ошибка: %v", err)
	}

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != 206 {
		t.Errorf("status = %d, ожидался 206 Partial Content", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "2345" {
		t.Errorf("body = %q, ожидался 2345", body)
	}
}

// TestDownloadService_Serve_NoCatalogRecord проверяет NotFound при
// отсутствии записи каталога.
func TestDownloadService_Serve_NoCatalogRecord(t *testing.T) {
	repo := &mockMediaRepo{
		getByIDFn: func(_ context.Context, _ string) (*model.Media, error) {
			return nil, repository.ErrNotFound
		},
	}

	svc := NewDownloadService(repo, NewCacheService(10, time.Minute), newTestStore(t), slog.Default())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/media/missing", nil)

	err := svc.ServeContent(w, r, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ServeContent err = %v, ожидался ErrNotFound", err)
	}
}

// TestDownloadService_Serve_MissingBlob проверяет вторую причину
// NotFound: запись каталога есть, blob на диске отсутствует.
// Устаревшая запись кэша при этом инвалидируется.
func TestDownloadService_Serve_MissingBlob(t *testing.T) {
	media := &model.Media{
		ID:          "media-1",
		StorageKey:  "20250101000000_gone.jpg",
		ContentType: "image/jpeg",
	}
	repo := &mockMediaRepo{
		getByIDFn: func(_ context.Context, _ string) (*model.Media, error) {
			return media, nil
		},
	}

	cache := NewCacheService(10, time.Minute)
	cache.Set("media-1", media)

	svc := NewDownloadService(repo, cache, newTestStore(t), slog.Default())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/media/media-1", nil)

	err := svc.ServeContent(w, r, "media-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ServeContent err = %v, ожидался ErrNotFound", err)
	}

	if _, ok := cache.Get("media-1"); ok {
		t.Error("запись кэша с отсутствующим blob не инвалидирована")
	}
}

// TestDownloadService_Serve_CacheHit проверяет, что повторная отдача
// не ходит в каталог.
func TestDownloadService_Serve_CacheHit(t *testing.T) {
	store := newTestStore(t)
	key := saveTestBlob(t, store, "photo.jpg", "content")

	callCount := 0
	repo := &mockMediaRepo{
		getByIDFn: func(_ context.Context, id string) (*model.Media, error) {
			callCount++
			return &model.Media{ID: id, StorageKey: key, OriginalName: "photo.jpg", ContentType: "image/jpeg"}, nil
		},
	}

	cache := NewCacheService(10, time.Minute)
	cache.Set("media-1", &model.Media{ID: "media-1", StorageKey: key, OriginalName: "photo.jpg", ContentType: "image/jpeg"})

	svc := NewDownloadService(repo, cache, store, slog.Default())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/media/media-1", nil)

	if err := svc.ServeContent(w, r, "media-1"); err != nil {
		t.Fatalf("ServeContent ошибка: %v", err)
	}
	if callCount != 0 {
		t.Errorf("GetByID вызван %d раз при наличии записи в кэше, ожидался 0", callCount)
	}
}
