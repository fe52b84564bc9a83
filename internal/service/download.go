// download.go — сервис отдачи содержимого медиафайлов.
// Inline-просмотр и attachment-скачивание идут через один путь:
// запись каталога (через LRU-кэш) → открытие blob → http.ServeContent.
// Отсутствие записи каталога и отсутствие blob на диске — разные причины,
// различимые в логах, но наружу обе отдаются как NotFound.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ZeonEndOnly/Local-Photobank/internal/domain/model"
	"github.com/ZeonEndOnly/Local-Photobank/internal/repository"
	"github.com/ZeonEndOnly/Local-Photobank/internal/storage/filestore"
)

// Prometheus-метрики отдачи контента.
var (
	servesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pb_content_serves_total",
		Help: "Общее количество запросов содержимого (по виду и статусу).",
	}, []string{"kind", "status"})

	activeStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pb_active_streams",
		Help: "Количество активных (in-progress) отдач содержимого.",
	})
)

// DownloadService — отдача содержимого медиафайлов.
type DownloadService struct {
	media  repository.MediaRepository
	cache  *CacheService
	store  *filestore.FileStore
	logger *slog.Logger
}

// NewDownloadService создаёт сервис отдачи содержимого.
func NewDownloadService(
	media repository.MediaRepository,
	cache *CacheService,
	store *filestore.FileStore,
	logger *slog.Logger,
) *DownloadService {
	return &DownloadService{
		media:  media,
		cache:  cache,
		store:  store,
		logger: logger.With(slog.String("component", "download_service")),
	}
}

// ServeContent отдаёт содержимое для inline-просмотра с сохранённым
// Content-Type. Возвращает ErrNotFound, если нет записи каталога или
// blob отсутствует на диске.
func (s *DownloadService) ServeContent(w http.ResponseWriter, r *http.Request, mediaID string) error {
	return s.serve(w, r, mediaID, "inline")
}

// ServeDownload отдаёт содержимое как attachment с восстановленным
// оригинальным именем файла.
func (s *DownloadService) ServeDownload(w http.ResponseWriter, r *http.Request, mediaID string) error {
	return s.serve(w, r, mediaID, "attachment")
}

// serve — общий путь отдачи содержимого.
// kind — "inline" или "attachment" (метка метрики и режим Content-Disposition).
func (s *DownloadService) serve(w http.ResponseWriter, r *http.Request, mediaID, kind string) error {
	activeStreams.Inc()
	defer activeStreams.Dec()

	media, err := s.getMedia(r.Context(), mediaID)
	if err != nil {
		servesTotal.WithLabelValues(kind, "not_found").Inc()
		return err
	}

	f, err := s.store.ReadFile(media.StorageKey)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Blob отсутствует при живой записи каталога — рассинхрон
			// хранилищ. Наружу тот же NotFound, в лог — точная причина.
			s.logger.Error("Blob отсутствует на диске",
				slog.String("media_id", mediaID),
				slog.String("storage_key", media.StorageKey),
			)
			s.cache.Delete(mediaID)
			servesTotal.WithLabelValues(kind, "blob_missing").Inc()
			return ErrNotFound
		}
		servesTotal.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("открытие blob: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		servesTotal.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("stat blob: %w", err)
	}

	w.Header().Set("Content-Type", media.ContentType)
	if kind == "attachment" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", media.OriginalName))
	}

	// http.ServeContent обрабатывает Range requests (206),
	// If-Modified-Since и Content-Length.
	http.ServeContent(w, r, media.OriginalName, stat.ModTime(), f)

	servesTotal.WithLabelValues(kind, "success").Inc()
	return nil
}

// getMedia получает запись каталога из кэша или БД.
func (s *DownloadService) getMedia(ctx context.Context, mediaID string) (*model.Media, error) {
	if m, ok := s.cache.Get(mediaID); ok {
		return m, nil
	}

	m, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug("Запись каталога не найдена",
				slog.String("media_id", mediaID),
			)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение записи медиафайла: %w", err)
	}

	s.cache.Set(mediaID, m)
	return m, nil
}
