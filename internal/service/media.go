// media.go — удаление медиафайлов (обратная операция загрузки).
// Порядок удаления: сначала blob, затем запись каталога. Отсутствие
// blob на диске успехом удаления не мешает — цель операции в
// недостижимости объекта, а не в его наличии.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ZeonEndOnly/Local-Photobank/internal/api/middleware"
	"github.com/ZeonEndOnly/Local-Photobank/internal/repository"
	"github.com/ZeonEndOnly/Local-Photobank/internal/storage/filestore"
)

// Prometheus-метрики удаления.
var deletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pb_media_deletes_total",
	Help: "Общее количество удалений медиафайлов (по статусу).",
}, []string{"status"})

// MediaService — мутации каталога медиафайлов.
type MediaService struct {
	media  repository.MediaRepository
	store  *filestore.FileStore
	cache  *CacheService
	logger *slog.Logger
}

// NewMediaService создаёт сервис мутаций медиафайлов.
func NewMediaService(
	media repository.MediaRepository,
	store *filestore.FileStore,
	cache *CacheService,
	logger *slog.Logger,
) *MediaService {
	return &MediaService{
		media:  media,
		store:  store,
		cache:  cache,
		logger: logger.With(slog.String("component", "media_service")),
	}
}

// Delete удаляет медиафайл. Разрешено владельцу и администратору,
// остальным — ErrForbidden.
func (s *MediaService) Delete(ctx context.Context, mediaID string, claims *middleware.AuthClaims) error {
	media, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			deletesTotal.WithLabelValues("not_found").Inc()
			return ErrNotFound
		}
		return fmt.Errorf("получение записи медиафайла: %w", err)
	}

	if !claims.CanModify(media) {
		deletesTotal.WithLabelValues("forbidden").Inc()
		return ErrForbidden
	}

	// Сначала blob, затем запись каталога: запись без blob отдаёт
	// NotFound и зачищается, blob без записи недостижим навсегда.
	if err := s.store.DeleteFile(media.StorageKey); err != nil {
		deletesTotal.WithLabelValues("store_error").Inc()
		return fmt.Errorf("удаление blob: %w", err)
	}

	if err := s.media.Delete(ctx, mediaID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		deletesTotal.WithLabelValues("catalog_error").Inc()
		return fmt.Errorf("удаление записи каталога: %w", err)
	}

	s.cache.Delete(mediaID)
	deletesTotal.WithLabelValues("success").Inc()

	s.logger.Info("Медиафайл удалён",
		slog.String("media_id", mediaID),
		slog.String("requester", claims.UserID),
		slog.Bool("as_admin", claims.IsAdmin && media.UserID != claims.UserID),
	)

	return nil
}
