// upload.go — pipeline пакетной загрузки медиафайлов.
//
// Порядок: валидация типов → единая проверка суммарного размера →
// по-файловая запись в blob-хранилище → вставка в каталог.
// Неподдерживаемый тип или ошибка записи одного файла не прерывает
// остальные: результат накапливается явным аккумулятором и
// возвращается даже при частичном успехе.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ZeonEndOnly/Local-Photobank/internal/domain/model"
	"github.com/ZeonEndOnly/Local-Photobank/internal/repository"
	"github.com/ZeonEndOnly/Local-Photobank/internal/storage/filestore"
)

// allowedTypes — фиксированный allow-set MIME-типов загрузки.
var allowedTypes = map[string]bool{
	"image/jpeg":       true,
	"image/png":        true,
	"image/gif":        true,
	"image/webp":       true,
	"video/mp4":        true,
	"video/quicktime":  true,
	"video/x-msvideo":  true,
	"video/x-matroska": true,
}

// Prometheus-метрики загрузки.
var (
	uploadFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pb_upload_files_total",
		Help: "Количество обработанных файлов загрузки (по статусу).",
	}, []string{"status"})

	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pb_upload_bytes_total",
		Help: "Общее количество принятых байт.",
	})

	uploadBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pb_upload_batch_duration_seconds",
		Help:    "Длительность обработки одной пакетной загрузки.",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})
)

// FileItem — один файл входящей загрузки.
type FileItem struct {
	// Reader — поток данных файла
	Reader io.Reader
	// OriginalName — оригинальное имя файла
	OriginalName string
	// ContentType — заявленный MIME-тип
	ContentType string
	// DeclaredSize — заявленный размер в байтах (для единой проверки
	// суммарного лимита до записи чего-либо в хранилище)
	DeclaredSize int64
}

// FileResult — результат обработки одного файла.
type FileResult struct {
	// OriginalName — имя файла из запроса
	OriginalName string
	// MediaID — UUID созданной записи каталога (пусто при ошибке)
	MediaID string
	// Size — фактически записанный размер
	Size int64
	// Err — причина отказа (nil при успехе)
	Err error
}

// BatchResult — итог пакетной загрузки.
// Частичный успех — нормальный исход: принятые файлы сохранены,
// отклонённые перечислены с причинами.
type BatchResult struct {
	// AcceptedCount — количество принятых файлов
	AcceptedCount int
	// TotalBytes — суммарный фактический размер принятых файлов
	TotalBytes int64
	// Folder — метка папки, назначенная этой загрузке
	Folder string
	// Files — по-файловые результаты в порядке запроса
	Files []FileResult
}

// UploadService — pipeline пакетной загрузки.
type UploadService struct {
	media  repository.MediaRepository
	store  *filestore.FileStore
	logger *slog.Logger

	// maxBatchBytes — лимит суммарного заявленного размера загрузки
	maxBatchBytes int64
	// maxBatchFiles — лимит количества файлов в загрузке
	maxBatchFiles int
}

// NewUploadService создаёт сервис загрузки.
func NewUploadService(
	media repository.MediaRepository,
	store *filestore.FileStore,
	maxBatchBytes int64,
	maxBatchFiles int,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		media:         media,
		store:         store,
		maxBatchBytes: maxBatchBytes,
		maxBatchFiles: maxBatchFiles,
		logger:        logger.With(slog.String("component", "upload_service")),
	}
}

// Upload обрабатывает пакет файлов от пользователя userID.
//
// Гарантии:
//   - суммарный заявленный размер проверяется единой проверкой ДО записи
//     первого blob; при превышении лимита ничего не сохраняется;
//   - файл с недопустимым MIME-типом пропускается, остальные продолжают
//     обрабатываться;
//   - при ошибке вставки в каталог уже записанный blob удаляется —
//     осиротевшие объекты не накапливаются;
//   - метка папки (YYYY-MM) вычисляется один раз на весь пакет.
//
// Ошибка возвращается только если не принят ни один файл — тогда это
// причина первого отказа.
func (s *UploadService) Upload(ctx context.Context, userID string, files []FileItem) (*BatchResult, error) {
	start := time.Now()
	defer func() {
		uploadBatchDuration.Observe(time.Since(start).Seconds())
	}()

	if len(files) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(files) > s.maxBatchFiles {
		return nil, fmt.Errorf("%w: файлов %d, лимит %d", ErrTooManyFiles, len(files), s.maxBatchFiles)
	}

	// Единая проверка суммарного размера: всё или ничего.
	var declaredTotal int64
	for _, f := range files {
		declaredTotal += f.DeclaredSize
	}
	if declaredTotal > s.maxBatchBytes {
		return nil, fmt.Errorf("%w: заявлено %d байт, лимит %d", ErrQuotaExceeded, declaredTotal, s.maxBatchBytes)
	}

	// Метка папки общая для всего пакета.
	folder := time.Now().Format("2006-01")

	result := &BatchResult{
		Folder: folder,
		Files:  make([]FileResult, 0, len(files)),
	}
	var firstErr error

	for _, f := range files {
		fr := s.processFile(ctx, userID, folder, f)
		result.Files = append(result.Files, fr)

		if fr.Err != nil {
			if firstErr == nil {
				firstErr = fr.Err
			}
			continue
		}
		result.AcceptedCount++
		result.TotalBytes += fr.Size
	}

	uploadBytesTotal.Add(float64(result.TotalBytes))

	if result.AcceptedCount == 0 {
		return result, firstErr
	}

	s.logger.Info("Пакет загружен",
		slog.String("user_id", userID),
		slog.String("folder", folder),
		slog.Int("accepted", result.AcceptedCount),
		slog.Int("rejected", len(files)-result.AcceptedCount),
		slog.Int64("bytes", result.TotalBytes),
	)

	return result, nil
}

// processFile обрабатывает один файл пакета: валидация типа, запись
// blob, вставка записи каталога.
func (s *UploadService) processFile(ctx context.Context, userID, folder string, f FileItem) FileResult {
	fr := FileResult{OriginalName: f.OriginalName}

	contentType := normalizeContentType(f.ContentType)
	if !allowedTypes[contentType] {
		uploadFilesTotal.WithLabelValues("rejected_type").Inc()
		fr.Err = fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
		return fr
	}

	saved, err := s.store.SaveFile(f.Reader, f.OriginalName)
	if err != nil {
		uploadFilesTotal.WithLabelValues("store_error").Inc()
		s.logger.Error("Ошибка записи blob",
			slog.String("user_id", userID),
			slog.String("filename", f.OriginalName),
			slog.String("error", err.Error()),
		)
		fr.Err = fmt.Errorf("запись файла: %w", err)
		return fr
	}

	media := &model.Media{
		ID:           uuid.New().String(),
		UserID:       userID,
		StorageKey:   saved.StorageKey,
		OriginalName: f.OriginalName,
		ContentType:  contentType,
		Size:         saved.Size,
		Folder:       folder,
		UploadedAt:   time.Now().UTC(),
	}

	if err := s.media.Insert(ctx, media); err != nil {
		// Запись каталога не удалась — blob удаляем сразу, иначе он
		// останется недостижимым сиротой.
		if delErr := s.store.DeleteFile(saved.StorageKey); delErr != nil {
			s.logger.Error("Не удалось удалить осиротевший blob",
				slog.String("storage_key", saved.StorageKey),
				slog.String("error", delErr.Error()),
			)
		}
		uploadFilesTotal.WithLabelValues("catalog_error").Inc()
		s.logger.Error("Ошибка вставки в каталог",
			slog.String("user_id", userID),
			slog.String("filename", f.OriginalName),
			slog.String("error", err.Error()),
		)
		fr.Err = fmt.Errorf("запись в каталог: %w", err)
		return fr
	}

	uploadFilesTotal.WithLabelValues("accepted").Inc()
	fr.MediaID = media.ID
	fr.Size = saved.Size
	return fr
}

// normalizeContentType убирает параметры MIME-типа (charset и т.д.).
func normalizeContentType(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
