// query.go — сервис выборки медиафайлов, списка папок и суммарного
// использования диска. Транслирует сырые параметры запроса в типизованные
// параметры каталога; неизвестные значения сортировки приводятся к
// значениям по умолчанию, а не отклоняются.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ZeonEndOnly/Local-Photobank/internal/domain/model"
	"github.com/ZeonEndOnly/Local-Photobank/internal/repository"
)

// FolderUploadedByYou — виртуальная папка «загружено вами».
// Не метка каталога, а предикат владения: вычисляется по requester.
const FolderUploadedByYou = "uploaded_by_you"

// Prometheus-метрики выборки.
var (
	queriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pb_media_queries_total",
		Help: "Общее количество запросов списка медиафайлов.",
	})
	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pb_media_query_duration_seconds",
		Help:    "Длительность запросов списка медиафайлов.",
		Buckets: prometheus.DefBuckets,
	})
)

// ListQuery — сырые параметры запроса списка (из query string).
type ListQuery struct {
	// Search — поисковая подстрока
	Search string
	// Folder — метка папки, виртуальная папка или пусто (все)
	Folder string
	// Sort — запрошенное поле сортировки
	Sort string
	// Order — запрошенное направление сортировки
	Order string
}

// FolderList — список папок для бокового меню.
type FolderList struct {
	// Special — виртуальные папки
	Special []string `json:"special"`
	// Months — метки календарных месяцев (по убыванию)
	Months []string `json:"months"`
}

// UsageReport — суммарное использование диска.
type UsageReport struct {
	// TotalSize — сумма размеров всех медиафайлов в байтах
	TotalSize int64 `json:"total_size"`
	// TotalSizeFormatted — человекочитаемый размер в GB
	TotalSizeFormatted string `json:"total_size_formatted"`
}

// QueryService — выборки по каталогу медиафайлов.
type QueryService struct {
	media  repository.MediaRepository
	logger *slog.Logger
}

// NewQueryService создаёт сервис выборки.
func NewQueryService(media repository.MediaRepository, logger *slog.Logger) *QueryService {
	return &QueryService{
		media:  media,
		logger: logger.With(slog.String("component", "query_service")),
	}
}

// ListMedia возвращает отфильтрованный и отсортированный список
// медиафайлов, видимых пользователю requesterID. Чтение доступно любому
// аутентифицированному пользователю; владение ограничивает только мутации.
func (s *QueryService) ListMedia(ctx context.Context, requesterID string, q ListQuery) ([]*model.MediaView, error) {
	start := time.Now()
	queriesTotal.Inc()

	params := repository.ListParams{
		Search:    q.Search,
		SortBy:    coerceSortField(q.Sort),
		SortOrder: coerceSortOrder(q.Order),
	}

	// Виртуальная папка «загружено вами» — предикат владения,
	// метка месяца — равенство по полю folder.
	switch q.Folder {
	case "":
	case FolderUploadedByYou:
		params.OwnerID = requesterID
	default:
		params.Folder = q.Folder
	}

	items, err := s.media.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("выборка медиафайлов: %w", err)
	}

	views := make([]*model.MediaView, 0, len(items))
	for _, m := range items {
		views = append(views, mediaToView(m))
	}

	duration := time.Since(start)
	queryDuration.Observe(duration.Seconds())

	s.logger.Debug("Выборка выполнена",
		slog.Int("returned", len(views)),
		slog.String("folder", q.Folder),
		slog.Duration("duration", duration),
	)

	return views, nil
}

// Folders возвращает метки папок-месяцев и виртуальные папки.
func (s *QueryService) Folders(ctx context.Context) (*FolderList, error) {
	months, err := s.media.DistinctFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение списка папок: %w", err)
	}

	return &FolderList{
		Special: []string{FolderUploadedByYou},
		Months:  months,
	}, nil
}

// DiskUsage возвращает суммарный размер всех медиафайлов.
// Агрегат всегда пересчитывается по каталогу.
func (s *QueryService) DiskUsage(ctx context.Context) (*UsageReport, error) {
	total, err := s.media.TotalSize(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт использования диска: %w", err)
	}

	return &UsageReport{
		TotalSize:          total,
		TotalSizeFormatted: fmt.Sprintf("%.2f GB", float64(total)/(1<<30)),
	}, nil
}

// mediaToView собирает представление для API. URL строится из
// идентификатора записи — storage key наружу не попадает.
func mediaToView(m *model.Media) *model.MediaView {
	return &model.MediaView{
		ID:           m.ID,
		UserID:       m.UserID,
		OriginalName: m.OriginalName,
		ContentType:  m.ContentType,
		Size:         m.Size,
		Folder:       m.Folder,
		UploadedAt:   m.UploadedAt,
		URL:          "/api/media/" + m.ID,
		IsImage:      m.IsImage(),
	}
}

// coerceSortField приводит сырое значение к перечислимому полю сортировки.
// Неизвестные значения молча заменяются на uploaded_at — защитный
// fallback против некорректного ввода, не ошибка валидации.
func coerceSortField(sort string) repository.SortField {
	switch sort {
	case string(repository.SortOriginalName):
		return repository.SortOriginalName
	case string(repository.SortSize):
		return repository.SortSize
	default:
		return repository.SortUploadedAt
	}
}

// coerceSortOrder приводит сырое значение к направлению сортировки.
// По умолчанию — DESC.
func coerceSortOrder(order string) repository.SortOrder {
	if strings.EqualFold(order, "asc") {
		return repository.OrderAsc
	}
	return repository.OrderDesc
}
