// media.go — обработчики /api/media endpoints.
// Пакетная загрузка, выборки каталога, отдача содержимого, удаление.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/ZeonEndOnly/Local-Photobank/internal/api/errors"
	"github.com/ZeonEndOnly/Local-Photobank/internal/api/middleware"
	"github.com/ZeonEndOnly/Local-Photobank/internal/domain/model"
	"github.com/ZeonEndOnly/Local-Photobank/internal/service"
)

// multipartMemoryLimit — порог буферизации multipart-формы в памяти,
// остальное spool'ится во временные файлы.
const multipartMemoryLimit = 32 << 20

// fileResultView — по-файловый результат загрузки в ответе API.
type fileResultView struct {
	OriginalName string `json:"original_name"`
	MediaID      string `json:"media_id,omitempty"`
	Size         int64  `json:"size"`
	Error        string `json:"error,omitempty"`
}

// uploadResponse — ответ пакетной загрузки.
type uploadResponse struct {
	AcceptedCount int              `json:"accepted_count"`
	TotalBytes    int64            `json:"total_bytes"`
	Folder        string           `json:"folder"`
	Files         []fileResultView `json:"files"`
}

// listResponse — ответ выборки каталога.
type listResponse struct {
	Items []*model.MediaView `json:"items"`
	Total int                `json:"total"`
}

// UploadMedia — POST /api/upload.
// Принимает multipart/form-data с полем files (до лимита по количеству
// и суммарному размеру). Проверка суммарного размера — всё или ничего,
// неподдерживаемый тип отдельного файла пакет не прерывает.
func (h *APIHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	// Жёсткий предохранитель на уровне транспорта: лимит пакета плюс
	// запас на multipart-заголовки. Точная проверка по заявленным
	// размерам — в сервисном слое.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBatchBytes+multipartMemoryLimit)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.QuotaExceeded(w, "Суммарный размер загрузки превышает лимит")
			return
		}
		apierrors.ValidationError(w, "Некорректная multipart-форма: "+err.Error())
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]

	items := make([]service.FileItem, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.logger.Error("Ошибка открытия части multipart",
				slog.String("filename", fh.Filename),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w, "Ошибка чтения загружаемых файлов")
			return
		}
		defer f.Close()

		items = append(items, service.FileItem{
			Reader:       f,
			OriginalName: fh.Filename,
			ContentType:  fh.Header.Get("Content-Type"),
			DeclaredSize: fh.Size,
		})
	}

	result, err := h.upload.Upload(r.Context(), claims.UserID, items)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyBatch):
			apierrors.ValidationError(w, "Не передано ни одного файла")
		case errors.Is(err, service.ErrTooManyFiles):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, service.ErrQuotaExceeded):
			apierrors.QuotaExceeded(w, err.Error())
		case errors.Is(err, service.ErrUnsupportedType):
			apierrors.ValidationError(w, "Ни один файл не принят: неподдерживаемые типы")
		default:
			h.logger.Error("Ошибка пакетной загрузки",
				slog.String("user_id", claims.UserID),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w, "Ошибка загрузки файлов")
		}
		return
	}

	writeJSON(w, http.StatusCreated, mapBatchResult(result))
}

// ListMedia — GET /api/media.
// Выборка каталога с поиском, фильтром по папке и сортировкой.
// Владелец виден для каждой записи, результат не ограничен владельцем —
// галерея общая для всех аутентифицированных пользователей.
func (h *APIHandler) ListMedia(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	q := service.ListQuery{
		Search: r.URL.Query().Get("search"),
		Folder: r.URL.Query().Get("folder"),
		Sort:   r.URL.Query().Get("sort"),
		Order:  r.URL.Query().Get("order"),
	}

	items, err := h.query.ListMedia(r.Context(), claims.UserID, q)
	if err != nil {
		h.logger.Error("Ошибка выборки каталога", "error", err)
		apierrors.InternalError(w, "Ошибка получения списка медиафайлов")
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: len(items)})
}

// GetMediaContent — GET /api/media/{mediaID}.
// Отдаёт содержимое файла inline, с поддержкой Range.
// Endpoint открытый: <img>/<video> теги не передают Authorization.
func (h *APIHandler) GetMediaContent(w http.ResponseWriter, r *http.Request) {
	mediaID := chi.URLParam(r, "mediaID")

	if err := h.download.ServeContent(w, r, mediaID); err != nil {
		h.writeServeError(w, mediaID, err)
	}
}

// DownloadMedia — GET /api/media/{mediaID}/download.
// Отдаёт файл как attachment с оригинальным именем.
func (h *APIHandler) DownloadMedia(w http.ResponseWriter, r *http.Request) {
	mediaID := chi.URLParam(r, "mediaID")

	if err := h.download.ServeDownload(w, r, mediaID); err != nil {
		h.writeServeError(w, mediaID, err)
	}
}

// DeleteMedia — DELETE /api/media/{mediaID}.
// Удалять может владелец или admin. Сначала удаляется blob,
// затем запись каталога.
func (h *APIHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	mediaID := chi.URLParam(r, "mediaID")

	if err := h.media.Delete(r.Context(), mediaID, claims); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Медиафайл не найден")
		case errors.Is(err, service.ErrForbidden):
			apierrors.Forbidden(w, "Удаление чужих файлов доступно только admin")
		default:
			h.logger.Error("Ошибка удаления медиафайла",
				slog.String("media_id", mediaID),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w, "Ошибка удаления медиафайла")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeServeError маппит ошибки отдачи содержимого в HTTP-ответ.
func (h *APIHandler) writeServeError(w http.ResponseWriter, mediaID string, err error) {
	if errors.Is(err, service.ErrNotFound) {
		apierrors.NotFound(w, "Медиафайл не найден")
		return
	}
	h.logger.Error("Ошибка отдачи содержимого",
		slog.String("media_id", mediaID),
		slog.String("error", err.Error()),
	)
	apierrors.InternalError(w, "Ошибка чтения медиафайла")
}

// mapBatchResult конвертирует результат загрузки в API-представление.
func mapBatchResult(b *service.BatchResult) uploadResponse {
	resp := uploadResponse{
		AcceptedCount: b.AcceptedCount,
		TotalBytes:    b.TotalBytes,
		Folder:        b.Folder,
		Files:         make([]fileResultView, 0, len(b.Files)),
	}
	for _, fr := range b.Files {
		v := fileResultView{
			OriginalName: fr.OriginalName,
			MediaID:      fr.MediaID,
			Size:         fr.Size,
		}
		if fr.Err != nil {
			v.Error = fr.Err.Error()
		}
		resp.Files = append(resp.Files, v)
	}
	return resp
}
