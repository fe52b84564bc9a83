// folders.go — обработчики списка папок и использования диска.
package handlers

import (
	"net/http"

	apierrors "github.com/ZeonEndOnly/Local-Photobank/internal/api/errors"
)

// ListFolders — GET /api/folders.
// Возвращает виртуальные папки и метки календарных месяцев.
func (h *APIHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.query.Folders(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения списка папок", "error", err)
		apierrors.InternalError(w, "Ошибка получения списка папок")
		return
	}

	writeJSON(w, http.StatusOK, folders)
}

// GetDiskUsage — GET /api/disk-usage.
// Возвращает суммарный размер всех медиафайлов каталога.
func (h *APIHandler) GetDiskUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.query.DiskUsage(r.Context())
	if err != nil {
		h.logger.Error("Ошибка расчёта использования диска", "error", err)
		apierrors.InternalError(w, "Ошибка расчёта использования диска")
		return
	}

	writeJSON(w, http.StatusOK, usage)
}
