package model

import (
	"strings"
	"time"
)

// Media — запись медиафайла в каталоге (таблица media).
// StorageKey — внутреннее имя объекта в blob-хранилище, уникален и
// неизменяем после создания; наружу никогда не отдаётся.
type Media struct {
	// ID — UUID медиафайла
	ID string
	// UserID — UUID владельца
	UserID string
	// StorageKey — имя объекта в blob-хранилище
	StorageKey string
	// OriginalName — оригинальное имя файла, показываемое пользователю
	OriginalName string
	// ContentType — MIME-тип файла
	ContentType string
	// Size — размер файла в байтах (совпадает с фактическим размером blob)
	Size int64
	// Folder — метка папки (календарный месяц YYYY-MM), назначается
	// один раз при загрузке и не задаётся пользователем
	Folder string
	// UploadedAt — время загрузки
	UploadedAt time.Time
}

// IsImage сообщает, является ли файл изображением (по префиксу MIME-типа).
func (m *Media) IsImage() bool {
	return strings.HasPrefix(m.ContentType, "image/")
}

// MediaView — представление медиафайла для API-ответов.
// URL строится из идентификатора, storage key наружу не попадает.
type MediaView struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	Folder       string    `json:"folder"`
	UploadedAt   time.Time `json:"uploaded_at"`
	URL          string    `json:"url"`
	IsImage      bool      `json:"is_image"`
}
