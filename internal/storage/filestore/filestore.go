// Пакет filestore — blob-хранилище медиафайлов на локальном диске.
// Файлы хранятся плоско, под сгенерированными storage key; физической
// раскладки по папкам нет — папка является атрибутом каталога.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FileStore — управление физическими файлами на диске.
type FileStore struct {
	// dataDir — корневая директория хранения файлов (PB_DATA_DIR)
	dataDir string
}

// SaveResult — результат сохранения файла на диск.
type SaveResult struct {
	// StorageKey — имя объекта в dataDir (внутреннее, наружу не отдаётся)
	StorageKey string
	// Size — фактический размер записанных данных в байтах
	Size int64
}

// New создаёт новый FileStore. Проверяет и создаёт директорию
// если она не существует.
func New(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dataDir, err)
	}

	return &FileStore{dataDir: dataDir}, nil
}

// SaveFile записывает данные из reader на диск под новым storage key.
// Возвращает ключ и фактическое количество записанных байт.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При любой ошибке (в том числе обрыве клиента во время чтения)
// temp файл удаляется — частично записанный blob не остаётся.
func (fs *FileStore) SaveFile(reader io.Reader, originalName string) (*SaveResult, error) {
	key := generateStorageKey(originalName)
	fullPath := filepath.Join(fs.dataDir, key)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	size, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	// Атомарный rename
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &SaveResult{
		StorageKey: key,
		Size:       size,
	}, nil
}

// ReadFile открывает объект для чтения по storage key.
// Возвращает os.ErrNotExist, если объект отсутствует на диске.
// Вызывающий код обязан закрыть файл.
func (fs *FileStore) ReadFile(storageKey string) (*os.File, error) {
	fullPath := filepath.Join(fs.dataDir, storageKey)

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("объект %s: %w", storageKey, os.ErrNotExist)
		}
		return nil, fmt.Errorf("ошибка открытия объекта %s: %w", storageKey, err)
	}

	return f, nil
}

// DeleteFile удаляет объект с диска.
// Отсутствие объекта ошибкой не считается: удаление должно
// гарантировать недостижимость blob, а не его наличие.
func (fs *FileStore) DeleteFile(storageKey string) error {
	fullPath := filepath.Join(fs.dataDir, storageKey)

	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления объекта %s: %w", storageKey, err)
	}
	return nil
}

// FileExists проверяет существование объекта на диске.
func (fs *FileStore) FileExists(storageKey string) bool {
	fullPath := filepath.Join(fs.dataDir, storageKey)
	_, err := os.Stat(fullPath)
	return err == nil
}

// DataDir возвращает путь к директории данных.
func (fs *FileStore) DataDir() string {
	return fs.dataDir
}

// generateStorageKey генерирует уникальный storage key.
// Формат: {timestamp}_{uuid}{ext} — метка времени плюс случайная
// компонента, расширение оригинального имени сохраняется как
// fallback для определения типа содержимого.
// Пример: 20260901150405_a1b2c3d4-....jpg
func generateStorageKey(originalName string) string {
	ext := filepath.Ext(originalName)

	ts := time.Now().UTC().Format("20060102150405")
	uid := uuid.New().String()

	return fmt.Sprintf("%s_%s%s", ts, uid, ext)
}
