package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ZeonEndOnly/Local-Photobank/internal/domain/model"
)

// mediaColumns — список столбцов таблицы media для SELECT-запросов.
// DRY: одно место для всех SELECT'ов.
const mediaColumns = `id, user_id, storage_key, original_name, content_type, size, folder, uploaded_at`

// SortField — поле сортировки списка медиафайлов.
// Перечислимый тип: ORDER BY никогда не собирается из сырых строк запроса.
type SortField string

// Допустимые поля сортировки.
const (
	SortUploadedAt   SortField = "uploaded_at"
	SortOriginalName SortField = "original_name"
	SortSize         SortField = "size"
)

// SortOrder — направление сортировки.
type SortOrder string

// Допустимые направления сортировки.
const (
	OrderAsc  SortOrder = "ASC"
	OrderDesc SortOrder = "DESC"
)

// ListParams — параметры выборки медиафайлов.
// Пустое строковое поле = фильтр не применяется.
type ListParams struct {
	// Search — подстрока для поиска по имени файла или дате загрузки
	// (case-insensitive)
	Search string
	// Folder — метка папки (календарный месяц YYYY-MM)
	Folder string
	// OwnerID — фильтр по владельцу (виртуальная папка "uploaded_by_you")
	OwnerID string
	// SortBy — поле сортировки
	SortBy SortField
	// SortOrder — направление сортировки
	SortOrder SortOrder
}

// MediaRepository — интерфейс доступа к каталогу медиафайлов.
type MediaRepository interface {
	// Insert создаёт запись медиафайла.
	Insert(ctx context.Context, m *model.Media) error
	// GetByID возвращает медиафайл по UUID.
	GetByID(ctx context.Context, id string) (*model.Media, error)
	// List возвращает отфильтрованный и отсортированный список медиафайлов.
	List(ctx context.Context, params ListParams) ([]*model.Media, error)
	// ListByOwner возвращает все медиафайлы пользователя (для каскадного удаления).
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Media, error)
	// Delete удаляет запись медиафайла.
	Delete(ctx context.Context, id string) error
	// DistinctFolders возвращает список меток папок (по убыванию).
	DistinctFolders(ctx context.Context) ([]string, error)
	// TotalSize возвращает суммарный размер всех медиафайлов в байтах.
	// Агрегат считается по каталогу на каждый запрос — персистентного
	// счётчика нет, источник истины всегда сумма по таблице.
	TotalSize(ctx context.Context) (int64, error)
}

// mediaRepo — реализация MediaRepository через pgx.
type mediaRepo struct {
	db DBTX
}

// NewMediaRepository создаёт репозиторий медиафайлов.
func NewMediaRepository(db DBTX) MediaRepository {
	return &mediaRepo{db: db}
}

func (r *mediaRepo) Insert(ctx context.Context, m *model.Media) error {
	query := `
		INSERT INTO media (id, user_id, storage_key, original_name, content_type, size, folder, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		m.ID, m.UserID, m.StorageKey, m.OriginalName, m.ContentType, m.Size, m.Folder, m.UploadedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: медиафайл с таким ID или storage key уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка вставки медиафайла: %w", err)
	}
	return nil
}

func (r *mediaRepo) GetByID(ctx context.Context, id string) (*model.Media, error) {
	query := fmt.Sprintf(`SELECT %s FROM media WHERE id = $1`, mediaColumns)

	m := &model.Media{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.UserID, &m.StorageKey, &m.OriginalName, &m.ContentType, &m.Size, &m.Folder, &m.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения медиафайла: %w", err)
	}
	return m, nil
}

// List возвращает медиафайлы с динамическими фильтрами и безопасной сортировкой.
func (r *mediaRepo) List(ctx context.Context, params ListParams) ([]*model.Media, error) {
	where, args := buildListWhere(params, 1)
	orderBy := buildOrderBy(params.SortBy, params.SortOrder)

	query := fmt.Sprintf(`SELECT %s FROM media %s %s`, mediaColumns, where, orderBy)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки медиафайлов: %w", err)
	}
	defer rows.Close()

	return scanMediaRows(rows)
}

func (r *mediaRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Media, error) {
	query := fmt.Sprintf(`SELECT %s FROM media WHERE user_id = $1 ORDER BY uploaded_at DESC`, mediaColumns)

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки медиафайлов пользователя: %w", err)
	}
	defer rows.Close()

	return scanMediaRows(rows)
}

func (r *mediaRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления медиафайла: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mediaRepo) DistinctFolders(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT folder FROM media ORDER BY folder DESC`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка папок: %w", err)
	}
	defer rows.Close()

	var folders []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("ошибка сканирования папки: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации папок: %w", err)
	}
	return folders, nil
}

func (r *mediaRepo) TotalSize(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(size), 0) FROM media`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта суммарного размера: %w", err)
	}
	return total, nil
}

// scanMediaRows сканирует строки выборки в срез моделей.
func scanMediaRows(rows pgx.Rows) ([]*model.Media, error) {
	var result []*model.Media
	for rows.Next() {
		m := &model.Media{}
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.StorageKey, &m.OriginalName, &m.ContentType, &m.Size, &m.Folder, &m.UploadedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования медиафайла: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}
	return result, nil
}

// buildListWhere строит WHERE-условие и аргументы для выборки медиафайлов.
// startArg — номер первого $-параметра (для корректной нумерации).
func buildListWhere(params ListParams, startArg int) (whereClause string, args []any) {
	var conditions []string
	argNum := startArg

	// Поиск: подстрока в имени файла ИЛИ в текстовом представлении даты
	// загрузки (YYYY-MM-DD), без учёта регистра
	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(original_name ILIKE $%d OR to_char(uploaded_at, 'YYYY-MM-DD') LIKE $%d)",
			argNum, argNum,
		))
		args = append(args, "%"+params.Search+"%")
		argNum++
	}

	// Фильтр по метке папки (exact match)
	if params.Folder != "" {
		conditions = append(conditions, fmt.Sprintf("folder = $%d", argNum))
		args = append(args, params.Folder)
		argNum++
	}

	// Фильтр по владельцу (виртуальная папка "uploaded_by_you")
	if params.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argNum))
		args = append(args, params.OwnerID)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args
}

// buildOrderBy строит ORDER BY с безопасным whitelist полей.
// Неизвестные значения приводятся к (uploaded_at, DESC) — защитный
// fallback, а не ошибка валидации.
func buildOrderBy(sortBy SortField, sortOrder SortOrder) string {
	column := SortUploadedAt
	switch sortBy {
	case SortOriginalName:
		column = SortOriginalName
	case SortSize:
		column = SortSize
	case SortUploadedAt:
		column = SortUploadedAt
	}

	direction := OrderDesc
	if sortOrder == OrderAsc {
		direction = OrderAsc
	}

	return fmt.Sprintf("ORDER BY %s %s", column, direction)
}
