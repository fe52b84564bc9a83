package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZeonEndOnly/Local-Photobank/internal/domain/model"
)

// UserRepository — интерфейс доступа к пользователям и их ролям.
type UserRepository interface {
	// Create создаёт пользователя вместе с ролью.
	// Вставка в users и user_roles выполняется в одной транзакции:
	// пользователь без роли — дефект, а не допустимое состояние.
	Create(ctx context.Context, u *model.User) error
	// GetByID возвращает пользователя с ролью по UUID.
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByUsername возвращает пользователя с ролью по имени.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// List возвращает всех пользователей с ролями.
	List(ctx context.Context) ([]*model.User, error)
	// Delete удаляет пользователя. Связанные записи user_roles и media
	// удаляются каскадом на уровне БД.
	Delete(ctx context.Context, id string) error
	// TouchLastLogin обновляет время последнего входа.
	TouchLastLogin(ctx context.Context, id string) error
}

// userColumns — столбцы выборки пользователя с ролью.
const userColumns = `u.id, u.username, u.password_hash, COALESCE(r.role, 'user'), u.created_at, u.last_login`

// userRepo — реализация UserRepository через pgx.
type userRepo struct {
	db DBTX
	tx *TxRunner
}

// NewUserRepository создаёт репозиторий пользователей поверх пула.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepo{db: pool, tx: NewTxRunner(pool)}
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	err := r.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO users (id, username, password_hash) VALUES ($1, $2, $3) RETURNING created_at`,
			u.ID, u.Username, u.PasswordHash,
		).Scan(&u.CreatedAt)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`,
			u.ID, u.Role,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: имя пользователя уже занято", ErrConflict)
		}
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users u
		LEFT JOIN user_roles r ON u.id = r.user_id
		WHERE u.id = $1`, userColumns)

	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users u
		LEFT JOIN user_roles r ON u.id = r.user_id
		WHERE u.username = $1`, userColumns)

	return r.scanUser(r.db.QueryRow(ctx, query, username))
}

func (r *userRepo) List(ctx context.Context) ([]*model.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users u
		LEFT JOIN user_roles r ON u.id = r.user_id
		ORDER BY u.created_at`, userColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка пользователей: %w", err)
	}
	defer rows.Close()

	var result []*model.User
	for rows.Next() {
		u := &model.User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.LastLogin); err != nil {
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации пользователей: %w", err)
	}
	return result, nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) TouchLastLogin(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления last_login: %w", err)
	}
	return nil
}

// scanUser сканирует одну строку пользователя.
func (r *userRepo) scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.LastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return u, nil
}
