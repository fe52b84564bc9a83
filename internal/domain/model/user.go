// Пакет model — доменные модели Photobank.
package model

import "time"

// Роли пользователей. Роль admin открывает управление пользователями
// и удаление любых медиафайлов.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User — учётная запись пользователя галереи.
// Хранится в таблицах users + user_roles (роль — отдельная таблица,
// практически 1:1 с пользователем).
type User struct {
	// ID — UUID пользователя
	ID string
	// Username — уникальное имя пользователя
	Username string
	// PasswordHash — bcrypt-хэш пароля (никогда не отдаётся наружу)
	PasswordHash string
	// Role — роль пользователя (user, admin)
	Role string
	// CreatedAt — время регистрации
	CreatedAt time.Time
	// LastLogin — время последнего входа (nil если не входил)
	LastLogin *time.Time
}
