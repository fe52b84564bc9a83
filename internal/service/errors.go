// Пакет service — бизнес-логика Photobank.
// errors.go — сентинельные ошибки сервисного слоя.
// Handlers маппят их на HTTP-коды, не заглядывая в детали хранилища.
package service

import "errors"

// Ошибки сервисного слоя.
var (
	// ErrNotFound — запрошенный ресурс не существует.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrForbidden — недостаточно прав (не владелец и не admin).
	ErrForbidden = errors.New("операция запрещена")
	// ErrInvalidInput — некорректные входные данные.
	ErrInvalidInput = errors.New("некорректные входные данные")
	// ErrInvalidCredentials — неверное имя пользователя или пароль.
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
	// ErrUsernameTaken — имя пользователя уже занято.
	ErrUsernameTaken = errors.New("имя пользователя уже занято")
	// ErrQuotaExceeded — суммарный размер загрузки превышает лимит.
	ErrQuotaExceeded = errors.New("превышен лимит суммарного размера загрузки")
	// ErrUnsupportedType — MIME-тип файла не входит в allow-set.
	ErrUnsupportedType = errors.New("неподдерживаемый тип файла")
	// ErrEmptyBatch — в загрузке нет файлов.
	ErrEmptyBatch = errors.New("не передано ни одного файла")
	// ErrTooManyFiles — превышен лимит количества файлов в загрузке.
	ErrTooManyFiles = errors.New("превышен лимит количества файлов в загрузке")
	// ErrSelfDeletion — администратор не может удалить свою учётную запись.
	ErrSelfDeletion = errors.New("нельзя удалить собственную учётную запись")
)
