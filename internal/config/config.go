// Пакет config — загрузка и валидация конфигурации Photobank
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Photobank.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль PostgreSQL
	DBPassword string
	// Имя базы данных
	DBName string
	// Режим SSL (disable, require, verify-full)
	DBSSLMode string

	// --- Хранилище ---

	// Директория хранения медиафайлов
	DataDir string

	// --- Аутентификация ---

	// Секрет подписи JWT (HS256)
	JWTSecret string
	// Срок жизни токена (по умолчанию 168h = 7 дней)
	TokenTTL time.Duration

	// --- Лимиты загрузки ---

	// Максимальный суммарный размер одной загрузки в байтах (по умолчанию 5 GiB)
	MaxBatchBytes int64
	// Максимальное количество файлов в одной загрузке (по умолчанию 100)
	MaxBatchFiles int

	// --- Кэш метаданных ---

	// Максимальное количество записей в LRU-кэше метаданных
	CacheSize int
	// Время жизни записи кэша
	CacheTTL time.Duration

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (большой — streaming-загрузки до 5 GiB)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера
	HTTPIdleTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// PB_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("PB_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("PB_PORT: %w", err)
	}

	// PB_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("PB_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("PB_LOG_LEVEL: %w", err)
	}

	// PB_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("PB_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("PB_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	cfg.DBHost = getEnvDefault("PB_DB_HOST", "localhost")

	cfg.DBPort, err = getEnvInt("PB_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("PB_DB_PORT: %w", err)
	}

	cfg.DBUser = getEnvDefault("PB_DB_USER", "photobank")

	// PB_DB_PASSWORD — обязательная переменная
	cfg.DBPassword, err = getEnvRequired("PB_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	cfg.DBName = getEnvDefault("PB_DB_NAME", "photobank")

	cfg.DBSSLMode = getEnvDefault("PB_DB_SSLMODE", "disable")

	// --- Хранилище ---

	// PB_DATA_DIR — директория хранения файлов (по умолчанию ./uploads)
	cfg.DataDir = getEnvDefault("PB_DATA_DIR", "uploads")

	// --- Аутентификация ---

	// PB_JWT_SECRET — обязательная переменная
	cfg.JWTSecret, err = getEnvRequired("PB_JWT_SECRET")
	if err != nil {
		return nil, err
	}

	// PB_TOKEN_TTL — срок жизни токена (по умолчанию 168h)
	cfg.TokenTTL, err = getEnvDuration("PB_TOKEN_TTL", 168*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("PB_TOKEN_TTL: %w", err)
	}

	// --- Лимиты загрузки ---

	// PB_MAX_BATCH_BYTES — суммарный лимит одной загрузки (по умолчанию 5 GiB)
	cfg.MaxBatchBytes, err = getEnvInt64("PB_MAX_BATCH_BYTES", 5<<30)
	if err != nil {
		return nil, fmt.Errorf("PB_MAX_BATCH_BYTES: %w", err)
	}
	if cfg.MaxBatchBytes <= 0 {
		return nil, fmt.Errorf("PB_MAX_BATCH_BYTES: значение должно быть > 0")
	}

	// PB_MAX_BATCH_FILES — лимит количества файлов (по умолчанию 100)
	cfg.MaxBatchFiles, err = getEnvInt("PB_MAX_BATCH_FILES", 100)
	if err != nil {
		return nil, fmt.Errorf("PB_MAX_BATCH_FILES: %w", err)
	}
	if cfg.MaxBatchFiles <= 0 {
		return nil, fmt.Errorf("PB_MAX_BATCH_FILES: значение должно быть > 0")
	}

	// --- Кэш метаданных ---

	cfg.CacheSize, err = getEnvInt("PB_CACHE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("PB_CACHE_SIZE: %w", err)
	}

	cfg.CacheTTL, err = getEnvDuration("PB_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("PB_CACHE_TTL: %w", err)
	}

	// --- HTTP Server Timeouts ---

	// PB_HTTP_READ_TIMEOUT — таймаут чтения (по умолчанию 15m, загрузки большие)
	cfg.HTTPReadTimeout, err = getEnvDuration("PB_HTTP_READ_TIMEOUT", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("PB_HTTP_READ_TIMEOUT: %w", err)
	}

	// PB_HTTP_WRITE_TIMEOUT — таймаут записи (по умолчанию 15m, скачивания большие)
	cfg.HTTPWriteTimeout, err = getEnvDuration("PB_HTTP_WRITE_TIMEOUT", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("PB_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// PB_HTTP_IDLE_TIMEOUT — таймаут простоя (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("PB_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PB_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	// PB_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("PB_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PB_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN формирует строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64-значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
