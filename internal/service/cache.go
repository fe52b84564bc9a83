// cache.go — LRU-кэш метаданных медиафайлов с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable. Разгружает каталог
// на горячих путях отдачи контента и скачивания.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ZeonEndOnly/Local-Photobank/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pb_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш метаданных.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pb_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша метаданных.",
	})
)

// CacheService — LRU-кэш метаданных медиафайлов с автоматическим TTL.
type CacheService struct {
	cache *expirable.LRU[string, *model.Media]
}

// NewCacheService создаёт LRU-кэш с указанным максимальным размером и TTL.
// maxSize — максимальное количество записей в кэше.
// ttl — время жизни записи после добавления.
func NewCacheService(maxSize int, ttl time.Duration) *CacheService {
	cache := expirable.NewLRU[string, *model.Media](maxSize, nil, ttl)
	return &CacheService{cache: cache}
}

// Get возвращает Media из кэша по mediaID.
// Возвращает (запись, true) при hit или (nil, false) при miss.
// Обновляет Prometheus-метрики hit/miss.
func (c *CacheService) Get(mediaID string) (*model.Media, bool) {
	val, ok := c.cache.Get(mediaID)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
func (c *CacheService) Set(mediaID string, m *model.Media) {
	c.cache.Add(mediaID, m)
}

// Delete удаляет запись из кэша (инвалидация при удалении медиафайла).
func (c *CacheService) Delete(mediaID string) {
	c.cache.Remove(mediaID)
}
