// user_cache.go — LRU-кэш пользователей с TTL для auth middleware.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/pavian-registry/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	userCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pr_user_cache_hits_total",
		Help: "Общее количество попаданий в кэш пользователей.",
	})
	userCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pr_user_cache_misses_total",
		Help: "Общее количество промахов кэша пользователей.",
	})
)

// UserCache — кэш пользователей по ID. Каждый экземпляр сервера
// держит собственный кэш; изменения одобрения инвалидируют запись.
type UserCache struct {
	cache *expirable.LRU[string, model.User]
}

// NewUserCache создаёт кэш с указанным максимальным размером и TTL.
func NewUserCache(maxSize int, ttl time.Duration) *UserCache {
	return &UserCache{cache: expirable.NewLRU[string, model.User](maxSize, nil, ttl)}
}

// Get возвращает копию пользователя из кэша.
func (c *UserCache) Get(id string) (*model.User, bool) {
	u, ok := c.cache.Get(id)
	if !ok {
		userCacheMissesTotal.Inc()
		return nil, false
	}
	userCacheHitsTotal.Inc()
	return &u, true
}

// Set сохраняет копию пользователя.
func (c *UserCache) Set(u *model.User) {
	c.cache.Add(u.ID, *u)
}

// Delete удаляет запись (инвалидация при изменении пользователя).
func (c *UserCache) Delete(id string) {
	c.cache.Remove(id)
}
