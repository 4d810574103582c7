package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const healthTimeout = 2 * time.Second

type HealthHandler struct {
	offline Pinger
	online  Pinger
	cache   CacheStatser
}

func NewHealthHandler(offline, online Pinger, cache CacheStatser) *HealthHandler {
	return &HealthHandler{offline: offline, online: online, cache: cache}
}

// HealthCheck reports store reachability. Any unreachable store turns the
// response into a 503.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	status := fiber.StatusOK
	services := fiber.Map{}
	for name, p := range map[string]Pinger{"database": h.offline, "redis": h.online} {
		if err := p.Ping(ctx); err != nil {
			services[name] = "unavailable"
			status = fiber.StatusServiceUnavailable
			continue
		}
		services[name] = "connected"
	}

	overall := "ok"
	if status != fiber.StatusOK {
		overall = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   overall,
		"services": services,
	})
}

func (h *HealthHandler) CacheStats(c *fiber.Ctx) error {
	stats := h.cache.Stats()

	poolStats := fiber.Map{}
	if stats.Pool != nil {
		poolStats = fiber.Map{
			"hits":        stats.Pool.Hits,
			"misses":      stats.Pool.Misses,
			"timeouts":    stats.Pool.Timeouts,
			"total_conns": stats.Pool.TotalConns,
			"idle_conns":  stats.Pool.IdleConns,
			"stale_conns": stats.Pool.StaleConns,
		}
	}

	return c.JSON(fiber.Map{
		"cache_stats": fiber.Map{
			"hits":      stats.Hits,
			"misses":    stats.Misses,
			"hit_ratio": stats.HitRatio,
		},
		"pool_stats": poolStats,
	})
}
