package cache

import "github.com/redis/go-redis/v9"

// Stats reports read hit/miss counters and connection pool state.
type Stats struct {
	Hits     int64            `json:"hits"`
	Misses   int64            `json:"misses"`
	HitRatio float64          `json:"hit_ratio"`
	Pool     *redis.PoolStats `json:"pool"`
}

func (s *RedisStore) Stats() Stats {
	hits := s.hits.Load()
	misses := s.misses.Load()

	ratio := 0.0
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total) * 100
	}

	return Stats{
		Hits:     hits,
		Misses:   misses,
		HitRatio: ratio,
		Pool:     s.client.PoolStats(),
	}
}
