package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type OpKind int

const (
	OpGet OpKind = iota
	OpSet
	OpIncr
	OpExpire
)

// Op is one command of a Batch.
type Op struct {
	Kind  OpKind
	Key   string
	Value string
	TTL   time.Duration
}

func GetOp(key string) Op { return Op{Kind: OpGet, Key: key} }

func SetOp(key, value string, ttl time.Duration) Op {
	return Op{Kind: OpSet, Key: key, Value: value, TTL: ttl}
}

func IncrOp(key string) Op { return Op{Kind: OpIncr, Key: key} }

func ExpireOp(key string, ttl time.Duration) Op {
	return Op{Kind: OpExpire, Key: key, TTL: ttl}
}

// Result is the outcome of one Op, in the same position as the Op.
// Value is set for OpGet (when Found), Int for OpIncr.
type Result struct {
	Value string
	Found bool
	Int   int64
}

// Batch sends ops to Redis in a single pipelined round trip. A transport
// failure fails the whole batch; the ops are not atomic across keys.
func (s *RedisStore) Batch(ctx context.Context, ops ...Op) ([]Result, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pipe := s.client.Pipeline()
	cmds := make([]redis.Cmder, len(ops))
	for i, op := range ops {
		switch op.Kind {
		case OpGet:
			cmds[i] = pipe.Get(ctx, op.Key)
		case OpSet:
			cmds[i] = pipe.Set(ctx, op.Key, op.Value, op.TTL)
		case OpIncr:
			cmds[i] = pipe.Incr(ctx, op.Key)
		case OpExpire:
			cmds[i] = pipe.Expire(ctx, op.Key, op.TTL)
		default:
			pipe.Discard()
			return nil, fmt.Errorf("unknown batch op kind %d", op.Kind)
		}
	}

	// Exec reports the first failed command; a missing key (redis.Nil) on a
	// GET is not a failure.
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, classify(err)
	}

	results := make([]Result, len(ops))
	for i, cmd := range cmds {
		switch c := cmd.(type) {
		case *redis.StringCmd:
			val, err := c.Result()
			if errors.Is(err, redis.Nil) {
				s.misses.Add(1)
				continue
			}
			if err != nil {
				return nil, classify(err)
			}
			s.hits.Add(1)
			results[i] = Result{Value: val, Found: true}
		case *redis.IntCmd:
			n, err := c.Result()
			if err != nil {
				return nil, classify(err)
			}
			results[i] = Result{Int: n, Found: true}
		default:
			if err := cmd.Err(); err != nil {
				return nil, classify(err)
			}
			results[i] = Result{Found: true}
		}
	}
	return results, nil
}
