package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

const (
	redisKeyPrefix  = "bareerah:session:"
	redisLockPrefix = "bareerah:lock:"
	redisActiveSet  = "bareerah:sessions:active"
)

// RedisStore keeps each session as a JSON string with a TTL and tracks last
// activity in a sorted set so the sweeper can find idle sessions.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{redis: client, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	ctx, span := sessionTracer.Start(ctx, "session.redis.load")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", id))

	data, err := r.redis.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: redis get %s: %w", id, err)
	}
	return decode(data)
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	ctx, span := sessionTracer.Start(ctx, "session.redis.save")
	defer span.End()

	data, err := encode(s)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("session.id", s.ID), attribute.String("session.step", string(s.FlowStep)))
	_, err = r.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, redisKeyPrefix+s.ID, data, r.ttl)
		p.ZAdd(ctx, redisActiveSet, redis.Z{Score: float64(s.UpdatedAt.Unix()), Member: s.ID})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: redis save %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	ctx, span := sessionTracer.Start(ctx, "session.redis.delete")
	defer span.End()

	_, err := r.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, redisKeyPrefix+id)
		p.ZRem(ctx, redisActiveSet, id)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: redis delete %s: %w", id, err)
	}
	return nil
}

// ListIdle returns ids whose last activity is before the cutoff. Ids whose
// session key has already expired are pruned from the activity set.
func (r *RedisStore) ListIdle(ctx context.Context, before time.Time, limit int) ([]string, error) {
	ctx, span := sessionTracer.Start(ctx, "session.redis.list_idle")
	defer span.End()
	if limit <= 0 {
		limit = 100
	}

	ids, err := r.redis.ZRangeByScore(ctx, redisActiveSet, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "(" + strconv.FormatInt(before.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: redis list idle: %w", err)
	}

	live := ids[:0]
	for _, id := range ids {
		n, err := r.redis.Exists(ctx, redisKeyPrefix+id).Result()
		if err != nil {
			return nil, fmt.Errorf("session: redis exists %s: %w", id, err)
		}
		if n == 0 {
			r.redis.ZRem(ctx, redisActiveSet, id)
			continue
		}
		live = append(live, id)
	}
	return live, nil
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker implements Locker with SET NX PX and a token-checked release.
type RedisLocker struct {
	redis *redis.Client
	poll  time.Duration
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	return &RedisLocker{redis: client, poll: 50 * time.Millisecond}
}

func (l *RedisLocker) Acquire(ctx context.Context, id string, ttl time.Duration) (func(), error) {
	key := redisLockPrefix + id
	token := uuid.NewString()
	for {
		ok, err := l.redis.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrLocked
			}
			return nil, fmt.Errorf("session: redis lock %s: %w", id, err)
		}
		if ok {
			return func() {
				releaseScript.Run(context.Background(), l.redis, []string{key}, token)
			}, nil
		}
		if err := wait(ctx, l.poll); err != nil {
			return nil, ErrLocked
		}
	}
}

var (
	_ Store  = (*RedisStore)(nil)
	_ Locker = (*RedisLocker)(nil)
)
