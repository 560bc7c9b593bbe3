package ptz

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker - one command sequence per camera at a time,
// so continuous start/stop pairs never interleave
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type localLocker struct {
	keys map[string]chan struct{}
	mu   sync.Mutex
}

func NewLocalLocker() Locker {
	return &localLocker{keys: map[string]chan struct{}{}}
}

func (l *localLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ch := l.keys[key]
	if ch == nil {
		ch = make(chan struct{}, 1)
		l.keys[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() { <-ch })
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

const (
	DefaultLockTTL = 15 * time.Second
	lockRetry      = 50 * time.Millisecond
	lockPrefix     = "ptzd:lock:"
)

// release only own lock, other instance could take it after TTL
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// redisLocker - lock shared between several ptzd instances
type redisLocker struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisLocker(client redis.Cmdable, ttl time.Duration) Locker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &redisLocker{client: client, ttl: ttl}
}

func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	key = lockPrefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}

		timer := time.NewTimer(lockRetry)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// release even if request context is already cancelled
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()
			if err := unlockScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("[ptz] unlock")
			}
		})
	}, nil
}
