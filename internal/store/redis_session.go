package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/abhisek/parlami/internal/session"
)

// RedisOptions configures a RedisSessionStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix namespaces session keys. Default: "parlami:session:".
	KeyPrefix string
	// TTL expires idle sessions. Zero keeps them forever.
	TTL time.Duration
	// LockTTL bounds how long a crashed replica can hold a learner's turn
	// lock. Default: 2m.
	LockTTL time.Duration
	// LockWait is how long a turn waits for another replica's lock before
	// giving up. Default: 1m.
	LockWait time.Duration
}

// RedisSessionStore is a session.Store that keeps one JSON document per
// learner in Redis. Several bot replicas may share it: turns take a
// per-learner lock through LockUser.
type RedisSessionStore struct {
	rdb      redis.UniversalClient
	prefix   string
	ttl      time.Duration
	lockTTL  time.Duration
	lockWait time.Duration
}

var (
	_ session.Store  = (*RedisSessionStore)(nil)
	_ session.Locker = (*RedisSessionStore)(nil)
)

// releaseLock deletes the lock only while it still holds our token, so an
// expired lock taken over by another replica is left alone.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const (
	lockPollMin = 10 * time.Millisecond
	lockPollMax = 200 * time.Millisecond
)

// OpenRedis connects to Redis and verifies the connection.
func OpenRedis(ctx context.Context, opts RedisOptions) (*RedisSessionStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisSessionStore(rdb, opts), nil
}

// NewRedisSessionStore wraps an existing client.
func NewRedisSessionStore(rdb redis.UniversalClient, opts RedisOptions) *RedisSessionStore {
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "parlami:session:"
	}
	s := &RedisSessionStore{rdb: rdb, prefix: prefix, ttl: opts.TTL, lockTTL: opts.LockTTL, lockWait: opts.LockWait}
	if s.lockTTL <= 0 {
		s.lockTTL = 2 * time.Minute
	}
	if s.lockWait <= 0 {
		s.lockWait = time.Minute
	}
	return s
}

func (s *RedisSessionStore) key(userID string) string {
	return s.prefix + userID
}

func (s *RedisSessionStore) lockKey(userID string) string {
	return s.prefix + userID + ":lock"
}

// LockUser takes the learner's turn lock with SET NX PX, polling until it
// is free, ctx ends or LockWait passes. The returned func releases it.
func (s *RedisSessionStore) LockUser(ctx context.Context, userID string) (func(), error) {
	key := s.lockKey(userID)
	token := uuid.NewString()

	wctx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	poll := lockPollMin
	for {
		ok, err := s.rdb.SetNX(wctx, key, token, s.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock session: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-wctx.Done():
			return nil, fmt.Errorf("redis lock session %s: %w", userID, wctx.Err())
		case <-time.After(poll):
		}
		poll = min(poll*2, lockPollMax)
	}

	return func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		// A failed release expires after LockTTL.
		_ = releaseLock.Run(rctx, s.rdb, []string{key}, token).Err()
	}, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, userID string) (*session.Session, error) {
	raw, err := s.rdb.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		fresh := session.New(userID)
		if err := s.Save(ctx, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		// An unreadable record is replaced rather than wedging the learner.
		sess = *session.New(userID)
	}
	sess.UserID = userID
	sess.Normalize()
	return &sess, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, sess *session.Session) error {
	c := sess.Clone()
	c.Normalize()
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(c.UserID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisSessionStore) Close() error {
	return s.rdb.Close()
}
