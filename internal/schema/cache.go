package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/store/redisstore"
)

// ErrSchemaUnavailable wraps any introspection failure; the turn cannot
// proceed without a snapshot.
var ErrSchemaUnavailable = errors.New("schema unavailable")

// Cache is a read-through TTL cache of schema snapshots, one per database.
// Expiry is lazy: checked on read, no background sweep. Rebuilds are
// serialized per database and replace the snapshot wholesale, so concurrent
// readers either wait on the single rebuild or momentarily see the previous
// complete snapshot.
type Cache struct {
	intros Introspector
	ttl    time.Duration
	redis  *redisstore.Store
	log    *zap.Logger

	mu      sync.Mutex
	snaps   map[string]*Snapshot
	rebuild map[string]*sync.Mutex
}

func NewCache(intros Introspector, ttl time.Duration, redis *redisstore.Store, log *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		intros:  intros,
		ttl:     ttl,
		redis:   redis,
		log:     log,
		snaps:   make(map[string]*Snapshot),
		rebuild: make(map[string]*sync.Mutex),
	}
}

func redisKey(database string) string { return "schema_" + database }

// Get returns a snapshot no older than the TTL, rebuilding it if needed.
func (c *Cache) Get(ctx context.Context, database string) (*Snapshot, error) {
	now := time.Now()

	c.mu.Lock()
	if snap, ok := c.snaps[database]; ok && snap.FreshAt(now, c.ttl) {
		c.mu.Unlock()
		return snap, nil
	}
	rmu, ok := c.rebuild[database]
	if !ok {
		rmu = &sync.Mutex{}
		c.rebuild[database] = rmu
	}
	c.mu.Unlock()

	rmu.Lock()
	defer rmu.Unlock()

	// Another request may have finished the rebuild while we waited.
	c.mu.Lock()
	if snap, ok := c.snaps[database]; ok && snap.FreshAt(time.Now(), c.ttl) {
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()

	if snap := c.fromRedis(ctx, database); snap != nil {
		c.store(database, snap)
		return snap, nil
	}

	start := time.Now()
	snap, err := c.intros.Introspect(ctx, database)
	if err != nil {
		c.log.Warn("schema introspection failed",
			zap.String("database", database), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaUnavailable, database, err)
	}
	c.log.Info("schema snapshot rebuilt",
		zap.String("database", database),
		zap.Int("tables", len(snap.Tables)),
		zap.Duration("cost", time.Since(start)))

	c.store(database, snap)
	if b, err := json.Marshal(snap); err == nil {
		c.redis.Set(ctx, redisKey(database), string(b), c.ttl)
	}
	return snap, nil
}

// Invalidate drops the cached snapshot so the next read rebuilds.
func (c *Cache) Invalidate(ctx context.Context, database string) {
	c.mu.Lock()
	delete(c.snaps, database)
	c.mu.Unlock()
	c.redis.Del(ctx, redisKey(database))
}

func (c *Cache) store(database string, snap *Snapshot) {
	c.mu.Lock()
	c.snaps[database] = snap
	c.mu.Unlock()
}

func (c *Cache) fromRedis(ctx context.Context, database string) *Snapshot {
	raw := c.redis.Get(ctx, redisKey(database))
	if raw == "" {
		return nil
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		c.log.Warn("discarding unreadable cached schema",
			zap.String("database", database), zap.Error(err))
		return nil
	}
	if !snap.FreshAt(time.Now(), c.ttl) {
		return nil
	}
	return &snap
}
