package chat

import (
	"context"
	"fmt"
	"time"

	"property-chat/internal/store"

	"github.com/redis/go-redis/v9"
)

// Dedupe sources reported by Claim.
const (
	DedupeSourceRedis = "redis"
	DedupeSourceStore = "store"
)

const leadKeyPrefix = "chat:lead:"

// LeadDeduper decides whether a (session, phone) pair still needs a lead.
// A held Redis key short-circuits to duplicate. A fresh key is confirmed
// against the store, since the key outlives neither its TTL nor a flush.
type LeadDeduper struct {
	redis *redis.Client
	store store.Store
	ttl   time.Duration
}

func NewLeadDeduper(client *redis.Client, st store.Store, ttl time.Duration) *LeadDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LeadDeduper{redis: client, store: st, ttl: ttl}
}

func leadKey(sessionID, phone string) string {
	return leadKeyPrefix + sessionID + ":" + phone
}

// Claim reports true when the caller should create the lead.
func (d *LeadDeduper) Claim(ctx context.Context, sessionID, phone string) (bool, string, error) {
	if d.redis != nil {
		ok, err := d.redis.SetNX(ctx, leadKey(sessionID, phone), time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
		if err == nil {
			if !ok {
				return false, DedupeSourceRedis, nil
			}
			exists, err := d.store.LeadExists(ctx, sessionID, phone)
			if err != nil {
				// The insert's unique index still rejects a duplicate.
				return true, DedupeSourceRedis, nil
			}
			return !exists, DedupeSourceStore, nil
		}
	}

	exists, err := d.store.LeadExists(ctx, sessionID, phone)
	if err != nil {
		return false, DedupeSourceStore, fmt.Errorf("lead dedupe: %w", err)
	}
	return !exists, DedupeSourceStore, nil
}

// Release drops a claim whose lead could not be written.
func (d *LeadDeduper) Release(ctx context.Context, sessionID, phone string) {
	if d.redis == nil {
		return
	}
	_ = d.redis.Del(ctx, leadKey(sessionID, phone)).Err()
}
