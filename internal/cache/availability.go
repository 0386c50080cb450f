// Package cache keeps an advisory per-event availability snapshot in Redis.
// Reads served from it may be stale; they are for display only and are
// never used as the basis for a seat-count mutation. A nil Redis client
// disables the cache entirely.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"banket/internal/model"
)

const keyPrefix = "availability:"

type TableAvailability struct {
	TableID        string `json:"table_id"`
	Number         int    `json:"number"`
	SeatsTotal     int    `json:"seats_total"`
	SeatsAvailable int    `json:"seats_available"`
}

type Availability struct {
	rdb *redis.Client
	ttl time.Duration
	log *logrus.Logger
}

func NewAvailability(rdb *redis.Client, ttl time.Duration, log *logrus.Logger) *Availability {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Availability{rdb: rdb, ttl: ttl, log: log}
}

func Snapshot(event *model.Event) []TableAvailability {
	out := make([]TableAvailability, len(event.Tables))
	for i, t := range event.Tables {
		out[i] = TableAvailability{
			TableID:        t.ID,
			Number:         t.Number,
			SeatsTotal:     t.SeatsTotal,
			SeatsAvailable: t.SeatsAvailable,
		}
	}
	return out
}

// Put stores the event's availability snapshot, best-effort.
func (c *Availability) Put(ctx context.Context, event *model.Event) {
	if c == nil || c.rdb == nil {
		return
	}
	body, err := json.Marshal(Snapshot(event))
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+event.ID, body, c.ttl).Err(); err != nil {
		c.log.WithField("event_id", event.ID).WithError(err).Debug("availability cache write failed")
	}
}

// Get returns the cached snapshot and whether it was present.
func (c *Availability) Get(ctx context.Context, eventID string) ([]TableAvailability, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	body, err := c.rdb.Get(ctx, keyPrefix+eventID).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithField("event_id", eventID).WithError(err).Debug("availability cache read failed")
		}
		return nil, false
	}
	var out []TableAvailability
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, false
	}
	return out, true
}

// Drop removes the snapshot for an event, best-effort.
func (c *Availability) Drop(ctx context.Context, eventID string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, keyPrefix+eventID).Err(); err != nil {
		c.log.WithField("event_id", eventID).WithError(err).Debug("availability cache drop failed")
	}
}
