// Package cache holds the in-memory routing table mapping channel tokens to
// alert channels.
//
// The ingestion path resolves tokens exclusively against an immutable
// snapshot, so traffic keeps flowing while the channel store is down. Refresh
// builds a complete replacement table and installs it with one atomic pointer
// swap; readers never lock and never observe a half-built mapping.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	apperrors "github.com/signalmesh/alertgate/internal/errors"
	"github.com/signalmesh/alertgate/internal/metrics"
	"github.com/signalmesh/alertgate/internal/model"
	"github.com/signalmesh/alertgate/internal/storage"
)

// ChannelRef is the routing result for one token: just enough to pick a
// normalizer and stamp outgoing tasks.
type ChannelRef struct {
	ChannelID   int64
	Integration model.IntegrationType
}

// SnapshotStore persists the last good routing table outside the process so
// a freshly started gateway can come up serving while the channel store is
// unreachable.
type SnapshotStore interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) ([]byte, error)
}

type snapshot struct {
	byToken     map[string]ChannelRef
	installedAt time.Time
}

type RoutingCache struct {
	store     storage.ChannelStore
	snapshots SnapshotStore
	logger    *slog.Logger

	current atomic.Pointer[snapshot]
}

type Option func(*RoutingCache)

// WithSnapshotStore enables snapshot persistence across restarts.
func WithSnapshotStore(s SnapshotStore) Option {
	return func(c *RoutingCache) {
		c.snapshots = s
	}
}

func New(store storage.ChannelStore, logger *slog.Logger, opts ...Option) *RoutingCache {
	c := &RoutingCache{
		store:  store,
		logger: logger.With(slog.String("component", "routingCache")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve looks the token up in the current snapshot. It performs no I/O: a
// cache that has never been populated resolves nothing, and a token missing
// from the snapshot is unknown even if the store has since learned it.
func (c *RoutingCache) Resolve(token string) (ChannelRef, error) {
	snap := c.current.Load()
	if snap == nil {
		return ChannelRef{}, apperrors.NewUnknownChannel("routing table not populated yet")
	}
	ref, ok := snap.byToken[token]
	if !ok {
		return ChannelRef{}, apperrors.NewUnknownChannel("no channel for token")
	}
	return ref, nil
}

// Ready reports whether a routing snapshot has been installed. The gateway
// can serve as soon as this is true, regardless of store health.
func (c *RoutingCache) Ready() bool {
	return c.current.Load() != nil
}

// Len returns the number of channels in the current snapshot.
func (c *RoutingCache) Len() int {
	snap := c.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.byToken)
}

// Refresh rebuilds the routing table from the channel store and installs it
// atomically. When the store fails the previous snapshot stays in place and
// the error is returned; if no snapshot is installed yet, the last persisted
// one is restored instead so a cold start can ride out a store outage.
func (c *RoutingCache) Refresh(ctx context.Context) error {
	channels, err := c.store.ListActive(ctx)
	if err != nil {
		metrics.CacheRefreshes.WithLabelValues("error").Inc()
		c.restorePersisted(ctx)
		return fmt.Errorf("refresh routing table: %w", err)
	}

	c.install(channels)
	metrics.CacheRefreshes.WithLabelValues("ok").Inc()
	c.persist(ctx, channels)
	return nil
}

// Run refreshes the routing table on a fixed interval until ctx is cancelled.
func (c *RoutingCache) Run(ctx context.Context, interval time.Duration) {
	c.logger.Info("routing cache refresher started", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("routing cache refresher stopped")
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.Warn("refresh failed, serving previous routing table",
					slog.Int("channels", c.Len()),
					slog.Any("error", err),
				)
			}
		}
	}
}

func (c *RoutingCache) install(channels []model.Channel) {
	byToken := make(map[string]ChannelRef, len(channels))
	for _, ch := range channels {
		byToken[ch.Token] = ChannelRef{ChannelID: ch.ID, Integration: ch.Integration}
	}
	c.current.Store(&snapshot{byToken: byToken, installedAt: time.Now()})
	metrics.CachedChannels.Set(float64(len(byToken)))
}

func (c *RoutingCache) persist(ctx context.Context, channels []model.Channel) {
	if c.snapshots == nil {
		return
	}
	data, err := json.Marshal(channels)
	if err != nil {
		c.logger.Warn("encode snapshot failed", slog.Any("error", err))
		return
	}
	if err := c.snapshots.Save(ctx, data); err != nil {
		c.logger.Warn("persist snapshot failed", slog.Any("error", err))
	}
}

func (c *RoutingCache) restorePersisted(ctx context.Context) {
	if c.snapshots == nil || c.current.Load() != nil {
		return
	}
	data, err := c.snapshots.Load(ctx)
	if err != nil {
		c.logger.Warn("load persisted snapshot failed", slog.Any("error", err))
		return
	}
	var channels []model.Channel
	if err := json.Unmarshal(data, &channels); err != nil {
		c.logger.Warn("decode persisted snapshot failed", slog.Any("error", err))
		return
	}
	c.install(channels)
	c.logger.Info("restored persisted routing snapshot", slog.Int("channels", len(channels)))
}
