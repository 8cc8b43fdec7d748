package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/signalmesh/alertgate/internal/storage"
)

type HealthService interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// RoutingState is the readiness view of the routing cache.
type RoutingState interface {
	Ready() bool
	Len() int
}

type healthService struct {
	routing RoutingState
	store   storage.ChannelStore
	logger  *slog.Logger
}

func (s healthService) Liveness(ctx context.Context) error {
	s.logger.Debug("Liveness check passed")
	return nil
}

// Readiness gates on the routing cache, not the channel store: the gateway
// ingests from its snapshot and a store outage must not drain it from the
// balancer. Store health is still probed and logged for operators.
func (s healthService) Readiness(ctx context.Context) error {
	if !s.routing.Ready() {
		s.logger.Warn("Readiness check failed: routing table not populated")
		return fmt.Errorf("routing table not populated")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("channel store unreachable, serving from routing snapshot",
			slog.Int("channels", s.routing.Len()),
			slog.String("error", err.Error()))
	}
	s.logger.Debug("Readiness check passed")
	return nil
}

func NewHealthService(routing RoutingState, store storage.ChannelStore, logger *slog.Logger) HealthService {
	l := logger.With("layer", "service", "component", "healthService")
	return &healthService{routing: routing, store: store, logger: l}
}
