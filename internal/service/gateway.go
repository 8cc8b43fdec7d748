package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/signalmesh/alertgate/internal/cache"
	"github.com/signalmesh/alertgate/internal/dispatch"
	apperrors "github.com/signalmesh/alertgate/internal/errors"
	"github.com/signalmesh/alertgate/internal/integration"
	"github.com/signalmesh/alertgate/internal/metrics"
	"github.com/signalmesh/alertgate/internal/model"
)

// IngestService carries one inbound payload through the gateway: resolve the
// channel token, enforce the per-channel rate limit, normalize, dispatch.
// Every method returns nil once all resulting tasks have been handed to the
// dispatcher; an individual enqueue failure is absorbed, not surfaced.
type IngestService interface {
	IngestAlertmanager(ctx context.Context, token string, payload json.RawMessage) error
	IngestGrafana(ctx context.Context, token string, payload json.RawMessage) error
	IngestAmazonSNS(ctx context.Context, token string, payload json.RawMessage) error
	IngestUniversal(ctx context.Context, integrationSlug, token string, payload json.RawMessage) error
}

// ChannelResolver is the routing lookup the gateway depends on. It must not
// perform I/O: resolution happens on every request and has to keep working
// while the channel store is down.
type ChannelResolver interface {
	Resolve(token string) (cache.ChannelRef, error)
}

type ingestService struct {
	resolver   ChannelResolver
	dispatcher dispatch.Dispatcher
	limiter    *rateLimiter
	logger     *slog.Logger
}

func NewIngestService(resolver ChannelResolver, dispatcher dispatch.Dispatcher, ratePerMinute int, logger *slog.Logger) IngestService {
	l := logger.With("layer", "service", "component", "ingestService")
	return &ingestService{
		resolver:   resolver,
		dispatcher: dispatcher,
		limiter:    newRateLimiter(ratePerMinute, time.Minute),
		logger:     l,
	}
}

func (s *ingestService) IngestAlertmanager(ctx context.Context, token string, payload json.RawMessage) error {
	ref, err := s.admit(token)
	if err != nil {
		return err
	}
	if !ref.Integration.AlertmanagerShaped() {
		return apperrors.NewWrongIntegration("this endpoint ingests alertmanager payloads, channel is %q", ref.Integration)
	}

	batch, err := integration.Alertmanager{}.Normalize(ref.ChannelID, payload)
	if err != nil {
		return err
	}
	return s.dispatchBatch(ctx, ref, batch)
}

func (s *ingestService) IngestGrafana(ctx context.Context, token string, payload json.RawMessage) error {
	ref, err := s.admit(token)
	if err != nil {
		return err
	}
	if ref.Integration != model.IntegrationGrafana {
		return apperrors.NewWrongIntegration("this endpoint ingests grafana payloads, channel is %q", ref.Integration)
	}

	batch, err := integration.Grafana{}.Normalize(ref.ChannelID, payload)
	if err != nil {
		return err
	}
	return s.dispatchBatch(ctx, ref, batch)
}

func (s *ingestService) IngestAmazonSNS(ctx context.Context, token string, payload json.RawMessage) error {
	ref, err := s.admit(token)
	if err != nil {
		return err
	}
	if ref.Integration != model.IntegrationAmazonSNS {
		return apperrors.NewWrongIntegration("this endpoint ingests sns payloads, channel is %q", ref.Integration)
	}

	batch, err := integration.AmazonSNS{}.Normalize(ref.ChannelID, payload)
	if err != nil {
		return err
	}
	return s.dispatchBatch(ctx, ref, batch)
}

// IngestUniversal serves the path-addressed endpoint. The slug in the path
// must name the channel's own integration; a key posted to another
// integration's URL is refused even though the token itself resolves.
func (s *ingestService) IngestUniversal(ctx context.Context, integrationSlug, token string, payload json.RawMessage) error {
	ref, err := s.admit(token)
	if err != nil {
		return err
	}
	slug := model.IntegrationType(integrationSlug)
	if slug != ref.Integration {
		return apperrors.NewWrongIntegration("this url is for %q integrations, channel is %q", slug, ref.Integration)
	}

	normalizer, err := integration.ForType(ref.Integration)
	if err != nil {
		return err
	}
	batch, err := normalizer.Normalize(ref.ChannelID, payload)
	if err != nil {
		return err
	}
	return s.dispatchBatch(ctx, ref, batch)
}

// admit resolves the token and charges the request against the channel's
// rate limit. Unknown tokens are not charged.
func (s *ingestService) admit(token string) (cache.ChannelRef, error) {
	ref, err := s.resolver.Resolve(token)
	if err != nil {
		return cache.ChannelRef{}, err
	}
	if !s.limiter.Allow(token) {
		return cache.ChannelRef{}, apperrors.NewRateLimited("channel %d over ingestion limit", ref.ChannelID)
	}
	return ref, nil
}

// dispatchBatch enqueues one task per alert, preserving input order. A
// failed enqueue drops that alert only: earlier tasks stay enqueued, later
// ones are still attempted, and the request succeeds regardless. Delivery is
// at-least-once downstream, never transactional with the response.
func (s *ingestService) dispatchBatch(ctx context.Context, ref cache.ChannelRef, batch integration.Batch) error {
	enqueued := 0

	for _, alert := range batch.Alerts {
		if err := s.dispatcher.EnqueueCreateAlert(ctx, alert); err != nil {
			metrics.TaskEnqueueFailures.WithLabelValues(dispatch.TaskCreateAlert).Inc()
			s.logger.Error("enqueue create_alert failed",
				slog.Int64("channel_id", ref.ChannelID),
				slog.Any("error", err))
			continue
		}
		enqueued++
	}

	for _, raw := range batch.RawAlerts {
		if err := s.dispatcher.EnqueueAlertmanagerAlert(ctx, ref.ChannelID, raw); err != nil {
			metrics.TaskEnqueueFailures.WithLabelValues(dispatch.TaskCreateAlertmanagerAlerts).Inc()
			s.logger.Error("enqueue create_alertmanager_alerts failed",
				slog.Int64("channel_id", ref.ChannelID),
				slog.Any("error", err))
			continue
		}
		enqueued++
	}

	metrics.AlertsIngested.WithLabelValues(string(ref.Integration)).Add(float64(enqueued))
	s.logger.Info("payload ingested",
		slog.Int64("channel_id", ref.ChannelID),
		slog.String("integration", string(ref.Integration)),
		slog.Int("tasks", enqueued))
	return nil
}
