package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/signalmesh/alertgate/internal/errors"
	"github.com/signalmesh/alertgate/internal/metrics"
	"github.com/signalmesh/alertgate/internal/service"
	"github.com/signalmesh/alertgate/pkg/tracing"
)

// Body returned on every accepted payload. Senders only check the status
// code; the constant body keeps responses byte-identical across variants.
const responseOK = "Ok."

type IngestHandler struct {
	svc    service.IngestService
	guard  *service.PayloadGuard
	logger *slog.Logger
	debug  bool
}

func NewIngestHandler(svc service.IngestService, guard *service.PayloadGuard, logger *slog.Logger, debug bool) *IngestHandler {
	return &IngestHandler{svc: svc, guard: guard, logger: logger, debug: debug}
}

type ingestFunc func(ctx context.Context, token string, payload json.RawMessage) error

func (h *IngestHandler) Alertmanager(w http.ResponseWriter, r *http.Request) {
	h.ingest(w, r, "IngestAlertmanager", h.svc.IngestAlertmanager)
}

// GrafanaAlerting shares the Alertmanager payload contract; the separate
// route exists so both channel types keep their own public URL.
func (h *IngestHandler) GrafanaAlerting(w http.ResponseWriter, r *http.Request) {
	h.ingest(w, r, "IngestGrafanaAlerting", h.svc.IngestAlertmanager)
}

func (h *IngestHandler) Grafana(w http.ResponseWriter, r *http.Request) {
	h.ingest(w, r, "IngestGrafana", h.svc.IngestGrafana)
}

func (h *IngestHandler) AmazonSNS(w http.ResponseWriter, r *http.Request) {
	h.ingest(w, r, "IngestAmazonSNS", h.svc.IngestAmazonSNS)
}

func (h *IngestHandler) Universal(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "integrationType")
	h.ingest(w, r, "IngestUniversal", func(ctx context.Context, token string, payload json.RawMessage) error {
		return h.svc.IngestUniversal(ctx, slug, token, payload)
	})
}

func (h *IngestHandler) ingest(w http.ResponseWriter, r *http.Request, op string, fn ingestFunc) {
	tracer := tracing.NewTracer(tracing.GetTracer("ingest-handler"))
	ctx, span := tracer.StartServerSpan(r.Context(), op)
	defer span.End()

	token := chi.URLParam(r, "channelToken")

	payload, err := h.guard.Decode(w, r)
	if err != nil {
		h.reject(w, err)
		return
	}

	if err := fn(ctx, token, payload); err != nil {
		if !apperrors.IsRejection(err) {
			tracer.RecordError(span, err)
			h.logger.Error("ingest failed", slog.String("op", op), slog.Any("error", err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		h.reject(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(responseOK))
}

// reject maps a rejection class to its status code. The generic reason is
// what callers see unless debug mode is on; detail strings can mention
// internals and stay out of production responses.
func (h *IngestHandler) reject(w http.ResponseWriter, err error) {
	status, reason := classify(err)

	metrics.RejectedRequests.WithLabelValues(reason).Inc()
	h.logger.Debug("payload rejected",
		slog.String("reason", reason),
		slog.Any("error", err))

	if h.debug {
		http.Error(w, err.Error(), status)
		return
	}
	http.Error(w, reason, status)
}

func classify(err error) (int, string) {
	switch {
	case apperrors.IsPayloadTooLarge(err):
		return http.StatusBadRequest, "payload too large"
	case apperrors.IsUnsupportedContentType(err):
		return http.StatusBadRequest, "unsupported content type"
	case apperrors.IsMalformedPayload(err):
		return http.StatusBadRequest, "bad payload"
	case apperrors.IsWrongIntegration(err):
		return http.StatusBadRequest, "wrong integration endpoint"
	case apperrors.IsUnknownChannel(err):
		return http.StatusNotFound, "integration key not found"
	case apperrors.IsRateLimited(err):
		return http.StatusTooManyRequests, "rate limited"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
