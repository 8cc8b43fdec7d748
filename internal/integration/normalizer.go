// Package integration normalizes heterogeneous monitoring payloads into the
// canonical records the async alert pipeline consumes.
package integration

import (
	"encoding/json"

	apperrors "github.com/signalmesh/alertgate/internal/errors"
	"github.com/signalmesh/alertgate/internal/model"
)

// Batch is the outcome of normalizing one inbound payload. A normalizer
// fills exactly one of the two slices: Alerts carries canonical records
// dispatched as create_alert tasks, RawAlerts carries untouched per-alert
// objects dispatched as create_alertmanager_alerts tasks, in input order.
// Both empty means the payload was valid but produced nothing to dispatch.
type Batch struct {
	Alerts    []model.NormalizedAlert
	RawAlerts []json.RawMessage
}

// Normalizer turns a raw payload addressed to the given channel into a Batch.
type Normalizer interface {
	Normalize(channelID int64, payload json.RawMessage) (Batch, error)
}

// ForType selects the normalizer for an integration type. Unlisted types are
// refused rather than handled generically, so a newly added channel type
// cannot silently flow through the wrong payload contract.
func ForType(t model.IntegrationType) (Normalizer, error) {
	switch t {
	case model.IntegrationAlertmanager, model.IntegrationGrafanaAlerting:
		return Alertmanager{}, nil
	case model.IntegrationGrafana:
		return Grafana{}, nil
	case model.IntegrationAmazonSNS:
		return AmazonSNS{}, nil
	case model.IntegrationMaintenance:
		return Maintenance{}, nil
	case model.IntegrationWebhook,
		model.IntegrationFormattedWebhook,
		model.IntegrationHeartbeat,
		model.IntegrationInboundEmail,
		model.IntegrationManual:
		return Generic{}, nil
	default:
		return nil, apperrors.NewWrongIntegration("no handler for integration %q", t)
	}
}
