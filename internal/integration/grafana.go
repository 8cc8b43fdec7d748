package integration

import (
	"encoding/json"

	apperrors "github.com/signalmesh/alertgate/internal/errors"
)

// Grafana handles both generations of Grafana webhooks. A payload carrying
// an "alerts" key is the Alertmanager-shaped format emitted since unified
// alerting; anything else is a legacy dashboard notification and is ingested
// whole, as a single opaque alert.
type Grafana struct{}

func (Grafana) Normalize(channelID int64, payload json.RawMessage) (Batch, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(payload, &probe); err != nil {
		return Batch{}, apperrors.NewMalformedPayload("invalid grafana payload: %v", err)
	}
	if _, ok := probe["alerts"]; ok {
		return Alertmanager{}.Normalize(channelID, payload)
	}
	return Generic{}.Normalize(channelID, payload)
}
