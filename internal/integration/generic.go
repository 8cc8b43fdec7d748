package integration

import (
	"encoding/json"

	"github.com/signalmesh/alertgate/internal/model"
)

// Generic treats the payload as opaque: one alert, no extracted fields, the
// original request preserved for downstream templating. This is the contract
// for webhook-style integrations that define their own payload shapes.
type Generic struct{}

func (Generic) Normalize(channelID int64, payload json.RawMessage) (Batch, error) {
	alert := model.NormalizedAlert{
		AlertReceiveChannelPK: channelID,
		RawRequestData:        payload,
	}
	return Batch{Alerts: []model.NormalizedAlert{alert}}, nil
}
