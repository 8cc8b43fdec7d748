package integration

import (
	"encoding/json"

	apperrors "github.com/signalmesh/alertgate/internal/errors"
	"github.com/signalmesh/alertgate/internal/model"
)

// Maintenance handles maintenance-window notices posted by internal tooling.
// The notice title and message surface on the alert; the rest of the payload
// rides along untouched.
type Maintenance struct{}

func (Maintenance) Normalize(channelID int64, payload json.RawMessage) (Batch, error) {
	var body struct {
		Title   *string `json:"title"`
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return Batch{}, apperrors.NewMalformedPayload("invalid maintenance payload: %v", err)
	}

	alert := model.NormalizedAlert{
		Title:                 body.Title,
		Message:               body.Message,
		AlertReceiveChannelPK: channelID,
		RawRequestData:        payload,
	}
	return Batch{Alerts: []model.NormalizedAlert{alert}}, nil
}
