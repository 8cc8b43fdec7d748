package integration

import (
	"encoding/json"

	apperrors "github.com/signalmesh/alertgate/internal/errors"
	"github.com/signalmesh/alertgate/internal/model"
)

// AmazonSNS handles SNS HTTP(S) endpoint deliveries. Subscription handshake
// messages are acknowledged without producing alerts; notifications become a
// single alert carrying the subject and message when present.
type AmazonSNS struct{}

func (AmazonSNS) Normalize(channelID int64, payload json.RawMessage) (Batch, error) {
	var body struct {
		Type    string  `json:"Type"`
		Subject *string `json:"Subject"`
		Message *string `json:"Message"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return Batch{}, apperrors.NewMalformedPayload("invalid sns payload: %v", err)
	}

	switch body.Type {
	case "SubscriptionConfirmation", "UnsubscribeConfirmation":
		return Batch{}, nil
	}

	alert := model.NormalizedAlert{
		Title:                 body.Subject,
		Message:               body.Message,
		AlertReceiveChannelPK: channelID,
		RawRequestData:        payload,
	}
	return Batch{Alerts: []model.NormalizedAlert{alert}}, nil
}
