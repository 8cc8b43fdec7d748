package model

import "encoding/json"

// NormalizedAlert is the canonical record handed to the async alert pipeline.
// The downstream consumer relies on a fixed shape, so the extractable fields
// are pointers that serialize as explicit nulls when the source payload does
// not carry them. RawRequestData always preserves the payload exactly as it
// arrived.
type NormalizedAlert struct {
	Title                 *string         `json:"title"`
	Message               *string         `json:"message"`
	ImageURL              *string         `json:"image_url"`
	LinkToUpstreamDetails *string         `json:"link_to_upstream_details"`
	AlertReceiveChannelPK int64           `json:"alert_receive_channel_pk"`
	IntegrationUniqueData json.RawMessage `json:"integration_unique_data"`
	RawRequestData        json.RawMessage `json:"raw_request_data"`
}
