package storage

import (
	"context"

	"github.com/signalmesh/alertgate/internal/model"
)

// ChannelStore is the durable source of provisioned alert channels. The hot
// ingestion path never touches it; only cache refreshes and readiness probes
// do, so every call carries a context and may fail without affecting traffic.
type ChannelStore interface {
	Ping(ctx context.Context) error
	ListActive(ctx context.Context) ([]model.Channel, error)
}
