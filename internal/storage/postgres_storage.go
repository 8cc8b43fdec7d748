package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/signalmesh/alertgate/internal/model"
)

type PostgresStorage struct {
	db *pgxpool.Pool
}

func NewPostgresStorage(pool *pgxpool.Pool) ChannelStore {
	return &PostgresStorage{pool}
}

func (ps *PostgresStorage) Ping(ctx context.Context) error {
	return ps.db.Ping(ctx)
}

// ListActive returns every channel that can currently receive alerts.
// Deactivated channels fall out of the routing table on the next refresh.
func (ps *PostgresStorage) ListActive(ctx context.Context) ([]model.Channel, error) {
	const query = `
		SELECT id, token, integration_type, organization_id, created_by_id
		FROM alert_receive_channels
		WHERE deactivated_at IS NULL
	`

	rows, err := ps.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var channels []model.Channel

	for rows.Next() {
		var ch model.Channel
		var integration string
		if err := rows.Scan(&ch.ID, &ch.Token, &integration, &ch.OrganizationID, &ch.CreatedByID); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		ch.Integration = model.IntegrationType(integration)
		channels = append(channels, ch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	return channels, nil
}
