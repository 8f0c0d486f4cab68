// Package pushtokens keeps the Expo device tokens reservation events are
// pushed to, keyed by requester.
package pushtokens

import (
	"context"
	"encoding/json"
	"time"

	"parkspot/internal/infra/dbx"
)

const QueryTimeoutDuration = time.Second * 5

type Store interface {
	Save(ctx context.Context, requesterID int64, token string, deviceInfo json.RawMessage) error
	Remove(ctx context.Context, requesterID int64, token string) error
	// Discard drops tokens regardless of owner, e.g. after Expo reports
	// DeviceNotRegistered.
	Discard(ctx context.Context, tokens []string) error
	TokensFor(ctx context.Context, requesterIDs []int64) (map[int64][]string, error)
}

type Repository struct{ q dbx.Querier }

func NewRepository(q dbx.Querier) *Repository { return &Repository{q: q} }

func (r *Repository) Save(ctx context.Context, requesterID int64, token string, deviceInfo json.RawMessage) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var info any
	if len(deviceInfo) > 0 {
		info = deviceInfo
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO device_push_tokens (requester_id, token, device_info, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (requester_id, token)
		DO UPDATE SET device_info = COALESCE(EXCLUDED.device_info, device_push_tokens.device_info),
		              updated_at = now()`,
		requesterID, token, info)
	return err
}

func (r *Repository) Remove(ctx context.Context, requesterID int64, token string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.q.Exec(ctx, `DELETE FROM device_push_tokens WHERE requester_id = $1 AND token = $2`, requesterID, token)
	return err
}

func (r *Repository) Discard(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.q.Exec(ctx, `DELETE FROM device_push_tokens WHERE token = ANY($1)`, tokens)
	return err
}

// TokensFor groups tokens by requester, newest first. Requesters without a
// device are absent from the map.
func (r *Repository) TokensFor(ctx context.Context, requesterIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(requesterIDs))
	if len(requesterIDs) == 0 {
		return out, nil
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.q.Query(ctx, `
		SELECT requester_id, token
		FROM device_push_tokens
		WHERE requester_id = ANY($1)
		ORDER BY updated_at DESC`, requesterIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    int64
			token string
		)
		if err := rows.Scan(&id, &token); err != nil {
			return nil, err
		}
		out[id] = append(out[id], token)
	}
	return out, rows.Err()
}
