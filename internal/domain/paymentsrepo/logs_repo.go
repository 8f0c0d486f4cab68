package paymentsrepo

import (
	"context"
	"encoding/json"
	"fmt"
)

// InsertLog stores the raw gateway payload next to the ledger row. A payload
// that cannot be encoded is stored as NULL rather than failing the booking.
func (r *Repository) InsertLog(ctx context.Context, transactionID int64, logType LogType, payload any) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var raw []byte
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			raw = b
		}
	}

	if _, err := r.q.Exec(ctx,
		`INSERT INTO payment_logs (payment_id, log_type, payload) VALUES ($1, $2, $3)`,
		transactionID, string(logType), raw,
	); err != nil {
		return fmt.Errorf("insert payment log for %d: %w", transactionID, err)
	}
	return nil
}
