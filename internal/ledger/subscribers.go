package ledger

import (
	"context"
	"fmt"
)

// Subscribe adds a chat to the live alert list. Subscribing twice is a no-op.
func (d *DB) Subscribe(ctx context.Context, chatID int64) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO subscribers (chat_id, created_at) VALUES (?, ?)
	`, chatID, d.now())
	if err != nil {
		return fmt.Errorf("subscribing chat: %w", err)
	}
	return nil
}

// Unsubscribe removes a chat from the alert list and reports whether it was on it.
func (d *DB) Unsubscribe(ctx context.Context, chatID int64) (bool, error) {
	result, err := d.db.ExecContext(ctx, "DELETE FROM subscribers WHERE chat_id = ?", chatID)
	if err != nil {
		return false, fmt.Errorf("unsubscribing chat: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unsubscribing chat: %w", err)
	}
	return n > 0, nil
}

// Subscribers lists chats receiving live alerts.
func (d *DB) Subscribers(ctx context.Context) ([]int64, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT chat_id FROM subscribers ORDER BY chat_id")
	if err != nil {
		return nil, fmt.Errorf("querying subscribers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning subscriber row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
