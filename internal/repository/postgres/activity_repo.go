package postgres

import (
	"context"
	"encoding/json"

	"secwatch/internal/model"
)

// ActivityRepo implements repository.ActivityLogRepository using PostgreSQL.
type ActivityRepo struct{ db *DB }

// NewActivityRepo constructs an activity log repository.
func NewActivityRepo(db *DB) *ActivityRepo { return &ActivityRepo{db: db} }

// Append inserts one audit trail entry. Details are stored as jsonb.
func (r *ActivityRepo) Append(ctx context.Context, entry *model.ActivityLog) error {
	var details []byte
	if entry.Details != nil {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return err
		}
		details = b
	}
	const q = `
INSERT INTO activity_logs (user_id, action, ip_address, user_agent, status, details)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Pool.Exec(ctx, q, entry.UserID, entry.Action, entry.IPAddress, entry.UserAgent, entry.Status, details)
	return err
}

// List returns up to limit entries, newest first, with the username joined
// in when the account still exists.
func (r *ActivityRepo) List(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	const q = `
SELECT l.id, l.user_id, COALESCE(u.username, ''), l.action, l.ip_address, l.user_agent, l.status, l.details, l.created_at
FROM activity_logs l
LEFT JOIN users u ON u.id = l.user_id
ORDER BY l.created_at DESC
LIMIT $1`
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ActivityLog
	for rows.Next() {
		var entry model.ActivityLog
		var details []byte
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Username, &entry.Action, &entry.IPAddress,
			&entry.UserAgent, &entry.Status, &details, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, err
			}
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
