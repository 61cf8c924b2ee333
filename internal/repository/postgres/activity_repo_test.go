package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"secwatch/internal/model"
)

func TestActivityRepo_Append(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActivityRepo(db)
	ctx := context.Background()

	uid := uuid.Must(uuid.NewV4())
	entry := &model.ActivityLog{
		UserID:    &uid,
		Action:    model.ActionSignup,
		IPAddress: "1.2.3.4",
		UserAgent: "ua",
		Status:    "success",
		Details:   map[string]any{"k": "v"},
	}
	mock.ExpectExec(`INSERT INTO activity_logs \(user_id, action, ip_address, user_agent, status, details\)`).
		WithArgs(entry.UserID, entry.Action, entry.IPAddress, entry.UserAgent, entry.Status, []byte(`{"k":"v"}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Append(ctx, entry))

	// No details stays NULL rather than the empty-object string.
	entry.Details = nil
	mock.ExpectExec(`INSERT INTO activity_logs \(user_id, action, ip_address, user_agent, status, details\)`).
		WithArgs(entry.UserID, entry.Action, entry.IPAddress, entry.UserAgent, entry.Status, []byte(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Append(ctx, entry))
}

func TestActivityRepo_List(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActivityRepo(db)
	ctx := context.Background()

	uid := uuid.Must(uuid.NewV4())
	now := time.Now()
	rows := pgxmock.NewRows([]string{
		"id", "user_id", "username", "action", "ip_address", "user_agent", "status", "details", "created_at",
	}).
		AddRow(int64(2), &uid, "alice", model.ActionAdminAccess, "1.2.3.4", "ua", "success", []byte(`{"resource":"/admin/users"}`), now).
		AddRow(int64(1), (*uuid.UUID)(nil), "", model.ActionSignup, "1.2.3.5", "ua", "success", []byte(nil), now.Add(-time.Minute))

	mock.ExpectQuery(`LEFT JOIN users u ON u.id = l.user_id`).
		WithArgs(100).
		WillReturnRows(rows)

	out, err := r.List(ctx, 100)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "alice", out[0].Username)
	require.Equal(t, "/admin/users", out[0].Details["resource"])
	require.Nil(t, out[1].UserID)
	require.Nil(t, out[1].Details)
}
