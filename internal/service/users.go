package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	pkgcrypto "secwatch/internal/crypto"
	"secwatch/internal/errs"
	"secwatch/internal/model"
	"secwatch/internal/repository"
	"secwatch/internal/siem"
)

// ProfileUpdate carries the mutable profile fields. Nil pointers leave the
// field untouched. A password change requires the current password.
type ProfileUpdate struct {
	Email           *string
	FullName        *string
	CurrentPassword string
	NewPassword     string
}

// UserService covers profile management and the admin-only views.
type UserService interface {
	// UpdateProfile applies a profile change to the authenticated user.
	UpdateProfile(ctx context.Context, u *model.User, in ProfileUpdate, ip, userAgent string) (*model.User, error)
	// ListUsers returns all accounts; admin only.
	ListUsers(ctx context.Context, actor *model.User, ip, userAgent string) ([]model.User, error)
	// ListLogs returns the newest activity log entries; admin only.
	ListLogs(ctx context.Context, actor *model.User, ip, userAgent string, limit int) ([]model.ActivityLog, error)
}

type UserServiceImpl struct {
	users  repository.UserRepository
	logs   repository.ActivityLogRepository
	events EventSink
	log    *zap.Logger
	nowFn  func() time.Time
}

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService constructs UserService with required dependencies.
func NewUserService(
	users repository.UserRepository,
	logs repository.ActivityLogRepository,
	events EventSink,
	log *zap.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{users: users, logs: logs, events: events, log: log, nowFn: time.Now}
}

// UpdateProfile applies email/full-name/password changes.
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, u *model.User, in ProfileUpdate, ip, userAgent string) (*model.User, error) {
	updated := *u
	if in.Email != nil {
		updated.Email = *in.Email
	}
	if in.FullName != nil {
		updated.FullName = *in.FullName
	}
	if in.NewPassword != "" {
		if !pkgcrypto.VerifyPassword(in.CurrentPassword, u.HashedPassword) {
			return nil, errs.ErrInvalidInput
		}
		hash, err := pkgcrypto.HashPassword(in.NewPassword)
		if err != nil {
			return nil, err
		}
		updated.HashedPassword = hash
	}

	if err := s.users.UpdateProfile(ctx, &updated); err != nil {
		return nil, err
	}
	s.appendLog(ctx, &model.ActivityLog{
		UserID:    &updated.ID,
		Action:    model.ActionProfileUpdate,
		IPAddress: ip,
		UserAgent: userAgent,
		Status:    "success",
	})
	s.log.Info("profile updated", zap.String("username", updated.Username))
	return &updated, nil
}

// ListUsers returns all accounts for the admin view.
func (s *UserServiceImpl) ListUsers(ctx context.Context, actor *model.User, ip, userAgent string) ([]model.User, error) {
	if err := s.requireAdmin(ctx, actor, ip, userAgent, "/admin/users"); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// ListLogs returns the newest activity log entries for the admin view.
func (s *UserServiceImpl) ListLogs(ctx context.Context, actor *model.User, ip, userAgent string, limit int) ([]model.ActivityLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	if err := s.requireAdmin(ctx, actor, ip, userAgent, "/admin/logs"); err != nil {
		return nil, err
	}
	return s.logs.List(ctx, limit)
}

// requireAdmin gates an admin resource and records the access either way.
// A valid identity without the role gets errs.ErrForbidden, distinct from
// unauthenticated.
func (s *UserServiceImpl) requireAdmin(ctx context.Context, actor *model.User, ip, userAgent, resource string) error {
	now := s.nowFn()
	ok := actor.Role == model.RoleAdmin
	s.events.Send(siem.AdminAccess(actor.Username, ip, resource, ok, now))
	status := "success"
	if !ok {
		status = "failure"
	}
	s.appendLog(ctx, &model.ActivityLog{
		UserID:    &actor.ID,
		Action:    model.ActionAdminAccess,
		IPAddress: ip,
		UserAgent: userAgent,
		Status:    status,
		Details:   map[string]any{"resource": resource},
	})
	if !ok {
		return errs.ErrForbidden
	}
	return nil
}

func (s *UserServiceImpl) appendLog(ctx context.Context, entry *model.ActivityLog) {
	if err := s.logs.Append(ctx, entry); err != nil {
		s.log.Warn("append activity log", zap.String("action", entry.Action), zap.Error(err))
	}
}
