// Package service contains application services for authentication, profile
// management and admin views.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	pkgcrypto "secwatch/internal/crypto"
	"secwatch/internal/errs"
	"secwatch/internal/guard"
	"secwatch/internal/model"
	"secwatch/internal/repository"
	"secwatch/internal/siem"
	"secwatch/internal/token"
)

// EventSink receives security events, best effort. Implemented by
// *siem.Forwarder.
type EventSink interface {
	Send(ev siem.Event)
}

// SignupInput is a validated signup request.
type SignupInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// AuthService answers authenticate/validate for the transport layer.
type AuthService interface {
	// Signup creates a new account with a hashed credential.
	Signup(ctx context.Context, in SignupInput, ip, userAgent string) (*model.User, error)
	// Authenticate runs the full login state machine and returns the token
	// pair. Every failure intrinsic to the decision comes back as
	// errs.ErrUnauthorized or errs.ErrAccountLocked.
	Authenticate(ctx context.Context, username, password, ip string) (model.Tokens, *model.User, error)
	// Refresh exchanges a valid refresh token for a fresh pair.
	Refresh(ctx context.Context, refreshToken string) (model.Tokens, error)
	// ValidateSession resolves a bearer token to the current account row.
	ValidateSession(ctx context.Context, accessToken string) (*model.User, error)
}

type AuthServiceImpl struct {
	users  repository.UserRepository
	logs   repository.ActivityLogRepository
	tokens *token.Service
	guard  guard.Guard
	events EventSink
	log    *zap.Logger
	nowFn  func() time.Time
}

var _ AuthService = (*AuthServiceImpl)(nil)

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(
	users repository.UserRepository,
	logs repository.ActivityLogRepository,
	tokens *token.Service,
	g guard.Guard,
	events EventSink,
	log *zap.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		users:  users,
		logs:   logs,
		tokens: tokens,
		guard:  g,
		events: events,
		log:    log,
		nowFn:  time.Now,
	}
}

// Signup creates a new user record.
func (s *AuthServiceImpl) Signup(ctx context.Context, in SignupInput, ip, userAgent string) (*model.User, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, errs.ErrInvalidInput
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	hash, err := pkgcrypto.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		ID:             uid,
		Username:       in.Username,
		Email:          in.Email,
		HashedPassword: hash,
		Role:           model.RoleUser,
		FullName:       in.FullName,
		IsActive:       true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	now := s.nowFn()
	s.events.Send(siem.SuspiciousActivity(u.Username, ip, "account_created", nil, now))
	s.appendLog(ctx, &model.ActivityLog{
		UserID:    &u.ID,
		Action:    model.ActionSignup,
		IPAddress: ip,
		UserAgent: userAgent,
		Status:    "success",
	})
	s.log.Info("user signup", zap.String("username", u.Username))
	return u, nil
}

// Authenticate implements the per-request login state machine. Each call is
// independent; the only shared state is the persisted account row.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, username, password, ip string) (model.Tokens, *model.User, error) {
	now := s.nowFn()

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			// Burn a hash comparison so misses cost the same as a wrong password.
			pkgcrypto.DummyCompare()
			s.events.Send(siem.LoginAttempt(username, ip, false, map[string]any{"reason": "user_not_found"}, now))
			return model.Tokens{}, nil, errs.ErrUnauthorized
		}
		return model.Tokens{}, nil, err
	}

	if locked, until := s.guard.Check(u, now); locked {
		s.events.Send(siem.LoginAttempt(username, ip, false, map[string]any{
			"reason":       "account_locked",
			"locked_until": until.UTC().Format(time.RFC3339),
		}, now))
		return model.Tokens{}, nil, errs.ErrAccountLocked
	}

	if !u.IsActive {
		s.events.Send(siem.LoginAttempt(username, ip, false, map[string]any{"reason": "account_disabled"}, now))
		return model.Tokens{}, nil, errs.ErrUnauthorized
	}

	if !pkgcrypto.VerifyPassword(password, u.HashedPassword) {
		prev := u.LoginAttempts
		lockedNow := s.guard.RecordFailure(u, now)
		s.persistLoginState(ctx, u, prev)
		if lockedNow {
			s.events.Send(siem.SuspiciousActivity(username, ip, "multiple_failed_logins", nil, now))
		}
		s.events.Send(siem.LoginAttempt(username, ip, false, map[string]any{
			"reason":   "invalid_password",
			"attempts": u.LoginAttempts,
		}, now))
		if lockedNow {
			return model.Tokens{}, nil, errs.ErrAccountLocked
		}
		return model.Tokens{}, nil, errs.ErrUnauthorized
	}

	prev := u.LoginAttempts
	s.guard.RecordSuccess(u, now)
	s.persistLoginState(ctx, u, prev)

	toks, err := s.tokens.Issue(u.Username, u.Role, now)
	if err != nil {
		return model.Tokens{}, nil, err
	}
	s.events.Send(siem.LoginAttempt(username, ip, true, nil, now))
	s.log.Info("user login", zap.String("username", u.Username))
	return toks, u, nil
}

// persistLoginState commits counter changes. A version conflict means a
// concurrent attempt on the same account already wrote its state; that
// attempt's outcome stands and this one is not retried.
func (s *AuthServiceImpl) persistLoginState(ctx context.Context, u *model.User, expectedAttempts int) {
	err := s.users.UpdateLoginState(ctx, u, expectedAttempts)
	switch {
	case err == nil:
	case errors.Is(err, errs.ErrVersionConflict):
		s.log.Debug("concurrent login state update", zap.String("username", u.Username))
	default:
		s.log.Error("persist login state", zap.String("username", u.Username), zap.Error(err))
	}
}

// Refresh issues a new pair from a refresh token, re-fetching the account so
// a revoked or deactivated user cannot renew.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (model.Tokens, error) {
	now := s.nowFn()
	claims, err := s.tokens.Validate(refreshToken, now)
	if err != nil || claims.Kind != token.KindRefresh {
		return model.Tokens{}, errs.ErrUnauthorized
	}
	u, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil || !u.IsActive {
		return model.Tokens{}, errs.ErrUnauthorized
	}
	return s.tokens.Issue(u.Username, u.Role, now)
}

// ValidateSession verifies an access token and re-fetches the account, so
// authorization decisions use the current role and active flag rather than
// the token snapshot.
func (s *AuthServiceImpl) ValidateSession(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := s.tokens.Validate(accessToken, s.nowFn())
	if err != nil || claims.Kind != token.KindAccess {
		return nil, errs.ErrUnauthorized
	}
	u, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil || !u.IsActive {
		return nil, errs.ErrUnauthorized
	}
	return u, nil
}

// appendLog writes an audit row; failures are logged, not surfaced, so the
// primary operation is never failed by its audit trail.
func (s *AuthServiceImpl) appendLog(ctx context.Context, entry *model.ActivityLog) {
	if err := s.logs.Append(ctx, entry); err != nil {
		s.log.Warn("append activity log", zap.String("action", entry.Action), zap.Error(err))
	}
}
