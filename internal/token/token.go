// Package token issues and validates signed, self-contained session tokens.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"secwatch/internal/errs"
	"secwatch/internal/model"
)

// Token kinds carried in the "typ" claim.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims is the decoded identity snapshot from a valid token.
type Claims struct {
	Subject string // username
	Role    string // role at issuance time, a snapshot, not live
	Kind    string // KindAccess or KindRefresh
}

type jwtClaims struct {
	Role string `json:"role"`
	Kind string `json:"typ"`
	jwt.RegisteredClaims
}

// Service signs and verifies HS256 JWTs with a server-held secret. There is
// no revocation; rotating the secret invalidates everything outstanding.
type Service struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService constructs a token service.
func NewService(key []byte, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{key: key, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Issue mints the access/refresh pair for one successful authentication.
func (s *Service) Issue(subject, role string, now time.Time) (model.Tokens, error) {
	accessExp := now.Add(s.accessTTL)
	access, err := s.sign(subject, role, KindAccess, now, accessExp)
	if err != nil {
		return model.Tokens{}, err
	}
	refresh, err := s.sign(subject, role, KindRefresh, now, now.Add(s.refreshTTL))
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: access, RefreshToken: refresh, ExpiresAt: accessExp}, nil
}

func (s *Service) sign(subject, role, kind string, now, exp time.Time) (string, error) {
	claims := jwtClaims{
		Role: role,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.key)
}

// Validate verifies signature and expiry. Malformed, forged and expired
// tokens all come back as errs.ErrUnauthorized; callers must not be able to
// tell the reasons apart.
func (s *Service) Validate(raw string, now time.Time) (Claims, error) {
	var claims jwtClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !tok.Valid {
		return Claims{}, errs.ErrUnauthorized
	}
	return Claims{Subject: claims.Subject, Role: claims.Role, Kind: claims.Kind}, nil
}
