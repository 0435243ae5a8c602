// Package auth issues and validates bearer tokens for the control API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"configllm/internal/config"
	"configllm/internal/domain"
)

const audience = "control"

// Claims are the JWT claims carried by a control token.
type Claims struct {
	jwt.RegisteredClaims
	Operator string `json:"operator"`
}

// Token is a signed control token and its expiry.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Authority signs and validates HS256 control tokens.
type Authority struct {
	cfg config.AuthConfig
	now func() time.Time
}

// NewAuthority creates an Authority. An empty secret is rejected.
func NewAuthority(cfg config.AuthConfig) (*Authority, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth secret is required")
	}
	if cfg.TokenExpiry <= 0 {
		cfg.TokenExpiry = 24 * time.Hour
	}
	return &Authority{cfg: cfg, now: time.Now}, nil
}

// Issue signs a new token for the named operator.
func (a *Authority) Issue(operator string) (*Token, error) {
	now := a.now()
	expiry := now.Add(a.cfg.TokenExpiry)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			Issuer:    a.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{audience},
		},
		Operator: operator,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("signing control token: %w", err)
	}
	return &Token{AccessToken: signed, ExpiresAt: expiry}, nil
}

// Validate parses a token and checks signature, expiry, issuer and audience.
func (a *Authority) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(a.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
