// Package token mints and parses the signed JWTs handed to clients.
package token

import (
	"errors"
	"fmt"
	"time"

	"account-service/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Purpose string

const (
	PurposeAccess   Purpose = "access"
	PurposeRefresh  Purpose = "refresh"
	PurposeRecovery Purpose = "recovery"
)

const issuer = "account-service"

var (
	ErrMissingSecret = errors.New("token signing secret is not configured")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrWrongPurpose  = errors.New("token not valid for this operation")
)

type Claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Token is a signed credential and the moment it stops being valid.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	recoveryTTL   time.Duration
	now           func() time.Time
}

// NewIssuer fails when either secret is empty so a misconfigured deployment never starts.
func NewIssuer(cfg utils.JWTConfig) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, ErrMissingSecret
	}

	return &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		recoveryTTL:   cfg.RecoveryTTL,
		now:           time.Now,
	}, nil
}

func (i *Issuer) AccessToken(authID uuid.UUID) (Token, error) {
	return i.sign(authID, PurposeAccess)
}

func (i *Issuer) RefreshToken(authID uuid.UUID) (Token, error) {
	return i.sign(authID, PurposeRefresh)
}

func (i *Issuer) RecoveryToken(authID uuid.UUID) (Token, error) {
	return i.sign(authID, PurposeRecovery)
}

// Parse validates tokenStr for purpose and returns the Auth id it is bound to.
func (i *Issuer) Parse(tokenStr string, purpose Purpose) (uuid.UUID, error) {
	secret, _ := i.params(purpose)

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrTokenExpired
		}
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return uuid.Nil, ErrWrongPurpose
	}

	authID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	return authID, nil
}

func (i *Issuer) params(purpose Purpose) ([]byte, time.Duration) {
	switch purpose {
	case PurposeRefresh:
		return i.refreshSecret, i.refreshTTL
	case PurposeRecovery:
		return i.accessSecret, i.recoveryTTL
	default:
		return i.accessSecret, i.accessTTL
	}
}

func (i *Issuer) sign(authID uuid.UUID, purpose Purpose) (Token, error) {
	secret, ttl := i.params(purpose)
	if len(secret) == 0 {
		return Token{}, ErrMissingSecret
	}

	now := i.now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   authID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign %s token: %w", purpose, err)
	}

	return Token{Value: signed, ExpiresAt: expiresAt}, nil
}
