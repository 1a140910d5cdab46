package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	AuthIDKey contextKey = "auth_id"
	TokenKey  contextKey = "token"
)

func GetAuthIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	authIDVal := ctx.Value(AuthIDKey)
	if authIDVal == nil {
		return uuid.Nil, false
	}

	authID, ok := authIDVal.(uuid.UUID)
	if !ok || authID == uuid.Nil {
		return uuid.Nil, false
	}

	return authID, true
}

func SetAuthContext(ctx context.Context, authID uuid.UUID) context.Context {
	return context.WithValue(ctx, AuthIDKey, authID)
}

// GetTokenFromContext returns the raw bearer token of the request
func GetTokenFromContext(ctx context.Context) (string, bool) {
	tokenVal := ctx.Value(TokenKey)
	if tokenVal == nil {
		return "", false
	}

	token, ok := tokenVal.(string)
	return token, ok
}

func SetTokenContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}
