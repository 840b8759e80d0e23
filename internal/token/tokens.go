// Package token carries the static bearer token shared by the session
// store server and its clients.
package token

import (
	"context"
	"crypto/subtle"
	"strings"
)

const (
	// AuthorizationKey is lower case, as metadata keys are normalized.
	AuthorizationKey = "authorization"
	bearer           = "Bearer "
)

// Tokens implements credentials.PerRPCCredentials. An empty token sends no
// metadata and accepts every request.
type Tokens struct {
	token string
}

func NewTokens(token string) *Tokens {
	return &Tokens{token: token}
}

func (t *Tokens) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	if t.token == "" {
		return nil, nil
	}
	return map[string]string{AuthorizationKey: bearer + t.token}, nil
}

// RequireTransportSecurity is false: the store runs on trusted networks.
func (t *Tokens) RequireTransportSecurity() bool {
	return false
}

// Valid checks the authorization metadata values of a request.
func (t *Tokens) Valid(authorization []string) bool {
	if t.token == "" {
		return true
	}
	if len(authorization) != 1 || !strings.HasPrefix(authorization[0], bearer) {
		return false
	}
	got := strings.TrimPrefix(authorization[0], bearer)
	return subtle.ConstantTimeCompare([]byte(got), []byte(t.token)) == 1
}
