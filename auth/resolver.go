// Package auth resolves connection credentials into stable identities
// and manages the development account authority behind them.
package auth

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"strings"
)

// DevTokenPrefix marks passthrough development tokens: everything after
// the prefix is taken as the username.
const DevTokenPrefix = "dev-token-"

// Credential is what a connecting client supplies. Token wins over
// Username when both are present.
type Credential struct {
	Token    string
	Username string
}

// Resolver turns credentials into identities. Three shapes are
// accepted: a signed token, a dev passthrough token, and (when enabled)
// an anonymous fallback derived from the session id.
type Resolver struct {
	tokens         *TokenManager
	allowAnonymous bool
}

func NewResolver(tokens *TokenManager, allowAnonymous bool) *Resolver {
	return &Resolver{tokens: tokens, allowAnonymous: allowAnonymous}
}

// Resolve verifies the credential and returns the identity for the
// session. All failures surface as ErrAuthFailure; the cause stays in
// the wrapped error for logs only.
func (r *Resolver) Resolve(sessionID string, cred Credential) (domain.Identity, error) {
	switch {
	case strings.HasPrefix(cred.Token, DevTokenPrefix):
		username := strings.TrimPrefix(cred.Token, DevTokenPrefix)
		if username == "" {
			return domain.Identity{}, fmt.Errorf("%w: empty dev token", errors.ErrAuthFailure)
		}
		return domain.Identity{
			UserID:   "dev-user-" + username,
			Username: username,
		}, nil

	case cred.Token != "":
		claims, err := r.tokens.Validate(cred.Token)
		if err != nil {
			return domain.Identity{}, fmt.Errorf("%w: %v", errors.ErrAuthFailure, err)
		}
		return domain.Identity{
			UserID:   claims.UserID,
			Username: claims.Username,
		}, nil

	case r.allowAnonymous:
		username := cred.Username
		if username == "" {
			username = "User_" + shortID(sessionID)
		}
		return domain.Identity{
			UserID:   "anonymous-" + sessionID,
			Username: username,
		}, nil

	default:
		return domain.Identity{}, fmt.Errorf("%w: missing credential", errors.ErrAuthFailure)
	}
}

func shortID(sessionID string) string {
	if len(sessionID) <= 8 {
		return sessionID
	}
	return sessionID[:8]
}
