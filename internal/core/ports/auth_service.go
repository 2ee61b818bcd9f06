package ports

import (
	"context"

	"github.com/communityboard/board-client/internal/core/domain"
)

// LoginGrant is the remote authority's answer to a successful credential request.
type LoginGrant struct {
	Token       string `json:"token"`
	DisplayName string `json:"displayName"`
}

// Authenticator talks to the remote authority's credential endpoints. It is
// used without a session credential, so its failures never trigger a forced logout.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (LoginGrant, error)
	FetchRole(ctx context.Context, token string) (domain.Role, error)
}

// CredentialSource is what the request interceptor needs from the session.
type CredentialSource interface {
	Token(ctx context.Context) (string, bool)
	ForceLogout(ctx context.Context) error
	Subscribe(fn func(SessionEvent)) (unsubscribe func())
}

// SessionEventKind distinguishes session transitions.
type SessionEventKind int

const (
	EventLogin SessionEventKind = iota + 1
	EventLogout
)

// SessionEvent is published on every session transition. Remote is set when
// the transition was made by another sharer of the store.
type SessionEvent struct {
	Kind     SessionEventKind
	Identity *domain.Identity
	Forced   bool
	Remote   bool
}
