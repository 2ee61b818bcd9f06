package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
	"github.com/communityboard/board-client/internal/pkg/metrics"
)

// Persisted session keys.
const (
	keyToken       = "token"
	keyDisplayName = "displayName"
	keyAccountID   = "accountId"
	keyRole        = "role"
)

var sessionKeys = []string{keyToken, keyDisplayName, keyAccountID, keyRole}

// AuthSession owns the client's identity and credential. The persisted token
// is the only source of truth for "authenticated": cached identity fields are
// ignored when it is absent.
type AuthSession struct {
	store ports.KVStore
	auth  ports.Authenticator
	log   zerolog.Logger

	mu        sync.Mutex
	known     string // token this session last wrote or observed
	listeners map[int]func(ports.SessionEvent)
	nextID    int
}

// NewAuthSession returns a session backed by store.
func NewAuthSession(store ports.KVStore, auth ports.Authenticator, log zerolog.Logger) *AuthSession {
	return &AuthSession{
		store:     store,
		auth:      auth,
		log:       log,
		listeners: make(map[int]func(ports.SessionEvent)),
	}
}

// Login requests a credential and, on success, persists it together with the
// identity. On any failure the session stays anonymous.
func (s *AuthSession) Login(ctx context.Context, username, password string) (*domain.Identity, error) {
	if username == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	grant, err := s.auth.Authenticate(ctx, username, password)
	if err != nil {
		return nil, s.loginFailure(username, err)
	}
	if grant.Token == "" {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: empty token in grant")
	}

	identity := identityFromToken(grant.Token, username, grant.DisplayName)
	if role, err := s.auth.FetchRole(ctx, grant.Token); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("role lookup failed, keeping token role")
	} else if role.Valid() {
		identity.Role = role
	}

	s.mu.Lock()
	s.known = grant.Token
	s.mu.Unlock()

	if err := s.store.SetMany(ctx, map[string]string{
		keyToken:       grant.Token,
		keyDisplayName: identity.DisplayName,
		keyAccountID:   strconv.FormatInt(identity.AccountID, 10),
		keyRole:        string(identity.Role),
	}); err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: persist credential: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	s.log.Info().Int64("account_id", identity.AccountID).Str("role", string(identity.Role)).Msg("logged in")

	s.publish(ports.SessionEvent{Kind: ports.EventLogin, Identity: &identity})
	return &identity, nil
}

func (s *AuthSession) loginFailure(username string, err error) error {
	var suspended *domain.SuspendedError
	if errors.As(err, &suspended) {
		if suspended.Permanent {
			metrics.LoginsTotal.WithLabelValues("suspended_permanent").Inc()
		} else {
			metrics.LoginsTotal.WithLabelValues("suspended_temporary").Inc()
		}
		s.log.Info().Str("username", username).Bool("permanent", suspended.Permanent).Msg("login blocked by suspension")
		return suspended
	}

	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return domain.ErrInvalidCredentials
	}

	metrics.LoginsTotal.WithLabelValues("error").Inc()
	return fmt.Errorf("login: %w", err)
}

// Logout clears the credential and identity. It is idempotent.
func (s *AuthSession) Logout(ctx context.Context) error {
	return s.logout(ctx, false)
}

// ForceLogout is Logout triggered by a suspension signal mid-session.
func (s *AuthSession) ForceLogout(ctx context.Context) error {
	return s.logout(ctx, true)
}

func (s *AuthSession) logout(ctx context.Context, forced bool) error {
	_, had := s.Token(ctx)

	s.mu.Lock()
	s.known = ""
	s.mu.Unlock()

	// Token first so a sharer reading mid-delete already sees anonymous.
	if err := s.store.Delete(ctx, sessionKeys...); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if had {
		s.log.Info().Bool("forced", forced).Msg("logged out")
		s.publish(ports.SessionEvent{Kind: ports.EventLogout, Forced: forced})
	}
	return nil
}

// Current returns the authenticated identity, or nil when anonymous.
func (s *AuthSession) Current(ctx context.Context) *domain.Identity {
	if _, ok := s.Token(ctx); !ok {
		return nil
	}

	identity := &domain.Identity{Role: domain.RoleUser}
	identity.DisplayName, _ = s.store.Get(ctx, keyDisplayName)
	if raw, err := s.store.Get(ctx, keyAccountID); err == nil {
		identity.AccountID, _ = strconv.ParseInt(raw, 10, 64)
	}
	if raw, err := s.store.Get(ctx, keyRole); err == nil {
		identity.Role = domain.ParseRole(raw)
	}
	return identity
}

// IsAdmin is an advisory check for hiding UI affordances. The remote
// authority enforces the role on every mutation regardless.
func (s *AuthSession) IsAdmin(ctx context.Context) bool {
	identity := s.Current(ctx)
	return identity != nil && identity.IsAdmin()
}

// Credential returns the persisted credential, if any.
func (s *AuthSession) Credential(ctx context.Context) (domain.Credential, bool) {
	token, ok := s.Token(ctx)
	if !ok {
		return domain.Credential{}, false
	}
	name, _ := s.store.Get(ctx, keyDisplayName)
	return domain.Credential{Token: token, DisplayName: name}, true
}

// Token returns the bearer token, if any.
func (s *AuthSession) Token(ctx context.Context) (string, bool) {
	token, err := s.store.Get(ctx, keyToken)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			s.log.Warn().Err(err).Msg("read token")
		}
		return "", false
	}
	return token, token != ""
}

// Subscribe registers fn for session events. The returned func removes it.
func (s *AuthSession) Subscribe(fn func(ports.SessionEvent)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *AuthSession) publish(ev ports.SessionEvent) {
	s.mu.Lock()
	fns := make([]func(ports.SessionEvent), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Watch follows the store's change feed until ctx is done and republishes
// logins and logouts made by other sharers of the store as remote events.
func (s *AuthSession) Watch(ctx context.Context) error {
	token, _ := s.Token(ctx)
	s.mu.Lock()
	s.known = token
	s.mu.Unlock()

	changes, err := s.store.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("watch session: %w", err)
	}

	go func() {
		for ev := range changes {
			if !touches(ev.Keys, keyToken) {
				continue
			}
			s.reconcile(ctx)
		}
	}()
	return nil
}

func (s *AuthSession) reconcile(ctx context.Context) {
	token, _ := s.Token(ctx)

	s.mu.Lock()
	if token == s.known {
		s.mu.Unlock()
		return
	}
	s.known = token
	s.mu.Unlock()

	if token == "" {
		s.log.Info().Msg("session ended by another client")
		s.publish(ports.SessionEvent{Kind: ports.EventLogout, Remote: true})
		return
	}
	s.publish(ports.SessionEvent{Kind: ports.EventLogin, Identity: s.Current(ctx), Remote: true})
}

func touches(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// identityFromToken reads account claims from the credential without verifying
// it; the token stays opaque to everything but display and advisory checks.
func identityFromToken(token, username, displayName string) domain.Identity {
	identity := domain.Identity{Username: username, DisplayName: displayName, Role: domain.RoleUser}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return identity
	}
	if sub, err := claims.GetSubject(); err == nil {
		if id, err := strconv.ParseInt(sub, 10, 64); err == nil {
			identity.AccountID = id
		}
	}
	if role, ok := claims["role"].(string); ok {
		identity.Role = domain.ParseRole(role)
	}
	if identity.DisplayName == "" {
		if name, ok := claims["name"].(string); ok {
			identity.DisplayName = name
		}
	}
	return identity
}
