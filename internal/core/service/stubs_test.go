package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
)

var nopLogger = zerolog.Nop()

type stubStore struct {
	mu     sync.Mutex
	values map[string]string
	subs   map[chan ports.ChangeEvent]struct{}
	getErr error
	setErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		values: make(map[string]string),
		subs:   make(map[chan ports.ChangeEvent]struct{}),
	}
}

func (s *stubStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", s.getErr
	}
	v, ok := s.values[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return v, nil
}

func (s *stubStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	s.notifyLocked(ports.ChangeEvent{Keys: []string{key}})
	return nil
}

func (s *stubStore) SetMany(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	keys := make([]string, 0, len(values))
	for k, v := range values {
		s.values[k] = v
		keys = append(keys, k)
	}
	s.notifyLocked(ports.ChangeEvent{Keys: keys})
	return nil
}

func (s *stubStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	s.notifyLocked(ports.ChangeEvent{Keys: keys, Deleted: true})
	return nil
}

func (s *stubStore) Subscribe(ctx context.Context) (<-chan ports.ChangeEvent, error) {
	ch := make(chan ports.ChangeEvent, 16)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}

func (s *stubStore) notifyLocked(ev ports.ChangeEvent) {
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *stubStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	return ok
}

type stubAuthenticator struct {
	grant   ports.LoginGrant
	err     error
	role    domain.Role
	roleErr error
	calls   int
}

func (a *stubAuthenticator) Authenticate(_ context.Context, _, _ string) (ports.LoginGrant, error) {
	a.calls++
	if a.err != nil {
		return ports.LoginGrant{}, a.err
	}
	return a.grant, nil
}

func (a *stubAuthenticator) FetchRole(_ context.Context, _ string) (domain.Role, error) {
	if a.roleErr != nil {
		return "", a.roleErr
	}
	return a.role, nil
}

// signedToken issues a token shaped like the ones the board API hands out.
func signedToken(accountID int64, role domain.Role, name string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatInt(accountID, 10),
		"role": string(role),
		"name": name,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return signed
}

// loggedInSession returns a session whose store already holds a credential.
func loggedInSession(store *stubStore, accountID int64, role domain.Role) *AuthSession {
	store.values[keyToken] = signedToken(accountID, role, "tester")
	store.values[keyDisplayName] = "tester"
	store.values[keyAccountID] = strconv.FormatInt(accountID, 10)
	store.values[keyRole] = string(role)
	return NewAuthSession(store, &stubAuthenticator{}, nopLogger)
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

type stubRequester struct {
	mu       sync.Mutex
	requests []ports.Request
	respond  func(ports.Request) (*ports.Response, error)
}

func (r *stubRequester) Do(_ context.Context, req ports.Request) (*ports.Response, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	if r.respond == nil {
		return &ports.Response{StatusCode: http.StatusOK}, nil
	}
	return r.respond(req)
}

func (r *stubRequester) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

type stubNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *stubNotifier) Notify(message string) {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
}

func (n *stubNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

type stubNavigator struct {
	mu        sync.Mutex
	view      string
	redirects []string
}

func (n *stubNavigator) CurrentView() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.view
}

func (n *stubNavigator) Redirect(view string) {
	n.mu.Lock()
	n.redirects = append(n.redirects, view)
	n.view = view
	n.mu.Unlock()
}

func (n *stubNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.redirects)
}

type stubConfirmer struct {
	answer bool
	err    error
	asked  atomic.Int32
}

func (c *stubConfirmer) Confirm(_ context.Context, _ string) (bool, error) {
	c.asked.Add(1)
	return c.answer, c.err
}
