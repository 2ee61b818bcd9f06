package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
	"github.com/communityboard/board-client/internal/pkg/metrics"
)

const maxResponseBody = 1 << 20

// DefaultLoginView is the login entry point forced logouts redirect to.
const DefaultLoginView = "/login"

// InterceptorConfig carries the interceptor's collaborators. Notifier and
// Navigator may be nil.
type InterceptorConfig struct {
	BaseURL   string
	LoginView string
	Notifier  ports.Notifier
	Navigator ports.Navigator
}

// RequestInterceptor sends every remote API call. It attaches the session
// credential and turns a suspension signal on an authenticated call into a
// single forced logout. It never retries.
type RequestInterceptor struct {
	baseURL   string
	loginView string
	doer      ports.Doer
	session   ports.CredentialSource
	notifier  ports.Notifier
	navigator ports.Navigator
	log       zerolog.Logger

	// handling is the forced-logout latch; only a fresh login clears it.
	handling    atomic.Bool
	unsubscribe func()
}

// NewRequestInterceptor wires an interceptor to session and doer.
func NewRequestInterceptor(cfg InterceptorConfig, doer ports.Doer, session ports.CredentialSource, log zerolog.Logger) *RequestInterceptor {
	loginView := cfg.LoginView
	if loginView == "" {
		loginView = DefaultLoginView
	}
	ic := &RequestInterceptor{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		loginView: loginView,
		doer:      doer,
		session:   session,
		notifier:  cfg.Notifier,
		navigator: cfg.Navigator,
		log:       log,
	}
	ic.unsubscribe = session.Subscribe(func(ev ports.SessionEvent) {
		if ev.Kind == ports.EventLogin {
			ic.handling.Store(false)
		}
	})
	return ic
}

// Close detaches the interceptor from session events.
func (ic *RequestInterceptor) Close() {
	if ic.unsubscribe != nil {
		ic.unsubscribe()
	}
}

// Do sends req. Non-2xx responses are returned as-is with a nil error, except
// a suspension signal on an authenticated call, which forces a logout and
// returns an error matching both domain.ErrForcedLogout and domain.ErrSuspended.
// If another credential has been stored since the call was sent, the
// suspension error is returned without touching the session.
// Transport failures match domain.ErrNetwork; a canceled ctx is returned as is.
func (ic *RequestInterceptor) Do(ctx context.Context, req ports.Request) (*ports.Response, error) {
	httpReq, sent, err := ic.build(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := ic.doer.Do(httpReq)
	if err != nil {
		return nil, ic.transportError(ctx, req, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, ic.transportError(ctx, req, err)
	}

	out := &ports.Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}

	if sent != "" && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		var payload domain.FailurePayload
		_ = json.Unmarshal(body, &payload)
		if cause := domain.TranslateFailure(resp.StatusCode, payload); errors.Is(cause, domain.ErrSuspended) {
			metrics.RequestsTotal.WithLabelValues("suspended").Inc()
			// A newer login owns the store; the reply only speaks for the old credential.
			if current, ok := ic.session.Token(ctx); ok && current != sent {
				ic.log.Debug().Str("path", req.Path).Msg("suspension reply for a replaced credential")
				return out, cause
			}
			ic.forceLogout(ctx, cause)
			return out, fmt.Errorf("%w: %w", domain.ErrForcedLogout, cause)
		}
	}

	if out.OK() {
		metrics.RequestsTotal.WithLabelValues("ok").Inc()
	} else {
		metrics.RequestsTotal.WithLabelValues("api_error").Inc()
	}
	return out, nil
}

// build returns the request and the credential attached to it, if any.
func (ic *RequestInterceptor) build(ctx context.Context, req ports.Request) (*http.Request, string, error) {
	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("encode %s %s: %w", req.Method, req.Path, err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, ic.baseURL+req.Path, body)
	if err != nil {
		return nil, "", fmt.Errorf("build %s %s: %w", req.Method, req.Path, err)
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("X-Request-ID") == "" {
		httpReq.Header.Set("X-Request-ID", uuid.NewString())
	}

	token, ok := ic.session.Token(ctx)
	if !ok {
		return httpReq, "", nil
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	return httpReq, token, nil
}

func (ic *RequestInterceptor) transportError(ctx context.Context, req ports.Request, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		metrics.RequestsTotal.WithLabelValues("canceled").Inc()
		return fmt.Errorf("%s %s: %w", req.Method, req.Path, ctxErr)
	}
	metrics.RequestsTotal.WithLabelValues("network_error").Inc()
	return fmt.Errorf("%w: %s %s: %v", domain.ErrNetwork, req.Method, req.Path, err)
}

// forceLogout tears the session down once per latch. The logout runs detached
// from ctx so a torn-down view cannot leave the session half-cleared.
func (ic *RequestInterceptor) forceLogout(ctx context.Context, cause error) {
	if !ic.handling.CompareAndSwap(false, true) {
		return
	}

	if err := ic.session.ForceLogout(context.WithoutCancel(ctx)); err != nil {
		ic.log.Error().Err(err).Msg("forced logout failed")
	}
	metrics.ForcedLogoutsTotal.Inc()
	ic.log.Warn().Err(cause).Msg("session suspended, forced logout")

	if ic.navigator != nil && ic.navigator.CurrentView() == ic.loginView {
		return
	}
	if ic.notifier != nil {
		ic.notifier.Notify(suspensionNotice(cause))
	}
	if ic.navigator != nil {
		ic.navigator.Redirect(ic.loginView)
	}
}

func suspensionNotice(cause error) string {
	var suspended *domain.SuspendedError
	if !errors.As(cause, &suspended) {
		return "Your session has ended."
	}
	msg := "Your account has been suspended and you have been logged out."
	if suspended.Permanent {
		msg = "Your account has been permanently suspended and you have been logged out."
	}
	if suspended.Message != "" {
		msg += "\n\n" + suspended.Message
	}
	return msg
}
