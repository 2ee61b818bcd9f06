package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
)

func newTestModeration(role domain.Role, confirmer ports.Confirmer) (*ModerationService, *stubRequester) {
	session := loggedInSession(newStubStore(), 1, role)
	requester := &stubRequester{}
	svc := NewModerationService(requester, session, confirmer, nopLogger)
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }
	return svc, requester
}

func TestModeration_NonAdminNeverReachesNetwork(t *testing.T) {
	svc, requester := newTestModeration(domain.RoleUser, &stubConfirmer{answer: true})
	ctx := context.Background()

	calls := []func() error{
		func() error { _, err := svc.Suspend(ctx, 42, domain.Permanent, "spam"); return err },
		func() error {
			_, err := svc.SuspendAuthor(ctx, domain.ContentRef{Kind: domain.ContentPost, ID: 3}, domain.Minutes(60), "spam")
			return err
		},
		func() error { _, err := svc.Unsuspend(ctx, 42); return err },
		func() error { _, err := svc.ChangeRole(ctx, 42, domain.RoleAdmin); return err },
		func() error { _, err := svc.DeleteContent(ctx, domain.ContentComment, 9); return err },
		func() error { _, err := svc.DeleteAccount(ctx, 42); return err },
		func() error { _, err := svc.ListAccounts(ctx); return err },
	}
	for i, call := range calls {
		if err := call(); !errors.Is(err, domain.ErrAuthorization) {
			t.Fatalf("call %d: expected ErrAuthorization, got %v", i, err)
		}
	}
	if requester.count() != 0 {
		t.Fatalf("expected zero transport calls, got %d", requester.count())
	}
}

func TestModeration_AnonymousIsUnauthorized(t *testing.T) {
	session := NewAuthSession(newStubStore(), &stubAuthenticator{}, nopLogger)
	requester := &stubRequester{}
	svc := NewModerationService(requester, session, nil, nopLogger)

	if _, err := svc.Suspend(context.Background(), 42, domain.Minutes(10), "x"); !errors.Is(err, domain.ErrAuthorization) {
		t.Fatalf("expected ErrAuthorization, got %v", err)
	}
}

func TestModeration_SuspendPermanent(t *testing.T) {
	svc, requester := newTestModeration(domain.RoleAdmin, nil)

	ack, err := svc.Suspend(context.Background(), 42, domain.Permanent, "  repeated abuse ")
	if err != nil {
		t.Fatalf("Suspend returned error: %v", err)
	}
	if ack.Action.Kind != domain.ActionSuspend || ack.Action.TargetAccountID != 42 || ack.Action.ActorAccountID != 1 {
		t.Fatalf("unexpected action: %+v", ack.Action)
	}
	if ack.Message == "" {
		t.Fatalf("expected a default acknowledgement message")
	}

	req := requester.requests[0]
	if req.Method != http.MethodPost || req.Path != "/accounts/42/suspend" {
		t.Fatalf("unexpected request: %s %s", req.Method, req.Path)
	}
	raw, _ := json.Marshal(req.Body)
	if string(raw) != `{"durationMinutes":-1,"reason":"repeated abuse"}` {
		t.Fatalf("unexpected body: %s", raw)
	}
}

func TestModeration_SuspendValidation(t *testing.T) {
	svc, requester := newTestModeration(domain.RoleAdmin, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		target   int64
		duration domain.SuspensionDuration
		reason   string
	}{
		{"blank reason", 42, domain.Minutes(60), "   "},
		{"zero minutes", 42, domain.Minutes(0), "spam"},
		{"negative minutes", 42, domain.Minutes(-5), "spam"},
		{"no target", 0, domain.Minutes(60), "spam"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Suspend(ctx, tt.target, tt.duration, tt.reason); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
	if requester.count() != 0 {
		t.Fatalf("expected no request for invalid input")
	}
}

func TestModeration_SuspendAuthor(t *testing.T) {
	svc, requester := newTestModeration(domain.RoleAdmin, nil)

	_, err := svc.SuspendAuthor(context.Background(), domain.ContentRef{Kind: domain.ContentComment, ID: 77}, domain.Minutes(1440), "insults")
	if err != nil {
		t.Fatalf("SuspendAuthor returned error: %v", err)
	}
	if got := requester.requests[0].Path; got != "/admin/comments/77/suspend-author" {
		t.Fatalf("unexpected path: %s", got)
	}
}

func TestModeration_ConfirmationRequired(t *testing.T) {
	ctx := context.Background()
	confirmer := &stubConfirmer{answer: false}
	svc, requester := newTestModeration(domain.RoleAdmin, confirmer)

	if _, err := svc.Unsuspend(ctx, 42); !errors.Is(err, domain.ErrConfirmationDeclined) {
		t.Fatalf("expected ErrConfirmationDeclined, got %v", err)
	}
	if _, err := svc.ChangeRole(ctx, 42, domain.RoleAdmin); !errors.Is(err, domain.ErrConfirmationDeclined) {
		t.Fatalf("expected ErrConfirmationDeclined, got %v", err)
	}
	if _, err := svc.DeleteContent(ctx, domain.ContentPost, 3); !errors.Is(err, domain.ErrConfirmationDeclined) {
		t.Fatalf("expected ErrConfirmationDeclined, got %v", err)
	}
	if _, err := svc.DeleteAccount(ctx, 42); !errors.Is(err, domain.ErrConfirmationDeclined) {
		t.Fatalf("expected ErrConfirmationDeclined, got %v", err)
	}
	if confirmer.asked.Load() != 4 {
		t.Fatalf("expected four prompts, got %d", confirmer.asked.Load())
	}
	if requester.count() != 0 {
		t.Fatalf("declined actions must not reach the network")
	}

	nilConfirmer, requester := newTestModeration(domain.RoleAdmin, nil)
	if _, err := nilConfirmer.Unsuspend(ctx, 42); !errors.Is(err, domain.ErrConfirmationDeclined) {
		t.Fatalf("expected ErrConfirmationDeclined without a confirmer, got %v", err)
	}
	if requester.count() != 0 {
		t.Fatalf("expected no request without a confirmer")
	}
}

func TestModeration_ConfirmedActions(t *testing.T) {
	ctx := context.Background()
	svc, requester := newTestModeration(domain.RoleAdmin, &stubConfirmer{answer: true})
	requester.respond = func(req ports.Request) (*ports.Response, error) {
		return &ports.Response{StatusCode: http.StatusOK, Body: []byte(`{"message":"done"}`)}, nil
	}

	ack, err := svc.ChangeRole(ctx, 42, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("ChangeRole returned error: %v", err)
	}
	if ack.Message != "done" {
		t.Fatalf("expected server message, got %q", ack.Message)
	}
	if _, err := svc.Unsuspend(ctx, 42); err != nil {
		t.Fatalf("Unsuspend returned error: %v", err)
	}
	if _, err := svc.DeleteContent(ctx, domain.ContentPost, 3); err != nil {
		t.Fatalf("DeleteContent returned error: %v", err)
	}
	if _, err := svc.DeleteAccount(ctx, 42); err != nil {
		t.Fatalf("DeleteAccount returned error: %v", err)
	}

	want := []struct{ method, path string }{
		{http.MethodPost, "/accounts/42/role"},
		{http.MethodPost, "/accounts/42/unsuspend"},
		{http.MethodDelete, "/admin/posts/3"},
		{http.MethodDelete, "/admin/accounts/42"},
	}
	for i, w := range want {
		got := requester.requests[i]
		if got.Method != w.method || got.Path != w.path {
			t.Fatalf("request %d: expected %s %s, got %s %s", i, w.method, w.path, got.Method, got.Path)
		}
	}
}

func TestModeration_InvalidRoleAndContent(t *testing.T) {
	ctx := context.Background()
	svc, requester := newTestModeration(domain.RoleAdmin, &stubConfirmer{answer: true})

	if _, err := svc.ChangeRole(ctx, 42, domain.Role("OWNER")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown role, got %v", err)
	}
	if _, err := svc.DeleteContent(ctx, domain.ContentKind("thread"), 3); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown content kind, got %v", err)
	}
	if requester.count() != 0 {
		t.Fatalf("expected no requests for invalid input")
	}
}

func TestModeration_RefusesSelfDeletion(t *testing.T) {
	confirmer := &stubConfirmer{answer: true}
	svc, requester := newTestModeration(domain.RoleAdmin, confirmer)

	if _, err := svc.DeleteAccount(context.Background(), 1); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if confirmer.asked.Load() != 0 || requester.count() != 0 {
		t.Fatalf("self deletion must be refused before prompting")
	}
}

func TestModeration_RemoteRejection(t *testing.T) {
	svc, requester := newTestModeration(domain.RoleAdmin, nil)
	requester.respond = func(ports.Request) (*ports.Response, error) {
		return &ports.Response{StatusCode: http.StatusForbidden, Body: []byte(`{"code":"FORBIDDEN","message":"admins only"}`)}, nil
	}

	_, err := svc.Suspend(context.Background(), 42, domain.Minutes(60), "spam")
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected remote APIError, got %v", err)
	}
}

func TestModeration_ListAccounts(t *testing.T) {
	svc, requester := newTestModeration(domain.RoleAdmin, nil)
	end := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	requester.respond = func(ports.Request) (*ports.Response, error) {
		body := `[{"id":7,"username":"kim","role":"USER","suspension":{"subjectAccountId":7,"reason":"spam","endTime":"2026-04-01T00:00:00Z","active":true}},{"id":8,"username":"lee","role":"ADMIN"}]`
		return &ports.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
	}

	accounts, err := svc.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("ListAccounts returned error: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if !accounts[0].Suspension.EndTime.Equal(end) {
		t.Fatalf("unexpected end time: %v", accounts[0].Suspension.EndTime)
	}
	if got := accounts[0].Status(end.Add(time.Hour)); got != domain.RecordExpiredButUnlifted {
		t.Fatalf("expected EXPIRED_BUT_UNLIFTED, got %s", got)
	}
	if got := accounts[1].Status(end); got != domain.RecordActive {
		t.Fatalf("expected ACTIVE, got %s", got)
	}
}
