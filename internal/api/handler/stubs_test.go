package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/communityboard/board-client/internal/api/middleware"
	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
	"github.com/communityboard/board-client/internal/infrastructure/queue"
)

type stubIssuer struct {
	registerFn func(ctx context.Context, username, password, displayName string, role domain.Role) (*domain.Account, error)
	loginFn    func(ctx context.Context, username, password string) (string, *domain.Account, error)
}

func (s *stubIssuer) Register(ctx context.Context, username, password, displayName string, role domain.Role) (*domain.Account, error) {
	return s.registerFn(ctx, username, password, displayName, role)
}

func (s *stubIssuer) Login(ctx context.Context, username, password string) (string, *domain.Account, error) {
	return s.loginFn(ctx, username, password)
}

type suspendCall struct {
	actor, target int64
	ref           domain.ContentRef
	duration      domain.SuspensionDuration
	reason        string
}

type stubModerator struct {
	suspended []suspendCall
	deleted   []domain.ContentRef
	err       error
}

func (s *stubModerator) Suspend(_ context.Context, actor, target int64, d domain.SuspensionDuration, reason string) (*domain.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.suspended = append(s.suspended, suspendCall{actor: actor, target: target, duration: d, reason: reason})
	return &domain.Account{ID: target, Username: "target"}, nil
}

func (s *stubModerator) SuspendAuthor(_ context.Context, actor int64, ref domain.ContentRef, d domain.SuspensionDuration, reason string) (*domain.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.suspended = append(s.suspended, suspendCall{actor: actor, ref: ref, duration: d, reason: reason})
	return &domain.Account{ID: 9, Username: "author"}, nil
}

func (s *stubModerator) Unsuspend(_ context.Context, target int64) (*domain.Account, error) {
	return &domain.Account{ID: target, Username: "target"}, s.err
}

func (s *stubModerator) ChangeRole(_ context.Context, target int64, role domain.Role) (*domain.Account, error) {
	return &domain.Account{ID: target, Username: "target", Role: role}, s.err
}

func (s *stubModerator) DeleteAccount(_ context.Context, actor, target int64) error {
	if actor == target {
		return domain.ErrValidation
	}
	return s.err
}

func (s *stubModerator) DeleteContent(_ context.Context, ref domain.ContentRef) error {
	s.deleted = append(s.deleted, ref)
	return s.err
}

func (s *stubModerator) ListAccounts(context.Context) ([]domain.AdminAccount, error) {
	return []domain.AdminAccount{{ID: 1, Username: "admin", Role: domain.RoleAdmin}}, s.err
}

type stubCatalog struct {
	items map[domain.ContentRef]ports.ContentItem
}

func (s *stubCatalog) PublishContent(_ context.Context, item ports.ContentItem) error {
	s.items[domain.ContentRef{Kind: item.Kind, ID: item.ID}] = item
	return nil
}

func (s *stubCatalog) Content(_ context.Context, ref domain.ContentRef) (*ports.ContentItem, error) {
	item, ok := s.items[ref]
	if !ok {
		return nil, domain.ErrContentNotFound
	}
	return &item, nil
}

type stubQueue struct {
	enqueued []queue.ViewIncrement
}

func (s *stubQueue) Enqueue(inc queue.ViewIncrement) {
	s.enqueued = append(s.enqueued, inc)
}

// newContext builds an echo context with the validator installed and, when
// accountID is positive, the claims Auth would have set.
func newContext(method, target, body string, accountID int64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if accountID > 0 {
		c.Set(middleware.KeyAccountID, accountID)
		c.Set(middleware.KeyRole, string(domain.RoleAdmin))
	}
	return c, rec
}
