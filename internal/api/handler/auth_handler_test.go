package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/communityboard/board-client/internal/api/middleware"
	"github.com/communityboard/board-client/internal/core/domain"
)

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubIssuer{
		loginFn: func(_ context.Context, username, password string) (string, *domain.Account, error) {
			if username != "alice" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return "token123", &domain.Account{ID: 1, DisplayName: "Alice"}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/sessions", `{"username":"alice","password":"secret"}`, 0)

	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" || resp["displayName"] != "Alice" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Login_SuspendedPassesErrorOn(t *testing.T) {
	suspended := &domain.SuspendedError{Permanent: true}
	stub := &stubIssuer{
		loginFn: func(context.Context, string, string) (string, *domain.Account, error) {
			return "", nil, suspended
		},
	}
	c, _ := newContext(http.MethodPost, "/sessions", `{"username":"bob","password":"pw"}`, 0)

	if err := NewAuthHandler(stub).Login(c); !errors.Is(err, domain.ErrSuspendedPermanent) {
		t.Fatalf("expected suspension error, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubIssuer{
		loginFn: func(context.Context, string, string) (string, *domain.Account, error) {
			t.Fatalf("should not be called")
			return "", nil, nil
		},
	}

	c, _ := newContext(http.MethodPost, "/sessions", "not-json", 0)
	if err := NewAuthHandler(stub).Login(c); err == nil {
		t.Fatalf("expected bind error")
	}

	c, _ = newContext(http.MethodPost, "/sessions", `{"username":"alice"}`, 0)
	if err := NewAuthHandler(stub).Login(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthHandler_Register_CreatesUser(t *testing.T) {
	stub := &stubIssuer{
		registerFn: func(_ context.Context, username, _, displayName string, role domain.Role) (*domain.Account, error) {
			if role != domain.RoleUser {
				t.Fatalf("self-registration must create USER accounts, got %s", role)
			}
			return &domain.Account{ID: 3, Username: username, DisplayName: displayName, Role: role}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/accounts", `{"username":"carol","password":"pw","displayName":"Carol"}`, 0)

	if err := NewAuthHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp struct {
		Account domain.AdminAccount `json:"account"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Account.ID != 3 || resp.Account.DisplayName != "Carol" {
		t.Fatalf("unexpected account: %+v", resp.Account)
	}
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	stub := &stubIssuer{
		registerFn: func(context.Context, string, string, string, domain.Role) (*domain.Account, error) {
			return nil, domain.ErrAccountExists
		},
	}
	c, _ := newContext(http.MethodPost, "/accounts", `{"username":"carol","password":"pw"}`, 0)

	if err := NewAuthHandler(stub).Register(c); !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAuthHandler_Role(t *testing.T) {
	tests := []struct {
		role    domain.Role
		isAdmin bool
	}{
		{domain.RoleAdmin, true},
		{domain.RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/accounts/self/role", "", 0)
			c.Set(middleware.KeyAccountID, int64(1))
			c.Set(middleware.KeyRole, string(tt.role))

			if err := NewAuthHandler(&stubIssuer{}).Role(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			var resp roleResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.IsAdmin != tt.isAdmin || resp.Role != tt.role {
				t.Fatalf("unexpected role response: %+v", resp)
			}
		})
	}
}
