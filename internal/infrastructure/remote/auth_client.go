package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
)

const maxBody = 1 << 20

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type roleResponse struct {
	IsAdmin bool   `json:"isAdmin"`
	Role    string `json:"role"`
}

// AuthClient implements ports.Authenticator against the board API. It calls
// the transport directly: credential requests carry no session credential and
// must never run through the forced-logout path.
type AuthClient struct {
	baseURL string
	doer    ports.Doer
}

// NewAuthClient returns an AuthClient for the API at baseURL.
func NewAuthClient(baseURL string, doer ports.Doer) *AuthClient {
	return &AuthClient{baseURL: strings.TrimRight(baseURL, "/"), doer: doer}
}

// Authenticate exchanges a username and password for a credential.
// Suspended accounts come back as *domain.SuspendedError, other rejections
// as *domain.APIError.
func (c *AuthClient) Authenticate(ctx context.Context, username, password string) (ports.LoginGrant, error) {
	var grant ports.LoginGrant
	if err := c.call(ctx, http.MethodPost, "/sessions", "", loginRequest{Username: username, Password: password}, &grant); err != nil {
		return ports.LoginGrant{}, err
	}
	return grant, nil
}

// FetchRole resolves the role the API holds for the bearer of token.
func (c *AuthClient) FetchRole(ctx context.Context, token string) (domain.Role, error) {
	var out roleResponse
	if err := c.call(ctx, http.MethodGet, "/accounts/self/role", token, nil, &out); err != nil {
		return "", err
	}
	if out.Role != "" {
		role := domain.Role(out.Role)
		if !role.Valid() {
			return "", fmt.Errorf("role lookup: unrecognised role %q", out.Role)
		}
		return role, nil
	}
	if out.IsAdmin {
		return domain.RoleAdmin, nil
	}
	return domain.RoleUser, nil
}

func (c *AuthClient) call(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		return fmt.Errorf("%w: %s %s: %v", domain.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", domain.ErrNetwork, path, err)
	}

	r := &ports.Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}
	if err := r.Err(); err != nil {
		return err
	}
	if err := r.Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
