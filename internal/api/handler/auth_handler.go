package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/communityboard/board-client/internal/api/middleware"
	"github.com/communityboard/board-client/internal/core/domain"
)

// SessionIssuer creates accounts and exchanges credentials for tokens.
type SessionIssuer interface {
	Register(ctx context.Context, username, password, displayName string, role domain.Role) (*domain.Account, error)
	Login(ctx context.Context, username, password string) (string, *domain.Account, error)
}

type AuthHandler struct {
	issuer SessionIssuer
}

func NewAuthHandler(issuer SessionIssuer) *AuthHandler {
	return &AuthHandler{issuer: issuer}
}

// Login exchanges a username and password for a bearer token.
//
// @Summary      Login
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /sessions [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, account, err := h.issuer.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, DisplayName: account.DisplayName})
}

// Register creates a USER account.
//
// @Summary      Register an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  accountResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /accounts [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	account, err := h.issuer.Register(c.Request().Context(), req.Username, req.Password, req.DisplayName, domain.RoleUser)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, accountResponse{
		Message: "계정이 생성되었습니다.",
		Account: domain.AdminAccount{
			ID:          account.ID,
			Username:    account.Username,
			DisplayName: account.DisplayName,
			Role:        account.Role,
			CreatedAt:   account.CreatedAt,
		},
	})
}

// Role reports the caller's current role. Auth has already rejected suspended
// callers, so a successful answer doubles as a liveness check of the session.
//
// @Summary      Current role
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  roleResponse
// @Failure      401  {object}  errorResponse
// @Router       /accounts/self/role [get]
func (h *AuthHandler) Role(c echo.Context) error {
	role, _ := c.Get(middleware.KeyRole).(string)
	r := domain.Role(role)
	return c.JSON(http.StatusOK, roleResponse{IsAdmin: r == domain.RoleAdmin, Role: r})
}
