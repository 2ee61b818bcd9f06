package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/communityboard/board-client/internal/core/domain"
)

// Moderator applies administrator actions. Callers are already authorized.
type Moderator interface {
	Suspend(ctx context.Context, actor, target int64, d domain.SuspensionDuration, reason string) (*domain.Account, error)
	SuspendAuthor(ctx context.Context, actor int64, ref domain.ContentRef, d domain.SuspensionDuration, reason string) (*domain.Account, error)
	Unsuspend(ctx context.Context, target int64) (*domain.Account, error)
	ChangeRole(ctx context.Context, target int64, role domain.Role) (*domain.Account, error)
	DeleteAccount(ctx context.Context, actor, target int64) error
	DeleteContent(ctx context.Context, ref domain.ContentRef) error
	ListAccounts(ctx context.Context) ([]domain.AdminAccount, error)
}

type AdminHandler struct {
	moderator Moderator
}

func NewAdminHandler(moderator Moderator) *AdminHandler {
	return &AdminHandler{moderator: moderator}
}

func (h *AdminHandler) bindSuspend(c echo.Context) (suspendRequest, domain.SuspensionDuration, error) {
	var req suspendRequest
	if err := c.Bind(&req); err != nil {
		return req, domain.SuspensionDuration{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if err := c.Validate(&req); err != nil {
		return req, domain.SuspensionDuration{}, err
	}
	d := domain.DurationFromWire(req.DurationMinutes)
	if !d.Permanent && d.Minutes <= 0 {
		return req, d, fmt.Errorf("%w: durationMinutes must be positive or %d", domain.ErrValidation, domain.PermanentMinutes)
	}
	return req, d, nil
}

// Suspend handles POST /accounts/:id/suspend.
func (h *AdminHandler) Suspend(c echo.Context) error {
	actor, err := ctxAccountID(c)
	if err != nil {
		return err
	}
	target, err := pathID(c)
	if err != nil {
		return err
	}
	req, d, err := h.bindSuspend(c)
	if err != nil {
		return err
	}

	account, err := h.moderator.Suspend(c.Request().Context(), actor, target, d, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: suspendedMessage(account.Username, d)})
}

// SuspendAuthor handles POST /admin/posts/:id/suspend-author and its comment
// counterpart.
func (h *AdminHandler) SuspendAuthor(kind domain.ContentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, err := ctxAccountID(c)
		if err != nil {
			return err
		}
		id, err := pathID(c)
		if err != nil {
			return err
		}
		req, d, err := h.bindSuspend(c)
		if err != nil {
			return err
		}

		account, err := h.moderator.SuspendAuthor(c.Request().Context(), actor, domain.ContentRef{Kind: kind, ID: id}, d, req.Reason)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, messageResponse{Message: suspendedMessage(account.Username, d)})
	}
}

// Unsuspend handles POST /accounts/:id/unsuspend.
func (h *AdminHandler) Unsuspend(c echo.Context) error {
	target, err := pathID(c)
	if err != nil {
		return err
	}
	account, err := h.moderator.Unsuspend(c.Request().Context(), target)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: account.Username + " 계정의 정지가 해제되었습니다."})
}

// ChangeRole handles POST /accounts/:id/role.
func (h *AdminHandler) ChangeRole(c echo.Context) error {
	target, err := pathID(c)
	if err != nil {
		return err
	}
	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	account, err := h.moderator.ChangeRole(c.Request().Context(), target, domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: fmt.Sprintf("%s 계정의 권한이 %s(으)로 변경되었습니다.", account.Username, account.Role)})
}

// DeleteAccount handles DELETE /admin/accounts/:id.
func (h *AdminHandler) DeleteAccount(c echo.Context) error {
	actor, err := ctxAccountID(c)
	if err != nil {
		return err
	}
	target, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.moderator.DeleteAccount(c.Request().Context(), actor, target); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "계정이 삭제되었습니다."})
}

// DeleteContent handles DELETE /admin/posts/:id and /admin/comments/:id.
func (h *AdminHandler) DeleteContent(kind domain.ContentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		if err := h.moderator.DeleteContent(c.Request().Context(), domain.ContentRef{Kind: kind, ID: id}); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "삭제되었습니다."})
	}
}

// ListAccounts handles GET /admin/accounts.
func (h *AdminHandler) ListAccounts(c echo.Context) error {
	accounts, err := h.moderator.ListAccounts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accounts)
}

func suspendedMessage(username string, d domain.SuspensionDuration) string {
	if d.Permanent {
		return username + " 계정이 영구 정지되었습니다."
	}
	return fmt.Sprintf("%s 계정이 %d분 동안 정지되었습니다.", username, d.Minutes)
}
