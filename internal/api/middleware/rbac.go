package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/communityboard/board-client/internal/core/domain"
)

// RBAC enforces role-based access control on the role set by Auth.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[string(r)] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(KeyRole).(string)
			if _, ok := allowed[role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{
					"code":    domain.CodeForbidden,
					"message": "관리자 권한이 필요합니다.",
				})
			}
			return next(c)
		}
	}
}
