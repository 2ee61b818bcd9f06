package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/communityboard/board-client/internal/api/middleware"
)

// ctxAccountID returns the account injected by the Auth middleware. Its
// absence means the route was registered without Auth.
func ctxAccountID(c echo.Context) (int64, error) {
	id, ok := c.Get(middleware.KeyAccountID).(int64)
	if !ok || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
