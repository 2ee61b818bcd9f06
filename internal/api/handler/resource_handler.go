package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/communityboard/board-client/internal/api/middleware"
	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
	"github.com/communityboard/board-client/internal/infrastructure/queue"
)

// ContentCatalog publishes and looks up posts and comments.
type ContentCatalog interface {
	PublishContent(ctx context.Context, item ports.ContentItem) error
	Content(ctx context.Context, ref domain.ContentRef) (*ports.ContentItem, error)
}

// ViewQueue accepts view increments for asynchronous application.
type ViewQueue interface {
	Enqueue(inc queue.ViewIncrement)
}

type ResourceHandler struct {
	catalog ContentCatalog
	views   ViewQueue
}

func NewResourceHandler(catalog ContentCatalog, views ViewQueue) *ResourceHandler {
	return &ResourceHandler{catalog: catalog, views: views}
}

type acceptedResponse struct {
	Message string `json:"message"`
}

// View handles POST /resources/:id/view. The increment is applied by the
// dispatcher, so the response only confirms acceptance.
func (h *ResourceHandler) View(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	viewer, _ := c.Get(middleware.KeyAccountID).(int64)

	h.views.Enqueue(queue.ViewIncrement{ResourceID: id, ViewerID: viewer})
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "view accepted"})
}

// Publish handles POST /posts and POST /comments for the caller.
func (h *ResourceHandler) Publish(kind domain.ContentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		author, err := ctxAccountID(c)
		if err != nil {
			return err
		}
		var req publishRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		if err := c.Validate(&req); err != nil {
			return err
		}

		item := ports.ContentItem{Kind: kind, ID: req.ID, AuthorID: author}
		if err := h.catalog.PublishContent(c.Request().Context(), item); err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, viewResponse{ID: req.ID})
	}
}

// Get handles GET /posts/:id and GET /comments/:id.
func (h *ResourceHandler) Get(kind domain.ContentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		item, err := h.catalog.Content(c.Request().Context(), domain.ContentRef{Kind: kind, ID: id})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, viewResponse{ID: item.ID, Views: item.Views})
	}
}
