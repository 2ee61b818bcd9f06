package ports

import (
	"context"

	"github.com/communityboard/board-client/internal/core/domain"
)

// AccountRepository persists accounts for the remote API stand-in.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Account, error)
}

// ContentItem is a post or comment as tracked by the stand-in.
type ContentItem struct {
	Kind     domain.ContentKind
	ID       int64
	AuthorID int64
	Views    int64
}

// ContentRepository tracks content ownership and view counters for the stand-in.
type ContentRepository interface {
	Put(ctx context.Context, item ContentItem) error
	Find(ctx context.Context, kind domain.ContentKind, id int64) (*ContentItem, error)
	Delete(ctx context.Context, kind domain.ContentKind, id int64) error
	IncrementViews(ctx context.Context, id int64) (int64, error)
}
