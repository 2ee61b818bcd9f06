package memory

import (
	"context"
	"sync"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
)

type contentKey struct {
	kind domain.ContentKind
	id   int64
}

// ContentRepository implements ports.ContentRepository in memory. View
// counters are keyed by resource ID alone, whatever the content kind.
type ContentRepository struct {
	mu    sync.Mutex
	items map[contentKey]ports.ContentItem
	views map[int64]int64
}

// NewContentRepository returns an empty repository.
func NewContentRepository() *ContentRepository {
	return &ContentRepository{
		items: make(map[contentKey]ports.ContentItem),
		views: make(map[int64]int64),
	}
}

func (r *ContentRepository) Put(_ context.Context, item ports.ContentItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[contentKey{item.Kind, item.ID}] = item
	return nil
}

func (r *ContentRepository) Find(_ context.Context, kind domain.ContentKind, id int64) (*ports.ContentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[contentKey{kind, id}]
	if !ok {
		return nil, domain.ErrContentNotFound
	}
	item.Views = r.views[id]
	return &item, nil
}

func (r *ContentRepository) Delete(_ context.Context, kind domain.ContentKind, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := contentKey{kind, id}
	if _, ok := r.items[key]; !ok {
		return domain.ErrContentNotFound
	}
	delete(r.items, key)
	return nil
}

// IncrementViews bumps the counter of resource id and returns the new value.
func (r *ContentRepository) IncrementViews(_ context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[id]++
	return r.views[id], nil
}
