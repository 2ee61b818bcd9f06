package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
	"github.com/communityboard/board-client/internal/pkg/metrics"
)

// ViewDedupWindow is how long a repeat view of the same resource by the same
// viewer is suppressed.
const ViewDedupWindow = 24 * time.Hour

const anonymousViewer = "anonymous"

// ViewDedupCache suppresses duplicate view-count submissions per
// (viewer, resource) pair. Entries live in the shared store, so suppression
// survives restarts; stale entries are overwritten, never accumulated.
type ViewDedupCache struct {
	store ports.KVStore
	log   zerolog.Logger
	mu    sync.Mutex
}

// NewViewDedupCache returns a cache persisting its entries in store.
func NewViewDedupCache(store ports.KVStore, log zerolog.Logger) *ViewDedupCache {
	return &ViewDedupCache{store: store, log: log}
}

// ShouldCount reports whether a view of resourceID by viewerKey at now should
// be submitted. A true result records an entry expiring at now+ViewDedupWindow.
// Store failures are logged and the view is counted anyway.
func (c *ViewDedupCache) ShouldCount(ctx context.Context, viewerKey, resourceID string, now time.Time) bool {
	key := viewKey(viewerKey, resourceID)

	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		if expiresAt, perr := time.Parse(time.RFC3339Nano, raw); perr == nil && now.Before(expiresAt) {
			metrics.ViewDedupTotal.WithLabelValues("suppressed").Inc()
			c.log.Debug().Str("viewer", viewerKey).Str("resource_id", resourceID).Msg("duplicate view suppressed")
			return false
		}
	case !errors.Is(err, domain.ErrKeyNotFound):
		c.log.Warn().Err(err).Str("resource_id", resourceID).Msg("view dedup lookup failed, counting anyway")
	}

	expiresAt := now.Add(ViewDedupWindow)
	if err := c.store.Set(ctx, key, expiresAt.Format(time.RFC3339Nano), ViewDedupWindow); err != nil {
		c.log.Warn().Err(err).Str("resource_id", resourceID).Msg("failed to record view dedup entry")
	}
	metrics.ViewDedupTotal.WithLabelValues("count").Inc()
	return true
}

// Release drops the entry for the pair so the next attempt counts again.
func (c *ViewDedupCache) Release(ctx context.Context, viewerKey, resourceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Delete(ctx, viewKey(viewerKey, resourceID)); err != nil {
		c.log.Warn().Err(err).Str("resource_id", resourceID).Msg("failed to release view dedup entry")
	}
}

func viewKey(viewerKey, resourceID string) string {
	return fmt.Sprintf("view:%s:%s", viewerKey, resourceID)
}

// IdentitySource exposes the current identity.
type IdentitySource interface {
	Current(ctx context.Context) *domain.Identity
}

// ViewCounter submits view increments for resources, at most once per viewer
// and resource per dedup window.
type ViewCounter struct {
	requester ports.Requester
	identity  IdentitySource
	cache     *ViewDedupCache
	now       func() time.Time
	log       zerolog.Logger
}

// NewViewCounter returns a ViewCounter.
func NewViewCounter(requester ports.Requester, identity IdentitySource, cache *ViewDedupCache, log zerolog.Logger) *ViewCounter {
	return &ViewCounter{
		requester: requester,
		identity:  identity,
		cache:     cache,
		now:       time.Now,
		log:       log,
	}
}

// RecordView submits a view of resourceID unless one was already counted for
// the current viewer inside the window. It reports whether a view was counted.
// A failed submission releases the dedup entry again.
func (v *ViewCounter) RecordView(ctx context.Context, resourceID int64) (bool, error) {
	viewer := anonymousViewer
	if id := v.identity.Current(ctx); id != nil {
		viewer = strconv.FormatInt(id.AccountID, 10)
	}
	resource := strconv.FormatInt(resourceID, 10)

	if !v.cache.ShouldCount(ctx, viewer, resource, v.now()) {
		return false, nil
	}

	resp, err := v.requester.Do(ctx, ports.Request{
		Method: http.MethodPost,
		Path:   "/resources/" + resource + "/view",
	})
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		v.cache.Release(context.WithoutCancel(ctx), viewer, resource)
		return false, fmt.Errorf("record view %d: %w", resourceID, err)
	}

	v.log.Debug().Str("viewer", viewer).Int64("resource_id", resourceID).Msg("view recorded")
	return true, nil
}
