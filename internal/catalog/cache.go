package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/deimos-sim/impact-engine/internal/domain"
	"github.com/deimos-sim/impact-engine/internal/observability"
)

// Remote is the upstream catalog API.
type Remote interface {
	Summaries(ctx context.Context) ([]domain.CatalogSummary, error)
	Detail(ctx context.Context, id string) (domain.CatalogDetail, error)
}

// Cache serves catalog data through the file store, refreshing the summary
// list when it goes stale and fetching detail records lazily. Detail records
// never expire; the orbital baseline of a catalogued object is static.
type Cache struct {
	remote  Remote
	store   *FileStore
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger

	staleAfter   time.Duration
	retryBackoff time.Duration
}

// NewCache wires the cache. staleAfter bounds summary freshness;
// retryBackoff caps the single wait taken after a rate-limit response.
func NewCache(remote Remote, store *FileStore, clock clockwork.Clock, staleAfter, retryBackoff time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Cache {
	return &Cache{
		remote:       remote,
		store:        store,
		clock:        clock,
		metrics:      metrics,
		logger:       logger,
		staleAfter:   staleAfter,
		retryBackoff: retryBackoff,
	}
}

// ListSummaries returns the hazardous-object list sorted by descending
// impact probability. A fresh snapshot is served from disk; a stale or
// missing one triggers a refresh, falling back to the stale snapshot when
// the upstream is unavailable.
func (c *Cache) ListSummaries(ctx context.Context) ([]domain.CatalogSummary, error) {
	snap, ok, err := c.store.LoadSummaries()
	if err != nil {
		// A corrupt snapshot is refreshed, not fatal.
		c.logger.Warn("discarding unreadable summary snapshot", "error", err)
		ok = false
	}

	if ok && c.clock.Now().Sub(snap.FetchedAt) < c.staleAfter {
		c.metrics.CatalogFetches.WithLabelValues("summary", "cached").Inc()
		return sortSummaries(snap.Items), nil
	}

	items, fetchErr := c.fetchSummaries(ctx)
	if fetchErr == nil {
		snap = summarySnapshot{FetchedAt: c.clock.Now().UTC(), Items: items}
		size, err := c.store.SaveSummaries(snap)
		if err != nil {
			c.logger.Error("persisting summary snapshot failed", "error", err)
		} else {
			c.metrics.CatalogCacheBytes.Set(float64(size))
		}
		c.metrics.CatalogFetches.WithLabelValues("summary", "fresh").Inc()
		return sortSummaries(items), nil
	}

	if ok {
		c.logger.Warn("catalog refresh failed, serving stale snapshot",
			"error", fetchErr, "fetched_at", snap.FetchedAt)
		c.metrics.CatalogFetches.WithLabelValues("summary", "stale_fallback").Inc()
		return sortSummaries(snap.Items), nil
	}

	c.metrics.CatalogFetches.WithLabelValues("summary", "error").Inc()
	return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, fetchErr)
}

// GetDetail returns one object's detail record, fetching and persisting it
// on first use. Unknown identifiers surface as domain.ErrNotFound and leave
// nothing on disk.
func (c *Cache) GetDetail(ctx context.Context, id string) (domain.CatalogDetail, error) {
	detail, ok, err := c.store.LoadDetail(id)
	if err != nil {
		c.logger.Warn("discarding unreadable detail record", "id", id, "error", err)
		ok = false
	}
	if ok {
		c.metrics.CatalogFetches.WithLabelValues("detail", "cached").Inc()
		return detail, nil
	}

	detail, fetchErr := c.fetchDetail(ctx, id)
	switch {
	case fetchErr == nil:
		if err := c.store.SaveDetail(detail); err != nil {
			c.logger.Error("persisting detail record failed", "id", id, "error", err)
		}
		c.metrics.CatalogFetches.WithLabelValues("detail", "fresh").Inc()
		return detail, nil
	case errors.Is(fetchErr, domain.ErrNotFound):
		c.metrics.CatalogFetches.WithLabelValues("detail", "error").Inc()
		return domain.CatalogDetail{}, fetchErr
	default:
		c.metrics.CatalogFetches.WithLabelValues("detail", "error").Inc()
		return domain.CatalogDetail{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, fetchErr)
	}
}

func (c *Cache) fetchSummaries(ctx context.Context) ([]domain.CatalogSummary, error) {
	items, err := c.remote.Summaries(ctx)
	if errors.Is(err, domain.ErrRateLimited) {
		if err = c.backoff(ctx); err != nil {
			return nil, err
		}
		items, err = c.remote.Summaries(ctx)
	}
	return items, err
}

func (c *Cache) fetchDetail(ctx context.Context, id string) (domain.CatalogDetail, error) {
	detail, err := c.remote.Detail(ctx, id)
	if errors.Is(err, domain.ErrRateLimited) {
		if err = c.backoff(ctx); err != nil {
			return domain.CatalogDetail{}, err
		}
		detail, err = c.remote.Detail(ctx, id)
	}
	return detail, err
}

// backoff waits out one rate-limit window. Only one retry is ever taken; a
// second 429 propagates so callers fall back to stale data.
func (c *Cache) backoff(ctx context.Context) error {
	c.metrics.CatalogRetries.Inc()
	c.logger.Warn("catalog rate limited, retrying once", "backoff", c.retryBackoff)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(c.retryBackoff):
		return nil
	}
}

// sortSummaries orders by descending impact probability, objects without a
// probability last, identifier as the stable tiebreak.
func sortSummaries(items []domain.CatalogSummary) []domain.CatalogSummary {
	sorted := make([]domain.CatalogSummary, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].ImpactProbability, sorted[j].ImpactProbability
		switch {
		case pi != nil && pj != nil && *pi != *pj:
			return *pi > *pj
		case pi != nil && pj == nil:
			return true
		case pi == nil && pj != nil:
			return false
		default:
			return sorted[i].ID < sorted[j].ID
		}
	})
	return sorted
}
