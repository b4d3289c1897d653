package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptolens-api/internal/cache"
	"cryptolens-api/pkg/gateway"
)

// DefaultReferencePath is the upstream endpoint listing every coin.
const DefaultReferencePath = "/coins/list"

// ErrNoSnapshot indicates that no reference snapshot could be loaded.
var ErrNoSnapshot = errors.New("resolver: no reference snapshot available")

// Fetcher is the subset of gateway.Gateway the resolver depends on.
type Fetcher interface {
	Execute(ctx context.Context, path string, params url.Values, class cache.TTLClass) (gateway.Result, error)
}

// Resolver maps free-text queries to canonical ids. The index is rebuilt
// when the cached reference list changes; a failed refresh keeps the
// previous index in service.
type Resolver struct {
	fetcher Fetcher
	path    string

	index     atomic.Pointer[Index]
	refreshMu sync.Mutex
	rejected  time.Time
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithReferencePath overrides the reference list endpoint.
func WithReferencePath(path string) Option {
	return func(r *Resolver) {
		if path != "" {
			r.path = path
		}
	}
}

// New constructs a Resolver reading the reference list through fetcher.
func New(fetcher Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher: fetcher,
		path:    DefaultReferencePath,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the canonical id for query. A miss is reported as
// found=false with a nil error; err is set only when no snapshot is usable.
func (r *Resolver) Resolve(ctx context.Context, query string) (string, bool, error) {
	q := Normalize(query)
	if q == "" {
		return "", false, nil
	}
	ix, err := r.ensureIndex(ctx)
	if err != nil {
		return "", false, err
	}
	id, ok := ix.Lookup(q)
	return id, ok, nil
}

// Candidates returns up to limit suggestions for query.
func (r *Resolver) Candidates(ctx context.Context, query string, limit int) ([]Record, error) {
	q := Normalize(query)
	if q == "" {
		return nil, nil
	}
	ix, err := r.ensureIndex(ctx)
	if err != nil {
		return nil, err
	}
	return ix.Candidates(q, limit), nil
}

// Snapshot returns the records currently backing the index.
func (r *Resolver) Snapshot(ctx context.Context) ([]Record, error) {
	ix, err := r.ensureIndex(ctx)
	if err != nil {
		return nil, err
	}
	return ix.Records(), nil
}

// Stats describes the index currently in service.
type Stats struct {
	Records  int
	Symbols  int
	Names    int
	StoredAt time.Time
}

// IndexStats reports on the current index without refreshing it.
func (r *Resolver) IndexStats() Stats {
	ix := r.index.Load()
	if ix == nil {
		return Stats{}
	}
	return Stats{
		Records:  ix.Len(),
		Symbols:  len(ix.bySymbol),
		Names:    len(ix.byName),
		StoredAt: ix.StoredAt(),
	}
}

func (r *Resolver) ensureIndex(ctx context.Context) (*Index, error) {
	res, err := r.fetcher.Execute(ctx, r.path, nil, cache.TTLReferenceList)
	current := r.index.Load()
	if err != nil {
		if current != nil {
			logx.WithContext(ctx).Errorf("resolver: refresh failed, keeping snapshot from %s: %v",
				current.StoredAt().Format(time.RFC3339), err)
			return current, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrNoSnapshot, err)
	}
	if current != nil && current.StoredAt().Equal(res.StoredAt) {
		return current, nil
	}

	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	current = r.index.Load()
	if current != nil && current.StoredAt().Equal(res.StoredAt) {
		return current, nil
	}
	if current != nil && r.rejected.Equal(res.StoredAt) {
		return current, nil
	}

	var records []Record
	if err := res.Decode(&records); err != nil {
		return r.reject(ctx, current, res.StoredAt, fmt.Errorf("decode reference list: %w", err))
	}
	next := BuildIndex(records, res.StoredAt)
	if next.Len() == 0 && current != nil {
		return r.reject(ctx, current, res.StoredAt, errors.New("reference list is empty"))
	}

	r.index.Store(next)
	logx.WithContext(ctx).Infof("resolver: index rebuilt records=%d symbols=%d stored_at=%s",
		next.Len(), len(next.bySymbol), res.StoredAt.Format(time.RFC3339))
	return next, nil
}

func (r *Resolver) reject(ctx context.Context, current *Index, storedAt time.Time, cause error) (*Index, error) {
	r.rejected = storedAt
	if current == nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSnapshot, cause)
	}
	logx.WithContext(ctx).Errorf("resolver: discarding snapshot from %s, keeping previous: %v",
		storedAt.Format(time.RFC3339), cause)
	return current, nil
}
