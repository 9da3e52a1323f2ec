// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"

	"github.com/pdiddy/cite-engine/internal/resolve"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// CachingProvider decorates a MetadataProvider with the citation cache.
// Hits skip the inner provider entirely; misses are stored on the way out.
// Provider errors are never cached, so a transient failure retries on the
// next run.
type CachingProvider struct {
	Inner resolve.MetadataProvider
	Store *Store
}

// Citations returns cached entries when available, otherwise consults the
// inner provider and caches a successful result.
func (c *CachingProvider) Citations(ctx context.Context, name string) ([]types.RawCitationEntry, error) {
	version, ok := c.Inner.InstalledVersion(name)
	if !ok {
		version = types.UnknownVersion
	}

	if entries, hit := c.Store.Get(ctx, name, version); hit {
		return entries, nil
	}

	entries, err := c.Inner.Citations(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		// Cache write failures are not fatal; the lookup already succeeded.
		_ = c.Store.Put(ctx, name, version, entries)
	}
	return entries, nil
}

// InstalledVersion delegates to the inner provider; versions are cheap to
// resolve and act as the cache key, so they are never cached themselves.
func (c *CachingProvider) InstalledVersion(name string) (string, bool) {
	return c.Inner.InstalledVersion(name)
}
