// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/cite-engine/internal/httputil"
	"github.com/pdiddy/cite-engine/pkg/errors"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// DefaultRegistryBase is the default package metadata endpoint.
const DefaultRegistryBase = "https://crandb.r-pkg.org"

// defaultRegistryRate bounds requests per second against the registry.
const defaultRegistryRate = 5.0

// Registry is a MetadataProvider backed by a CRAN-style HTTP metadata API.
// Requests are rate limited and retried on HTTP 429. Version lookups go
// through the same endpoint, so Registry can stand alone when no local
// library is available.
type Registry struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	agent   string
	token   string
}

// NewRegistry creates a registry provider from configuration. Zero values
// fall back to defaults.
func NewRegistry(cfg types.RegistryConfig) *Registry {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultRegistryBase
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRegistryRate
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Registry{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		baseURL: base,
		agent:   cfg.UserAgent,
		token:   cfg.APIToken,
	}
}

// registryPackage is the subset of the registry's JSON payload we consume.
type registryPackage struct {
	Package string `json:"Package"`
	Version string `json:"Version"`
	Title   string `json:"Title"`
	Author  string `json:"Author"`
	Date    string `json:"Date/Publication"`
	URL     string `json:"URL"`
}

// Citations queries the registry and synthesizes one software entry from
// the returned metadata.
func (r *Registry) Citations(ctx context.Context, name string) ([]types.RawCitationEntry, error) {
	pkg, err := r.fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{
		"Title":  pkg.Title,
		"Author": pkg.Author,
		"Date":   pkg.Date,
		"URL":    pkg.URL,
	}
	entry, ok := entryFromDescription(name, fields)
	if !ok {
		return nil, nil
	}
	return []types.RawCitationEntry{entry}, nil
}

// InstalledVersion reports the registry's current version for the package.
// The result is a best-effort stand-in when no local library is present.
func (r *Registry) InstalledVersion(name string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.client.Timeout)
	defer cancel()

	pkg, err := r.fetch(ctx, name)
	if err != nil || pkg.Version == "" {
		return "", false
	}
	return pkg.Version, true
}

// fetch retrieves one package's metadata document.
func (r *Registry) fetch(ctx context.Context, name string) (*registryPackage, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s", r.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if r.agent != "" {
		req.Header.Set("User-Agent", r.agent)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := httputil.DoWithRetry(ctx, r.client, req, 0)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "registry request for %s", name)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.ErrCodePackageNotFound, "package %s not found in registry", name)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.New(errors.ErrCodeNetwork, "registry returned HTTP %d for %s", resp.StatusCode, name)
	}

	var pkg registryPackage
	if err := json.NewDecoder(resp.Body).Decode(&pkg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "parsing registry response for %s", name)
	}
	return &pkg, nil
}

// Chain consults providers in order, returning the first non-empty citation
// set. The typical chain is local library first, registry fallback.
type Chain struct {
	Providers []MetadataProvider
}

// Citations returns the first provider's non-empty entries. Errors are held
// until all providers have been tried; if none succeeds the last error wins.
func (c *Chain) Citations(ctx context.Context, name string) ([]types.RawCitationEntry, error) {
	var lastErr error
	for _, p := range c.Providers {
		entries, err := p.Citations(ctx, name)
		if err != nil {
			lastErr = err
			continue
		}
		if len(entries) > 0 {
			return entries, nil
		}
	}
	return nil, lastErr
}

// InstalledVersion returns the first resolvable version across providers.
func (c *Chain) InstalledVersion(name string) (string, bool) {
	for _, p := range c.Providers {
		if v, ok := p.InstalledVersion(name); ok {
			return v, ok
		}
	}
	return "", false
}
