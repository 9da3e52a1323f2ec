// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve turns package requests into citation sets. Each package
// resolves to one PackageCitation with at least one record: provider entries
// when metadata exists, a synthetic minimal record otherwise. A package is
// never silently dropped; silent omission would defeat the tool's purpose.
package resolve

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pdiddy/cite-engine/internal/expand"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// MetadataProvider supplies raw citation metadata for packages. The provider
// is injected so tests can substitute a fake; the resolver holds no hidden
// process-wide state.
type MetadataProvider interface {
	// Citations returns zero or more raw bibliographic entries for a package.
	Citations(ctx context.Context, name string) ([]types.RawCitationEntry, error)

	// InstalledVersion reports the installed version of a package, and
	// whether it could be resolved.
	InstalledVersion(name string) (string, bool)
}

// fixedEntries holds the hand-authored citations for synthetic entries. The
// base runtime, umbrella groups, and the IDE are never looked up through the
// provider.
var fixedEntries = map[string]types.RawCitationEntry{
	expand.BasePackage: {
		Type:    types.RecordManual,
		Title:   "R: A Language and Environment for Statistical Computing",
		Authors: []string{"R Core Team"},
		Year:    "2024",
		URL:     "https://www.R-project.org/",
	},
	expand.TidyverseGroup.Name: {
		Type: types.RecordArticle,
		Title: "Welcome to the tidyverse",
		Authors: []string{
			"Hadley Wickham", "Mara Averick", "Jennifer Bryan", "Winston Chang",
			"Lucy D'Agostino McGowan", "Romain François", "Garrett Grolemund",
		},
		Year: "2019",
		URL:  "https://doi.org/10.21105/joss.01686",
	},
	expand.IDEPackage: {
		Type:    types.RecordManual,
		Title:   "RStudio: Integrated Development Environment for R",
		Authors: []string{"Posit team"},
		Year:    "2024",
		URL:     "https://posit.co/",
	},
}

// defaultWorkers bounds concurrent provider lookups in ResolveAll.
// Resolution is a pure function of one package name plus read-only provider
// state, so parallel lookups are safe; results are still collected in input
// order before deduplication.
const defaultWorkers = 4

// Resolver resolves citation metadata for packages.
type Resolver struct {
	// Provider supplies metadata. Required.
	Provider MetadataProvider

	// Groups marks which synthetic entries carry a group label.
	Groups []expand.Group

	// Workers bounds parallel lookups in ResolveAll (default 4).
	Workers int
}

// Resolve produces the citation set for one package. When the provider
// fails or returns nothing, the result degrades to a single synthetic
// record built from the package name and version; the error (if any) is
// returned alongside so the caller can surface a warning without losing
// the package.
func (r *Resolver) Resolve(ctx context.Context, req types.PackageRequest) (types.PackageCitation, error) {
	version, ok := r.Provider.InstalledVersion(req.Name)
	if !ok {
		version = types.UnknownVersion
	}

	pc := types.PackageCitation{
		Name:    req.Name,
		Version: version,
		Group:   expand.GroupFor(req.Name, r.Groups),
	}

	// Synthetic entries use a fixed record instead of querying the provider.
	if entry, fixed := fixedEntries[req.Name]; fixed {
		pc.Records = []types.CitationRecord{buildRecord(version, entry)}
		return pc, nil
	}

	entries, err := r.Provider.Citations(ctx, req.Name)
	if err != nil || len(entries) == 0 {
		pc.Records = []types.CitationRecord{syntheticRecord(req.Name, version)}
		return pc, err
	}

	pc.Records = make([]types.CitationRecord, len(entries))
	for i, e := range entries {
		pc.Records[i] = buildRecord(version, e)
	}
	return pc, nil
}

// ResolveAll resolves every request, preserving input order in the result.
// Lookups run on a bounded worker pool; per-package failures degrade that
// package to its synthetic fallback and are reported on w as warnings. The
// returned fallback list names the affected packages in input order.
func (r *Resolver) ResolveAll(ctx context.Context, reqs []types.PackageRequest, w io.Writer) ([]types.PackageCitation, []string) {
	workers := r.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	citations := make([]types.PackageCitation, len(reqs))
	errs := make([]error, len(reqs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req types.PackageRequest) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			citations[i], errs[i] = r.Resolve(ctx, req)
		}(i, req)
	}
	wg.Wait()

	var fallbacks []string
	for i, err := range errs {
		if err == nil {
			continue
		}
		fallbacks = append(fallbacks, reqs[i].Name)
		if w != nil {
			fmt.Fprintf(w, "warning: citation lookup failed for %s, using minimal record: %v\n", reqs[i].Name, err)
		}
	}
	return citations, fallbacks
}

// buildRecord converts a raw entry into a CitationRecord with the version
// note and the preformatted text rendering attached. The key stays empty
// until deduplication assigns it.
func buildRecord(version string, entry types.RawCitationEntry) types.CitationRecord {
	rec := types.CitationRecord{
		Type:    entry.Type,
		Title:   entry.Title,
		Authors: entry.Authors,
		Year:    entry.Year,
		Note:    versionNote(version),
		URL:     entry.URL,
	}
	if rec.Type == "" {
		rec.Type = types.RecordManual
	}
	rec.Raw = formatRaw(rec)
	return rec
}

// syntheticRecord builds the minimal fallback record for a package with no
// discoverable citation.
func syntheticRecord(pkg, version string) types.CitationRecord {
	rec := types.CitationRecord{
		Type:  types.RecordManual,
		Title: fmt.Sprintf("%s: R package", pkg),
		Note:  versionNote(version),
	}
	rec.Raw = formatRaw(rec)
	return rec
}

// versionNote renders the package+version annotation stored in the note
// field of every record.
func versionNote(version string) string {
	if version == types.UnknownVersion {
		return "R package, unknown version"
	}
	return "R package version " + version
}

// formatRaw composes the single-line human-readable rendering used by
// table-mode output: "Authors (Year). Title. Note. URL".
func formatRaw(rec types.CitationRecord) string {
	var parts []string
	if len(rec.Authors) > 0 {
		authors := strings.Join(rec.Authors, ", ")
		if rec.Year != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", authors, rec.Year))
		} else {
			parts = append(parts, authors)
		}
	} else if rec.Year != "" {
		parts = append(parts, "("+rec.Year+")")
	}
	if rec.Title != "" {
		parts = append(parts, rec.Title)
	}
	if rec.Note != "" {
		parts = append(parts, rec.Note)
	}
	if rec.URL != "" {
		parts = append(parts, rec.URL)
	}
	return strings.Join(parts, ". ")
}
