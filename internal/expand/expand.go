// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package expand turns a package selection into the ordered set of packages
// to cite. It supports scanning the project tree, using the current session,
// or an explicit list; optional transitive dependency closure; folding of
// configured package groups into a single umbrella entry; and insertion of
// the base runtime entry.
package expand

import (
	"github.com/pdiddy/cite-engine/pkg/errors"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// BasePackage is the synthetic entry for the base language runtime. It is
// always inserted first unless the caller excludes it.
const BasePackage = "R"

// IDEPackage is the synthetic entry appended when IDE citation is requested.
const IDEPackage = "RStudio"

// Scanner reports the packages a project's source files use, in
// first-encountered order.
type Scanner interface {
	Scan() ([]string, error)
}

// SessionLister reports the packages loaded in the current session.
type SessionLister interface {
	LoadedPackages() ([]string, error)
}

// DependencyGraph reports a package's direct dependencies.
type DependencyGraph interface {
	DependenciesOf(pkg string) ([]string, error)
}

// Group defines a set of packages cited as one umbrella entity.
type Group struct {
	// Name is the umbrella entry's package name (e.g. "tidyverse").
	Name string

	// Members lists the packages the group replaces.
	Members []string
}

// TidyverseGroup is the built-in umbrella group for the tidyverse packages.
var TidyverseGroup = Group{
	Name: "tidyverse",
	Members: []string{
		"ggplot2", "dplyr", "tidyr", "readr", "purrr",
		"tibble", "stringr", "forcats", "lubridate",
	},
}

// Options controls expansion.
type Options struct {
	// Selection picks the base package set source.
	Selection types.Selection

	// Packages is the explicit list used with SelectExplicit.
	Packages []string

	// IncludeDependencies expands the set to its transitive closure.
	IncludeDependencies bool

	// Groups lists umbrella groups to fold.
	Groups []Group

	// OmitBase suppresses the base runtime entry.
	OmitBase bool

	// IncludeIDE appends the IDE entry after all packages.
	IncludeIDE bool
}

// orderedSet keeps insertion order with first-occurrence-wins membership.
// Implicit ordering through map iteration would lose the discovery-order
// guarantee, so membership and sequence are tracked separately.
type orderedSet struct {
	seen  map[string]bool
	names []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(name string) bool {
	if name == "" || s.seen[name] {
		return false
	}
	s.seen[name] = true
	s.names = append(s.names, name)
	return true
}

func (s *orderedSet) has(name string) bool { return s.seen[name] }

// Expand produces the ordered package request list for the given options.
// The scanner, session lister, and dependency graph are consulted only for
// the selection modes and flags that need them; a nil graph with
// IncludeDependencies set is an internal error.
func Expand(opts Options, scanner Scanner, session SessionLister, graph DependencyGraph) ([]types.PackageRequest, error) {
	base, err := baseSet(opts, scanner, session)
	if err != nil {
		return nil, err
	}

	set := newOrderedSet()
	for _, name := range base {
		set.add(name)
	}

	if opts.IncludeDependencies {
		if graph == nil {
			return nil, errors.New(errors.ErrCodeInternal, "dependency expansion requested without a dependency graph provider")
		}
		if err := appendClosure(set, graph); err != nil {
			return nil, err
		}
	}

	names := foldGroups(set.names, opts.Groups)

	if !opts.OmitBase {
		names = insertFirst(names, BasePackage)
	}
	if opts.IncludeIDE {
		names = appendMissing(names, IDEPackage)
	}

	requests := make([]types.PackageRequest, len(names))
	for i, name := range names {
		requests[i] = types.PackageRequest{Name: name}
	}
	return requests, nil
}

// baseSet resolves the initial package list for the selection mode. An
// unknown mode is a configuration error, surfaced before any provider call.
func baseSet(opts Options, scanner Scanner, session SessionLister) ([]string, error) {
	switch opts.Selection {
	case types.SelectAll:
		if scanner == nil {
			return nil, errors.New(errors.ErrCodeInternal, "selection %q requires a project scanner", opts.Selection)
		}
		names, err := scanner.Scan()
		if err != nil {
			return nil, err
		}
		return names, nil
	case types.SelectSession:
		if session == nil {
			return nil, errors.New(errors.ErrCodeInternal, "selection %q requires a session provider", opts.Selection)
		}
		names, err := session.LoadedPackages()
		if err != nil {
			return nil, err
		}
		return names, nil
	case types.SelectExplicit:
		return opts.Packages, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidSelection, "unknown selection mode %q", opts.Selection)
}

// appendClosure walks the dependency graph breadth-first over the current
// set and appends every dependency not already present, in discovery order.
// Failed lookups for individual packages are ignored; a package with no
// metadata simply contributes no dependencies.
func appendClosure(set *orderedSet, graph DependencyGraph) error {
	queue := make([]string, len(set.names))
	copy(queue, set.names)

	for len(queue) > 0 {
		pkg := queue[0]
		queue = queue[1:]

		deps, err := graph.DependenciesOf(pkg)
		if err != nil {
			continue
		}
		for _, dep := range deps {
			if dep == BasePackage {
				continue
			}
			if set.add(dep) {
				queue = append(queue, dep)
			}
		}
	}
	return nil
}

// foldGroups replaces each group's present members with a single umbrella
// entry at the position of the first member encountered. Packages in no
// group pass through unchanged.
func foldGroups(names []string, groups []Group) []string {
	if len(groups) == 0 {
		return names
	}

	groupOf := make(map[string]string)
	for _, g := range groups {
		for _, m := range g.Members {
			groupOf[m] = g.Name
		}
	}

	folded := newOrderedSet()
	for _, name := range names {
		if group, ok := groupOf[name]; ok {
			folded.add(group)
			continue
		}
		folded.add(name)
	}
	return folded.names
}

// insertFirst places name at the head of the list, removing any later
// occurrence.
func insertFirst(names []string, name string) []string {
	out := make([]string, 0, len(names)+1)
	out = append(out, name)
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

// appendMissing appends name if not already present.
func appendMissing(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}

// GroupFor returns the group label for a package name, or "" when the name
// is not a configured umbrella entry. The resolver uses this to mark
// synthetic group entries in the final table.
func GroupFor(name string, groups []Group) string {
	for _, g := range groups {
		if g.Name == name {
			return g.Name
		}
	}
	return ""
}
