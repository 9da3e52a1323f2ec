// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan detects which packages a project's source files use. It walks
// the project tree and matches attach calls and namespace-qualified calls in
// R-family sources, returning package names in first-encountered order.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Usage patterns matched in source text.
var (
	// attachRe matches library(pkg), require(pkg), and requireNamespace("pkg"),
	// with or without quotes around the package name.
	attachRe = regexp.MustCompile(`\b(?:library|require|requireNamespace)\s*\(\s*["']?([A-Za-z][A-Za-z0-9.]*)["']?\s*[,)]`)

	// namespaceRe matches qualified calls: pkg::fn and pkg:::fn.
	namespaceRe = regexp.MustCompile(`\b([A-Za-z][A-Za-z0-9.]*):{2,3}[A-Za-z._]`)
)

// sourceExts lists the file extensions scanned for package usage.
var sourceExts = map[string]bool{
	".r":   true,
	".rmd": true,
	".qmd": true,
	".rnw": true,
}

// skipDirs lists directory names excluded from the walk. Library checkouts
// under renv/ and packrat/ would otherwise report every vendored package.
var skipDirs = map[string]bool{
	"renv":    true,
	"packrat": true,
}

// Scanner walks a project tree and reports the packages its sources use.
type Scanner struct {
	// Root is the project directory to scan.
	Root string
}

// New creates a Scanner over the given project root.
func New(root string) *Scanner {
	return &Scanner{Root: root}
}

// Scan returns the package names used under the project root, ordered by
// first encounter. The walk is lexical, so the order is deterministic for a
// fixed tree. Returns an error only when the root itself is unreadable;
// individual unreadable files are skipped.
func (s *Scanner) Scan() ([]string, error) {
	if _, err := os.Stat(s.Root); err != nil {
		return nil, fmt.Errorf("scanning project root %s: %w", s.Root, err)
	}

	seen := make(map[string]bool)
	var names []string

	err := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != s.Root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if !sourceExts[strings.ToLower(filepath.Ext(name))] {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		for _, pkg := range extractPackages(string(data)) {
			if !seen[pkg] {
				seen[pkg] = true
				names = append(names, pkg)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", s.Root, err)
	}

	return names, nil
}

// extractPackages returns the package names referenced in one file's text,
// in match order, attach calls before qualified calls.
func extractPackages(text string) []string {
	seen := make(map[string]bool)
	var names []string

	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for _, m := range attachRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range namespaceRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	return names
}
