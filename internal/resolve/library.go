// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cite-engine/pkg/errors"
	"github.com/pdiddy/cite-engine/pkg/types"
)

const (
	descriptionFile = "DESCRIPTION"
	citationFile    = "citation.yaml"
)

// Library is a MetadataProvider backed by an installed package library
// directory: one subdirectory per package, each holding a DESCRIPTION file
// in DCF format and optionally a citation.yaml with hand-maintained entries
// (e.g. an associated paper). Library also serves as the dependency graph
// provider, reading Depends/Imports/LinkingTo from DESCRIPTION.
type Library struct {
	// Path is the library root directory.
	Path string
}

// NewLibrary creates a provider over the given library directory.
func NewLibrary(path string) *Library {
	return &Library{Path: path}
}

// Citations returns the package's bibliographic entries: first the entry
// synthesized from DESCRIPTION, then any entries from citation.yaml. A
// package absent from the library yields a package-not-found error.
func (l *Library) Citations(ctx context.Context, name string) ([]types.RawCitationEntry, error) {
	fields, err := l.description(name)
	if err != nil {
		return nil, err
	}

	var entries []types.RawCitationEntry
	if entry, ok := entryFromDescription(name, fields); ok {
		entries = append(entries, entry)
	}

	extra, err := l.citationEntries(name)
	if err != nil {
		return entries, err
	}
	entries = append(entries, extra...)

	return entries, nil
}

// InstalledVersion reads the Version field from the package's DESCRIPTION.
func (l *Library) InstalledVersion(name string) (string, bool) {
	fields, err := l.description(name)
	if err != nil {
		return "", false
	}
	version := fields["Version"]
	return version, version != ""
}

// DependenciesOf returns the package's direct dependencies from the
// Depends, Imports, and LinkingTo fields, version constraints stripped,
// base runtime excluded.
func (l *Library) DependenciesOf(name string) ([]string, error) {
	fields, err := l.description(name)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var deps []string
	for _, field := range []string{"Depends", "Imports", "LinkingTo"} {
		for _, dep := range splitDepField(fields[field]) {
			if dep == "R" || seen[dep] {
				continue
			}
			seen[dep] = true
			deps = append(deps, dep)
		}
	}
	return deps, nil
}

// description reads and parses the package's DESCRIPTION file.
func (l *Library) description(name string) (map[string]string, error) {
	path := filepath.Join(l.Path, name, descriptionFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodePackageNotFound, "package %s not installed in %s", name, l.Path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return parseDCF(string(data)), nil
}

// citationEntries reads optional hand-maintained entries from citation.yaml.
// A missing file is not an error; a malformed one is.
func (l *Library) citationEntries(name string) ([]types.RawCitationEntry, error) {
	path := filepath.Join(l.Path, name, citationFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var entries []types.RawCitationEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return entries, nil
}

// parseDCF parses Debian-control-format text (the DESCRIPTION layout):
// "Key: value" lines, with continuation lines indented by whitespace.
func parseDCF(text string) map[string]string {
	fields := make(map[string]string)
	var current string

	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if current != "" {
				fields[current] += " " + strings.TrimSpace(line)
			}
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		current = strings.TrimSpace(line[:idx])
		fields[current] = strings.TrimSpace(line[idx+1:])
	}
	return fields
}

// depVersionRe strips version constraints like "(>= 1.2.3)" from dependency
// declarations.
var depVersionRe = regexp.MustCompile(`\([^)]*\)`)

// splitDepField splits a Depends/Imports value into package names.
func splitDepField(value string) []string {
	if value == "" {
		return nil
	}
	value = depVersionRe.ReplaceAllString(value, "")
	var deps []string
	for _, part := range strings.Split(value, ",") {
		if dep := strings.TrimSpace(part); dep != "" {
			deps = append(deps, dep)
		}
	}
	return deps
}

// authorSplitRe separates DESCRIPTION Author values on commas and "and".
var authorSplitRe = regexp.MustCompile(`,| and `)

// roleRe strips role annotations like "[aut, cre]" from author names.
var roleRe = regexp.MustCompile(`\[[^\]]*\]|<[^>]*>`)

// yearRe finds a four-digit year in Date-style fields.
var yearRe = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)

// entryFromDescription synthesizes the software citation entry from
// DESCRIPTION fields, the way the original citation machinery does when a
// package ships no explicit citation. Returns false when the DESCRIPTION
// carries no usable title.
func entryFromDescription(name string, fields map[string]string) (types.RawCitationEntry, bool) {
	title := fields["Title"]
	if title == "" {
		return types.RawCitationEntry{}, false
	}

	entry := types.RawCitationEntry{
		Type:  types.RecordManual,
		Title: fmt.Sprintf("%s: %s", name, title),
		URL:   firstField(fields["URL"]),
	}

	for _, a := range authorSplitRe.Split(fields["Author"], -1) {
		a = strings.TrimSpace(roleRe.ReplaceAllString(a, ""))
		if a != "" {
			entry.Authors = append(entry.Authors, a)
		}
	}

	for _, field := range []string{"Date", "Date/Publication", "Packaged"} {
		if m := yearRe.FindStringSubmatch(fields[field]); m != nil {
			entry.Year = m[1]
			break
		}
	}

	return entry, true
}

// firstField returns the first comma-separated value of a DESCRIPTION URL
// field, which may list several.
func firstField(value string) string {
	if idx := strings.Index(value, ","); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}
