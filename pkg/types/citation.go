// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data model shared across the cite-engine pipeline
// stages: package requests, citation records, and the final package table.
package types

import (
	"strings"
	"unicode"
)

// UnknownVersion is the sentinel used when a package's installed version
// cannot be resolved.
const UnknownVersion = "unknown version"

// RecordType classifies a citation record for bibliography serialization.
type RecordType string

const (
	// RecordManual is a software release citation (BibTeX @Manual).
	RecordManual RecordType = "manual"

	// RecordArticle is an associated paper citation (BibTeX @Article).
	RecordArticle RecordType = "article"
)

// PackageRequest names one package to cite, optionally with a minimum-version
// constraint. Requests are immutable once constructed; identity is the
// case-sensitive name.
type PackageRequest struct {
	// Name is the exact package name (e.g. "lme4").
	Name string `json:"name" yaml:"name"`

	// MinVersion is an optional minimum-version constraint (e.g. "1.1-35").
	MinVersion string `json:"min_version,omitempty" yaml:"min_version,omitempty"`
}

// RawCitationEntry is one bibliographic entry as returned by a metadata
// provider, before it is turned into a CitationRecord.
type RawCitationEntry struct {
	Type    RecordType `json:"type" yaml:"type"`
	Title   string     `json:"title" yaml:"title"`
	Authors []string   `json:"authors" yaml:"authors"`
	Year    string     `json:"year" yaml:"year"`
	URL     string     `json:"url,omitempty" yaml:"url,omitempty"`
}

// CitationRecord is one bibliographic entry. Records are created by the
// resolver and never mutated afterward, except that the deduplicator attaches
// the final citation key.
type CitationRecord struct {
	// Key is the citation key assigned during deduplication. Unique within
	// one run's PackageTable; not guaranteed stable across runs.
	Key string `json:"key" yaml:"key"`

	// Type selects the bibliography entry type.
	Type RecordType `json:"type" yaml:"type"`

	// Title is the work's title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year as a string ("2019"), empty if unknown.
	Year string `json:"year,omitempty" yaml:"year,omitempty"`

	// Note annotates the record with the package and version
	// (e.g. "R package version 1.1-35").
	Note string `json:"note,omitempty" yaml:"note,omitempty"`

	// URL points at the package or paper homepage.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Raw is a preformatted single-line text rendering of the record,
	// used by table-mode output.
	Raw string `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// Fingerprint returns the content fingerprint used for deduplication. It is
// derived from normalized title, authors, and year only; the assigned key
// never participates, so two records with different keys but identical
// content compare equal.
func (r CitationRecord) Fingerprint() string {
	parts := []string{
		Normalize(r.Title),
		Normalize(strings.Join(r.Authors, " ")),
		Normalize(r.Year),
	}
	return strings.Join(parts, "|")
}

// Normalize lowercases s and strips everything except letters, digits, and
// single spaces. Used for fingerprinting so that case, punctuation, and
// whitespace differences do not defeat duplicate detection.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// PackageCitation groups one package identity with its citation records.
// Records preserve insertion order reflecting priority: the most
// authoritative entry comes first.
type PackageCitation struct {
	// Name is the package name, or the group name for folded entries.
	Name string `json:"name" yaml:"name"`

	// Version is the resolved installed version, or UnknownVersion.
	Version string `json:"version" yaml:"version"`

	// Group labels synthetic umbrella entries (e.g. "tidyverse"); empty for
	// ordinary packages.
	Group string `json:"group,omitempty" yaml:"group,omitempty"`

	// Records holds the package's citation entries in priority order.
	Records []CitationRecord `json:"records" yaml:"records"`
}

// Keys returns the citation keys of the package's records, in record order.
func (p PackageCitation) Keys() []string {
	keys := make([]string, len(p.Records))
	for i, r := range p.Records {
		keys[i] = r.Key
	}
	return keys
}

// PackageTable is the final ordered, deduplicated citation set produced by
// the pipeline. It is the sole artifact passed between the deduplicator, the
// bibliography serializer, and the presentation layer; no stage mutates it.
type PackageTable struct {
	// Packages holds one PackageCitation per requested package, in
	// discovery order.
	Packages []PackageCitation `json:"packages" yaml:"packages"`

	// Citekeys is the flattened, deduplicated key sequence across all
	// packages, in first-seen order. Every key referenced by any package's
	// records appears here exactly once, and vice versa.
	Citekeys []string `json:"citekeys" yaml:"citekeys"`
}

// DistinctRecords returns the table's records in citekey order, one per
// distinct key. This is the set the bibliography serializer writes.
func (t PackageTable) DistinctRecords() []CitationRecord {
	byKey := make(map[string]CitationRecord)
	for _, p := range t.Packages {
		for _, r := range p.Records {
			if _, ok := byKey[r.Key]; !ok {
				byKey[r.Key] = r
			}
		}
	}
	records := make([]CitationRecord, 0, len(t.Citekeys))
	for _, key := range t.Citekeys {
		if r, ok := byKey[key]; ok {
			records = append(records, r)
		}
	}
	return records
}

// Row is the table-mode projection of one package: one row per package, not
// per record.
type Row struct {
	Package   string `json:"package" yaml:"package"`
	Version   string `json:"version" yaml:"version"`
	Citekeys  string `json:"citekeys" yaml:"citekeys"`
	Citations string `json:"citations" yaml:"citations"`
}
