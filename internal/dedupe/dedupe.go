// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe merges citation records that refer to the same underlying
// work and assigns each surviving record a unique citation key. Two records
// are the same work when their content fingerprints (normalized
// title+authors+year) match, regardless of which package produced them, so a
// shared base-language citation or a paper cited by several packages
// serializes to disk exactly once while every citing package keeps a
// reference to it.
package dedupe

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/cite-engine/pkg/errors"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// Finalize walks citations in package-discovery order and produces the
// final PackageTable: package order preserved, records deduplicated by
// fingerprint, keys assigned, and the flat citekey sequence built in
// first-seen order. Keys are deterministic for a fixed input: the sanitized
// package name, with a numeric suffix from 2 for the second and later
// distinct records of the same package (or for slug collisions across
// packages).
func Finalize(citations []types.PackageCitation) (types.PackageTable, error) {
	byFingerprint := make(map[string]types.CitationRecord)
	usedKeys := make(map[string]bool)
	perPackage := make(map[string]int)

	var table types.PackageTable

	for _, pc := range citations {
		out := pc
		out.Records = make([]types.CitationRecord, 0, len(pc.Records))

		for _, rec := range pc.Records {
			fp := rec.Fingerprint()

			if existing, ok := byFingerprint[fp]; ok {
				// Same work already keyed, possibly by another package:
				// the package cites the existing record instead of
				// contributing a duplicate bibliography entry.
				out.Records = append(out.Records, existing)
				continue
			}

			perPackage[pc.Name]++
			key := assignKey(Slug(pc.Name), perPackage[pc.Name], usedKeys)
			if key == "" {
				return types.PackageTable{}, errors.New(errors.ErrCodeInternal,
					"could not assign a unique citation key for package %s", pc.Name)
			}
			usedKeys[key] = true

			rec.Key = key
			byFingerprint[fp] = rec
			out.Records = append(out.Records, rec)
			table.Citekeys = append(table.Citekeys, key)
		}

		table.Packages = append(table.Packages, out)
	}

	return table, nil
}

// assignKey produces the key for the ordinal-th distinct record of a
// package: the slug itself for the first record, slug+ordinal from the
// second. When the candidate is already taken by a different fingerprint
// (slug collision), the ordinal keeps climbing until a free key appears.
func assignKey(slug string, ordinal int, used map[string]bool) string {
	candidate := slug
	if ordinal > 1 {
		candidate = fmt.Sprintf("%s%d", slug, ordinal)
	}
	for n := ordinal; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s%d", slug, n+1)
		if n > len(used)+ordinal {
			return ""
		}
	}
	return candidate
}

// Slug sanitizes a package name into a citation key stem: letters, digits,
// hyphens, and underscores survive; dots become hyphens; anything else is
// dropped.
func Slug(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case r == '.':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "pkg"
	}
	return b.String()
}
