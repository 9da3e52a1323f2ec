// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package present projects a PackageTable into the caller-facing output
// shapes: an inline-markup paragraph, a tabular view, the flat citekey
// sequence, and the template document handed to the external renderer.
// Everything here is pure text generation, deterministic for a given table.
package present

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cite-engine/internal/expand"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// Paragraph renders one sentence per package in table order, prefixed by a
// base-runtime mention when present: "Analyses were conducted in R v.4.3.1
// [@r-key]. lme4 v.1.1-35 [@lme4], mgcv v.1.9-1 [@mgcv].".
func Paragraph(table types.PackageTable) string {
	var mentions []string
	var intro string

	for _, pc := range table.Packages {
		if pc.Name == expand.BasePackage {
			intro = fmt.Sprintf("Analyses were conducted in %s %s %s.",
				pc.Name, versionText(pc.Version), citeMarker(pc.Keys()))
			continue
		}
		mentions = append(mentions, fmt.Sprintf("%s %s %s",
			pc.Name, versionText(pc.Version), citeMarker(pc.Keys())))
	}

	var parts []string
	if intro != "" {
		parts = append(parts, intro)
	}
	if len(mentions) > 0 {
		parts = append(parts, "We used the following packages: "+strings.Join(mentions, ", ")+".")
	}
	return strings.Join(parts, " ")
}

// citeMarker renders an inline citation marker: "[@key1; @key2]".
func citeMarker(keys []string) string {
	marked := make([]string, len(keys))
	for i, k := range keys {
		marked[i] = "@" + k
	}
	return "[" + strings.Join(marked, "; ") + "]"
}

// versionText renders a version for prose, with the unknown-version
// sentinel spelled out in parentheses.
func versionText(version string) string {
	if version == types.UnknownVersion {
		return "(unknown version)"
	}
	return "v." + version
}

// BuildRows projects the table into one Row per package, keys and formatted
// citation text joined with "; ".
func BuildRows(table types.PackageTable) []types.Row {
	rows := make([]types.Row, len(table.Packages))
	for i, pc := range table.Packages {
		raws := make([]string, len(pc.Records))
		for j, rec := range pc.Records {
			raws[j] = rec.Raw
		}
		rows[i] = types.Row{
			Package:   pc.Name,
			Version:   pc.Version,
			Citekeys:  strings.Join(pc.Keys(), "; "),
			Citations: strings.Join(raws, "; "),
		}
	}
	return rows
}

// Citekeys returns the table's flat unique citekey sequence.
func Citekeys(table types.PackageTable) []string {
	keys := make([]string, len(table.Citekeys))
	copy(keys, table.Citekeys)
	return keys
}

// TemplateOptions configures the assembled template document.
type TemplateOptions struct {
	// Title is the document title.
	Title string

	// Bibliography is the bibliography file reference, as it should appear
	// in the document header (usually just the filename).
	Bibliography string

	// Style is an optional CSL style sheet reference.
	Style string
}

// frontmatter is the YAML metadata header of the template document. A
// struct keeps field order deterministic across runs.
type frontmatter struct {
	Title        string `yaml:"title"`
	Bibliography string `yaml:"bibliography"`
	CSL          string `yaml:"csl,omitempty"`
}

// WriteTemplate assembles the template document (YAML header plus the
// paragraph body) at path. The external renderer consumes this file.
func WriteTemplate(table types.PackageTable, opts TemplateOptions, path string) error {
	title := opts.Title
	if title == "" {
		title = "Software citations"
	}

	meta, err := yaml.Marshal(frontmatter{
		Title:        title,
		Bibliography: opts.Bibliography,
		CSL:          opts.Style,
	})
	if err != nil {
		return fmt.Errorf("marshaling template header: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(meta)
	b.WriteString("---\n\n")
	b.WriteString(Paragraph(table))
	b.WriteString("\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing template %s: %w", path, err)
	}
	return nil
}
