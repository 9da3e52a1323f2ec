// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cite is the programmatic surface of cite-engine: one Run call
// takes a package selection through expansion, metadata resolution,
// deduplication, bibliography serialization, and presentation.
package cite

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/cite-engine/internal/bib"
	"github.com/pdiddy/cite-engine/internal/dedupe"
	"github.com/pdiddy/cite-engine/internal/expand"
	"github.com/pdiddy/cite-engine/internal/present"
	"github.com/pdiddy/cite-engine/internal/render"
	"github.com/pdiddy/cite-engine/internal/resolve"
	"github.com/pdiddy/cite-engine/pkg/errors"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// Default output filenames.
const (
	DefaultBibFile      = "pkg-refs.bib"
	DefaultTemplateFile = "citations.md"
	DefaultBaseName     = "citations"
)

// Request holds everything one invocation needs.
type Request struct {
	// Output selects the result shape: file, paragraph, table, or citekeys.
	Output types.OutputMode

	// Format selects the rendered document format (file mode only).
	Format types.RenderFormat

	// Style is an optional CSL style sheet reference passed to the renderer.
	Style string

	// Selection picks the package source; Packages is the explicit list
	// used with SelectExplicit.
	Selection types.Selection
	Packages  []string

	// Tidyverse folds the tidyverse packages into one umbrella entry.
	Tidyverse bool

	// IncludeDependencies expands the set to its transitive closure.
	IncludeDependencies bool

	// IncludeIDE appends the IDE citation entry.
	IncludeIDE bool

	// OmitBase suppresses the base runtime entry.
	OmitBase bool

	// Output file locations. Zero values use the defaults.
	OutDir       string
	BibFile      string
	TemplateFile string
	BaseName     string

	// GraphOptions are pass-through options forwarded to the
	// dependency-graph provider; providers read the keys they understand.
	GraphOptions map[string]string
}

// Deps holds the injected collaborators. Provider is always required;
// Scanner, Session, Graph, and Renderer are required only by the selection
// modes and flags that use them.
type Deps struct {
	Scanner  expand.Scanner
	Session  expand.SessionLister
	Graph    expand.DependencyGraph
	Provider resolve.MetadataProvider
	Renderer render.Renderer

	// Warnings receives non-fatal resolution warnings; nil discards them.
	Warnings io.Writer
}

// Result is the mode-tagged output of one run. The field matching the
// requested mode is populated; Table and Fallbacks are always set.
type Result struct {
	Mode      types.OutputMode
	Table     types.PackageTable
	Paragraph string
	Rows      []types.Row
	Citekeys  []string
	Files     []string

	// Fallbacks names packages that degraded to a synthetic minimal record.
	Fallbacks []string
}

// graphConfigurer is implemented by dependency-graph providers that accept
// pass-through options.
type graphConfigurer interface {
	Configure(opts map[string]string)
}

// Run executes the pipeline. Configuration errors (invalid output mode,
// selection, or format) surface before any provider is consulted and
// before anything is written.
func Run(ctx context.Context, req Request, deps Deps) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	applyDefaults(&req)

	if g, ok := deps.Graph.(graphConfigurer); ok && len(req.GraphOptions) > 0 {
		g.Configure(req.GraphOptions)
	}

	var groups []expand.Group
	if req.Tidyverse {
		groups = []expand.Group{expand.TidyverseGroup}
	}

	requests, err := expand.Expand(expand.Options{
		Selection:           req.Selection,
		Packages:            req.Packages,
		IncludeDependencies: req.IncludeDependencies,
		Groups:              groups,
		OmitBase:            req.OmitBase,
		IncludeIDE:          req.IncludeIDE,
	}, deps.Scanner, deps.Session, deps.Graph)
	if err != nil {
		return nil, err
	}

	resolver := &resolve.Resolver{Provider: deps.Provider, Groups: groups}
	citations, fallbacks := resolver.ResolveAll(ctx, requests, deps.Warnings)

	table, err := dedupe.Finalize(citations)
	if err != nil {
		return nil, err
	}

	// The bibliography is written in every mode; serialization failures
	// abort before any presentation work.
	if err := os.MkdirAll(req.OutDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerialize, err, "creating output directory %s", req.OutDir)
	}
	bibPath := filepath.Join(req.OutDir, req.BibFile)
	if err := bib.Write(table, bibPath); err != nil {
		return nil, err
	}

	result := &Result{
		Mode:      req.Output,
		Table:     table,
		Fallbacks: fallbacks,
	}

	switch req.Output {
	case types.ModeParagraph:
		result.Paragraph = present.Paragraph(table)
	case types.ModeTable:
		result.Rows = present.BuildRows(table)
	case types.ModeCitekeys:
		result.Citekeys = present.Citekeys(table)
	case types.ModeFile:
		files, err := writeDocument(table, req, deps.Renderer, bibPath)
		if err != nil {
			return nil, err
		}
		result.Files = files
	}

	return result, nil
}

// writeDocument assembles the template and hands it to the renderer. The
// bibliography at bibPath is already on disk and stays valid even when
// rendering fails.
func writeDocument(table types.PackageTable, req Request, renderer render.Renderer, bibPath string) ([]string, error) {
	templatePath := filepath.Join(req.OutDir, req.TemplateFile)
	err := present.WriteTemplate(table, present.TemplateOptions{
		Bibliography: req.BibFile,
		Style:        req.Style,
	}, templatePath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerialize, err, "assembling template %s", templatePath)
	}

	if req.Format == types.FormatSource {
		return []string{bibPath, templatePath}, nil
	}

	if renderer == nil {
		return nil, errors.New(errors.ErrCodeRender, "no document renderer available for %s output", req.Format)
	}
	outPath, err := renderer.Render(templatePath, req.Format, req.BaseName, req.Style)
	if err != nil {
		return nil, err
	}
	return []string{bibPath, templatePath, outPath}, nil
}

// validate checks the request's enum arguments. Raised before any work so
// a bad flag never produces partial output.
func validate(req Request) error {
	switch req.Output {
	case types.ModeFile, types.ModeParagraph, types.ModeTable, types.ModeCitekeys:
	default:
		return errors.New(errors.ErrCodeInvalidOutput, "unknown output mode %q: use file, paragraph, table, or citekeys", req.Output)
	}

	switch req.Selection {
	case types.SelectAll, types.SelectSession, types.SelectExplicit:
	default:
		return errors.New(errors.ErrCodeInvalidSelection, "unknown selection mode %q: use all, session, or explicit", req.Selection)
	}

	if req.Output == types.ModeFile {
		switch req.Format {
		case types.FormatHTML, types.FormatDocx, types.FormatPDF, types.FormatMarkdown, types.FormatSource:
		default:
			return errors.New(errors.ErrCodeInvalidFormat, "unknown output format %q: use html, docx, pdf, markdown, or source", req.Format)
		}
	}
	return nil
}

func applyDefaults(req *Request) {
	if req.OutDir == "" {
		req.OutDir = "."
	}
	if req.BibFile == "" {
		req.BibFile = DefaultBibFile
	}
	if req.TemplateFile == "" {
		req.TemplateFile = DefaultTemplateFile
	}
	if req.BaseName == "" {
		req.BaseName = DefaultBaseName
	}
}
