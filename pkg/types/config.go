// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// OutputMode selects the shape of the pipeline's output.
type OutputMode string

const (
	// ModeFile writes the bibliography plus a template document and renders
	// it to the requested format.
	ModeFile OutputMode = "file"

	// ModeParagraph returns an inline-markup paragraph string.
	ModeParagraph OutputMode = "paragraph"

	// ModeTable returns one row per package.
	ModeTable OutputMode = "table"

	// ModeCitekeys returns the flat unique citekey sequence.
	ModeCitekeys OutputMode = "citekeys"
)

// ParseOutputMode validates an output mode argument. An unrecognized value is
// a configuration error and must be surfaced before any pipeline work begins.
func ParseOutputMode(s string) (OutputMode, error) {
	switch OutputMode(s) {
	case ModeFile, ModeParagraph, ModeTable, ModeCitekeys:
		return OutputMode(s), nil
	}
	return "", fmt.Errorf("unknown output mode %q: use file, paragraph, table, or citekeys", s)
}

// Selection names the package selection strategy.
type Selection string

const (
	// SelectAll scans the project tree for used packages.
	SelectAll Selection = "all"

	// SelectSession uses the currently loaded package list.
	SelectSession Selection = "session"

	// SelectExplicit uses a caller-supplied package list.
	SelectExplicit Selection = "explicit"
)

// ParseSelection validates a selection mode argument.
func ParseSelection(s string) (Selection, error) {
	switch Selection(s) {
	case SelectAll, SelectSession, SelectExplicit:
		return Selection(s), nil
	}
	return "", fmt.Errorf("unknown selection mode %q: use all, session, or explicit", s)
}

// RenderFormat selects the rendered document format in file mode.
type RenderFormat string

const (
	FormatHTML     RenderFormat = "html"
	FormatDocx     RenderFormat = "docx"
	FormatPDF      RenderFormat = "pdf"
	FormatMarkdown RenderFormat = "markdown"

	// FormatSource skips rendering and keeps the editable template.
	FormatSource RenderFormat = "source"
)

// ParseRenderFormat validates a render format argument.
func ParseRenderFormat(s string) (RenderFormat, error) {
	switch RenderFormat(s) {
	case FormatHTML, FormatDocx, FormatPDF, FormatMarkdown, FormatSource:
		return RenderFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format %q: use html, docx, pdf, markdown, or source", s)
}

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "cite-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ScanConfig holds settings for the project source scanner.
type ScanConfig struct {
	// ProjectRoot is the directory tree scanned for package usage.
	ProjectRoot string `json:"project_root" yaml:"project_root"`
}

// LibraryConfig holds settings for the installed-library metadata provider.
type LibraryConfig struct {
	// Path is the installed package library directory (one subdirectory
	// per package, each holding a DESCRIPTION file).
	Path string `json:"path" yaml:"path"`
}

// RegistryConfig holds settings for the HTTP registry metadata provider.
type RegistryConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the registry metadata endpoint.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIToken is an optional bearer token for authenticated mirrors.
	APIToken string `json:"api_token,omitempty" yaml:"api_token,omitempty"`

	// RequestsPerSecond bounds the request rate (default 5).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// CacheConfig holds settings for the citation cache.
type CacheConfig struct {
	// Dir is the directory holding the cache database (default ".cite-engine").
	Dir string `json:"dir" yaml:"dir"`

	// Disabled turns the cache off entirely.
	Disabled bool `json:"disabled" yaml:"disabled"`
}

// OutputConfig holds settings for produced files.
type OutputConfig struct {
	// Dir is the directory for the bibliography and template files.
	Dir string `json:"dir" yaml:"dir"`

	// BibFile is the bibliography filename (default "pkg-refs.bib").
	BibFile string `json:"bib_file" yaml:"bib_file"`

	// TemplateFile is the template document filename (default "citations.md").
	TemplateFile string `json:"template_file" yaml:"template_file"`

	// BaseName is the stem for rendered output files (default "citations").
	BaseName string `json:"base_name" yaml:"base_name"`

	// Style is an optional CSL style sheet path passed to the renderer.
	Style string `json:"style,omitempty" yaml:"style,omitempty"`
}

// CiteConfig groups all stage configurations for the pipeline.
type CiteConfig struct {
	Scan     ScanConfig     `json:"scan" yaml:"scan"`
	Library  LibraryConfig  `json:"library" yaml:"library"`
	Registry RegistryConfig `json:"registry" yaml:"registry"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Output   OutputConfig   `json:"output" yaml:"output"`
}
