// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render invokes the external document renderer (pandoc) on an
// assembled template document. The executor is abstracted so tests can run
// without the pandoc binary installed.
package render

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/pdiddy/cite-engine/pkg/errors"
	"github.com/pdiddy/cite-engine/pkg/types"
)

const binPandoc = "pandoc"

// Renderer produces a document file from a template in the requested
// format. Implementations report failures naming the format, never as a
// generic error.
type Renderer interface {
	// Render converts the template at templatePath into the given format,
	// writing the result next to the template with the given base name.
	// Returns the output file path.
	Render(templatePath string, format types.RenderFormat, baseName, style string) (string, error)
}

// extensions maps render formats to output file extensions.
var extensions = map[types.RenderFormat]string{
	types.FormatHTML:     ".html",
	types.FormatDocx:     ".docx",
	types.FormatPDF:      ".pdf",
	types.FormatMarkdown: ".md",
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, out)
	}
	return nil
}

// Pandoc renders templates by invoking the pandoc binary with citeproc
// enabled.
type Pandoc struct {
	exec executor
}

// NewPandoc creates a pandoc-backed renderer. It verifies that the binary
// is on PATH so a missing toolchain surfaces before the template is built.
func NewPandoc() (*Pandoc, error) {
	return newPandoc(&osExecutor{})
}

func newPandoc(exec executor) (*Pandoc, error) {
	if _, err := exec.LookPath(binPandoc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "pandoc not found on PATH")
	}
	return &Pandoc{exec: exec}, nil
}

// Render runs pandoc over the template. FormatSource returns the template
// path unchanged, no invocation. A failed invocation is a render error
// naming the requested format; the bibliography written earlier stays
// valid regardless.
func (p *Pandoc) Render(templatePath string, format types.RenderFormat, baseName, style string) (string, error) {
	if format == types.FormatSource {
		return templatePath, nil
	}

	ext, ok := extensions[format]
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidFormat, "unknown output format %q", format)
	}

	outPath := filepath.Join(filepath.Dir(templatePath), baseName+ext)
	args := []string{templatePath, "--citeproc", "-o", outPath}
	if style != "" {
		args = append(args, "--csl", style)
	}

	if err := p.exec.Run(binPandoc, args...); err != nil {
		return "", errors.Wrap(errors.ErrCodeRender, err, "rendering %s output with pandoc", format)
	}
	return outPath, nil
}
