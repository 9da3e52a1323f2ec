// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cite

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/cite-engine/internal/render"
	"github.com/pdiddy/cite-engine/pkg/errors"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// fakeProvider serves canned metadata keyed by package name.
type fakeProvider struct {
	entries  map[string][]types.RawCitationEntry
	versions map[string]string
	errs     map[string]error
}

func (f *fakeProvider) Citations(ctx context.Context, name string) ([]types.RawCitationEntry, error) {
	if err, ok := f.errs[name]; ok {
		return nil, err
	}
	return f.entries[name], nil
}

func (f *fakeProvider) InstalledVersion(name string) (string, bool) {
	v, ok := f.versions[name]
	return v, ok
}

// fakeScanner returns a canned detected-package list.
type fakeScanner struct {
	names []string
}

func (f *fakeScanner) Scan() ([]string, error) { return f.names, nil }

// fakeGraph serves dependencies from a map.
type fakeGraph struct {
	deps map[string][]string
}

func (f *fakeGraph) DependenciesOf(pkg string) ([]string, error) {
	deps, ok := f.deps[pkg]
	if !ok {
		return nil, errors.New(errors.ErrCodePackageNotFound, "no metadata for %s", pkg)
	}
	return deps, nil
}

// fakeRenderer records the render call and touches the output file.
type fakeRenderer struct {
	called   bool
	format   types.RenderFormat
	template string
}

func (f *fakeRenderer) Render(templatePath string, format types.RenderFormat, baseName, style string) (string, error) {
	f.called = true
	f.format = format
	f.template = templatePath
	out := filepath.Join(filepath.Dir(templatePath), baseName+".html")
	if err := os.WriteFile(out, []byte("<html/>"), 0o644); err != nil {
		return "", err
	}
	return out, nil
}

// standardProvider covers the worked examples used throughout the tests.
func standardProvider() *fakeProvider {
	return &fakeProvider{
		entries: map[string][]types.RawCitationEntry{
			"lme4": {
				{Type: types.RecordManual, Title: "lme4: Linear Mixed-Effects Models", Authors: []string{"Douglas Bates"}, Year: "2015"},
			},
			"mgcv": {
				{Type: types.RecordManual, Title: "mgcv: Mixed GAM Computation Vehicle", Authors: []string{"Simon Wood"}, Year: "2017"},
			},
		},
		versions: map[string]string{
			"R":    "4.3.1",
			"lme4": "1.1-35",
			"mgcv": "1.9-1",
		},
	}
}

func baseRequest(outDir string) Request {
	return Request{
		Output:    types.ModeTable,
		Selection: types.SelectExplicit,
		Packages:  []string{"lme4", "mgcv"},
		OutDir:    outDir,
	}
}

func TestRunTableMode(t *testing.T) {
	dir := t.TempDir()
	result, err := Run(context.Background(), baseRequest(dir), Deps{Provider: standardProvider()})
	if err != nil {
		t.Fatal(err)
	}

	// One row per package, base runtime first.
	if len(result.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(result.Rows))
	}
	if result.Rows[0].Package != "R" {
		t.Errorf("first row = %s, want R", result.Rows[0].Package)
	}
	if result.Rows[1].Package != "lme4" || result.Rows[2].Package != "mgcv" {
		t.Errorf("row order: %s, %s", result.Rows[1].Package, result.Rows[2].Package)
	}
	if result.Rows[1].Version != "1.1-35" {
		t.Errorf("lme4 version = %q", result.Rows[1].Version)
	}

	// The bibliography is written in every mode.
	bibPath := filepath.Join(dir, DefaultBibFile)
	data, err := os.ReadFile(bibPath)
	if err != nil {
		t.Fatalf("bibliography not written: %v", err)
	}
	for _, key := range result.Table.Citekeys {
		if !strings.Contains(string(data), "{"+key+",") {
			t.Errorf("bibliography missing entry for key %q", key)
		}
	}
}

func TestRunParagraphMode(t *testing.T) {
	dir := t.TempDir()
	req := baseRequest(dir)
	req.Output = types.ModeParagraph

	result, err := Run(context.Background(), req, Deps{Provider: standardProvider()})
	if err != nil {
		t.Fatal(err)
	}

	p := result.Paragraph
	if !strings.HasPrefix(p, "Analyses were conducted in R v.4.3.1") {
		t.Errorf("paragraph = %q", p)
	}
	// Each package appears exactly once.
	for _, pkg := range []string{"lme4", "mgcv"} {
		if n := strings.Count(p, pkg+" v."); n != 1 {
			t.Errorf("%s mentioned %d times, want 1", pkg, n)
		}
	}
}

func TestRunCitekeysMatchBibliography(t *testing.T) {
	dir := t.TempDir()
	req := baseRequest(dir)
	req.Output = types.ModeCitekeys

	result, err := Run(context.Background(), req, Deps{Provider: standardProvider()})
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, DefaultBibFile))
	if err != nil {
		t.Fatal(err)
	}

	// Every returned key has exactly one bibliography entry, and the entry
	// count matches the key count.
	for _, key := range result.Citekeys {
		if n := strings.Count(string(data), "{"+key+",\n"); n != 1 {
			t.Errorf("key %q has %d entries in the bibliography", key, n)
		}
	}
	if n := strings.Count(string(data), "@"); n != len(result.Citekeys) {
		t.Errorf("bibliography holds %d entries, want %d", n, len(result.Citekeys))
	}
}

func TestRunFileModeSource(t *testing.T) {
	dir := t.TempDir()
	req := baseRequest(dir)
	req.Output = types.ModeFile
	req.Format = types.FormatSource

	result, err := Run(context.Background(), req, Deps{Provider: standardProvider()})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(dir, DefaultBibFile),
		filepath.Join(dir, DefaultTemplateFile),
	}
	if !reflect.DeepEqual(result.Files, want) {
		t.Errorf("files = %v, want %v", result.Files, want)
	}
	for _, f := range result.Files {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("reported file %s missing: %v", f, err)
		}
	}
}

func TestRunFileModeRenders(t *testing.T) {
	dir := t.TempDir()
	req := baseRequest(dir)
	req.Output = types.ModeFile
	req.Format = types.FormatHTML

	renderer := &fakeRenderer{}
	result, err := Run(context.Background(), req, Deps{Provider: standardProvider(), Renderer: renderer})
	if err != nil {
		t.Fatal(err)
	}

	if !renderer.called || renderer.format != types.FormatHTML {
		t.Errorf("renderer called=%v format=%q", renderer.called, renderer.format)
	}
	if len(result.Files) != 3 {
		t.Fatalf("files = %v, want bib, template, and output", result.Files)
	}
	if filepath.Base(result.Files[2]) != DefaultBaseName+".html" {
		t.Errorf("rendered output = %s", result.Files[2])
	}
}

func TestRunFileModeWithoutRenderer(t *testing.T) {
	dir := t.TempDir()
	req := baseRequest(dir)
	req.Output = types.ModeFile
	req.Format = types.FormatHTML

	_, err := Run(context.Background(), req, Deps{Provider: standardProvider()})
	if !errors.Is(err, errors.ErrCodeRender) {
		t.Errorf("error = %v, want RENDER_ERROR", err)
	}

	// The bibliography survives the render failure.
	if _, err := os.Stat(filepath.Join(dir, DefaultBibFile)); err != nil {
		t.Errorf("bibliography missing after render failure: %v", err)
	}
}

func TestRunDeterministic(t *testing.T) {
	run := func(dir string) (*Result, string) {
		t.Helper()
		result, err := Run(context.Background(), baseRequest(dir), Deps{Provider: standardProvider()})
		if err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(filepath.Join(dir, DefaultBibFile))
		if err != nil {
			t.Fatal(err)
		}
		return result, string(data)
	}

	first, firstBib := run(t.TempDir())
	second, secondBib := run(t.TempDir())

	if !reflect.DeepEqual(first.Rows, second.Rows) {
		t.Error("rows differ across identical runs")
	}
	if !reflect.DeepEqual(first.Table.Citekeys, second.Table.Citekeys) {
		t.Error("citekeys differ across identical runs")
	}
	if firstBib != secondBib {
		t.Error("bibliographies differ across identical runs")
	}
}

func TestRunNoSilentOmission(t *testing.T) {
	dir := t.TempDir()
	provider := standardProvider()
	provider.errs = map[string]error{
		"obscurepkg": errors.New(errors.ErrCodeNetwork, "registry down"),
	}

	req := baseRequest(dir)
	req.Packages = []string{"lme4", "obscurepkg"}

	var warnings bytes.Buffer
	result, err := Run(context.Background(), req, Deps{Provider: provider, Warnings: &warnings})
	if err != nil {
		t.Fatal(err)
	}

	// The unresolvable package still has a row and a bibliography entry.
	var found bool
	for _, row := range result.Rows {
		if row.Package == "obscurepkg" {
			found = true
			if row.Citekeys == "" {
				t.Error("obscurepkg has no citekey")
			}
		}
	}
	if !found {
		t.Error("obscurepkg silently dropped from the table")
	}
	if !reflect.DeepEqual(result.Fallbacks, []string{"obscurepkg"}) {
		t.Errorf("fallbacks = %v, want [obscurepkg]", result.Fallbacks)
	}
	if !strings.Contains(warnings.String(), "obscurepkg") {
		t.Error("no warning emitted for the degraded package")
	}
}

func TestRunTidyverseFolding(t *testing.T) {
	dir := t.TempDir()
	req := baseRequest(dir)
	req.Packages = []string{"dplyr", "lme4", "ggplot2"}
	req.Tidyverse = true

	result, err := Run(context.Background(), req, Deps{Provider: standardProvider()})
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, row := range result.Rows {
		names = append(names, row.Package)
	}
	// Umbrella at the first member's position; members gone.
	want := []string{"R", "tidyverse", "lme4"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("rows = %v, want %v", names, want)
	}

	data, err := os.ReadFile(filepath.Join(dir, DefaultBibFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Welcome to the tidyverse") {
		t.Error("umbrella entry missing from the bibliography")
	}
	for _, member := range []string{"{dplyr,", "{ggplot2,"} {
		if strings.Contains(string(data), member) {
			t.Errorf("folded member %s still in the bibliography", member)
		}
	}
}

func TestRunDependencyMonotonicity(t *testing.T) {
	graph := &fakeGraph{deps: map[string][]string{
		"lme4": {"Matrix", "minqa"},
	}}

	packagesOf := func(withDeps bool) []string {
		t.Helper()
		req := baseRequest(t.TempDir())
		req.Packages = []string{"lme4"}
		req.IncludeDependencies = withDeps
		result, err := Run(context.Background(), req, Deps{Provider: standardProvider(), Graph: graph})
		if err != nil {
			t.Fatal(err)
		}
		var names []string
		for _, row := range result.Rows {
			names = append(names, row.Package)
		}
		return names
	}

	without := packagesOf(false)
	with := packagesOf(true)

	present := make(map[string]bool)
	for _, n := range with {
		present[n] = true
	}
	for _, n := range without {
		if !present[n] {
			t.Errorf("dependency expansion dropped %s", n)
		}
	}
	if len(with) <= len(without) {
		t.Errorf("closure %v not larger than base %v", with, without)
	}
}

func TestRunOmitBaseAndIDE(t *testing.T) {
	dir := t.TempDir()
	req := baseRequest(dir)
	req.OmitBase = true
	req.IncludeIDE = true

	result, err := Run(context.Background(), req, Deps{Provider: standardProvider()})
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, row := range result.Rows {
		names = append(names, row.Package)
	}
	want := []string{"lme4", "mgcv", "RStudio"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("rows = %v, want %v", names, want)
	}
}

func TestRunScanSelection(t *testing.T) {
	dir := t.TempDir()
	req := baseRequest(dir)
	req.Selection = types.SelectAll
	req.Packages = nil

	scanner := &fakeScanner{names: []string{"mgcv", "lme4"}}
	result, err := Run(context.Background(), req, Deps{Provider: standardProvider(), Scanner: scanner})
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, row := range result.Rows {
		names = append(names, row.Package)
	}
	want := []string{"R", "mgcv", "lme4"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("rows = %v, want %v", names, want)
	}
}

func TestRunValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Request)
		wantCode errors.Code
	}{
		{
			name:     "unknown output mode",
			mutate:   func(r *Request) { r.Output = "spreadsheet" },
			wantCode: errors.ErrCodeInvalidOutput,
		},
		{
			name:     "unknown selection",
			mutate:   func(r *Request) { r.Selection = "everything" },
			wantCode: errors.ErrCodeInvalidSelection,
		},
		{
			name: "unknown format in file mode",
			mutate: func(r *Request) {
				r.Output = types.ModeFile
				r.Format = "latex"
			},
			wantCode: errors.ErrCodeInvalidFormat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			req := baseRequest(dir)
			tt.mutate(&req)

			_, err := Run(context.Background(), req, Deps{Provider: standardProvider()})
			if !errors.Is(err, tt.wantCode) {
				t.Fatalf("error = %v, want %s", err, tt.wantCode)
			}
			if !errors.IsConfiguration(err) {
				t.Error("validation error not classified as configuration")
			}

			// Nothing was written.
			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 0 {
				t.Errorf("output directory not empty after configuration error: %v", entries)
			}
		})
	}
}

var _ render.Renderer = (*fakeRenderer)(nil)
