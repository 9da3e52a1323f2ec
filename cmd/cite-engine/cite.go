// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cite-engine/internal/render"
	"github.com/pdiddy/cite-engine/internal/resolve"
	"github.com/pdiddy/cite-engine/internal/scan"
	"github.com/pdiddy/cite-engine/internal/store"
	"github.com/pdiddy/cite-engine/pkg/cite"
	"github.com/pdiddy/cite-engine/pkg/types"
)

var citeCmd = &cobra.Command{
	Use:   "cite [packages...]",
	Short: "Resolve and emit citations for the packages a project uses",
	Long: `Cite runs the full pipeline: package selection (project scan, session
list, or explicit names), optional dependency expansion and tidyverse
folding, citation metadata resolution with per-package fallback, record
deduplication and key assignment, bibliography serialization, and the
requested output shape.

Output modes: file (bibliography + rendered document), paragraph (inline
citation prose), table (one row per package), citekeys (the flat key list).`,
	RunE: runCite,
}

func runCite(cmd *cobra.Command, args []string) error {
	outputFlag, _ := cmd.Flags().GetString("output")
	output, err := types.ParseOutputMode(outputFlag)
	if err != nil {
		return err
	}

	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := types.ParseRenderFormat(formatFlag)
	if err != nil && output == types.ModeFile {
		return err
	}

	req := cite.Request{
		Output:    output,
		Format:    format,
		Selection: types.SelectExplicit,
		Packages:  args,
	}

	if all, _ := cmd.Flags().GetBool("all"); all {
		req.Selection = types.SelectAll
	}
	if session, _ := cmd.Flags().GetString("session-file"); session != "" && req.Selection == types.SelectExplicit && len(args) == 0 {
		req.Selection = types.SelectSession
	}

	req.Tidyverse, _ = cmd.Flags().GetBool("tidyverse")
	req.IncludeDependencies, _ = cmd.Flags().GetBool("dependencies")
	req.IncludeIDE, _ = cmd.Flags().GetBool("include-ide")
	req.OmitBase, _ = cmd.Flags().GetBool("omit-base")
	req.Style, _ = cmd.Flags().GetString("csl")
	req.OutDir, _ = cmd.Flags().GetString("out-dir")
	req.BibFile, _ = cmd.Flags().GetString("bib-file")
	req.TemplateFile, _ = cmd.Flags().GetString("template-file")
	req.BaseName, _ = cmd.Flags().GetString("name")
	req.GraphOptions = parseGraphOptions(cmd)

	deps, cleanup, err := buildDeps(cmd, req)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Debug("running pipeline", "output", req.Output, "selection", req.Selection)
	result, err := cite.Run(context.Background(), req, deps)
	if err != nil {
		return err
	}

	for _, pkg := range result.Fallbacks {
		logger.Warn("degraded to minimal citation", "package", pkg)
	}

	return printResult(cmd, result)
}

// buildDeps assembles the pipeline collaborators from flags, config, and
// secrets. The returned cleanup closes the cache store if one was opened.
func buildDeps(cmd *cobra.Command, req cite.Request) (cite.Deps, func(), error) {
	cleanup := func() {}

	projectRoot, _ := cmd.Flags().GetString("project")
	if projectRoot == "" {
		projectRoot = "."
	}

	libPath, _ := cmd.Flags().GetString("library")
	if libPath == "" {
		libPath = viper.GetString("library.path")
	}

	library := resolve.NewLibrary(libPath)
	registry := resolve.NewRegistry(types.RegistryConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("registry.timeout"),
			UserAgent: "cite-engine/" + version,
		},
		BaseURL:  viper.GetString("registry.base_url"),
		APIToken: secretDefault("registry-api-token", viper.GetString("registry.api_token")),
	})

	var provider resolve.MetadataProvider = &resolve.Chain{
		Providers: []resolve.MetadataProvider{library, registry},
	}

	if noCache, _ := cmd.Flags().GetBool("no-cache"); !noCache {
		s, err := store.Open(types.CacheConfig{Dir: viper.GetString("cache.dir")})
		if err != nil {
			logger.Warn("citation cache unavailable", "err", err)
		} else {
			provider = &store.CachingProvider{Inner: provider, Store: s}
			cleanup = func() { s.Close() }
		}
	}

	deps := cite.Deps{
		Scanner:  scan.New(projectRoot),
		Graph:    library,
		Provider: provider,
		Warnings: os.Stderr,
	}

	if sessionFile, _ := cmd.Flags().GetString("session-file"); sessionFile != "" {
		deps.Session = &resolve.FileSession{Path: sessionFile}
	}

	if req.Output == types.ModeFile && req.Format != types.FormatSource {
		renderer, err := render.NewPandoc()
		if err != nil {
			cleanup()
			return cite.Deps{}, nil, err
		}
		deps.Renderer = renderer
	}

	return deps, cleanup, nil
}

// parseGraphOptions collects --graph-opt key=value flags.
func parseGraphOptions(cmd *cobra.Command) map[string]string {
	pairs, _ := cmd.Flags().GetStringSlice("graph-opt")
	if len(pairs) == 0 {
		return nil
	}
	opts := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		if idx := strings.Index(pair, "="); idx > 0 {
			opts[pair[:idx]] = pair[idx+1:]
		}
	}
	return opts
}

// printResult writes the mode-specific output to stdout.
func printResult(cmd *cobra.Command, result *cite.Result) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	switch result.Mode {
	case types.ModeParagraph:
		fmt.Println(result.Paragraph)
	case types.ModeCitekeys:
		for _, key := range result.Citekeys {
			fmt.Println(key)
		}
	case types.ModeTable:
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result.Rows)
		}
		printRows(result.Rows)
	case types.ModeFile:
		for _, f := range result.Files {
			fmt.Println("wrote", f)
		}
	}
	return nil
}

// printRows renders table mode as a human-readable table.
func printRows(rows []types.Row) {
	fmt.Fprintf(os.Stdout, "%-20s  %-16s  %-24s  %s\n", "Package", "Version", "Citekeys", "Citation")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, r := range rows {
		citation := r.Citations
		if len(citation) > 60 {
			citation = citation[:57] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-20s  %-16s  %-24s  %s\n", r.Package, r.Version, r.Citekeys, citation)
	}

	fmt.Fprintf(os.Stdout, "\n%d packages\n", len(rows))
}

func init() {
	citeCmd.Flags().String("output", "table", "output mode: file, paragraph, table, or citekeys")
	citeCmd.Flags().String("format", "html", "rendered document format for file mode: html, docx, pdf, markdown, or source")
	citeCmd.Flags().Bool("all", false, "scan the project tree for used packages")
	citeCmd.Flags().String("session-file", "", "file listing currently loaded packages (session selection)")
	citeCmd.Flags().String("project", ".", "project root to scan with --all")
	citeCmd.Flags().String("library", "", "installed package library directory")
	citeCmd.Flags().Bool("dependencies", false, "include transitive dependencies")
	citeCmd.Flags().Bool("tidyverse", false, "cite tidyverse packages as one umbrella entry")
	citeCmd.Flags().Bool("include-ide", false, "include an IDE citation entry")
	citeCmd.Flags().Bool("omit-base", false, "omit the base runtime entry")
	citeCmd.Flags().String("csl", "", "CSL style sheet passed to the renderer")
	citeCmd.Flags().String("out-dir", ".", "directory for produced files")
	citeCmd.Flags().String("bib-file", cite.DefaultBibFile, "bibliography filename")
	citeCmd.Flags().String("template-file", cite.DefaultTemplateFile, "template document filename")
	citeCmd.Flags().String("name", cite.DefaultBaseName, "base name for rendered output files")
	citeCmd.Flags().StringSlice("graph-opt", nil, "pass-through option for the dependency-graph provider (key=value)")
	citeCmd.Flags().Bool("no-cache", false, "bypass the citation cache")
	citeCmd.Flags().Bool("json", false, "output table mode as JSON")

	rootCmd.AddCommand(citeCmd)
}
