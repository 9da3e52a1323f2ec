// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cite-engine/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "List the packages a project's source files use",
	Long: `Scan walks a project tree, inspects source files for package attachment
and namespace-qualified calls, and prints the detected package names in
first-encounter order. Nothing is resolved or written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}

		packages, err := scan.New(root).Scan()
		if err != nil {
			return err
		}

		for _, pkg := range packages {
			fmt.Println(pkg)
		}
		logger.Debug("scan complete", "root", root, "packages", len(packages))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
