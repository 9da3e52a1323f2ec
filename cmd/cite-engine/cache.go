// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cite-engine/internal/store"
	"github.com/pdiddy/cite-engine/pkg/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local citation cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache location and entry count",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openCache()
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := s.Status(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("Cache database: %s\n", stats.Path)
		fmt.Printf("Cached package versions: %d\n", stats.Packages)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached citation metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openCache()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Clear(context.Background()); err != nil {
			return err
		}
		fmt.Println("Cache cleared.")
		return nil
	},
}

func openCache() (*store.Store, error) {
	return store.Open(types.CacheConfig{Dir: viper.GetString("cache.dir")})
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
