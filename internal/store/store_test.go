// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/pdiddy/cite-engine/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.CacheConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorePutGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entries := []types.RawCitationEntry{
		{Type: types.RecordManual, Title: "lme4: Mixed Models", Authors: []string{"Douglas Bates"}, Year: "2015"},
		{Type: types.RecordArticle, Title: "Fitting Mixed Models", Authors: []string{"Douglas Bates"}, Year: "2015"},
	}

	if _, hit := s.Get(ctx, "lme4", "1.1-35"); hit {
		t.Fatal("hit before any Put")
	}

	if err := s.Put(ctx, "lme4", "1.1-35", entries); err != nil {
		t.Fatal(err)
	}

	got, hit := s.Get(ctx, "lme4", "1.1-35")
	if !hit {
		t.Fatal("miss after Put")
	}
	if !reflect.DeepEqual(got, entries) {
		t.Errorf("got %+v, want %+v", got, entries)
	}

	// A different version is a different cache key.
	if _, hit := s.Get(ctx, "lme4", "1.1-36"); hit {
		t.Error("hit for a version never cached")
	}
}

func TestStorePutReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := []types.RawCitationEntry{{Title: "old"}}
	second := []types.RawCitationEntry{{Title: "new"}}

	if err := s.Put(ctx, "mgcv", "1.9-1", first); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "mgcv", "1.9-1", second); err != nil {
		t.Fatal(err)
	}

	got, hit := s.Get(ctx, "mgcv", "1.9-1")
	if !hit || got[0].Title != "new" {
		t.Errorf("got %+v, want the replacement row", got)
	}
}

func TestStoreStatusAndClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, pkg := range []string{"lme4", "mgcv", "zoo"} {
		if err := s.Put(ctx, pkg, "1.0", []types.RawCitationEntry{{Title: pkg}}); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := s.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Packages != 3 {
		t.Errorf("Packages = %d, want 3", stats.Packages)
	}
	if stats.Path == "" {
		t.Error("Path is empty")
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	stats, err = s.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Packages != 0 {
		t.Errorf("Packages after Clear = %d, want 0", stats.Packages)
	}
}

func TestStoreReopenKeepsRows(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(types.CacheConfig{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "lme4", "1.1-35", []types.RawCitationEntry{{Title: "x"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(types.CacheConfig{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	if _, hit := s2.Get(ctx, "lme4", "1.1-35"); !hit {
		t.Error("cached row lost across reopen")
	}
}
