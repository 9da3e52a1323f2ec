// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"fmt"
	"os"
	"strings"
)

// FileSession lists "currently loaded" packages from a plain-text file, one
// package name per line, blank lines and #-comments ignored. The file is
// written by the hosting environment; reading it is the whole extent of the
// session integration.
type FileSession struct {
	// Path is the session file location.
	Path string
}

// LoadedPackages returns the package names in file order.
func (s *FileSession) LoadedPackages() ([]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading session file %s: %w", s.Path, err)
	}

	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names, nil
}
