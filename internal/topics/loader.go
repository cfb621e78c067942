package topics

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadDir builds a tree from the YAML branch files under rootDir. Each file
// holds one main branch. Files that do not parse as a branch are skipped
// with a warning so one bad file cannot take the whole tree down.
func LoadDir(rootDir string) (*Tree, error) {
	var branches []Branch

	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var branch Branch
		if err := yaml.Unmarshal(data, &branch); err != nil {
			slog.Warn("skipping invalid branch YAML", "path", path, "error", err)
			return nil
		}
		if branch.Title == "" {
			return nil // not a branch file
		}

		branches = append(branches, branch)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading topics: %w", err)
	}

	if len(branches) == 0 {
		return nil, fmt.Errorf("no branch files under %s", rootDir)
	}

	slog.Info("topic tree loaded", "branches", len(branches))
	return NewTree(branches), nil
}
