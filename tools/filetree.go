// Package tools holds small utilities the agent exposes to workflows.
package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const defaultMaxDepth = 5

// Directories and file patterns excluded from project trees. Entries
// starting with '*' match by suffix.
var defaultIgnorePatterns = []string{
	".git",
	"__pycache__",
	".pytest_cache",
	".mypy_cache",
	".venv",
	"venv",
	"env",
	".env",
	"node_modules",
	".DS_Store",
	"*.pyc",
	"*.pyo",
	".coverage",
	"htmlcov",
	".tox",
	"dist",
	"build",
	"*.egg-info",
	"vendor",
	"*.test",
}

// TreeOption configures ProjectTree.
type TreeOption func(*treeConfig)

type treeConfig struct {
	maxDepth int
	ignore   []string
}

// WithMaxDepth bounds how deep the tree descends. Zero or negative keeps
// the default.
func WithMaxDepth(depth int) TreeOption {
	return func(c *treeConfig) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithIgnorePatterns replaces the default ignore list.
func WithIgnorePatterns(patterns []string) TreeOption {
	return func(c *treeConfig) { c.ignore = patterns }
}

// ProjectTree renders the directory tree under root as an indented
// box-drawing listing, one entry per line, directories before files at each
// level. An empty root means the current working directory.
func ProjectTree(root string, opts ...TreeOption) (string, error) {
	cfg := &treeConfig{
		maxDepth: defaultMaxDepth,
		ignore:   defaultIgnorePatterns,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to resolve working directory: %w", err)
		}
		root = cwd
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root %q: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return "", fmt.Errorf("failed to read root %q: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root %q is not a directory", root)
	}

	lines := []string{filepath.Base(absRoot) + "/"}
	lines = append(lines, subtree(absRoot, "", 1, cfg)...)
	return strings.Join(lines, "\n"), nil
}

func subtree(dir, prefix string, depth int, cfg *treeConfig) []string {
	if depth > cfg.maxDepth {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable directories are shown but not descended into.
		return nil
	}

	kept := entries[:0]
	for _, entry := range entries {
		if !ignored(entry.Name(), cfg.ignore) {
			kept = append(kept, entry)
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].IsDir() != kept[j].IsDir() {
			return kept[i].IsDir()
		}
		return strings.ToLower(kept[i].Name()) < strings.ToLower(kept[j].Name())
	})

	var lines []string
	for i, entry := range kept {
		last := i == len(kept)-1
		connector := "├── "
		childPrefix := prefix + "│   "
		if last {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		lines = append(lines, prefix+connector+entry.Name())
		if entry.IsDir() {
			lines = append(lines, subtree(filepath.Join(dir, entry.Name()), childPrefix, depth+1, cfg)...)
		}
	}
	return lines
}

func ignored(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, "*") {
			if strings.HasSuffix(name, pattern[1:]) {
				return true
			}
		} else if name == pattern {
			return true
		}
	}
	return false
}
