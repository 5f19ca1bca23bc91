package utils

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExecutableDir returns the directory holding the running binary, falling
// back to the working directory when it cannot be resolved.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		wd, _ := os.Getwd()
		return wd
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// DefaultArchiveDir derives <source>_archive_<YYYYMMDD> next to source.
func DefaultArchiveDir(sourceDir string, now time.Time) string {
	clean := strings.TrimRight(filepath.Clean(sourceDir), string(filepath.Separator))
	return clean + "_archive_" + now.Format("20060102")
}

// IsWithin reports whether path is root or lies below it.
func IsWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
