package sb3

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gifsprite/internal/logging"
)

// CleanupResult lists temporary archives removed by CleanOrphanedTemps.
type CleanupResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its removal error.
type CleanupError struct {
	Path  string
	Error error
}

func tempPattern(archivePath string) string {
	return "." + filepath.Base(archivePath) + ".*.tmp"
}

// CleanOrphanedTemps removes rewrite temp files left next to archivePath by
// an interrupted writer. Callers must hold the archive's Lock, otherwise a
// live writer's temp file could be removed.
func CleanOrphanedTemps(archivePath string, logger *slog.Logger) CleanupResult {
	result := CleanupResult{}
	if strings.TrimSpace(archivePath) == "" {
		return result
	}

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(archivePath), tempPattern(archivePath)))
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: archivePath, Error: err})
		return result
	}

	for _, path := range matches {
		info, err := os.Lstat(path)
		if err != nil {
			if !os.IsNotExist(err) {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if err := os.Remove(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			if logger != nil {
				logger.Warn("failed to remove orphaned temp archive",
					logging.String("path", path),
					logging.Error(err),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, path)
		if logger != nil {
			logger.Info("removed orphaned temp archive",
				logging.String("path", path),
				logging.Int("bytes", int(info.Size())),
			)
		}
	}
	return result
}
