package indexer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CacheVersion is the version of the cached documentation model. Bump it
// whenever an entry type changes shape; older caches are then dropped and
// rebuilt.
const CacheVersion = 1

const versionFileName = "cache_version"

// CheckAndMigrateCache empties cacheDir when it was written by another
// cache version, or carries no version at all. It reports whether the
// cache was cleared.
func CheckAndMigrateCache(cacheDir string) (bool, error) {
	versionFile := filepath.Join(cacheDir, versionFileName)

	data, err := os.ReadFile(versionFile)
	switch {
	case err == nil:
		if stored, convErr := strconv.Atoi(strings.TrimSpace(string(data))); convErr == nil && stored == CacheVersion {
			return false, nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return false, fmt.Errorf("failed to read cache version: %w", err)
	}

	if err := clearCacheDir(cacheDir); err != nil {
		return false, fmt.Errorf("failed to clear cache: %w", err)
	}
	if err := os.WriteFile(versionFile, []byte(strconv.Itoa(CacheVersion)), 0o644); err != nil {
		return false, fmt.Errorf("failed to write cache version: %w", err)
	}
	return true, nil
}

// clearCacheDir removes the contents of cacheDir, creating it if needed.
func clearCacheDir(cacheDir string) error {
	entries, err := os.ReadDir(cacheDir)
	if errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(cacheDir, 0o755)
	}
	if err != nil {
		return err
	}

	for _, e := range entries {
		path := filepath.Join(cacheDir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}
