package indexer

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAndMigrateCache(t *testing.T) {
	current := strconv.Itoa(CacheVersion)

	tests := []struct {
		name        string
		version     *string
		wantCleared bool
	}{
		{name: "fresh cache", wantCleared: true},
		{name: "matching version", version: &current, wantCleared: false},
		{name: "matching version with newline", version: ptr(current + "\n"), wantCleared: false},
		{name: "older version", version: ptr("0"), wantCleared: true},
		{name: "corrupted version", version: ptr("not-a-number"), wantCleared: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cacheDir := t.TempDir()
			versionFile := filepath.Join(cacheDir, versionFileName)
			if tt.version != nil {
				require.NoError(t, os.WriteFile(versionFile, []byte(*tt.version), 0o644))
			}

			docsDB := filepath.Join(cacheDir, "docs.db")
			require.NoError(t, os.WriteFile(docsDB, []byte("cached"), 0o644))
			nested := filepath.Join(cacheDir, "nested")
			require.NoError(t, os.MkdirAll(nested, 0o755))

			cleared, err := CheckAndMigrateCache(cacheDir)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCleared, cleared)

			_, dbErr := os.Stat(docsDB)
			_, nestedErr := os.Stat(nested)
			if tt.wantCleared {
				assert.True(t, os.IsNotExist(dbErr), "cached files are removed")
				assert.True(t, os.IsNotExist(nestedErr), "subdirectories are removed")

				data, err := os.ReadFile(versionFile)
				require.NoError(t, err)
				assert.Equal(t, current, string(data))
			} else {
				assert.NoError(t, dbErr)
				assert.NoError(t, nestedErr)
			}
		})
	}
}

func TestCheckAndMigrateCache_CreatesMissingDir(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "vuedoc", "project")

	cleared, err := CheckAndMigrateCache(cacheDir)
	require.NoError(t, err)
	assert.True(t, cleared)

	cleared, err = CheckAndMigrateCache(cacheDir)
	require.NoError(t, err)
	assert.False(t, cleared)
}

func ptr(s string) *string {
	return &s
}
