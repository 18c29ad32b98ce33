package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteUserConfig_NoExistingConfig(t *testing.T) {
	// Given: no user config exists
	isolate(t)

	// When: writing the user config
	backupPath, err := WriteUserConfig(NewConfig())

	// Then: the file is created and nothing is backed up
	require.NoError(t, err)
	assert.Empty(t, backupPath)
	assert.True(t, UserConfigExists())
}

func TestWriteUserConfig_BacksUpExisting(t *testing.T) {
	// Given: an existing user config
	isolate(t)
	original := "data:\n  path: old.json\n"
	writeFile(t, GetUserConfigPath(), original)

	// When: writing a new one
	cfg := NewConfig()
	cfg.Data.Path = "new.json"
	backupPath, err := WriteUserConfig(cfg)

	// Then: the previous content is preserved beside the new file
	require.NoError(t, err)
	require.NotEmpty(t, backupPath)
	assert.Equal(t, filepath.Dir(GetUserConfigPath()), filepath.Dir(backupPath))

	saved, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, original, string(saved))

	loaded, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "new.json", loaded.Data.Path)
}

func TestBackupFile_KeepsNewest(t *testing.T) {
	// Given: a config file backed up more times than MaxBackups
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "data:\n  path: a.json\n")

	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	var created []string
	for i := 0; i < MaxBackups+2; i++ {
		p, err := backupFile(path, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		created = append(created, p)
	}

	// When: listing backups
	backups, err := listBackups(path)
	require.NoError(t, err)

	// Then: only the newest MaxBackups remain, newest first
	require.Len(t, backups, MaxBackups)
	assert.Equal(t, created[len(created)-1], backups[0])
	for _, old := range created[:2] {
		_, err := os.Stat(old)
		assert.True(t, os.IsNotExist(err), "expected %s to be pruned", old)
	}
}

func TestListBackups_MissingDir(t *testing.T) {
	backups, err := listBackups(filepath.Join(t.TempDir(), "absent", "config.yaml"))

	require.NoError(t, err)
	assert.Empty(t, backups)
}
