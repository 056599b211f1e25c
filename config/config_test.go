package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestReadMissingYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	c, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, path, c.Path)
	require.Len(t, c.Libraries.Libraries, 1)
	require.Equal(t, "library", c.Libraries.Libraries[0].Name)
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	c := New()
	c.Path = path
	c.StatePath = filepath.Join(dir, "state")
	c.Connections.ListenBrainzToken = "tok-123"
	c.Libraries.DefaultLibrary = c.Libraries.Libraries[0].UUID
	c.Libraries.LibraryFolder = "/music"
	require.NoError(t, c.Write())

	got, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, c.StatePath, got.StatePath)
	require.Equal(t, "tok-123", got.Connections.ListenBrainzToken)
	require.Equal(t, c.Libraries.DefaultLibrary, got.Libraries.DefaultLibrary)
	require.Equal(t, "/music", got.Libraries.LibraryFolder)

	// atomic write leaves no temp behind
	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestDefaultLibraryLookup(t *testing.T) {
	c := Config{}
	_, err := c.Libraries.Default()
	require.ErrorIs(t, err, ErrNoDefaultLibrary)

	lib := Library{Name: "main", Path: "/lib", UUID: uuid.New()}
	c.PushLibrary(lib)
	got, err := c.Libraries.Default()
	require.NoError(t, err)
	require.Equal(t, lib.UUID, got.UUID)

	_, err = c.Libraries.Get(uuid.New())
	var noLib NoLibraryError
	require.ErrorAs(t, err, &noLib)
}

func TestBackupRequiresFolder(t *testing.T) {
	c := New()
	c.Path = filepath.Join(t.TempDir(), "config.toml")
	require.ErrorIs(t, c.WriteBackup(), ErrNoBackupFolder)

	backup := t.TempDir()
	c.BackupFolder = backup
	require.NoError(t, c.WriteBackup())
	_, err := os.Stat(filepath.Join(backup, "config.toml"))
	require.NoError(t, err)
}

func TestStoreConcurrentReads(t *testing.T) {
	s := NewStore(New())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.Update(func(c *Config) { c.Connections.ListenBrainzToken = "t" })
		}
		close(done)
	}()
	for i := 0; i < 100; i++ {
		s.Get()
	}
	<-done

	require.Equal(t, "t", s.Get().Connections.ListenBrainzToken)
}
