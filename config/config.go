// Package config holds the on-disk configuration of the player core and a
// shared read-mostly handle to it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

var ErrNoDefaultLibrary = errors.New("no default library configured")
var ErrNoBackupFolder = errors.New("no backup folder configured")

// NoLibraryError reports a library id that does not appear in the config.
type NoLibraryError struct {
	UUID uuid.UUID
}

func (e NoLibraryError) Error() string {
	return fmt.Sprintf("no library configured for %s", e.UUID)
}

// Library describes a single configured music library.
type Library struct {
	Name        string    `toml:"name"`
	Path        string    `toml:"path"`
	UUID        uuid.UUID `toml:"uuid"`
	ScanFolders []string  `toml:"scan_folders,omitempty"`
}

// Libraries lists the configured libraries and which one is active.
type Libraries struct {
	DefaultLibrary uuid.UUID `toml:"default_library"`
	LibraryFolder  string    `toml:"library_folder"`
	Libraries      []Library `toml:"libraries"`
}

func (l Libraries) Default() (Library, error) {
	for _, lib := range l.Libraries {
		if lib.UUID == l.DefaultLibrary {
			return lib, nil
		}
	}
	return Library{}, ErrNoDefaultLibrary
}

func (l Libraries) Get(id uuid.UUID) (Library, error) {
	for _, lib := range l.Libraries {
		if lib.UUID == id {
			return lib, nil
		}
	}
	return Library{}, NoLibraryError{id}
}

// Connections holds credentials for the external sinks. An empty
// ListenBrainzToken disables the scrobble sink. DiscordClientID is only
// stored here; the presence sink is enabled through connections.Input.
type Connections struct {
	ListenBrainzToken string `toml:"listenbrainz_token,omitempty"`
	DiscordClientID   uint64 `toml:"discord_client_id,omitempty"`
}

// Config is the root configuration document.
type Config struct {
	Path         string      `toml:"path"`
	StatePath    string      `toml:"state_path"`
	BackupFolder string      `toml:"backup_folder,omitempty"`
	Libraries    Libraries   `toml:"libraries"`
	Connections  Connections `toml:"connections"`
}

// New returns a config with a single default library descriptor.
func New() Config {
	return Config{
		Libraries: Libraries{
			Libraries: []Library{{Name: "library", Path: "library", UUID: uuid.New()}},
		},
	}
}

// Read parses the file at path. A missing file yields a fresh default
// config whose Path is set to the given location.
func Read(path string) (Config, error) {
	c := Config{}
	_, err := toml.DecodeFile(path, &c)
	if os.IsNotExist(err) {
		c = New()
		c.Path = path
		return c, nil
	}
	if err != nil {
		return c, err
	}
	c.Path = path
	return c, nil
}

// PushLibrary appends a library descriptor. The first one pushed becomes
// the default.
func (c *Config) PushLibrary(lib Library) {
	if len(c.Libraries.Libraries) == 0 {
		c.Libraries.DefaultLibrary = lib.UUID
	}
	c.Libraries.Libraries = append(c.Libraries.Libraries, lib)
}

// Write stores the config at its own Path, atomically.
func (c Config) Write() error {
	return c.writeTo(c.Path)
}

// WriteBackup stores a copy of the config in the backup folder.
func (c Config) WriteBackup() error {
	if c.BackupFolder == "" {
		return ErrNoBackupFolder
	}
	return c.writeTo(filepath.Join(c.BackupFolder, filepath.Base(c.Path)))
}

func (c Config) writeTo(path string) error {
	if path == "" {
		return errors.New("config has no path")
	}
	os.MkdirAll(filepath.Dir(path), 0o755)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Store guards a Config for concurrent use. Reads vastly outnumber
// writes; writers only appear when tokens or library descriptors change.
type Store struct {
	mu sync.RWMutex
	c  Config
}

func NewStore(c Config) *Store {
	return &Store{c: c}
}

// Get returns a copy of the current config.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c
}

// Update applies fn to the config under the write lock.
func (s *Store) Update(fn func(*Config)) {
	s.mu.Lock()
	fn(&s.c)
	s.mu.Unlock()
}
