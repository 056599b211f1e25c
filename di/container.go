// Package di wires the core together: config, library, backend chain
// and controller. Every accessor builds its dependency on first use.
package di

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dreyvitch/cadence/backend/mpv/ipc"
	"github.com/dreyvitch/cadence/backend/mpv/lib"
	"github.com/dreyvitch/cadence/config"
	"github.com/dreyvitch/cadence/connections"
	"github.com/dreyvitch/cadence/controller"
	"github.com/dreyvitch/cadence/player"
	"github.com/dreyvitch/cadence/storage"
)

type Config struct {
	// Defaults to a logrus standard logger at info level.
	Log logrus.FieldLogger

	// Defaults to ~/.config/cadence/config.toml
	ConfigPath string

	// Defaults to ~/.cache/cadence
	StorePath string

	// DiscordClientID enables the rich-presence sink when non-zero.
	DiscordClientID uint64

	// Extra flags passed to the mpv process for the ipc backend.
	MPVFlags []string
}

type Backend interface {
	player.Backend
}

type BackendBuilder struct {
	Name  string
	Build func(di *DI, log logrus.FieldLogger) (Backend, error)
}

type DI struct {
	c        Config
	backends []BackendBuilder

	store            string
	log              logrus.FieldLogger
	cfg              *config.Store
	library          *storage.MusicLibrary
	backend          Backend
	backendName      string
	backendAvailable error
	handle           *controller.Handle
}

func New(c Config) *DI {
	di := &DI{c: c}
	di.backends = []BackendBuilder{
		{
			Name: "libmpv",
			Build: func(di *DI, log logrus.FieldLogger) (Backend, error) {
				return lib.New(log), nil
			},
		},
		{
			Name: "mpv",
			Build: func(di *DI, log logrus.FieldLogger) (Backend, error) {
				sock := filepath.Join(di.Store(), "mpv-ipc.sock")
				return ipc.New(log, sock, di.c.MPVFlags), nil
			},
		},
	}

	return di
}

func (di *DI) Log() logrus.FieldLogger {
	if di.log == nil {
		di.log = di.c.Log
		if di.log == nil {
			di.log = logrus.StandardLogger()
		}
	}

	return di.log
}

func (di *DI) Store() string {
	if di.store == "" {
		if di.c.StorePath != "" {
			di.store = di.c.StorePath
			return di.store
		}

		cache, err := os.UserCacheDir()
		if err != nil {
			panic(err)
		}
		di.store = filepath.Join(cache, "cadence")
	}

	return di.store
}

func (di *DI) configPath() string {
	if di.c.ConfigPath != "" {
		return di.c.ConfigPath
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	return filepath.Join(dir, "cadence", "config.toml")
}

// Config loads the config file, filling in defaults for a fresh
// install: one library under the store path and a state file beside it.
func (di *DI) Config() *config.Store {
	if di.cfg == nil {
		c, err := config.Read(di.configPath())
		if err != nil {
			di.Log().WithError(err).Warn("could not read config, using defaults")
			c = config.New()
			c.Path = di.configPath()
		}
		if c.StatePath == "" {
			c.StatePath = filepath.Join(di.Store(), "state")
		}
		for i := range c.Libraries.Libraries {
			if c.Libraries.Libraries[i].Path == "" {
				c.Libraries.Libraries[i].Path = filepath.Join(di.Store(), "library.db")
			}
		}
		if c.Libraries.DefaultLibrary == uuid.Nil && len(c.Libraries.Libraries) > 0 {
			c.Libraries.DefaultLibrary = c.Libraries.Libraries[0].UUID
		}
		di.cfg = config.NewStore(c)
	}
	return di.cfg
}

func (di *DI) Library() *storage.MusicLibrary {
	if di.library == nil {
		desc, err := di.Config().Get().Libraries.Default()
		if err != nil {
			panic(err)
		}
		lib, err := storage.Init(desc.Path, desc.UUID)
		if err != nil {
			panic(err)
		}
		if lib.Name == "" {
			lib.Name = desc.Name
		}
		di.library = lib
	}
	return di.library
}

func (di *DI) BackendAvailable() (string, error) {
	di.Backend()
	return di.backendName, di.backendAvailable
}

// Backend tries each builder in order and keeps the first one that
// initializes.
func (di *DI) Backend() Backend {
	if di.backend == nil {
		for _, b := range di.backends {
			di.backendName = b.Name

			l := di.Log().WithField("backend", b.Name)
			be, err := b.Build(di, l)
			if err != nil {
				l.WithError(err).Warn("backend build failed")
				di.backendAvailable = err
				continue
			}

			if err := be.Init(); err != nil {
				l.WithError(err).Warn("backend init failed")
				di.backendAvailable = err
				continue
			}

			di.backend = &initialized{be}
			di.backendAvailable = nil
			break
		}
		if di.backend == nil {
			di.backend = player.UnsupportedBackend{}
		}
	}

	return di.backend
}

// Controller starts the core and returns its facade.
func (di *DI) Controller() (*controller.Handle, error) {
	if di.handle == nil {
		var conns *connections.Input
		if di.c.DiscordClientID != 0 {
			conns = &connections.Input{DiscordClientID: di.c.DiscordClientID}
		}

		h, err := controller.Start(controller.Input{
			Library:     di.Library(),
			Config:      di.Config(),
			Backend:     di.Backend(),
			Connections: conns,
			Log:         di.Log(),
		})
		if err != nil {
			return nil, err
		}
		di.handle = h
	}
	return di.handle, nil
}

// initialized wraps a backend whose Init already ran during selection
// so the controller's own Init call is a no-op.
type initialized struct {
	Backend
}

func (i *initialized) Init() error { return nil }
