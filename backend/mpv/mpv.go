// Package mpv provides a player.Backend implementation for both libmpv
// and an external mpv process driven over its JSON IPC.
package mpv

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dreyvitch/cadence/player"
)

// Backend is the generic low-level mpv interface, applicable to both
// libmpv and mpv over IPC.
type Backend interface {
	Init(chan<- Event) error
	Close() error

	GetPropertyDouble(string) (float64, error)
	SetPropertyDouble(string, float64) error

	SetPropertyString(string, string) error

	GetPropertyBool(string) (bool, error)
	SetPropertyBool(string, bool) error

	Command(...string) error
}

// EventID represents an mpv event type.
type EventID byte

const (
	EventEndFile EventID = 1 + iota
	EventStartFile
	EventPause
	EventUnpause
)

// Event represents an mpv event. Reason is set for end-file events when
// the transport exposes it ("eof" when a track ran out on its own).
type Event struct {
	ID     EventID
	Reason string
}

const positionInterval = 100 * time.Millisecond

// New creates a new mpv wrapper around any low-level Backend.
func New(log logrus.FieldLogger, backend Backend) *MPV {
	return &MPV{
		log:       log,
		b:         backend,
		events:    make(chan Event, 8),
		positions: make(chan player.Position, 8),
		finished:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// MPV adapts a low-level mpv Backend to player.Backend.
type MPV struct {
	log logrus.FieldLogger
	b   Backend

	sem sync.Mutex

	state struct {
		volume    float64
		paused    bool
		loaded    bool
		expectEnd bool
	}

	events    chan Event
	positions chan player.Position
	finished  chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
}

func (m *MPV) l(err error, debug string) {
	if err != nil {
		m.log.WithError(err).Warn(debug)
	}
}

// Init initializes the backend and starts the event and position pumps.
func (m *MPV) Init() error {
	if err := m.b.Init(m.events); err != nil {
		return err
	}

	vol, err := m.b.GetPropertyDouble("volume")
	m.l(err, "volume")
	m.sem.Lock()
	m.state.volume = vol / 100
	m.state.paused = true
	m.sem.Unlock()

	m.wg.Add(2)
	go m.eventPump()
	go m.positionPump()

	return nil
}

func (m *MPV) eventPump() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case e := <-m.events:
			switch e.ID {
			case EventEndFile:
				m.sem.Lock()
				expected := m.state.expectEnd
				m.state.expectEnd = false
				m.state.loaded = false
				m.sem.Unlock()
				if e.Reason == "eof" || (e.Reason == "" && !expected) {
					select {
					case m.finished <- struct{}{}:
					default:
					}
				}
			case EventStartFile:
				m.sem.Lock()
				m.state.loaded = true
				m.sem.Unlock()
			case EventPause:
				m.sem.Lock()
				m.state.paused = true
				m.sem.Unlock()
			case EventUnpause:
				m.sem.Lock()
				m.state.paused = false
				m.sem.Unlock()
			}
		}
	}
}

func (m *MPV) positionPump() {
	defer m.wg.Done()
	tick := time.NewTicker(positionInterval)
	defer tick.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-tick.C:
			if m.State() != player.StatePlaying {
				continue
			}
			pos, err := m.b.GetPropertyDouble("time-pos")
			if err != nil {
				continue
			}
			dur, err := m.b.GetPropertyDouble("duration")
			if err != nil {
				continue
			}
			sample := player.Position{
				Position: time.Duration(pos * float64(time.Second)),
				Duration: time.Duration(dur * float64(time.Second)),
			}
			select {
			case m.positions <- sample:
			default:
			}
		}
	}
}

// LoadNew replaces the current source without starting playback.
func (m *MPV) LoadNew(uri string) error {
	m.sem.Lock()
	m.state.expectEnd = m.state.loaded
	m.sem.Unlock()

	if err := m.b.SetPropertyBool("pause", true); err != nil {
		return err
	}
	return m.b.Command("loadfile", uri, "replace")
}

func (m *MPV) Play() error {
	return m.b.SetPropertyBool("pause", false)
}

func (m *MPV) Pause() error {
	return m.b.SetPropertyBool("pause", true)
}

func (m *MPV) Stop() error {
	m.sem.Lock()
	m.state.expectEnd = m.state.loaded
	m.sem.Unlock()
	return m.b.Command("stop")
}

func (m *MPV) SeekTo(pos time.Duration) error {
	return m.b.SetPropertyDouble("time-pos", pos.Seconds())
}

func (m *MPV) SetVolume(v float64) error {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	if err := m.b.SetPropertyDouble("volume", v*100); err != nil {
		return err
	}

	m.sem.Lock()
	m.state.volume = v
	m.sem.Unlock()
	return nil
}

func (m *MPV) Volume() float64 {
	m.sem.Lock()
	defer m.sem.Unlock()
	return m.state.volume
}

func (m *MPV) State() player.State {
	m.sem.Lock()
	defer m.sem.Unlock()
	switch {
	case !m.state.loaded:
		return player.StateStopped
	case m.state.paused:
		return player.StatePaused
	}
	return player.StatePlaying
}

func (m *MPV) Positions() <-chan player.Position { return m.positions }
func (m *MPV) Finished() <-chan struct{}         { return m.finished }

func (m *MPV) Close() error {
	close(m.done)
	err := m.b.Close()
	m.wg.Wait()
	close(m.positions)
	close(m.finished)
	return err
}
