// Package controller is the input and output for the entire player. It
// runs four cooperating loops — player, queue, library, connections —
// bound by typed request/response channels, plus the monitors that turn
// backend events into notifications.
package controller

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dreyvitch/cadence/config"
	"github.com/dreyvitch/cadence/connections"
	"github.com/dreyvitch/cadence/player"
	"github.com/dreyvitch/cadence/queue"
	"github.com/dreyvitch/cadence/storage"
)

// QueueWindow is the width of the sliding context window the queue
// mirrors: PlayNow primes this many items and every consumed entry is
// replaced from the tail.
const QueueWindow = 50

// PlayedHistoryCap bounds the played stack; the oldest entry is
// discarded on overflow.
const PlayedHistoryCap = 50

// Input carries everything Start needs. Connections may be nil when no
// presence sink is wanted; the notification router runs regardless.
type Input struct {
	Library     *storage.MusicLibrary
	Config      *config.Store
	Backend     player.Backend
	Connections *connections.Input
	Log         logrus.FieldLogger
}

// PlaybackInfo is the most recent progress sample, readable by a
// front-end without asking any loop.
type PlaybackInfo struct {
	Position time.Duration
	Duration time.Duration
}

// PlaybackCell is a single-writer many-reader cell holding the latest
// PlaybackInfo.
type PlaybackCell struct {
	p atomic.Pointer[PlaybackInfo]
}

func (c *PlaybackCell) Load() PlaybackInfo {
	v := c.p.Load()
	if v == nil {
		return PlaybackInfo{}
	}
	return *v
}

func (c *PlaybackCell) store(v PlaybackInfo) { c.p.Store(&v) }

// Start brings the core up: loads controller state, initializes the
// backend, starts the four loops and the monitors, and returns the
// facade handle. A backend init failure is fatal.
func Start(in Input) (*Handle, error) {
	if in.Backend == nil {
		return nil, errors.New("no backend provided")
	}
	log := in.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	if err := in.Backend.Init(); err != nil {
		return nil, err
	}

	state := readControllerState(in.Config.Get().StatePath)
	if err := in.Backend.SetVolume(state.Volume); err != nil {
		log.WithError(err).Warn("could not restore volume")
	}

	conns := connections.New(log, in.Config, connInput(in.Connections))
	conns.Run()

	playerMail := newMailbox[playerRequest]()
	libMail := newMailbox[libraryRequest]()
	queueMail := newMailbox[queueRequest]()

	cell := &PlaybackCell{}
	nextSongs := make(chan storage.Song, 32)
	done := make(chan struct{})

	h := &Handle{
		playerMail: playerMail,
		libMail:    libMail,
		queueMail:  queueMail,
		playback:   cell,
		nextSongs:  nextSongs,
		conns:      conns,
		backend:    in.Backend,
		done:       done,
	}

	h.wg.Add(6)

	q := queue.New[QueueSong](PlayedHistoryCap)
	go func() {
		defer h.wg.Done()
		queueLoop(q, queueMail)
	}()

	go func() {
		defer h.wg.Done()
		libraryLoop(in.Library, in.Config, libMail, log)
	}()

	go func() {
		defer h.wg.Done()
		playerLoop(in.Backend, playerMail, queueMail, libMail, conns.Notify, state, log)
	}()

	go func() {
		defer h.wg.Done()
		positionMonitor(in.Backend, cell, conns.Notify)
	}()

	go func() {
		defer h.wg.Done()
		eosMonitor(in.Backend, playerMail, conns.Notify, nextSongs, log)
	}()

	go func() {
		defer h.wg.Done()
		stateMonitor(in.Backend, conns.Notify, done)
	}()

	return h, nil
}

func connInput(in *connections.Input) connections.Input {
	if in == nil {
		return connections.Input{}
	}
	return *in
}
