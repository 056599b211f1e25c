// Package connections fans playback notifications out to the external
// presence and scrobble sinks. Each sink runs on its own goroutine; a
// sink failure never affects playback or the other sinks.
package connections

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dreyvitch/cadence/config"
	"github.com/dreyvitch/cadence/player"
	"github.com/dreyvitch/cadence/storage"
)

// Notification is a playback event broadcast to the sinks.
type Notification interface{ notification() }

// Playback carries one position/duration sample.
type Playback struct {
	Position time.Duration
	Duration time.Duration
}

// StateChange reports a playback state transition.
type StateChange struct {
	State player.State
}

// SongChange reports the now-playing song.
type SongChange struct {
	Song storage.Song
}

// EOS reports that the current track ran out.
type EOS struct{}

func (Playback) notification()    {}
func (StateChange) notification() {}
func (SongChange) notification()  {}
func (EOS) notification()         {}

// Input selects which sinks to bring up. The ListenBrainz token comes
// from the config store instead.
type Input struct {
	DiscordClientID uint64
}

// Sink activity flags. Relaxed visibility is fine: the router may route
// a handful of events to a sink that just died, and drops them there.
var (
	dcActive atomic.Bool
	lbActive atomic.Bool
)

// Connections owns the notification stream and the sink workers.
type Connections struct {
	log logrus.FieldLogger
	cfg *config.Store
	in  Input

	mu     sync.Mutex
	buf    []Notification
	sig    chan struct{}
	closed bool

	wg sync.WaitGroup
}

func New(log logrus.FieldLogger, cfg *config.Store, in Input) *Connections {
	return &Connections{
		log: log,
		cfg: cfg,
		in:  in,
		sig: make(chan struct{}, 1),
	}
}

// Notify enqueues a notification. It never blocks; the stream is
// unbounded.
func (c *Connections) Notify(n Notification) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.buf = append(c.buf, n)
	c.mu.Unlock()

	select {
	case c.sig <- struct{}{}:
	default:
	}
}

func (c *Connections) recv() (Notification, bool) {
	for {
		c.mu.Lock()
		if len(c.buf) > 0 {
			n := c.buf[0]
			c.buf = c.buf[1:]
			c.mu.Unlock()
			return n, true
		}
		if c.closed {
			c.mu.Unlock()
			return nil, false
		}
		c.mu.Unlock()
		<-c.sig
	}
}

// Run starts the router and the configured sinks. Sinks that are not
// configured are never started; events destined for them are dropped.
func (c *Connections) Run() {
	dcState := make(chan player.State, 1)
	dcSong := make(chan storage.Song, 1)
	lbSong := make(chan storage.Song, 1)
	lbEOS := make(chan struct{}, 1)

	if c.in.DiscordClientID != 0 {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.discordPresence(c.in.DiscordClientID, dcSong, dcState)
		}()
	}

	if token := c.cfg.Get().Connections.ListenBrainzToken; token != "" {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.listenBrainzScrobble(NewListenBrainz(token), lbSong, lbEOS)
		}()
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			close(dcState)
			close(dcSong)
			close(lbSong)
			close(lbEOS)
		}()

		for {
			n, ok := c.recv()
			if !ok {
				return
			}
			switch v := n.(type) {
			case Playback:
				// position samples stay inside the core
			case StateChange:
				if dcActive.Load() {
					offer(dcState, v.State)
				}
			case SongChange:
				if dcActive.Load() {
					offer(dcSong, v.Song)
				}
				if lbActive.Load() {
					offer(lbSong, v.Song)
				}
			case EOS:
				if lbActive.Load() {
					offer(lbEOS, struct{}{})
				}
			}
		}
	}()
}

// Close ends the stream and waits for the router and sinks to wind
// down.
func (c *Connections) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	select {
	case c.sig <- struct{}{}:
	default:
	}
	c.wg.Wait()
}

// offer delivers on a capacity-1 channel, newest wins: a stale value
// still sitting in the buffer is dropped to make room.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Ratelimit returns a channel yielding amount items every interval, for
// gating outbound submissions.
func Ratelimit(amount int, interval time.Duration) <-chan struct{} {
	if amount < 1 {
		amount = 1
	}
	ch := make(chan struct{}, amount)
	go func() {
		for {
			for i := 0; i < amount; i++ {
				ch <- struct{}{}
			}
			time.Sleep(interval)
		}
	}()

	return ch
}
