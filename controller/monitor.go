package controller

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dreyvitch/cadence/connections"
	"github.com/dreyvitch/cadence/player"
	"github.com/dreyvitch/cadence/storage"
)

const statePollInterval = 100 * time.Millisecond

// positionMonitor forwards backend progress samples into the playback
// cell and to the sinks. It dies when the backend's position channel
// closes.
func positionMonitor(b player.Backend, cell *PlaybackCell, notify func(connections.Notification)) {
	for sample := range b.Positions() {
		cell.store(PlaybackInfo{Position: sample.Position, Duration: sample.Duration})
		notify(connections.Playback{Position: sample.Position, Duration: sample.Duration})
	}
}

// eosMonitor advances the queue when a track runs out. The EOS
// notification goes out before the next song loads so the scrobbler
// still holds the song that just finished.
func eosMonitor(
	b player.Backend,
	playerMail *mailbox[playerRequest],
	notify func(connections.Notification),
	nextSongs chan<- storage.Song,
	log logrus.FieldLogger,
) {
	for range b.Finished() {
		notify(connections.EOS{})

		resp, err := askPlayer(playerMail, CmdNextSong{})
		if err != nil {
			return
		}
		np, ok := resp.(RespNowPlaying)
		if !ok {
			log.Errorf("player loop replied %T to NextSong", resp)
			continue
		}
		if np.Err != nil {
			continue
		}

		select {
		case nextSongs <- np.Song:
		default:
		}
	}
}

// stateMonitor polls the backend state and reports transitions only.
func stateMonitor(b player.Backend, notify func(connections.Notification), done <-chan struct{}) {
	last := player.StateUnknown
	tick := time.NewTicker(statePollInterval)
	defer tick.Stop()

	for {
		select {
		case <-done:
			return
		case <-tick.C:
			state := b.State()
			if state == last {
				continue
			}
			last = state
			notify(connections.StateChange{State: state})
		}
	}
}
