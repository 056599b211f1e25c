package controller

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dreyvitch/cadence/connections"
	"github.com/dreyvitch/cadence/player"
	"github.com/dreyvitch/cadence/storage"
)

// playerLoop executes playback commands. It is the only loop that
// issues cross-loop requests while handling a command; each fan-out
// completes before the next starts.
func playerLoop(
	b player.Backend,
	mail *mailbox[playerRequest],
	queueMail *mailbox[queueRequest],
	libMail *mailbox[libraryRequest],
	notify func(connections.Notification),
	state ControllerState,
	log logrus.FieldLogger,
) {
	p := &playerState{
		b:         b,
		queueMail: queueMail,
		libMail:   libMail,
		notify:    notify,
		state:     state,
		log:       log,
	}

	for {
		req, ok := mail.recv()
		if !ok {
			return
		}

		switch cmd := req.cmd.(type) {
		case CmdPlay:
			req.res <- RespEmpty{Err: b.Play()}
		case CmdPause:
			req.res <- RespEmpty{Err: b.Pause()}
		case CmdStop:
			req.res <- RespEmpty{Err: b.Stop()}
		case CmdSeek:
			req.res <- RespEmpty{Err: b.SeekTo(time.Duration(cmd.Millis) * time.Millisecond)}
		case CmdSetVolume:
			req.res <- RespEmpty{Err: p.setVolume(cmd.Volume)}
		case CmdNextSong:
			req.res <- p.nextSong()
		case CmdPrevSong:
			req.res <- p.prevSong()
		case CmdEnqueue:
			req.res <- p.enqueue(cmd.Index)
		case CmdPlayNow:
			req.res <- p.playNow(cmd)
		default:
			log.Errorf("player loop: unknown command %T", req.cmd)
			req.res <- RespEmpty{Err: ErrContract}
		}
	}
}

type playerState struct {
	b         player.Backend
	queueMail *mailbox[queueRequest]
	libMail   *mailbox[libraryRequest]
	notify    func(connections.Notification)
	state     ControllerState
	log       logrus.FieldLogger
}

func (p *playerState) setVolume(v float64) error {
	v = clampVolume(v)
	if err := p.b.SetVolume(v); err != nil {
		return err
	}

	p.state.Volume = v
	p.persist()
	return nil
}

// persist flushes the controller state, best effort. Failures are
// logged, never surfaced.
func (p *playerState) persist() {
	if err := p.state.write(); err != nil {
		p.log.WithError(err).Warn("could not write controller state")
	}
}

// load resolves the song's primary URI and puts it on the backend.
func (p *playerState) load(song *storage.Song) error {
	uri, err := song.PrimaryURI()
	if err != nil {
		return err
	}
	if err := p.b.LoadNew(uri.AsURI()); err != nil {
		return err
	}
	return p.b.Play()
}

// nowPlaying records the song change: persists it and broadcasts to the
// sinks.
func (p *playerState) nowPlaying(song storage.Song) {
	p.state.NowPlaying = song.UUID
	p.persist()
	p.notify(connections.SongChange{Song: song})
}

func (p *playerState) nextSong() PlayerResponse {
	resp, err := askQueue(p.queueMail, CmdQueueNext{})
	if err != nil {
		return RespNowPlaying{Err: err}
	}
	item, ok := resp.(RespQueueItem)
	if !ok {
		p.log.Errorf("queue loop replied %T to Next", resp)
		return RespNowPlaying{Err: ErrContract}
	}
	if item.Err != nil {
		return RespNowPlaying{Err: item.Err}
	}

	np := item.Item.Item
	if err := p.load(&np.Song); err != nil {
		return RespNowPlaying{Err: err}
	}

	p.refillOne(np)

	p.nowPlaying(np.Song)
	return RespNowPlaying{Song: np.Song}
}

// refillOne appends the song QueueWindow-1 positions past the new
// current index, keeping the window populated. Failures abort the
// refill, never the command.
func (p *playerState) refillOne(np QueueSong) {
	songs, index, ok := p.context(np)
	if !ok {
		return
	}

	at := index + QueueWindow - 1
	if at >= len(songs) {
		return
	}

	resp, err := askQueue(p.queueMail, CmdQueueAppend{
		Song: QueueSong{Song: songs[at], Location: np.Location},
	})
	if err != nil {
		return
	}
	if e, ok := resp.(RespQueueEmpty); !ok || e.Err != nil {
		p.log.Warn("queue refill append failed")
	}
}

// context materializes the playback context of the given item and the
// item's position within it.
func (p *playerState) context(np QueueSong) ([]storage.Song, int, bool) {
	switch np.Location.Kind {
	case LocationLibrary:
		resp, err := askLibrary(p.libMail, CmdLibAllSongs{})
		if err != nil {
			return nil, 0, false
		}
		all, ok := resp.(RespLibAllSongs)
		if !ok {
			p.log.Errorf("library loop replied %T to AllSongs", resp)
			return nil, 0, false
		}

		resp, err = askLibrary(p.libMail, CmdLibSong{ID: np.Song.UUID})
		if err != nil {
			return nil, 0, false
		}
		song, ok := resp.(RespLibSong)
		if !ok {
			p.log.Errorf("library loop replied %T to Song", resp)
			return nil, 0, false
		}
		if song.Err != nil {
			return nil, 0, false
		}
		return all.Songs, song.Index, true

	case LocationPlaylist:
		resp, err := askLibrary(p.libMail, CmdLibExternalPlaylist{ID: np.Location.Playlist})
		if err != nil {
			return nil, 0, false
		}
		list, ok := resp.(RespLibExternalPlaylist)
		if !ok {
			p.log.Errorf("library loop replied %T to ExternalPlaylist", resp)
			return nil, 0, false
		}
		if list.Err != nil {
			return nil, 0, false
		}
		index, found := list.Playlist.Index(np.Song.UUID)
		if !found {
			return nil, 0, false
		}
		return list.Playlist.Tracks, index, true
	}

	return nil, 0, false
}

func (p *playerState) prevSong() PlayerResponse {
	resp, err := askQueue(p.queueMail, CmdQueuePrev{})
	if err != nil {
		return RespNowPlaying{Err: err}
	}
	item, ok := resp.(RespQueueItem)
	if !ok {
		p.log.Errorf("queue loop replied %T to Prev", resp)
		return RespNowPlaying{Err: ErrContract}
	}
	if item.Err != nil {
		return RespNowPlaying{Err: item.Err}
	}

	np := item.Item.Item
	if err := p.load(&np.Song); err != nil {
		return RespNowPlaying{Err: err}
	}

	p.nowPlaying(np.Song)
	return RespNowPlaying{Song: np.Song}
}

func (p *playerState) enqueue(index int) PlayerResponse {
	resp, err := askQueue(p.queueMail, CmdQueueGetIndex{Index: index})
	if err != nil {
		return RespEmpty{Err: err}
	}
	item, ok := resp.(RespQueueItem)
	if !ok {
		p.log.Errorf("queue loop replied %T to GetIndex", resp)
		return RespEmpty{Err: ErrContract}
	}
	if item.Err != nil {
		return RespEmpty{Err: item.Err}
	}

	np := item.Item.Item
	if err := p.load(&np.Song); err != nil {
		return RespEmpty{Err: err}
	}

	p.nowPlaying(np.Song)
	return RespEmpty{}
}

func (p *playerState) playNow(cmd CmdPlayNow) PlayerResponse {
	resp, err := askLibrary(p.libMail, CmdLibSong{ID: cmd.ID})
	if err != nil {
		return RespNowPlaying{Err: err}
	}
	lookup, ok := resp.(RespLibSong)
	if !ok {
		p.log.Errorf("library loop replied %T to Song", resp)
		return RespNowPlaying{Err: ErrContract}
	}
	if lookup.Err != nil {
		return RespNowPlaying{Err: lookup.Err}
	}
	np := lookup.Song
	index := lookup.Index

	qresp, err := askQueue(p.queueMail, CmdQueueClear{})
	if err != nil {
		return RespNowPlaying{Err: err}
	}
	if e, ok := qresp.(RespQueueEmpty); !ok {
		p.log.Errorf("queue loop replied %T to Clear", qresp)
		return RespNowPlaying{Err: ErrContract}
	} else if e.Err != nil {
		return RespNowPlaying{Err: e.Err}
	}

	qresp, err = askQueue(p.queueMail, CmdQueueAppend{
		Song:    QueueSong{Song: np, Location: cmd.Location},
		ByHuman: true,
	})
	if err != nil {
		return RespNowPlaying{Err: err}
	}
	if e, ok := qresp.(RespQueueEmpty); !ok {
		p.log.Errorf("queue loop replied %T to Append", qresp)
		return RespNowPlaying{Err: ErrContract}
	} else if e.Err != nil {
		return RespNowPlaying{Err: e.Err}
	}

	// no rollback: a load failure past this point leaves only the
	// play-now item queued and playback stopped
	if err := p.load(&np); err != nil {
		if serr := p.b.Stop(); serr != nil {
			p.log.WithError(serr).Warn("could not stop playback after failed load")
		}
		return RespNowPlaying{Err: err}
	}

	p.prime(QueueSong{Song: np, Location: cmd.Location}, index)

	p.nowPlaying(np)
	return RespNowPlaying{Song: np}
}

// prime fills the context window behind the current song: positions
// index+1 through index+QueueWindow-1, bounded by the context length.
func (p *playerState) prime(np QueueSong, libraryIndex int) {
	songs, index, ok := p.context(np)
	if !ok {
		return
	}
	if np.Location.Kind == LocationLibrary {
		index = libraryIndex
	}

	for i := index + 1; i < index+QueueWindow && i < len(songs); i++ {
		resp, err := askQueue(p.queueMail, CmdQueueAppend{
			Song: QueueSong{Song: songs[i], Location: np.Location},
		})
		if err != nil {
			return
		}
		if e, ok := resp.(RespQueueEmpty); !ok || e.Err != nil {
			p.log.Warn("context window prime aborted")
			return
		}
	}
}
