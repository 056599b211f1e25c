package controller

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dreyvitch/cadence/connections"
	"github.com/dreyvitch/cadence/player"
	"github.com/dreyvitch/cadence/storage"
)

// Handle is the facade the front-end talks to. Every method sends one
// command and awaits its single reply; a reply of the wrong variant is
// ErrContract.
type Handle struct {
	playerMail *mailbox[playerRequest]
	libMail    *mailbox[libraryRequest]
	queueMail  *mailbox[queueRequest]

	playback  *PlaybackCell
	nextSongs chan storage.Song

	conns   *connections.Connections
	backend player.Backend
	done    chan struct{}

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// The player section.

// PlayNow clears the queue, primes it from the given context and starts
// the song with the given id.
func (h *Handle) PlayNow(id uuid.UUID, location PlayerLocation) (storage.Song, error) {
	resp, err := askPlayer(h.playerMail, CmdPlayNow{ID: id, Location: location})
	if err != nil {
		return storage.Song{}, err
	}
	return nowPlayingReply(resp)
}

func (h *Handle) Play() error  { return h.emptyPlayerCmd(CmdPlay{}) }
func (h *Handle) Pause() error { return h.emptyPlayerCmd(CmdPause{}) }
func (h *Handle) Stop() error  { return h.emptyPlayerCmd(CmdStop{}) }

// Seek jumps to the given absolute position in milliseconds.
func (h *Handle) Seek(millis int64) error {
	return h.emptyPlayerCmd(CmdSeek{Millis: millis})
}

// SetVolume clamps v to [0, 1] and applies it.
func (h *Handle) SetVolume(v float64) error {
	return h.emptyPlayerCmd(CmdSetVolume{Volume: v})
}

// Next advances to the next queued song.
func (h *Handle) Next() (storage.Song, error) {
	resp, err := askPlayer(h.playerMail, CmdNextSong{})
	if err != nil {
		return storage.Song{}, err
	}
	return nowPlayingReply(resp)
}

// Prev steps back to the most recently played song.
func (h *Handle) Prev() (storage.Song, error) {
	resp, err := askPlayer(h.playerMail, CmdPrevSong{})
	if err != nil {
		return storage.Song{}, err
	}
	return nowPlayingReply(resp)
}

// Enqueue starts playback of the queue item at the given index.
func (h *Handle) Enqueue(index int) error {
	return h.emptyPlayerCmd(CmdEnqueue{Index: index})
}

func (h *Handle) emptyPlayerCmd(cmd PlayerCommand) error {
	resp, err := askPlayer(h.playerMail, cmd)
	if err != nil {
		return err
	}
	e, ok := resp.(RespEmpty)
	if !ok {
		return ErrContract
	}
	return e.Err
}

func nowPlayingReply(resp PlayerResponse) (storage.Song, error) {
	np, ok := resp.(RespNowPlaying)
	if !ok {
		return storage.Song{}, ErrContract
	}
	return np.Song, np.Err
}

// The library section.

// LibrarySong returns a snapshot of the song and its library index.
func (h *Handle) LibrarySong(id uuid.UUID) (storage.Song, int, error) {
	resp, err := askLibrary(h.libMail, CmdLibSong{ID: id})
	if err != nil {
		return storage.Song{}, 0, err
	}
	song, ok := resp.(RespLibSong)
	if !ok {
		return storage.Song{}, 0, ErrContract
	}
	return song.Song, song.Index, song.Err
}

// AllSongs returns a snapshot of the full song list.
func (h *Handle) AllSongs() ([]storage.Song, error) {
	resp, err := askLibrary(h.libMail, CmdLibAllSongs{})
	if err != nil {
		return nil, err
	}
	all, ok := resp.(RespLibAllSongs)
	if !ok {
		return nil, ErrContract
	}
	return all.Songs, nil
}

// SaveLibrary flushes the library to its configured path.
func (h *Handle) SaveLibrary() error {
	resp, err := askLibrary(h.libMail, CmdLibSave{})
	if err != nil {
		return err
	}
	okResp, ok := resp.(RespLibOk)
	if !ok {
		return ErrContract
	}
	return okResp.Err
}

// Search returns songs whose title matches every word of the query.
func (h *Handle) Search(query string) ([]storage.Song, error) {
	resp, err := askLibrary(h.libMail, CmdLibSearch{Query: query})
	if err != nil {
		return nil, err
	}
	res, ok := resp.(RespLibSearch)
	if !ok {
		return nil, ErrContract
	}
	return res.Songs, nil
}

// The playlist section.

// Playlist returns a snapshot of the playlist with the given id.
func (h *Handle) Playlist(id uuid.UUID) (storage.Playlist, error) {
	resp, err := askLibrary(h.libMail, CmdLibPlaylist{ID: id})
	if err != nil {
		return storage.Playlist{}, err
	}
	list, ok := resp.(RespLibPlaylist)
	if !ok {
		return storage.Playlist{}, ErrContract
	}
	return list.Playlist, list.Err
}

// ExternalPlaylist materializes the playlist with the given id.
func (h *Handle) ExternalPlaylist(id uuid.UUID) (storage.ExternalPlaylist, error) {
	resp, err := askLibrary(h.libMail, CmdLibExternalPlaylist{ID: id})
	if err != nil {
		return storage.ExternalPlaylist{}, err
	}
	list, ok := resp.(RespLibExternalPlaylist)
	if !ok {
		return storage.ExternalPlaylist{}, ErrContract
	}
	return list.Playlist, list.Err
}

// Playlists walks the playlist tree and returns (id, title) pairs.
func (h *Handle) Playlists() ([]storage.PlaylistEntry, error) {
	resp, err := askLibrary(h.libMail, CmdLibPlaylists{})
	if err != nil {
		return nil, err
	}
	lists, ok := resp.(RespLibPlaylists)
	if !ok {
		return nil, ErrContract
	}
	return lists.Entries, nil
}

// ImportM3U imports the playlist file at path and returns the new
// playlist's id and title.
func (h *Handle) ImportM3U(path string) (uuid.UUID, string, error) {
	resp, err := askLibrary(h.libMail, CmdLibImportM3U{Path: path})
	if err != nil {
		return uuid.Nil, "", err
	}
	imp, ok := resp.(RespLibImport)
	if !ok {
		return uuid.Nil, "", ErrContract
	}
	return imp.ID, imp.Title, imp.Err
}

// The queue section.

// QueueAppend adds a song to the queue as a human insert: it lands
// right after the add-here marker.
func (h *Handle) QueueAppend(song QueueSong) error {
	resp, err := askQueue(h.queueMail, CmdQueueAppend{Song: song, ByHuman: true})
	if err != nil {
		return err
	}
	e, ok := resp.(RespQueueEmpty)
	if !ok {
		return ErrContract
	}
	return e.Err
}

// QueueRemove deletes and returns the item at the given index.
func (h *Handle) QueueRemove(index int) (QueueItem, error) {
	resp, err := askQueue(h.queueMail, CmdQueueRemove{Index: index})
	if err != nil {
		return QueueItem{}, err
	}
	return itemReply(resp)
}

// QueueItems returns a snapshot of the queue.
func (h *Handle) QueueItems() ([]QueueItem, error) {
	resp, err := askQueue(h.queueMail, CmdQueueGet{})
	if err != nil {
		return nil, err
	}
	all, ok := resp.(RespQueueAll)
	if !ok {
		return nil, ErrContract
	}
	return all.Items, nil
}

// QueueNowPlaying returns the item at the front of the queue.
func (h *Handle) QueueNowPlaying() (QueueItem, error) {
	resp, err := askQueue(h.queueMail, CmdQueueNowPlaying{})
	if err != nil {
		return QueueItem{}, err
	}
	return itemReply(resp)
}

// QueueClear drains the queue. The played history is preserved.
func (h *Handle) QueueClear() error {
	resp, err := askQueue(h.queueMail, CmdQueueClear{})
	if err != nil {
		return err
	}
	e, ok := resp.(RespQueueEmpty)
	if !ok {
		return ErrContract
	}
	return e.Err
}

func itemReply(resp QueueResponse) (QueueItem, error) {
	item, ok := resp.(RespQueueItem)
	if !ok {
		return QueueItem{}, ErrContract
	}
	return item.Item, item.Err
}

// The monitor section.

// PlaybackInfo returns the latest progress sample without touching any
// loop.
func (h *Handle) PlaybackInfo() PlaybackInfo { return h.playback.Load() }

// NextSongs yields the songs the end-of-stream watcher advanced to.
func (h *Handle) NextSongs() <-chan storage.Song { return h.nextSongs }

// Close tears the core down: the loops drain and exit, the monitors die
// with the backend's channels, and the sinks wind down.
func (h *Handle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		h.playerMail.close()
		h.libMail.close()
		h.queueMail.close()
		close(h.done)
		err = h.backend.Close()
		h.wg.Wait()
		h.conns.Close()
	})
	return err
}
