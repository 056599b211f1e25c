package controller

import (
	"errors"

	"github.com/google/uuid"

	"github.com/dreyvitch/cadence/queue"
	"github.com/dreyvitch/cadence/storage"
)

// ErrContract reports a reply of the wrong variant for the command that
// was sent. This is a programmer error, not a runtime data condition.
var ErrContract = errors.New("contract violation: unexpected reply variant")

// ErrClosed reports a command sent to a loop that has shut down.
var ErrClosed = errors.New("controller is closed")

// LocationKind discriminates playback contexts.
type LocationKind uint8

const (
	LocationLibrary LocationKind = iota
	LocationPlaylist
	LocationFile
	LocationCustom
)

// PlayerLocation identifies the playback context a queue item came
// from: the whole library, a specific playlist, a file, or ad hoc.
type PlayerLocation struct {
	Kind     LocationKind
	Playlist uuid.UUID
}

func LibraryLocation() PlayerLocation  { return PlayerLocation{Kind: LocationLibrary} }
func FileLocation() PlayerLocation     { return PlayerLocation{Kind: LocationFile} }
func CustomLocation() PlayerLocation   { return PlayerLocation{Kind: LocationCustom} }
func PlaylistLocation(id uuid.UUID) PlayerLocation {
	return PlayerLocation{Kind: LocationPlaylist, Playlist: id}
}

// QueueSong ties a song snapshot to the context it was queued from.
type QueueSong struct {
	Song     storage.Song
	Location PlayerLocation
}

// QueueItem is what the queue loop stores and hands out.
type QueueItem = queue.Item[QueueSong]

// PlayerCommand is the sum of commands the player loop accepts.
type PlayerCommand interface{ playerCommand() }

type CmdPlay struct{}
type CmdPause struct{}
type CmdStop struct{}
type CmdSeek struct{ Millis int64 }
type CmdSetVolume struct{ Volume float64 }
type CmdNextSong struct{}
type CmdPrevSong struct{}
type CmdEnqueue struct{ Index int }
type CmdPlayNow struct {
	ID       uuid.UUID
	Location PlayerLocation
}

func (CmdPlay) playerCommand()      {}
func (CmdPause) playerCommand()     {}
func (CmdStop) playerCommand()      {}
func (CmdSeek) playerCommand()      {}
func (CmdSetVolume) playerCommand() {}
func (CmdNextSong) playerCommand()  {}
func (CmdPrevSong) playerCommand()  {}
func (CmdEnqueue) playerCommand()   {}
func (CmdPlayNow) playerCommand()   {}

// PlayerResponse is the sum of replies the player loop produces.
type PlayerResponse interface{ playerResponse() }

type RespEmpty struct{ Err error }
type RespNowPlaying struct {
	Song storage.Song
	Err  error
}

func (RespEmpty) playerResponse()      {}
func (RespNowPlaying) playerResponse() {}

// LibraryCommand is the sum of commands the library loop accepts.
type LibraryCommand interface{ libraryCommand() }

type CmdLibSong struct{ ID uuid.UUID }
type CmdLibAllSongs struct{}
type CmdLibExternalPlaylist struct{ ID uuid.UUID }
type CmdLibPlaylist struct{ ID uuid.UUID }
type CmdLibImportM3U struct{ Path string }
type CmdLibSave struct{}
type CmdLibPlaylists struct{}
type CmdLibSearch struct{ Query string }

func (CmdLibSong) libraryCommand()             {}
func (CmdLibAllSongs) libraryCommand()         {}
func (CmdLibExternalPlaylist) libraryCommand() {}
func (CmdLibPlaylist) libraryCommand()         {}
func (CmdLibImportM3U) libraryCommand()        {}
func (CmdLibSave) libraryCommand()             {}
func (CmdLibPlaylists) libraryCommand()        {}
func (CmdLibSearch) libraryCommand()           {}

// LibraryResponse is the sum of replies the library loop produces.
type LibraryResponse interface{ libraryResponse() }

type RespLibOk struct{ Err error }
type RespLibSong struct {
	Song  storage.Song
	Index int
	Err   error
}
type RespLibAllSongs struct{ Songs []storage.Song }
type RespLibExternalPlaylist struct {
	Playlist storage.ExternalPlaylist
	Err      error
}
type RespLibPlaylist struct {
	Playlist storage.Playlist
	Err      error
}
type RespLibImport struct {
	ID    uuid.UUID
	Title string
	Err   error
}
type RespLibPlaylists struct{ Entries []storage.PlaylistEntry }
type RespLibSearch struct{ Songs []storage.Song }

func (RespLibOk) libraryResponse()               {}
func (RespLibSong) libraryResponse()             {}
func (RespLibAllSongs) libraryResponse()         {}
func (RespLibExternalPlaylist) libraryResponse() {}
func (RespLibPlaylist) libraryResponse()         {}
func (RespLibImport) libraryResponse()           {}
func (RespLibPlaylists) libraryResponse()        {}
func (RespLibSearch) libraryResponse()           {}

// QueueCommand is the sum of commands the queue loop accepts.
type QueueCommand interface{ queueCommand() }

type CmdQueueAppend struct {
	Song    QueueSong
	ByHuman bool
}
type CmdQueueNext struct{}
type CmdQueuePrev struct{}
type CmdQueueGetIndex struct{ Index int }
type CmdQueueNowPlaying struct{}
type CmdQueueGet struct{}
type CmdQueueClear struct{}
type CmdQueueRemove struct{ Index int }

func (CmdQueueAppend) queueCommand()     {}
func (CmdQueueNext) queueCommand()       {}
func (CmdQueuePrev) queueCommand()       {}
func (CmdQueueGetIndex) queueCommand()   {}
func (CmdQueueNowPlaying) queueCommand() {}
func (CmdQueueGet) queueCommand()        {}
func (CmdQueueClear) queueCommand()      {}
func (CmdQueueRemove) queueCommand()     {}

// QueueResponse is the sum of replies the queue loop produces.
type QueueResponse interface{ queueResponse() }

type RespQueueEmpty struct{ Err error }
type RespQueueItem struct {
	Item QueueItem
	Err  error
}
type RespQueueAll struct{ Items []QueueItem }

func (RespQueueEmpty) queueResponse() {}
func (RespQueueItem) queueResponse()  {}
func (RespQueueAll) queueResponse()   {}

// A request pairs a command with its single-use reply channel. The loop
// sends exactly one reply; the buffered channel keeps that send from
// blocking when the caller abandoned the reply.
type playerRequest struct {
	cmd PlayerCommand
	res chan PlayerResponse
}

type libraryRequest struct {
	cmd LibraryCommand
	res chan LibraryResponse
}

type queueRequest struct {
	cmd QueueCommand
	res chan QueueResponse
}

func askPlayer(mail *mailbox[playerRequest], cmd PlayerCommand) (PlayerResponse, error) {
	res := make(chan PlayerResponse, 1)
	if !mail.send(playerRequest{cmd: cmd, res: res}) {
		return nil, ErrClosed
	}
	return <-res, nil
}

func askLibrary(mail *mailbox[libraryRequest], cmd LibraryCommand) (LibraryResponse, error) {
	res := make(chan LibraryResponse, 1)
	if !mail.send(libraryRequest{cmd: cmd, res: res}) {
		return nil, ErrClosed
	}
	return <-res, nil
}

func askQueue(mail *mailbox[queueRequest], cmd QueueCommand) (QueueResponse, error) {
	res := make(chan QueueResponse, 1)
	if !mail.send(queueRequest{cmd: cmd, res: res}) {
		return nil, ErrClosed
	}
	return <-res, nil
}
