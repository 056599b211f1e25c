package controller

import (
	"github.com/sirupsen/logrus"

	"github.com/dreyvitch/cadence/config"
	"github.com/dreyvitch/cadence/storage"
)

// libraryLoop serves song and playlist queries over the owned library.
// Every reply is a deep copy; nothing inside the library is ever
// aliased beyond this loop.
func libraryLoop(
	lib *storage.MusicLibrary,
	cfg *config.Store,
	mail *mailbox[libraryRequest],
	log logrus.FieldLogger,
) {
	for {
		req, ok := mail.recv()
		if !ok {
			return
		}

		switch cmd := req.cmd.(type) {
		case CmdLibSong:
			song, index, err := lib.Song(cmd.ID)
			req.res <- RespLibSong{Song: song, Index: index, Err: err}

		case CmdLibAllSongs:
			req.res <- RespLibAllSongs{Songs: lib.AllSongs()}

		case CmdLibExternalPlaylist:
			list, err := lib.ExternalPlaylist(cmd.ID)
			req.res <- RespLibExternalPlaylist{Playlist: list, Err: err}

		case CmdLibPlaylist:
			list, err := lib.Playlist(cmd.ID)
			req.res <- RespLibPlaylist{Playlist: list, Err: err}

		case CmdLibImportM3U:
			playlist, skipped, err := lib.ImportM3U(cmd.Path)
			for _, line := range skipped {
				log.Warnf("m3u entry skipped: %s", line)
			}
			if err != nil {
				req.res <- RespLibImport{Err: err}
				break
			}
			req.res <- RespLibImport{ID: playlist.UUID, Title: playlist.Title}

		case CmdLibSave:
			req.res <- RespLibOk{Err: saveLibrary(lib, cfg)}

		case CmdLibPlaylists:
			req.res <- RespLibPlaylists{Entries: lib.PlaylistEntries()}

		case CmdLibSearch:
			req.res <- RespLibSearch{Songs: lib.Search(cmd.Query)}

		default:
			log.Errorf("library loop: unknown command %T", req.cmd)
			req.res <- RespLibOk{Err: ErrContract}
		}
	}
}

func saveLibrary(lib *storage.MusicLibrary, cfg *config.Store) error {
	desc, err := cfg.Get().Libraries.Get(lib.UUID)
	if err != nil {
		return err
	}
	return lib.Save(desc.Path)
}
