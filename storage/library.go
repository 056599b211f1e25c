package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrSongNotExists     = errors.New("song does not exist")
	ErrPlaylistNotExists = errors.New("playlist does not exist")
	ErrSongExists        = errors.New("song already exists")
)

func IsErrNotExists(err error) bool {
	return errors.Is(err, ErrSongNotExists) || errors.Is(err, ErrPlaylistNotExists)
}

// PlaylistEntry is the (id, title) pair returned by playlist walks.
type PlaylistEntry struct {
	UUID  uuid.UUID
	Title string
}

// MusicLibrary owns the songs and the playlist tree of one library.
// It is not safe for concurrent use; a single loop owns it.
type MusicLibrary struct {
	Name      string
	UUID      uuid.UUID
	Songs     []Song
	Playlists PlaylistFolder
}

// Init opens the library at path, or returns a fresh empty library when
// the file does not exist.
func Init(path string, id uuid.UUID) (*MusicLibrary, error) {
	lib := &MusicLibrary{UUID: id}
	if err := lib.Load(path); err != nil {
		return nil, err
	}
	if lib.UUID != id {
		lib.UUID = id
	}
	return lib, nil
}

func (l *MusicLibrary) queryUUID(id uuid.UUID) (*Song, int, bool) {
	for i := range l.Songs {
		if l.Songs[i].UUID == id {
			return &l.Songs[i], i, true
		}
	}
	return nil, 0, false
}

// queryPath finds a song with any local or cue location at path.
func (l *MusicLibrary) queryPath(path string) (*Song, int, bool) {
	path = filepath.Clean(path)
	for i := range l.Songs {
		for _, u := range l.Songs[i].Location {
			if u.Kind == URIRemote {
				continue
			}
			if filepath.Clean(u.Path) == path {
				return &l.Songs[i], i, true
			}
		}
	}
	return nil, 0, false
}

// Song returns a snapshot of the song with the given id and its index.
func (l *MusicLibrary) Song(id uuid.UUID) (Song, int, error) {
	s, i, ok := l.queryUUID(id)
	if !ok {
		return Song{}, 0, ErrSongNotExists
	}
	return s.Clone(), i, nil
}

// AllSongs returns a snapshot of the full song list.
func (l *MusicLibrary) AllSongs() []Song {
	n := make([]Song, 0, len(l.Songs))
	for i := range l.Songs {
		n = append(n, l.Songs[i].Clone())
	}
	return n
}

// Len returns the number of songs.
func (l *MusicLibrary) Len() int { return len(l.Songs) }

// AddSong inserts a song, enforcing id and primary-path uniqueness.
func (l *MusicLibrary) AddSong(s Song) error {
	if _, _, ok := l.queryUUID(s.UUID); ok {
		return fmt.Errorf("%w: %s", ErrSongExists, s.UUID)
	}
	for _, u := range s.Location {
		if u.Kind == URIRemote {
			continue
		}
		if dup, _, ok := l.queryPath(u.Path); ok {
			return fmt.Errorf("%w: %s owns %s", ErrSongExists, dup.UUID, u.Path)
		}
		break
	}
	l.Songs = append(l.Songs, s)
	return nil
}

// RemoveSong deletes the song with the given id.
func (l *MusicLibrary) RemoveSong(id uuid.UUID) error {
	_, i, ok := l.queryUUID(id)
	if !ok {
		return ErrSongNotExists
	}
	l.Songs = append(l.Songs[:i], l.Songs[i+1:]...)
	return nil
}

// Search returns snapshots of every song whose title contains all words
// of the query, case insensitive.
func (l *MusicLibrary) Search(query string) []Song {
	words := strings.Fields(strings.ToLower(query))
	res := make([]Song, 0)
	for i := range l.Songs {
		title, _ := l.Songs[i].Tag(TagTitle)
		title = strings.ToLower(title)
		all := true
		for _, w := range words {
			if !strings.Contains(title, w) {
				all = false
				break
			}
		}
		if all {
			res = append(res, l.Songs[i].Clone())
		}
	}
	return res
}

// Playlist returns a snapshot of the playlist with the given id.
func (l *MusicLibrary) Playlist(id uuid.UUID) (Playlist, error) {
	p := l.Playlists.Query(id)
	if p == nil {
		return Playlist{}, ErrPlaylistNotExists
	}
	return *p.clone(), nil
}

// ExternalPlaylist materializes the playlist with the given id.
func (l *MusicLibrary) ExternalPlaylist(id uuid.UUID) (ExternalPlaylist, error) {
	p := l.Playlists.Query(id)
	if p == nil {
		return ExternalPlaylist{}, ErrPlaylistNotExists
	}
	return newExternalPlaylist(p, l), nil
}

// PlaylistEntries walks the playlist tree and returns (id, title) pairs.
func (l *MusicLibrary) PlaylistEntries() []PlaylistEntry {
	lists := l.Playlists.ListsRecursive()
	entries := make([]PlaylistEntry, 0, len(lists))
	for _, p := range lists {
		entries = append(entries, PlaylistEntry{UUID: p.UUID, Title: p.Title})
	}
	return entries
}
