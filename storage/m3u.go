package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImportM3U reads a playlist in M3U format. Every line that resolves to
// an existing filesystem path is mapped to the song already owning that
// path, or ingested as a new song. Lines that resolve to nothing are
// returned in skipped. The playlist is inserted under the root folder
// and titled after the file's basename.
func (l *MusicLibrary) ImportM3U(path string) (*Playlist, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	playlist := NewPlaylist(title)
	skipped := make([]string, 0)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry := line
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(filepath.Dir(path), entry)
		}
		if _, err := os.Stat(entry); err != nil {
			skipped = append(skipped, line)
			continue
		}

		if s, _, ok := l.queryPath(entry); ok {
			playlist.AddTrack(s.UUID)
			continue
		}

		song := NewSongFromPath(entry)
		if err := l.AddSong(song); err != nil {
			skipped = append(skipped, line)
			continue
		}
		playlist.AddTrack(song.UUID)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, err
	}

	l.Playlists.Push(playlist)
	return playlist, skipped, nil
}

// WriteM3U exports the playlist with the given id as an extended M3U
// file. Track ids that no longer resolve are omitted.
func (l *MusicLibrary) WriteM3U(id uuid.UUID, path string) error {
	p := l.Playlists.Query(id)
	if p == nil {
		return ErrPlaylistNotExists
	}

	tmp := TempFile(path)
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "#EXTM3U")
	for _, tid := range p.Tracks {
		s, _, ok := l.queryUUID(tid)
		if !ok || len(s.Location) == 0 {
			continue
		}
		title, _ := s.Tag(TagTitle)
		artist, _ := s.Tag(TagArtist)
		fmt.Fprintf(w, "#EXTINF:%d,%s - %s\n", int(s.Duration/time.Second), artist, title)
		fmt.Fprintln(w, s.Location[0].Path)
	}

	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// NewSongFromPath creates a bare song for a file the library has never
// seen. Title falls back to the file name; real tag extraction is the
// scanner's job, not ours.
func NewSongFromPath(path string) Song {
	now := time.Now().UTC()
	s := Song{
		UUID:      uuid.New(),
		Location:  []URI{LocalURI(path)},
		Type:      SongTypeMain,
		DateAdded: &now,
	}
	s.SetTag(TagTitle, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	return s
}
