package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testSong(title, artist string) Song {
	added := time.UnixMilli(1700000000000).UTC()
	rating := uint8(80)
	s := Song{
		UUID: uuid.New(),
		Location: []URI{
			LocalURI("/music/" + title + ".flac"),
			RemoteURI("https://example.com/" + title),
		},
		Plays:        3,
		Skips:        1,
		Favorite:     true,
		Banned:       BannedShuffle,
		Rating:       &rating,
		Format:       "audio/flac",
		Duration:     3*time.Minute + 7*time.Second,
		PlayTime:     9 * time.Minute,
		DateAdded:    &added,
		AlbumArt:     []AlbumArt{EmbeddedArt(0), ExternalArt(LocalURI("/art/cover.png"))},
		DoNotTrack:   []Service{ServiceDiscord},
		Type:         SongTypeMain,
		Links:        []SongLink{{UUID: uuid.New(), Kind: SongTypeRemix}},
		VolumeAdjust: -5,
	}
	s.SetTag(TagTitle, title)
	s.SetTag(TagArtist, artist)
	s.SetTag(TagTrack, "4")
	return s
}

func testLibrary() *MusicLibrary {
	lib := &MusicLibrary{Name: "main", UUID: uuid.New()}

	a := testSong("alpha", "ann")
	b := testSong("beta", "bob")
	b.Location = append(b.Location, CueURI("/music/beta.cue", 2, time.Minute, 2*time.Minute))
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(lib.AddSong(a))
	must(lib.AddSong(b))

	p := NewPlaylist("favourites")
	p.AddTrack(a.UUID)
	p.AddTrack(b.UUID)
	p.SortOrder = SortOrder{TagArtist, TagTrack}
	p.PlayCount = 2
	p.PlayTime = 12 * time.Minute
	cover := ExternalArt(LocalURI("/art/list.png"))
	p.Cover = &cover

	sub := &PlaylistFolder{Name: "genres"}
	sub.Push(NewPlaylist("jazz"))

	lib.Playlists.Push(p)
	lib.Playlists.PushFolder(sub)

	return lib
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db")

	lib := testLibrary()
	require.NoError(t, lib.Save(path))

	got := &MusicLibrary{}
	require.NoError(t, got.Load(path))
	require.Equal(t, lib, got)
}

func TestSaveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db")

	lib := testLibrary()
	require.NoError(t, lib.Save(path))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, lib.Save(path))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestLoadMissingFileYieldsEmptyLibrary(t *testing.T) {
	lib := &MusicLibrary{}
	require.NoError(t, lib.Load(filepath.Join(t.TempDir(), "nope")))
	require.Empty(t, lib.Songs)
}

func TestLoadIgnoresLeftoverTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db")

	lib := testLibrary()
	require.NoError(t, lib.Save(path))

	// a crash between temp write and rename leaves a partial temp file;
	// opening the library must read the committed version
	require.NoError(t, os.WriteFile(TempFile(path), []byte("partial"), 0o644))

	got := &MusicLibrary{}
	require.NoError(t, got.Load(path))
	require.Equal(t, lib.UUID, got.UUID)
	require.Len(t, got.Songs, len(lib.Songs))
}

func TestSaveLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db")

	lib := testLibrary()
	require.NoError(t, lib.Save(path))

	_, err := os.Stat(TempFile(path))
	require.True(t, os.IsNotExist(err))
}

func TestLoadRejectsForeignFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db")
	require.NoError(t, os.WriteFile(path, []byte("not a library"), 0o644))

	lib := &MusicLibrary{}
	require.Error(t, lib.Load(path))
}
