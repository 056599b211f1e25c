package storage

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func plainSong(title string) Song {
	s := Song{
		UUID:     uuid.New(),
		Location: []URI{LocalURI("/music/" + title + ".mp3")},
		Type:     SongTypeMain,
	}
	s.SetTag(TagTitle, title)
	return s
}

func TestAddSongRejectsDuplicateUUID(t *testing.T) {
	lib := &MusicLibrary{UUID: uuid.New()}
	s := plainSong("one")
	require.NoError(t, lib.AddSong(s))

	dup := plainSong("other")
	dup.UUID = s.UUID
	require.ErrorIs(t, lib.AddSong(dup), ErrSongExists)
}

func TestAddSongRejectsDuplicatePath(t *testing.T) {
	lib := &MusicLibrary{UUID: uuid.New()}
	require.NoError(t, lib.AddSong(plainSong("one")))

	dup := plainSong("one")
	require.ErrorIs(t, lib.AddSong(dup), ErrSongExists)
}

func TestSongLookup(t *testing.T) {
	lib := &MusicLibrary{UUID: uuid.New()}
	a, b := plainSong("a"), plainSong("b")
	require.NoError(t, lib.AddSong(a))
	require.NoError(t, lib.AddSong(b))

	got, index, err := lib.Song(b.UUID)
	require.NoError(t, err)
	require.Equal(t, 1, index)
	require.Equal(t, b.UUID, got.UUID)

	_, _, err = lib.Song(uuid.New())
	require.ErrorIs(t, err, ErrSongNotExists)
	require.True(t, IsErrNotExists(err))
}

func TestSnapshotsAreDeepCopies(t *testing.T) {
	lib := &MusicLibrary{UUID: uuid.New()}
	require.NoError(t, lib.AddSong(plainSong("a")))

	snap := lib.AllSongs()
	snap[0].SetTag(TagTitle, "mutated")
	snap[0].Location[0] = LocalURI("/elsewhere")

	title, _ := lib.Songs[0].Tag(TagTitle)
	require.Equal(t, "a", title)
	require.Equal(t, "/music/a.mp3", lib.Songs[0].Location[0].Path)
}

func TestSearchMatchesAllWords(t *testing.T) {
	lib := &MusicLibrary{UUID: uuid.New()}
	require.NoError(t, lib.AddSong(plainSong("Blue Train Ride")))
	require.NoError(t, lib.AddSong(plainSong("Blue Sky")))
	require.NoError(t, lib.AddSong(plainSong("Night Train")))

	res := lib.Search("blue train")
	require.Len(t, res, 1)
	title, _ := res[0].Tag(TagTitle)
	require.Equal(t, "Blue Train Ride", title)

	require.Len(t, lib.Search("train"), 2)
}

func TestExternalPlaylistSkipsMissingTracks(t *testing.T) {
	lib := &MusicLibrary{UUID: uuid.New()}
	a := plainSong("a")
	require.NoError(t, lib.AddSong(a))

	p := NewPlaylist("mixed")
	p.AddTrack(a.UUID)
	p.AddTrack(uuid.New()) // dangling reference
	lib.Playlists.Push(p)

	ext, err := lib.ExternalPlaylist(p.UUID)
	require.NoError(t, err)
	require.Len(t, ext.Tracks, 1)
	require.Equal(t, a.UUID, ext.Tracks[0].UUID)
}

func TestExternalPlaylistSortsByTags(t *testing.T) {
	lib := &MusicLibrary{UUID: uuid.New()}

	mk := func(title, artist, track string) Song {
		s := plainSong(title)
		s.SetTag(TagArtist, artist)
		s.SetTag(TagTrack, track)
		return s
	}
	// track numbers compare numerically, not lexically
	s1 := mk("x", "zeta", "2")
	s2 := mk("y", "ann", "10")
	s3 := mk("z", "ann", "9")
	for _, s := range []Song{s1, s2, s3} {
		require.NoError(t, lib.AddSong(s))
	}

	p := NewPlaylist("sorted")
	p.SortOrder = SortOrder{TagArtist, TagTrack}
	for _, s := range []Song{s1, s2, s3} {
		p.AddTrack(s.UUID)
	}
	lib.Playlists.Push(p)

	ext, err := lib.ExternalPlaylist(p.UUID)
	require.NoError(t, err)

	order := make([]uuid.UUID, 0, 3)
	for i := range ext.Tracks {
		order = append(order, ext.Tracks[i].UUID)
	}
	require.Equal(t, []uuid.UUID{s3.UUID, s2.UUID, s1.UUID}, order)
}

func TestExternalPlaylistUnknownID(t *testing.T) {
	lib := &MusicLibrary{UUID: uuid.New()}
	_, err := lib.ExternalPlaylist(uuid.New())
	require.ErrorIs(t, err, ErrPlaylistNotExists)
}

func TestPlaylistFolderRecursion(t *testing.T) {
	root := PlaylistFolder{}
	jazz := NewPlaylist("jazz")
	rock := NewPlaylist("rock")
	deep := NewPlaylist("deep cuts")

	sub := &PlaylistFolder{Name: "genres"}
	sub.Push(jazz)
	sub.Push(rock)
	nested := &PlaylistFolder{Name: "more"}
	nested.Push(deep)
	sub.PushFolder(nested)
	root.PushFolder(sub)

	require.Equal(t, deep, root.Query(deep.UUID))
	require.Nil(t, root.Query(uuid.New()))
	require.Len(t, root.ListsRecursive(), 3)

	require.True(t, root.Delete(rock.UUID))
	require.Nil(t, root.Query(rock.UUID))
	require.Len(t, root.ListsRecursive(), 2)
	require.False(t, root.Delete(rock.UUID))
}

func TestPrimaryURISkipsMissing(t *testing.T) {
	dir := t.TempDir()
	real := dir + "/exists.mp3"
	require.NoError(t, writeFile(real))

	s := Song{
		UUID: uuid.New(),
		Location: []URI{
			LocalURI(dir + "/gone.mp3"),
			LocalURI(real),
		},
	}

	u, err := s.PrimaryURI()
	require.NoError(t, err)
	require.Equal(t, real, u.Path)

	none := Song{UUID: uuid.New(), Location: []URI{LocalURI(dir + "/gone.mp3")}}
	_, err = none.PrimaryURI()
	require.ErrorIs(t, err, ErrNoURI)
}

func TestPlaylistIndex(t *testing.T) {
	p := NewPlaylist("p")
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		p.AddTrack(id)
	}

	i, ok := p.Index(ids[1])
	require.True(t, ok)
	require.Equal(t, 1, i)

	p.RemoveTrack(1)
	_, ok = p.Index(ids[1])
	require.False(t, ok)
	require.Equal(t, time.Duration(0), p.PlayTime)
}

func writeFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return f.Close()
}
