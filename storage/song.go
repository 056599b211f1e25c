// Package storage holds the music library data model and its on-disk
// representation: songs, playlists, the playlist folder tree and the
// binary library store.
package storage

import (
	"errors"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
)

var ErrNoURI = errors.New("song has no location that exists")

// Tag is a metadata key on a song. Custom keys are any other string.
type Tag string

const (
	TagTitle       Tag = "TrackTitle"
	TagAlbum       Tag = "AlbumTitle"
	TagArtist      Tag = "TrackArtist"
	TagAlbumArtist Tag = "AlbumArtist"
	TagGenre       Tag = "Genre"
	TagComment     Tag = "Comment"
	TagTrack       Tag = "TrackNumber"
	TagDisk        Tag = "DiscNumber"
)

// URIKind discriminates the location variants of a song.
type URIKind uint8

const (
	URILocal URIKind = iota
	URICue
	URIRemote
)

// URI is a single location a song can be played from: a local file, a
// slice of a cue sheet, or a remote resource.
type URI struct {
	Kind  URIKind
	Path  string
	Index int
	Start time.Duration
	End   time.Duration
}

func LocalURI(path string) URI { return URI{Kind: URILocal, Path: path} }

func CueURI(path string, index int, start, end time.Duration) URI {
	return URI{Kind: URICue, Path: path, Index: index, Start: start, End: end}
}

func RemoteURI(uri string) URI { return URI{Kind: URIRemote, Path: uri} }

// Exists reports whether the backing resource is currently reachable.
// Remote locations are assumed reachable.
func (u URI) Exists() bool {
	if u.Kind == URIRemote {
		return true
	}
	_, err := os.Stat(u.Path)
	return err == nil
}

// AsURI renders the location in a form a playback backend accepts.
func (u URI) AsURI() string {
	if u.Kind == URIRemote {
		return u.Path
	}
	f := url.URL{Scheme: "file", Path: u.Path}
	return f.String()
}

func (u URI) String() string { return u.Path }

// ArtKind discriminates album art references.
type ArtKind uint8

const (
	ArtEmbedded ArtKind = iota
	ArtExternal
)

// AlbumArt points at cover art, either embedded in the audio file by
// index or stored externally.
type AlbumArt struct {
	Kind     ArtKind
	Index    int
	Location URI
}

func EmbeddedArt(i int) AlbumArt    { return AlbumArt{Kind: ArtEmbedded, Index: i} }
func ExternalArt(u URI) AlbumArt    { return AlbumArt{Kind: ArtExternal, Location: u} }
func (a AlbumArt) URI() (URI, bool) { return a.Location, a.Kind == ArtExternal }

// BannedKind marks a song as excluded from shuffle or from playback
// entirely.
type BannedKind uint8

const (
	BannedNone BannedKind = iota
	BannedShuffle
	BannedAll
)

// Service identifies an external sink a song can opt out of.
type Service string

const (
	ServiceLastFM       Service = "lastfm"
	ServiceLibreFM      Service = "librefm"
	ServiceMusicBrainz  Service = "musicbrainz"
	ServiceDiscord      Service = "discord"
	ServiceListenBrainz Service = "listenbrainz"
)

// SongType distinguishes alternate renditions linked to a main track.
type SongType string

const (
	SongTypeMain         SongType = "main"
	SongTypeInstrumental SongType = "instrumental"
	SongTypeRemix        SongType = "remix"
)

// SongLink ties a song to a related rendition.
type SongLink struct {
	UUID uuid.UUID
	Kind SongType
}

// Song is a single library entry. Immutable after ingest apart from its
// counters and user-set flags.
type Song struct {
	Location []URI
	UUID     uuid.UUID
	Plays    int
	Skips    int
	Favorite bool
	Banned   BannedKind
	Rating   *uint8
	Format   string
	Duration time.Duration
	PlayTime time.Duration

	LastPlayed   *time.Time
	DateAdded    *time.Time
	DateModified *time.Time

	AlbumArt []AlbumArt
	Tags     map[Tag]string

	DoNotTrack   []Service
	Type         SongType
	Links        []SongLink
	VolumeAdjust int
}

// Tag returns the value for the given key.
func (s *Song) Tag(k Tag) (string, bool) {
	v, ok := s.Tags[k]
	return v, ok
}

func (s *Song) SetTag(k Tag, v string) {
	if s.Tags == nil {
		s.Tags = make(map[Tag]string)
	}
	s.Tags[k] = v
}

func (s *Song) RemoveTag(k Tag) { delete(s.Tags, k) }

// PrimaryURI returns the first location whose backing resource exists.
func (s *Song) PrimaryURI() (URI, error) {
	for _, u := range s.Location {
		if u.Exists() {
			return u, nil
		}
	}
	return URI{}, ErrNoURI
}

// Tracks reports whether the song allows reporting to the given service.
func (s *Song) Tracks(service Service) bool {
	for _, dnt := range s.DoNotTrack {
		if dnt == service {
			return false
		}
	}
	return true
}

// Clone returns a deep copy. Loop boundaries hand out clones only.
func (s *Song) Clone() Song {
	n := *s
	n.Location = append([]URI(nil), s.Location...)
	n.AlbumArt = append([]AlbumArt(nil), s.AlbumArt...)
	n.DoNotTrack = append([]Service(nil), s.DoNotTrack...)
	n.Links = append([]SongLink(nil), s.Links...)
	if s.Tags != nil {
		n.Tags = make(map[Tag]string, len(s.Tags))
		for k, v := range s.Tags {
			n.Tags[k] = v
		}
	}
	if s.Rating != nil {
		r := *s.Rating
		n.Rating = &r
	}
	n.LastPlayed = cloneTime(s.LastPlayed)
	n.DateAdded = cloneTime(s.DateAdded)
	n.DateModified = cloneTime(s.DateModified)
	return n
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := *t
	return &n
}
