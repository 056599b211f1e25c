package storage

import (
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// SortOrder is the ordered list of tag keys a playlist sorts by. A nil
// or empty order means manual ordering.
type SortOrder []Tag

func (o SortOrder) Manual() bool { return len(o) == 0 }

// Playlist references library songs by id.
type Playlist struct {
	UUID      uuid.UUID
	Title     string
	Cover     *AlbumArt
	Tracks    []uuid.UUID
	SortOrder SortOrder
	PlayCount int
	PlayTime  time.Duration
}

func NewPlaylist(title string) *Playlist {
	return &Playlist{UUID: uuid.New(), Title: title}
}

func (p *Playlist) AddTrack(id uuid.UUID) { p.Tracks = append(p.Tracks, id) }

func (p *Playlist) RemoveTrack(i int) {
	if i < 0 || i >= len(p.Tracks) {
		return
	}
	p.Tracks = append(p.Tracks[:i], p.Tracks[i+1:]...)
}

// Index returns the position of the given id.
func (p *Playlist) Index(id uuid.UUID) (int, bool) {
	for i, t := range p.Tracks {
		if t == id {
			return i, true
		}
	}
	return 0, false
}

func (p *Playlist) Contains(id uuid.UUID) bool {
	_, ok := p.Index(id)
	return ok
}

func (p *Playlist) clone() *Playlist {
	n := *p
	n.Tracks = append([]uuid.UUID(nil), p.Tracks...)
	n.SortOrder = append(SortOrder(nil), p.SortOrder...)
	if p.Cover != nil {
		c := *p.Cover
		n.Cover = &c
	}
	return &n
}

// PlaylistFolder is a named tree of folders and playlists.
type PlaylistFolder struct {
	Name  string
	Items []FolderItem
}

// FolderItem is either a sub-folder or a playlist, never both.
type FolderItem struct {
	Folder *PlaylistFolder
	List   *Playlist
}

// Query finds a playlist by id anywhere in the tree.
func (f *PlaylistFolder) Query(id uuid.UUID) *Playlist {
	for i := range f.Items {
		it := &f.Items[i]
		if it.Folder != nil {
			if p := it.Folder.Query(id); p != nil {
				return p
			}
			continue
		}
		if it.List != nil && it.List.UUID == id {
			return it.List
		}
	}
	return nil
}

// ListsRecursive returns every playlist in the tree, depth first.
func (f *PlaylistFolder) ListsRecursive() []*Playlist {
	l := make([]*Playlist, 0)
	for i := range f.Items {
		it := &f.Items[i]
		if it.Folder != nil {
			l = append(l, it.Folder.ListsRecursive()...)
			continue
		}
		if it.List != nil {
			l = append(l, it.List)
		}
	}
	return l
}

// Push adds a playlist to this folder.
func (f *PlaylistFolder) Push(p *Playlist) {
	f.Items = append(f.Items, FolderItem{List: p})
}

// PushFolder adds a sub-folder.
func (f *PlaylistFolder) PushFolder(sub *PlaylistFolder) {
	f.Items = append(f.Items, FolderItem{Folder: sub})
}

// Delete removes the playlist with the given id from anywhere in the
// tree and reports whether it was found. Folders carry no id and are
// never removed.
func (f *PlaylistFolder) Delete(id uuid.UUID) bool {
	for i := range f.Items {
		it := &f.Items[i]
		if it.Folder != nil {
			if it.Folder.Delete(id) {
				return true
			}
			continue
		}
		if it.List != nil && it.List.UUID == id {
			f.Items = append(f.Items[:i], f.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (f *PlaylistFolder) clone() PlaylistFolder {
	n := PlaylistFolder{Name: f.Name, Items: make([]FolderItem, 0, len(f.Items))}
	for i := range f.Items {
		it := &f.Items[i]
		if it.Folder != nil {
			sub := it.Folder.clone()
			n.Items = append(n.Items, FolderItem{Folder: &sub})
			continue
		}
		if it.List != nil {
			n.Items = append(n.Items, FolderItem{List: it.List.clone()})
		}
	}
	return n
}

// ExternalPlaylist is a denormalized snapshot of a playlist with its
// tracks inlined, for callers that cannot follow references into the
// library. Ids that no longer resolve are silently skipped.
type ExternalPlaylist struct {
	UUID      uuid.UUID
	Title     string
	Tracks    []Song
	SortOrder SortOrder
	PlayCount int
	PlayTime  time.Duration
}

func newExternalPlaylist(p *Playlist, lib *MusicLibrary) ExternalPlaylist {
	tracks := make([]Song, 0, len(p.Tracks))
	for _, id := range p.Tracks {
		if s, _, ok := lib.queryUUID(id); ok {
			tracks = append(tracks, s.Clone())
		}
	}

	if !p.SortOrder.Manual() {
		sortSongs(tracks, p.SortOrder)
	}

	return ExternalPlaylist{
		UUID:      p.UUID,
		Title:     p.Title,
		Tracks:    tracks,
		SortOrder: append(SortOrder(nil), p.SortOrder...),
		PlayCount: p.PlayCount,
		PlayTime:  p.PlayTime,
	}
}

// Index returns the position of the given song id.
func (p *ExternalPlaylist) Index(id uuid.UUID) (int, bool) {
	for i := range p.Tracks {
		if p.Tracks[i].UUID == id {
			return i, true
		}
	}
	return 0, false
}

func (p *ExternalPlaylist) Contains(id uuid.UUID) bool {
	_, ok := p.Index(id)
	return ok
}

// sortSongs orders songs by the given tag keys, comparing numerically
// when both values parse as integers.
func sortSongs(songs []Song, order SortOrder) {
	sort.SliceStable(songs, func(i, j int) bool {
		a, b := &songs[i], &songs[j]
		for _, key := range order {
			va, oka := a.Tag(key)
			vb, okb := b.Tag(key)
			if !oka || !okb {
				continue
			}
			if va == vb {
				continue
			}
			na, erra := strconv.Atoi(va)
			nb, errb := strconv.Atoi(vb)
			if erra == nil && errb == nil {
				return na < nb
			}
			return va < vb
		}
		return false
	})
}
