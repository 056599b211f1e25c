package storage

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/frizinak/binary"
	"github.com/google/uuid"
)

const (
	storeMagic   = "cadence-db"
	storeVersion = 1

	folderMarker = "folder"
	listMarker   = "list"
)

// TempFile returns the temp path used for atomic writes next to path.
func TempFile(path string) string { return path + ".tmp" }

// Save writes the library to path atomically: the full document goes to
// a temp file first, which is renamed over the destination.
func (l *MusicLibrary) Save(path string) error {
	os.MkdirAll(filepath.Dir(path), 0o755)
	tmp := TempFile(path)
	db, err := os.Create(tmp)
	if err != nil {
		return err
	}

	do := func() error {
		writer, err := gzip.NewWriterLevel(db, gzip.BestSpeed)
		if err != nil {
			return err
		}
		defer writer.Close()

		enc := binary.NewWriter(writer)
		enc.WriteString(storeMagic, 8)
		enc.WriteUint32(storeVersion)
		enc.WriteString(l.UUID.String(), 8)
		enc.WriteString(l.Name, 16)

		enc.WriteUint64(uint64(len(l.Songs)))
		for i := range l.Songs {
			writeSong(enc, &l.Songs[i])
		}

		writeFolder(enc, &l.Playlists)
		return enc.Err()
	}

	if err := do(); err != nil {
		db.Close()
		os.Remove(tmp)
		return err
	}

	if err := db.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads the library from path. A missing file leaves the library
// empty and is not an error.
func (l *MusicLibrary) Load(path string) error {
	db, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer db.Close()

	reader, err := gzip.NewReader(db)
	if err != nil {
		return err
	}
	defer reader.Close()

	dec := binary.NewReader(reader)
	if magic := dec.ReadString(8); magic != storeMagic {
		return fmt.Errorf("not a library file: bad magic %q", magic)
	}
	if v := dec.ReadUint32(); v != storeVersion {
		return fmt.Errorf("unsupported library version %d", v)
	}

	id, err := uuid.Parse(dec.ReadString(8))
	if err != nil {
		return err
	}
	l.UUID = id
	l.Name = dec.ReadString(16)

	nsongs := dec.ReadUint64()
	l.Songs = make([]Song, 0, nsongs)
	for i := uint64(0); i < nsongs; i++ {
		s, err := readSong(dec)
		if err != nil {
			return err
		}
		l.Songs = append(l.Songs, s)
	}

	root, err := readFolder(dec)
	if err != nil {
		return err
	}
	l.Playlists = *root

	if err := dec.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func writeURI(enc *binary.Writer, u URI) {
	enc.WriteUint32(uint32(u.Kind))
	enc.WriteString(u.Path, 16)
	enc.WriteUint32(uint32(u.Index))
	enc.WriteUint64(uint64(u.Start / time.Millisecond))
	enc.WriteUint64(uint64(u.End / time.Millisecond))
}

func readURI(dec *binary.Reader) URI {
	u := URI{}
	u.Kind = URIKind(dec.ReadUint32())
	u.Path = dec.ReadString(16)
	u.Index = int(dec.ReadUint32())
	u.Start = time.Duration(dec.ReadUint64()) * time.Millisecond
	u.End = time.Duration(dec.ReadUint64()) * time.Millisecond
	return u
}

func writeArt(enc *binary.Writer, a AlbumArt) {
	enc.WriteUint32(uint32(a.Kind))
	enc.WriteUint32(uint32(a.Index))
	writeURI(enc, a.Location)
}

func readArt(dec *binary.Reader) AlbumArt {
	a := AlbumArt{}
	a.Kind = ArtKind(dec.ReadUint32())
	a.Index = int(dec.ReadUint32())
	a.Location = readURI(dec)
	return a
}

func writeStamp(enc *binary.Writer, t *time.Time) {
	if t == nil {
		enc.WriteUint64(0)
		return
	}
	enc.WriteUint64(uint64(t.UnixMilli()))
}

func readStamp(dec *binary.Reader) *time.Time {
	ms := dec.ReadUint64()
	if ms == 0 {
		return nil
	}
	t := time.UnixMilli(int64(ms)).UTC()
	return &t
}

func writeSong(enc *binary.Writer, s *Song) {
	enc.WriteString(s.UUID.String(), 8)

	enc.WriteUint32(uint32(len(s.Location)))
	for _, u := range s.Location {
		writeURI(enc, u)
	}

	enc.WriteUint32(uint32(s.Plays))
	enc.WriteUint32(uint32(s.Skips))
	enc.WriteUint32(boolWord(s.Favorite))
	enc.WriteUint32(uint32(s.Banned))
	if s.Rating == nil {
		enc.WriteUint32(0)
	} else {
		enc.WriteUint32(uint32(*s.Rating) + 1)
	}
	enc.WriteString(s.Format, 16)
	enc.WriteUint64(uint64(s.Duration / time.Millisecond))
	enc.WriteUint64(uint64(s.PlayTime / time.Millisecond))
	writeStamp(enc, s.LastPlayed)
	writeStamp(enc, s.DateAdded)
	writeStamp(enc, s.DateModified)

	enc.WriteUint32(uint32(len(s.AlbumArt)))
	for _, a := range s.AlbumArt {
		writeArt(enc, a)
	}

	// tags sorted by key so repeated saves are byte identical
	keys := make([]string, 0, len(s.Tags))
	for k := range s.Tags {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	enc.WriteUint32(uint32(len(keys)))
	for _, k := range keys {
		enc.WriteString(k, 16)
		enc.WriteString(s.Tags[Tag(k)], 16)
	}

	enc.WriteUint32(uint32(len(s.DoNotTrack)))
	for _, svc := range s.DoNotTrack {
		enc.WriteString(string(svc), 8)
	}
	enc.WriteString(string(s.Type), 8)
	enc.WriteUint32(uint32(len(s.Links)))
	for _, link := range s.Links {
		enc.WriteString(link.UUID.String(), 8)
		enc.WriteString(string(link.Kind), 8)
	}
	enc.WriteUint32(uint32(s.VolumeAdjust + 128))
}

func readSong(dec *binary.Reader) (Song, error) {
	s := Song{}
	id, err := uuid.Parse(dec.ReadString(8))
	if err != nil {
		return s, err
	}
	s.UUID = id

	nloc := dec.ReadUint32()
	s.Location = make([]URI, 0, nloc)
	for i := uint32(0); i < nloc; i++ {
		s.Location = append(s.Location, readURI(dec))
	}

	s.Plays = int(dec.ReadUint32())
	s.Skips = int(dec.ReadUint32())
	s.Favorite = dec.ReadUint32() != 0
	s.Banned = BannedKind(dec.ReadUint32())
	if r := dec.ReadUint32(); r != 0 {
		v := uint8(r - 1)
		s.Rating = &v
	}
	s.Format = dec.ReadString(16)
	s.Duration = time.Duration(dec.ReadUint64()) * time.Millisecond
	s.PlayTime = time.Duration(dec.ReadUint64()) * time.Millisecond
	s.LastPlayed = readStamp(dec)
	s.DateAdded = readStamp(dec)
	s.DateModified = readStamp(dec)

	nart := dec.ReadUint32()
	s.AlbumArt = make([]AlbumArt, 0, nart)
	for i := uint32(0); i < nart; i++ {
		s.AlbumArt = append(s.AlbumArt, readArt(dec))
	}

	ntags := dec.ReadUint32()
	if ntags > 0 {
		s.Tags = make(map[Tag]string, ntags)
	}
	for i := uint32(0); i < ntags; i++ {
		k := dec.ReadString(16)
		s.Tags[Tag(k)] = dec.ReadString(16)
	}

	ndnt := dec.ReadUint32()
	s.DoNotTrack = make([]Service, 0, ndnt)
	for i := uint32(0); i < ndnt; i++ {
		s.DoNotTrack = append(s.DoNotTrack, Service(dec.ReadString(8)))
	}
	s.Type = SongType(dec.ReadString(8))
	nlinks := dec.ReadUint32()
	s.Links = make([]SongLink, 0, nlinks)
	for i := uint32(0); i < nlinks; i++ {
		lid, err := uuid.Parse(dec.ReadString(8))
		if err != nil {
			return s, err
		}
		s.Links = append(s.Links, SongLink{UUID: lid, Kind: SongType(dec.ReadString(8))})
	}
	s.VolumeAdjust = int(dec.ReadUint32()) - 128

	if len(s.Location) == 0 {
		s.Location = nil
	}
	if len(s.AlbumArt) == 0 {
		s.AlbumArt = nil
	}
	if len(s.DoNotTrack) == 0 {
		s.DoNotTrack = nil
	}
	if len(s.Links) == 0 {
		s.Links = nil
	}

	return s, dec.Err()
}

func writeFolder(enc *binary.Writer, f *PlaylistFolder) {
	enc.WriteString(folderMarker, 8)
	enc.WriteString(f.Name, 16)
	enc.WriteUint32(uint32(len(f.Items)))
	for i := range f.Items {
		it := &f.Items[i]
		if it.Folder != nil {
			writeFolder(enc, it.Folder)
			continue
		}
		enc.WriteString(listMarker, 8)
		writeList(enc, it.List)
	}
}

func readFolder(dec *binary.Reader) (*PlaylistFolder, error) {
	if m := dec.ReadString(8); m != folderMarker {
		return nil, fmt.Errorf("bad folder marker %q", m)
	}
	return readFolderBody(dec)
}

func readFolderBody(dec *binary.Reader) (*PlaylistFolder, error) {
	f := &PlaylistFolder{}
	f.Name = dec.ReadString(16)
	n := dec.ReadUint32()
	for i := uint32(0); i < n; i++ {
		switch m := dec.ReadString(8); m {
		case folderMarker:
			sub, err := readFolderBody(dec)
			if err != nil {
				return nil, err
			}
			f.Items = append(f.Items, FolderItem{Folder: sub})
		case listMarker:
			p, err := readList(dec)
			if err != nil {
				return nil, err
			}
			f.Items = append(f.Items, FolderItem{List: p})
		default:
			return nil, fmt.Errorf("bad folder item marker %q", m)
		}
	}
	return f, dec.Err()
}

func writeList(enc *binary.Writer, p *Playlist) {
	enc.WriteString(p.UUID.String(), 8)
	enc.WriteString(p.Title, 16)
	if p.Cover == nil {
		enc.WriteUint32(0)
	} else {
		enc.WriteUint32(1)
		writeArt(enc, *p.Cover)
	}
	enc.WriteUint32(uint32(len(p.Tracks)))
	for _, id := range p.Tracks {
		enc.WriteString(id.String(), 8)
	}
	enc.WriteUint32(uint32(len(p.SortOrder)))
	for _, t := range p.SortOrder {
		enc.WriteString(string(t), 16)
	}
	enc.WriteUint32(uint32(p.PlayCount))
	enc.WriteUint64(uint64(p.PlayTime / time.Millisecond))
}

func readList(dec *binary.Reader) (*Playlist, error) {
	p := &Playlist{}
	id, err := uuid.Parse(dec.ReadString(8))
	if err != nil {
		return nil, err
	}
	p.UUID = id
	p.Title = dec.ReadString(16)
	if dec.ReadUint32() != 0 {
		a := readArt(dec)
		p.Cover = &a
	}
	ntracks := dec.ReadUint32()
	for i := uint32(0); i < ntracks; i++ {
		tid, err := uuid.Parse(dec.ReadString(8))
		if err != nil {
			return nil, err
		}
		p.Tracks = append(p.Tracks, tid)
	}
	nsort := dec.ReadUint32()
	for i := uint32(0); i < nsort; i++ {
		p.SortOrder = append(p.SortOrder, Tag(dec.ReadString(16)))
	}
	p.PlayCount = int(dec.ReadUint32())
	p.PlayTime = time.Duration(dec.ReadUint64()) * time.Millisecond
	return p, dec.Err()
}

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
