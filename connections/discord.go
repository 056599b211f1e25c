package connections

import (
	"strconv"
	"time"

	"github.com/hugolgst/rich-go/client"

	"github.com/dreyvitch/cadence/player"
	"github.com/dreyvitch/cadence/storage"
)

const presenceInterval = 100 * time.Millisecond

// discordPresence is the rich-presence sink worker. It keeps a
// (state, song, started-at) tuple and republishes the activity payload
// on an interval, with track timestamps while playing.
func (c *Connections) discordPresence(clientID uint64, songs <-chan storage.Song, states <-chan player.State) {
	if err := client.Login(strconv.FormatUint(clientID, 10)); err != nil {
		c.log.WithError(err).Error("discord rich presence login failed")
		return
	}
	defer client.Logout()

	dcActive.Store(true)
	defer dcActive.Store(false)

	state := player.StateStopped
	var song *storage.Song
	started := time.Now()

	tick := time.NewTicker(presenceInterval)
	defer tick.Stop()

	for {
		select {
		case s, ok := <-states:
			if !ok {
				return
			}
			state = s
			continue
		case s, ok := <-songs:
			if !ok {
				return
			}
			if !s.Tracks(storage.ServiceDiscord) {
				song = nil
				continue
			}
			cur := s
			song = &cur
			started = time.Now()
			continue
		case <-tick.C:
		}

		activity := client.Activity{
			Details: "Nothing playing",
		}
		if song != nil {
			title, ok := song.Tag(storage.TagTitle)
			if !ok {
				title = "Unknown Title"
			}
			activity.Details = title
			activity.State = artistAlbumLine(song)
			activity.LargeText = state.String()

			if state == player.StatePlaying && song.Duration > 0 {
				start := started
				end := started.Add(song.Duration)
				activity.Timestamps = &client.Timestamps{
					Start: &start,
					End:   &end,
				}
			}
		}

		if err := client.SetActivity(activity); err != nil {
			c.log.WithError(err).Warn("discord activity update failed")
		}
	}
}

func artistAlbumLine(s *storage.Song) string {
	artist, _ := s.Tag(storage.TagArtist)
	album, _ := s.Tag(storage.TagAlbum)
	switch {
	case artist != "" && album != "":
		return artist + " - " + album
	case artist != "":
		return artist
	}
	return album
}
