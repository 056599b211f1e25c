package connections

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dreyvitch/cadence/storage"
)

const listenBrainzAPIURL = "https://api.listenbrainz.org"

// Submitter is the scrobble surface the sink drives; ListenBrainz in
// production, a stub in tests.
type Submitter interface {
	PlayingNow(ctx context.Context, artist, title string) error
	Listen(ctx context.Context, artist, title string) error
}

// ListenBrainz submits listens to the ListenBrainz API.
type ListenBrainz struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

func NewListenBrainz(token string) *ListenBrainz {
	return &ListenBrainz{
		token:   token,
		baseURL: listenBrainzAPIURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type trackMetadata struct {
	ArtistName string `json:"artist_name"`
	TrackName  string `json:"track_name"`
}

type listen struct {
	ListenedAt    int64         `json:"listened_at,omitempty"`
	TrackMetadata trackMetadata `json:"track_metadata"`
}

type listenPayload struct {
	ListenType string   `json:"listen_type"`
	Listens    []listen `json:"payload"`
}

// PlayingNow submits a "playing now" notification.
func (c *ListenBrainz) PlayingNow(ctx context.Context, artist, title string) error {
	return c.submit(ctx, listenPayload{
		ListenType: "playing_now",
		Listens: []listen{
			{TrackMetadata: trackMetadata{ArtistName: artist, TrackName: title}},
		},
	})
}

// Listen submits a single completed listen.
func (c *ListenBrainz) Listen(ctx context.Context, artist, title string) error {
	return c.submit(ctx, listenPayload{
		ListenType: "single",
		Listens: []listen{
			{
				ListenedAt:    time.Now().Unix(),
				TrackMetadata: trackMetadata{ArtistName: artist, TrackName: title},
			},
		},
	})
}

// ValidateToken checks the configured token against the API.
func (c *ListenBrainz) ValidateToken(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/1/validate-token", nil)
	if err != nil {
		return fmt.Errorf("creating validation request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token validation failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token validation failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("parsing validation response: %w", err)
	}
	if !result.Valid {
		return fmt.Errorf("token is invalid: %s", result.Message)
	}

	return nil
}

func (c *ListenBrainz) submit(ctx context.Context, payload listenPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/1/submit-listens", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submission request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("submission failed with status: %d", resp.StatusCode)
	}

	return nil
}

// listenBrainzScrobble is the scrobble sink worker. On SongChange it
// emits a "playing now" update; on EOS it scrobbles the song that just
// finished. Songs missing artist or title are never reported.
func (c *Connections) listenBrainzScrobble(client Submitter, songs <-chan storage.Song, eos <-chan struct{}) {
	if v, ok := client.(*ListenBrainz); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := v.ValidateToken(ctx)
		cancel()
		if err != nil {
			c.log.WithError(err).Error("listenbrainz authentication failed")
			return
		}
	}

	lbActive.Store(true)
	defer lbActive.Store(false)

	submit := c.submitWithLog(client)
	retries := NewSubmitTasks(1, Ratelimit(1, time.Minute), submit)
	retries.Start()
	send := func(s Submission) {
		if err := submit(s); err != nil {
			s.attempts++
			retries.Add(s)
		}
	}

	var current *storage.Song
	for {
		select {
		case s, ok := <-songs:
			if !ok {
				return
			}
			if !s.Tracks(storage.ServiceListenBrainz) {
				continue
			}
			artist, okA := s.Tag(storage.TagArtist)
			title, okT := s.Tag(storage.TagTitle)
			if !okA || !okT {
				continue
			}
			song := s
			current = &song
			send(Submission{Artist: artist, Title: title})
		case _, ok := <-eos:
			if !ok {
				return
			}
			if current == nil {
				continue
			}
			artist, okA := current.Tag(storage.TagArtist)
			title, okT := current.Tag(storage.TagTitle)
			if !okA || !okT {
				continue
			}
			send(Submission{Listen: true, Artist: artist, Title: title})
		}
	}
}

func (c *Connections) submitWithLog(client Submitter) func(Submission) error {
	return func(s Submission) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var err error
		if s.Listen {
			err = client.Listen(ctx, s.Artist, s.Title)
		} else {
			err = client.PlayingNow(ctx, s.Artist, s.Title)
		}
		if err != nil {
			c.log.WithError(err).Warnf("scrobble failed: %s - %s", s.Artist, s.Title)
		}
		return err
	}
}
