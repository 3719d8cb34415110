// Spotify source-playlist client
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/mixsync/internal/models"
	"github.com/desertthunder/mixsync/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Page size for playlist track fetches.
	spotifyPageLimit = 50

	// Refresh the cached token this long before it actually expires.
	tokenExpirySlack = 5 * time.Minute
)

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	Album   SpotifyAlbum    `json:"album"`
	IsLocal bool            `json:"is_local"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents one page of playlist tracks.
type SpotifyPaginatedTracks struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

// SpotifyService implements SourceClient against the Spotify Web API.
//
// Authentication is the OAuth2 authorization-code flow; the token is cached
// as a JSON file in the data dir and refreshed transparently with a
// 5-minute expiry slack.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	tokenFile  string
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a Spotify client from the given credentials.
// dataDir is where the cached token lives; it is created if missing.
func NewSpotifyService(cfg shared.SpotifyConfig, dataDir string) (*SpotifyService, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret required", shared.ErrMissingCredentials)
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	svc := &SpotifyService{
		config:     config,
		baseURL:    spotifyBaseURL,
		httpClient: http.DefaultClient,
	}

	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
		svc.tokenFile = filepath.Join(dataDir, "spotify_token.json")
		svc.loadToken()
	}

	return svc, nil
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Config exposes the OAuth2 configuration for the callback server.
func (s *SpotifyService) Config() *oauth2.Config {
	return s.config
}

// AuthURL returns the authorization URL to open in a browser.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and caches it.
func (s *SpotifyService) Exchange(ctx context.Context, code string) error {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return s.SetToken(token)
}

// SetToken stores the token and writes it to the token cache file.
func (s *SpotifyService) SetToken(token *oauth2.Token) error {
	s.token = token
	return s.saveToken()
}

// Authenticated reports whether a usable (possibly refreshable) token is present.
func (s *SpotifyService) Authenticated() bool {
	return s.token != nil && (s.token.RefreshToken != "" || s.token.Valid())
}

// loadToken restores a cached token. A missing or unreadable cache is not
// an error; the user just has to authenticate again.
func (s *SpotifyService) loadToken() {
	if s.tokenFile == "" {
		return
	}
	data, err := os.ReadFile(s.tokenFile)
	if err != nil {
		return
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return
	}
	s.token = &token
}

func (s *SpotifyService) saveToken() error {
	if s.tokenFile == "" || s.token == nil {
		return nil
	}
	data, err := json.Marshal(s.token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(s.tokenFile, data, 0600); err != nil {
		return fmt.Errorf("failed to cache token: %w", err)
	}
	return nil
}

// freshToken returns a valid token, refreshing and re-caching it when it is
// within the expiry slack.
func (s *SpotifyService) freshToken(ctx context.Context) (*oauth2.Token, error) {
	if s.token == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if s.token.Expiry.IsZero() || time.Until(s.token.Expiry) > tokenExpirySlack {
		return s.token, nil
	}

	token, err := s.config.TokenSource(ctx, s.token).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	if token.AccessToken != s.token.AccessToken {
		s.token = token
		if err := s.saveToken(); err != nil {
			return nil, err
		}
	}
	return token, nil
}

func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	token, err := s.freshToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return shared.ErrTokenExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// PlaylistTracks retrieves the full ordered track list of a playlist,
// paginating until the API reports no further page.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	var tracks []models.Track
	offset := 0

	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(spotifyPageLimit))
		query.Set("offset", strconv.Itoa(offset))
		query.Set("fields", "items(added_at,track(id,name,is_local,artists(id,name),album(id,name))),total,limit,offset,next")

		var page SpotifyPaginatedTracks
		endpoint := fmt.Sprintf("/playlists/%s/tracks?%s", playlistID, query.Encode())
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			t := item.Track
			if t.ID == "" || t.IsLocal {
				continue
			}
			artist := ""
			if len(t.Artists) > 0 {
				artist = t.Artists[0].Name
			}
			tracks = append(tracks, models.Track{
				ID:     t.ID,
				Title:  t.Name,
				Artist: artist,
				Album:  t.Album.Name,
			})
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += spotifyPageLimit
	}

	return tracks, nil
}
