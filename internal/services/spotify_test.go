package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mixsync/internal/shared"
	tu "github.com/desertthunder/mixsync/internal/testing"
	"golang.org/x/oauth2"
)

func validSpotifyConfig() shared.SpotifyConfig {
	return shared.SpotifyConfig{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
	}
}

func freshSpotifyToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			svc, err := NewSpotifyService(validSpotifyConfig(), "")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", svc.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(shared.SpotifyConfig{ClientSecret: "secret"}, "")
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			svc, err := NewSpotifyService(validSpotifyConfig(), "")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.config.RedirectURL != "http://localhost:3000/callback" {
				t.Errorf("expected default redirect URI, got %s", svc.config.RedirectURL)
			}
		})

		t.Run("Loads Cached Token", func(t *testing.T) {
			dataDir := t.TempDir()
			data, _ := json.Marshal(freshSpotifyToken())
			if err := os.WriteFile(filepath.Join(dataDir, "spotify_token.json"), data, 0600); err != nil {
				t.Fatalf("failed to seed token: %v", err)
			}

			svc, err := NewSpotifyService(validSpotifyConfig(), dataDir)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !svc.Authenticated() {
				t.Error("expected cached token to authenticate the service")
			}
		})
	})

	t.Run("AuthURL", func(t *testing.T) {
		svc, err := NewSpotifyService(validSpotifyConfig(), "")
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := svc.AuthURL("test_state")
		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Errorf("expected Spotify authorize endpoint, got %s", authURL)
		}
		if !strings.Contains(authURL, "state=test_state") {
			t.Errorf("expected state parameter, got %s", authURL)
		}
		if !strings.Contains(authURL, "playlist-read-private") {
			t.Errorf("expected playlist read scope, got %s", authURL)
		}
	})

	t.Run("Authenticated", func(t *testing.T) {
		svc, _ := NewSpotifyService(validSpotifyConfig(), "")

		if svc.Authenticated() {
			t.Error("expected unauthenticated without a token")
		}

		svc.token = &oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(-time.Hour)}
		if svc.Authenticated() {
			t.Error("an expired token with no refresh token is unusable")
		}

		svc.token = &oauth2.Token{RefreshToken: "r", Expiry: time.Now().Add(-time.Hour)}
		if !svc.Authenticated() {
			t.Error("a refresh token keeps the service usable")
		}
	})

	t.Run("SetToken Caches To Disk", func(t *testing.T) {
		dataDir := t.TempDir()
		svc, err := NewSpotifyService(validSpotifyConfig(), dataDir)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		if err := svc.SetToken(freshSpotifyToken()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dataDir, "spotify_token.json"))
		data, err := os.ReadFile(filepath.Join(dataDir, "spotify_token.json"))
		if err != nil {
			t.Fatalf("expected token cache file: %v", err)
		}
		var cached oauth2.Token
		if err := json.Unmarshal(data, &cached); err != nil {
			t.Fatalf("cached token must be valid JSON: %v", err)
		}
		if cached.AccessToken != "access" {
			t.Errorf("expected access token to round trip, got %s", cached.AccessToken)
		}
	})

	t.Run("PlaylistTracks", func(t *testing.T) {
		t.Run("Paginates And Filters", func(t *testing.T) {
			requests := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests++
				if !strings.HasPrefix(r.URL.Path, "/playlists/PL1/tracks") {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.Header.Get("Authorization") == "" {
					t.Error("expected bearer token header")
				}

				var page map[string]any
				if r.URL.Query().Get("offset") == "0" {
					page = map[string]any{
						"items": []map[string]any{
							{"track": map[string]any{
								"id": "t1", "name": "One", "is_local": false,
								"artists": []map[string]any{{"id": "a1", "name": "Artist A"}},
								"album":   map[string]any{"id": "al1", "name": "Album"},
							}},
							{"track": map[string]any{
								"id": "local1", "name": "Local File", "is_local": true,
								"artists": []map[string]any{{"id": "a2", "name": "B"}},
								"album":   map[string]any{"id": "al2", "name": "X"},
							}},
							{"track": map[string]any{
								"id": "", "name": "Unavailable",
							}},
						},
						"next": "more",
					}
				} else {
					page = map[string]any{
						"items": []map[string]any{
							{"track": map[string]any{
								"id": "t2", "name": "Two", "is_local": false,
								"artists": []map[string]any{{"id": "a3", "name": "Artist C"}},
								"album":   map[string]any{"id": "al3", "name": "Album"},
							}},
						},
					}
				}
				json.NewEncoder(w).Encode(page)
			}))
			defer server.Close()

			svc, _ := NewSpotifyService(validSpotifyConfig(), "")
			svc.baseURL = server.URL
			svc.token = freshSpotifyToken()

			tracks, err := svc.PlaylistTracks(ctx, "PL1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if requests != 2 {
				t.Errorf("expected 2 page fetches, got %d", requests)
			}
			if len(tracks) != 2 {
				t.Fatalf("expected local and empty-ID tracks filtered, got %d tracks", len(tracks))
			}
			if tracks[0].ID != "t1" || tracks[1].ID != "t2" {
				t.Errorf("expected source order t1, t2, got %s, %s", tracks[0].ID, tracks[1].ID)
			}
			if tracks[0].Artist != "Artist A" {
				t.Errorf("expected primary artist, got %s", tracks[0].Artist)
			}
		})

		t.Run("Unauthorized Means Token Expired", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			svc, _ := NewSpotifyService(validSpotifyConfig(), "")
			svc.baseURL = server.URL
			svc.token = freshSpotifyToken()

			if _, err := svc.PlaylistTracks(ctx, "PL1"); !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			svc, _ := NewSpotifyService(validSpotifyConfig(), "")
			svc.token = freshSpotifyToken()
			svc.httpClient = &http.Client{
				Transport: tu.NewMockRoundTripper(nil, errors.New("connection reset")),
			}

			if _, err := svc.PlaylistTracks(ctx, "PL1"); err == nil {
				t.Error("expected a transport error to surface")
			}
		})

		t.Run("Not Authenticated", func(t *testing.T) {
			svc, _ := NewSpotifyService(validSpotifyConfig(), "")
			if _, err := svc.PlaylistTracks(ctx, "PL1"); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})
}
