package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/mixsync/internal/shared"
	tu "github.com/desertthunder/mixsync/internal/testing"
	"golang.org/x/time/rate"
)

// newTestYouTube builds a service pointed at the test server, with no rate
// limiting so tests run instantly.
func newTestYouTube(serverURL string) *YouTubeService {
	return &YouTubeService{
		baseURL:    serverURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		timeout:    5 * time.Second,
		logger:     shared.NewLogger(nil),
	}
}

func TestYouTubeService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewYouTubeService", func(t *testing.T) {
		t.Run("Missing Credentials", func(t *testing.T) {
			_, err := NewYouTubeService(shared.YouTubeConfig{ClientID: "id"}, 2.0, 0, nil)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Valid Credentials", func(t *testing.T) {
			svc, err := NewYouTubeService(shared.YouTubeConfig{
				ClientID: "id", ClientSecret: "secret", RefreshToken: "refresh",
			}, 0, 0, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.Name() != "YouTube" {
				t.Errorf("expected YouTube, got %s", svc.Name())
			}
		})
	})

	t.Run("PlaylistItems", func(t *testing.T) {
		t.Run("Paginates", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/playlistItems" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				page := map[string]any{
					"items": []map[string]any{{
						"id":             "item-1",
						"snippet":        map[string]any{"title": "First", "position": 0},
						"contentDetails": map[string]any{"videoId": "v1"},
					}},
				}
				if r.URL.Query().Get("pageToken") == "" {
					page["nextPageToken"] = "page2"
				} else {
					page["items"] = []map[string]any{{
						"id":             "item-2",
						"snippet":        map[string]any{"title": "Second", "position": 1},
						"contentDetails": map[string]any{"videoId": "v2"},
					}}
				}
				json.NewEncoder(w).Encode(page)
			}))
			defer server.Close()

			svc := newTestYouTube(server.URL)
			items, err := svc.PlaylistItems(ctx, "PL123")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(items) != 2 {
				t.Fatalf("expected 2 items across pages, got %d", len(items))
			}
			if items[0].VideoID != "v1" || items[1].VideoID != "v2" {
				t.Errorf("unexpected order: %s, %s", items[0].VideoID, items[1].VideoID)
			}
			if items[0].ItemID != "item-1" {
				t.Errorf("expected item-1, got %s", items[0].ItemID)
			}
			if svc.QuotaUsed() != 2*quotaList {
				t.Errorf("expected %d quota units, got %d", 2*quotaList, svc.QuotaUsed())
			}
		})

		t.Run("Unreadable Response Body", func(t *testing.T) {
			svc := newTestYouTube("http://example.invalid")
			svc.httpClient = &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
				}, nil),
			}

			if _, err := svc.PlaylistItems(ctx, "PL123"); err == nil {
				t.Error("expected a decode error for an unreadable body")
			}
		})

		t.Run("Quota Exceeded", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":{"code":403,"message":"Quota exceeded","errors":[{"reason":"quotaExceeded"}]}}`))
			}))
			defer server.Close()

			svc := newTestYouTube(server.URL)
			if _, err := svc.PlaylistItems(ctx, "PL123"); !errors.Is(err, shared.ErrQuotaExceeded) {
				t.Errorf("expected ErrQuotaExceeded, got %v", err)
			}
		})
	})

	t.Run("SearchVideo", func(t *testing.T) {
		searchServer := func(items []map[string]any) *httptest.Server {
			return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.URL.Query().Get("videoCategoryId") != "10" {
					t.Error("expected the music category filter")
				}
				json.NewEncoder(w).Encode(map[string]any{"items": items})
			}))
		}

		t.Run("Picks Best Scored Result", func(t *testing.T) {
			server := searchServer([]map[string]any{
				{
					"id":      map[string]any{"videoId": "cover1"},
					"snippet": map[string]any{"title": "Blinding Lights (Cover)", "channelTitle": "Some Guy"},
				},
				{
					"id":      map[string]any{"videoId": "official1"},
					"snippet": map[string]any{"title": "The Weeknd - Blinding Lights (Official Audio)", "channelTitle": "TheWeekndVEVO"},
				},
			})
			defer server.Close()

			svc := newTestYouTube(server.URL)
			videoID, err := svc.SearchVideo(ctx, "Blinding Lights", "The Weeknd")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if videoID != "official1" {
				t.Errorf("expected official1, got %s", videoID)
			}
			if svc.QuotaUsed() != quotaSearch {
				t.Errorf("expected %d quota units, got %d", quotaSearch, svc.QuotaUsed())
			}
		})

		t.Run("Empty Results Is No Match", func(t *testing.T) {
			server := searchServer(nil)
			defer server.Close()

			svc := newTestYouTube(server.URL)
			if _, err := svc.SearchVideo(ctx, "Nothing", "Nobody"); !errors.Is(err, shared.ErrNoMatch) {
				t.Errorf("expected ErrNoMatch, got %v", err)
			}
		})

		t.Run("Falls Back To First Result", func(t *testing.T) {
			server := searchServer([]map[string]any{
				{
					"id":      map[string]any{"videoId": "fallback1"},
					"snippet": map[string]any{"title": "Unrelated Video", "channelTitle": "Channel"},
				},
			})
			defer server.Close()

			svc := newTestYouTube(server.URL)
			videoID, err := svc.SearchVideo(ctx, "Blinding Lights", "The Weeknd")
			if err != nil {
				t.Fatalf("expected fallback, got %v", err)
			}
			if videoID != "fallback1" {
				t.Errorf("expected fallback1, got %s", videoID)
			}
		})

		t.Run("Server Error Is A Search Failure", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			svc := newTestYouTube(server.URL)
			_, err := svc.SearchVideo(ctx, "Track", "Artist")
			if !errors.Is(err, shared.ErrSearchFailed) {
				t.Errorf("expected ErrSearchFailed, got %v", err)
			}
			if errors.Is(err, shared.ErrNoMatch) {
				t.Error("a capability failure must not look like a no-match")
			}
		})
	})

	t.Run("Insert", func(t *testing.T) {
		var got insertBody
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("failed to decode body: %v", err)
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		svc := newTestYouTube(server.URL)
		if err := svc.Insert(ctx, "PL123", "v1", 3); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got.Snippet.PlaylistID != "PL123" || got.Snippet.Position != 3 {
			t.Errorf("unexpected snippet: %+v", got.Snippet)
		}
		if got.Snippet.ResourceID.VideoID != "v1" || got.Snippet.ResourceID.Kind != "youtube#video" {
			t.Errorf("unexpected resource: %+v", got.Snippet.ResourceID)
		}
		if svc.QuotaUsed() != quotaInsert {
			t.Errorf("expected %d quota units, got %d", quotaInsert, svc.QuotaUsed())
		}
	})

	t.Run("Remove", func(t *testing.T) {
		t.Run("Deletes By Item ID", func(t *testing.T) {
			var gotID string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodDelete {
					t.Errorf("expected DELETE, got %s", r.Method)
				}
				gotID = r.URL.Query().Get("id")
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			svc := newTestYouTube(server.URL)
			if err := svc.Remove(ctx, "item-42"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if gotID != "item-42" {
				t.Errorf("expected item-42, got %s", gotID)
			}
			if svc.QuotaUsed() != quotaDelete {
				t.Errorf("expected %d quota units, got %d", quotaDelete, svc.QuotaUsed())
			}
		})

		t.Run("Failure Is A Mutation Error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			svc := newTestYouTube(server.URL)
			if err := svc.Remove(ctx, "gone"); !errors.Is(err, shared.ErrMutationFailed) {
				t.Errorf("expected ErrMutationFailed, got %v", err)
			}
		})
	})
}

func TestScoreMatch(t *testing.T) {
	cases := []struct {
		name    string
		title   string
		channel string
		track   string
		artist  string
		want    int
	}{
		{"Track Missing From Title", "Some Other Song", "Channel", "Blinding Lights", "The Weeknd", 0},
		{"Track Only", "Blinding Lights", "Channel", "Blinding Lights", "The Weeknd", 10},
		{"Track And Artist In Title", "The Weeknd - Blinding Lights", "Channel", "Blinding Lights", "The Weeknd", 20},
		{"Official Audio Vevo", "The Weeknd - Blinding Lights (Official Audio)", "TheWeekndVEVO", "Blinding Lights", "The Weeknd", 33},
		{"Cover Penalty", "Blinding Lights (Cover)", "Channel", "Blinding Lights", "The Weeknd", 0},
		{"Remix Penalty", "Blinding Lights (Remix)", "Channel", "Blinding Lights", "The Weeknd", 5},
		{"Remix Wanted", "Blinding Lights Remix", "Channel", "Blinding Lights Remix", "The Weeknd", 10},
		{"Live Penalty", "Blinding Lights (Live)", "Channel", "Blinding Lights", "The Weeknd", 7},
		{"Karaoke Penalty", "Blinding Lights Karaoke", "Channel", "Blinding Lights", "The Weeknd", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := scoreMatch(tc.title, tc.channel, tc.track, tc.artist)
			if got != tc.want {
				t.Errorf("expected score %d, got %d", tc.want, got)
			}
		})
	}
}

func TestFuzzyContains(t *testing.T) {
	cases := []struct {
		name     string
		haystack string
		needle   string
		want     bool
	}{
		{"Exact Substring", "the weeknd - blinding lights", "blinding lights", true},
		{"Empty Needle", "anything", "", true},
		{"Single Word Miss", "other song", "blinding", false},
		{"Dropped Word", "weeknd blinding lights video", "the weeknd blinding lights", true},
		{"Mostly Missing", "completely different", "blinding lights forever", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := fuzzyContains(tc.haystack, tc.needle); got != tc.want {
				t.Errorf("fuzzyContains(%q, %q) = %v, want %v", tc.haystack, tc.needle, got, tc.want)
			}
		})
	}
}
