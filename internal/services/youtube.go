// YouTube Data API v3 destination-playlist client
//
// Implements the destination capabilities: ordered playlist listing,
// best-match video search, and position-addressed insert / item-addressed
// delete. Every call is paced by a shared rate limiter and bounded by a
// per-request timeout; quota units are accounted per the v3 cost table
// (search 100, list 1, insert/delete 50).
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixsync/internal/models"
	"github.com/desertthunder/mixsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	youtubeBaseURL  = "https://www.googleapis.com/youtube/v3"
	googleTokenURL  = "https://oauth2.googleapis.com/token"
	youtubePageSize = 50

	quotaSearch = 100
	quotaList   = 1
	quotaInsert = 50
	quotaDelete = 50
)

// YouTubeService implements DestClient against the YouTube Data API v3.
type YouTubeService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	logger     *log.Logger
	quotaUsed  int
}

// NewYouTubeService creates a YouTube client authenticated with a Google
// OAuth refresh token. rateLimit is the maximum calls per second issued to
// the API; timeout bounds each individual request.
func NewYouTubeService(cfg shared.YouTubeConfig, rateLimit float64, timeout time.Duration, logger *log.Logger) (*YouTubeService, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("%w: youtube client_id, client_secret and refresh_token required", shared.ErrMissingCredentials)
	}
	if rateLimit <= 0 {
		rateLimit = 2.0
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/youtube"},
		Endpoint:     oauth2.Endpoint{TokenURL: googleTokenURL},
	}
	source := config.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})

	return &YouTubeService{
		baseURL:    youtubeBaseURL,
		httpClient: oauth2.NewClient(context.Background(), source),
		limiter:    rate.NewLimiter(rate.Limit(rateLimit), 1),
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// QuotaUsed returns the quota units consumed so far this process.
func (y *YouTubeService) QuotaUsed() int {
	return y.quotaUsed
}

type youtubeErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// doRequest issues one paced, timeout-bounded API call and decodes the
// JSON response into result when it is non-nil.
func (y *YouTubeService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}

	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, y.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody youtubeErrorBody
		data, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(data, &errBody)

		for _, e := range errBody.Error.Errors {
			if e.Reason == "quotaExceeded" || e.Reason == "dailyLimitExceeded" {
				return fmt.Errorf("%w: %s", shared.ErrQuotaExceeded, errBody.Error.Message)
			}
		}
		if errBody.Error.Message != "" {
			return fmt.Errorf("youtube API error (status %d): %s", resp.StatusCode, errBody.Error.Message)
		}
		return fmt.Errorf("youtube API error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

type playlistItemsPage struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title    string `json:"title"`
			Position int    `json:"position"`
		} `json:"snippet"`
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// PlaylistItems retrieves the full ordered contents of a playlist.
func (y *YouTubeService) PlaylistItems(ctx context.Context, playlistID string) ([]models.PlaylistItem, error) {
	var items []models.PlaylistItem
	pageToken := ""

	for {
		query := url.Values{}
		query.Set("part", "snippet,contentDetails")
		query.Set("playlistId", playlistID)
		query.Set("maxResults", strconv.Itoa(youtubePageSize))
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		var page playlistItemsPage
		if err := y.doRequest(ctx, http.MethodGet, "/playlistItems?"+query.Encode(), nil, &page); err != nil {
			return nil, err
		}
		y.quotaUsed += quotaList

		for _, item := range page.Items {
			if item.ID == "" || item.ContentDetails.VideoID == "" {
				continue
			}
			items = append(items, models.PlaylistItem{
				ItemID:   item.ID,
				VideoID:  item.ContentDetails.VideoID,
				Title:    item.Snippet.Title,
				Position: item.Snippet.Position,
			})
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	y.logger.Debug("listed playlist", "playlist", playlistID, "items", len(items))
	return items, nil
}

type searchPage struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

// SearchVideo finds the best video for a track. Returns shared.ErrNoMatch
// when the search completed but nothing acceptable was found; that result
// is cacheable. Any other error is a capability failure.
func (y *YouTubeService) SearchVideo(ctx context.Context, title, artist string) (string, error) {
	query := url.Values{}
	query.Set("part", "snippet")
	query.Set("q", fmt.Sprintf("%s %s official audio", title, artist))
	query.Set("type", "video")
	query.Set("videoCategoryId", "10")
	query.Set("maxResults", "5")

	var page searchPage
	if err := y.doRequest(ctx, http.MethodGet, "/search?"+query.Encode(), nil, &page); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrSearchFailed, err)
	}
	y.quotaUsed += quotaSearch

	if len(page.Items) == 0 {
		return "", shared.ErrNoMatch
	}

	type candidate struct {
		videoID string
		title   string
		channel string
	}
	candidates := make([]candidate, 0, len(page.Items))
	for _, item := range page.Items {
		if item.ID.VideoID == "" {
			continue
		}
		candidates = append(candidates, candidate{
			videoID: item.ID.VideoID,
			title:   item.Snippet.Title,
			channel: item.Snippet.ChannelTitle,
		})
	}
	if len(candidates) == 0 {
		return "", shared.ErrNoMatch
	}

	type scored struct {
		candidate
		score int
	}
	var ranked []scored
	for _, c := range candidates {
		if score := scoreMatch(c.title, c.channel, title, artist); score > 0 {
			ranked = append(ranked, scored{candidate: c, score: score})
		}
	}

	if len(ranked) == 0 {
		// Fall back to the first result rather than giving up; the query
		// already constrains to the music category.
		y.logger.Warn("no confident match, using first result", "title", title, "artist", artist)
		return candidates[0].videoID, nil
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	best := ranked[0]
	y.logger.Debug("best match", "score", best.score, "video", best.title)
	return best.videoID, nil
}

// scoreMatch ranks a search result against the wanted track.
//
// Bonuses: track name in title (required), artist in title or channel,
// "official"/"audio"/vevo markers. Penalties: cover, karaoke, instrumental,
// and remix/live unless the track itself carries those words.
func scoreMatch(resultTitle, channel, track, artist string) int {
	title := strings.ToLower(resultTitle)
	channel = strings.ToLower(channel)
	track = strings.ToLower(track)
	artist = strings.ToLower(artist)

	if !fuzzyContains(title, track) {
		return 0
	}
	score := 10

	if fuzzyContains(title, artist) {
		score += 10
	}
	if fuzzyContains(channel, artist) {
		score += 5
	}
	if strings.Contains(title, "official") {
		score += 3
	}
	if strings.Contains(title, "audio") {
		score += 2
	}
	if strings.Contains(channel, "vevo") {
		score += 3
	}

	if strings.Contains(title, "cover") {
		score -= 10
	}
	if strings.Contains(title, "remix") && !strings.Contains(track, "remix") {
		score -= 5
	}
	if strings.Contains(title, "live") && !strings.Contains(track, "live") {
		score -= 3
	}
	if strings.Contains(title, "karaoke") || strings.Contains(title, "instrumental") {
		score -= 10
	}

	return score
}

// fuzzyContains checks containment with tolerance for dropped words
// ("The Weeknd" vs "Weeknd"): at least 70% of needle words must appear.
func fuzzyContains(haystack, needle string) bool {
	if needle == "" || strings.Contains(haystack, needle) {
		return true
	}

	words := strings.Fields(needle)
	if len(words) <= 1 {
		return false
	}
	matches := 0
	for _, word := range words {
		if strings.Contains(haystack, word) {
			matches++
		}
	}
	return float64(matches) >= float64(len(words))*0.7
}

type insertBody struct {
	Snippet struct {
		PlaylistID string `json:"playlistId"`
		Position   int    `json:"position"`
		ResourceID struct {
			Kind    string `json:"kind"`
			VideoID string `json:"videoId"`
		} `json:"resourceId"`
	} `json:"snippet"`
}

// Insert adds a video to the playlist at the given position.
func (y *YouTubeService) Insert(ctx context.Context, playlistID, videoID string, position int) error {
	var body insertBody
	body.Snippet.PlaylistID = playlistID
	body.Snippet.Position = position
	body.Snippet.ResourceID.Kind = "youtube#video"
	body.Snippet.ResourceID.VideoID = videoID

	if err := y.doRequest(ctx, http.MethodPost, "/playlistItems?part=snippet", body, nil); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMutationFailed, err)
	}
	y.quotaUsed += quotaInsert
	return nil
}

// Remove deletes a playlist item by its item ID.
func (y *YouTubeService) Remove(ctx context.Context, itemID string) error {
	endpoint := "/playlistItems?id=" + url.QueryEscape(itemID)
	if err := y.doRequest(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMutationFailed, err)
	}
	y.quotaUsed += quotaDelete
	return nil
}
