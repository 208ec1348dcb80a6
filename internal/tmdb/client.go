package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client is the TMDB API client.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new TMDB API client.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ---- TMDB Response Types ----

// TrendingResponse is the TMDB trending feed response.
type TrendingResponse struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Movie is a catalog entry from TMDB list endpoints.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	GenreIDs    []int   `json:"genre_ids"`
	VoteAverage float64 `json:"vote_average"`
	Popularity  float64 `json:"popularity"`
	PosterPath  string  `json:"poster_path"`
	Overview    string  `json:"overview"`
}

// MovieDetail is the detailed movie info from TMDB.
type MovieDetail struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Genres      []Genre `json:"genres"`
	VoteAverage float64 `json:"vote_average"`
	Popularity  float64 `json:"popularity"`
	PosterPath  string  `json:"poster_path"`
	Runtime     int     `json:"runtime"`
}

// Genre is a genre from TMDB.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CastMember is a cast credit, ordered by billing.
type CastMember struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// CrewMember is a crew credit.
type CrewMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Credits is the TMDB movie credits response.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// ---- Client Methods ----

// GetTrending fetches one page of the trending feed for the given media
// type ("movie" or "tv") and time window ("day" or "week").
func (c *Client) GetTrending(ctx context.Context, mediaType, window string, page int) (*TrendingResponse, error) {
	url := fmt.Sprintf(
		"%s/trending/%s/%s?api_key=%s&page=%d",
		c.baseURL, mediaType, window, c.apiKey, page,
	)

	slog.Debug("fetching TMDB trending", "media_type", mediaType, "window", window, "page", page)
	resp, err := c.doGet(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result TrendingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode trending response: %w", err)
	}
	return &result, nil
}

// GetMovieDetail fetches detailed movie info from TMDB.
func (c *Client) GetMovieDetail(ctx context.Context, tmdbID int) (*MovieDetail, error) {
	url := fmt.Sprintf(
		"%s/movie/%d?api_key=%s",
		c.baseURL, tmdbID, c.apiKey,
	)

	slog.Debug("fetching TMDB movie detail", "tmdb_id", tmdbID)
	resp, err := c.doGet(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result MovieDetail
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode movie detail response: %w", err)
	}
	return &result, nil
}

// GetMovieCredits fetches cast and crew for a movie from TMDB.
func (c *Client) GetMovieCredits(ctx context.Context, tmdbID int) (*Credits, error) {
	url := fmt.Sprintf(
		"%s/movie/%d/credits?api_key=%s",
		c.baseURL, tmdbID, c.apiKey,
	)

	slog.Debug("fetching TMDB movie credits", "tmdb_id", tmdbID)
	resp, err := c.doGet(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result Credits
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode credits response: %w", err)
	}
	return &result, nil
}

func (c *Client) doGet(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("TMDB API returned status %d: %s", resp.StatusCode, string(body))
	}
	return resp, nil
}
