package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"
)

// StockVideoService resolves background clips from the Pexels video API. It
// returns hosted clip URLs; downloading is the renderer's job.
type StockVideoService struct {
	apiKey     string
	httpClient *http.Client
}

// NewStockVideoService creates a new stock video service
func NewStockVideoService(apiKey string) *StockVideoService {
	return &StockVideoService{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

type pexelsVideoFile struct {
	ID       int    `json:"id"`
	Quality  string `json:"quality"` // hd, sd, uhd
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}

type pexelsVideo struct {
	ID         int               `json:"id"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Duration   int               `json:"duration"`
	VideoFiles []pexelsVideoFile `json:"video_files"`
}

// PexelsVideoResponse represents Pexels API response
type PexelsVideoResponse struct {
	Videos []pexelsVideo `json:"videos"`
}

// FindBackground searches for a portrait clip matching the keywords and at
// least minDuration seconds long, returning its URL. Picks randomly among
// matches so repeated generations vary.
func (sv *StockVideoService) FindBackground(ctx context.Context, keywords string, minDuration float64) (string, error) {
	if keywords == "" {
		keywords = "nature technology abstract" // Default fallback
	}

	baseURL := "https://api.pexels.com/videos/search"
	params := url.Values{}
	params.Add("query", keywords)
	params.Add("per_page", "10")
	params.Add("orientation", "portrait")
	params.Add("size", "medium") // Prefer HD

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", sv.apiKey)

	resp, err := sv.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pexels API returned status %d", resp.StatusCode)
	}

	var result PexelsVideoResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	// Keep only clips long enough to cover the scene.
	candidates := make([]pexelsVideo, 0, len(result.Videos))
	for _, v := range result.Videos {
		if float64(v.Duration) >= minDuration {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		candidates = result.Videos
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no videos found for keywords: %s", keywords)
	}

	video := candidates[rand.Intn(len(candidates))]

	// Find best quality (HD 1080-wide portrait preferred)
	var bestLink string
	for _, file := range video.VideoFiles {
		if file.Quality == "hd" && file.Width == 1080 {
			bestLink = file.Link
			break
		}
	}

	// Fallback if no 1080p found
	if bestLink == "" && len(video.VideoFiles) > 0 {
		bestLink = video.VideoFiles[0].Link
	}

	if bestLink == "" {
		return "", fmt.Errorf("no valid video files found")
	}

	return bestLink, nil
}
