package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"viralengine/utils"
)

// TTSProvider identifies a hosted text-to-speech vendor. The set is closed:
// adding a vendor means adding a constant and a request builder to
// ttsRequestBuilders, which NewAudioService checks at construction.
type TTSProvider string

const (
	ProviderElevenLabs TTSProvider = "elevenlabs"
	ProviderPlayHT     TTSProvider = "playht"
	ProviderFPT        TTSProvider = "fpt"
)

// ttsRequest is the normalized synthesis request passed to a builder.
type ttsRequest struct {
	Text  string
	Voice string
}

// ttsRequestBuilder turns a normalized request into a provider HTTP request.
type ttsRequestBuilder func(baseURL, apiKey string, req ttsRequest) (*http.Request, error)

var ttsRequestBuilders = map[TTSProvider]ttsRequestBuilder{
	ProviderElevenLabs: buildElevenLabsRequest,
	ProviderPlayHT:     buildPlayHTRequest,
	ProviderFPT:        buildFPTRequest,
}

// ttsResponse is the common shape of the provider responses we use: a hosted
// URL for the synthesized clip.
type ttsResponse struct {
	AudioURL string `json:"audio_url"`
	Async    string `json:"async,omitempty"` // FPT returns the hosted URL here
	Error    int    `json:"error,omitempty"`
	Message  string `json:"message,omitempty"`
}

// AudioService synthesizes voiceovers through a hosted TTS API and returns
// the hosted clip URLs. The renderer downloads media itself, so nothing is
// written locally.
type AudioService struct {
	provider     TTSProvider
	buildRequest ttsRequestBuilder
	baseURL      string
	apiPool      *utils.APIKeyPool
	httpClient   *http.Client
	defaultVoice string
	keyCooldown  time.Duration
}

// NewAudioService creates a new audio service. Unknown providers fail here
// rather than on the first synthesis call.
func NewAudioService(provider TTSProvider, baseURL string, apiPool *utils.APIKeyPool, defaultVoice string, keyCooldown time.Duration) (*AudioService, error) {
	builder, ok := ttsRequestBuilders[provider]
	if !ok {
		return nil, fmt.Errorf("unknown TTS provider %q", provider)
	}
	return &AudioService{
		provider:     provider,
		buildRequest: builder,
		baseURL:      baseURL,
		apiPool:      apiPool,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		defaultVoice: defaultVoice,
		keyCooldown:  keyCooldown,
	}, nil
}

// SynthesizeVoiceover generates a voiceover for one scene and returns the
// hosted audio URL. Retries rotate through the key pool with backoff.
func (as *AudioService) SynthesizeVoiceover(ctx context.Context, text, voice string) (string, error) {
	if text == "" {
		return "", nil
	}
	if voice == "" {
		voice = as.defaultVoice
	}

	maxRetries := 3
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		apiKey, err := as.apiPool.Next()
		if err != nil {
			return "", fmt.Errorf("no available API keys: %w", err)
		}

		audioURL, err := as.callTTS(ctx, apiKey, ttsRequest{Text: text, Voice: voice})
		if err != nil {
			as.apiPool.MarkFailed(apiKey, as.keyCooldown)
			lastErr = err

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
			continue
		}

		return audioURL, nil
	}

	return "", fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

func (as *AudioService) callTTS(ctx context.Context, apiKey string, req ttsRequest) (string, error) {
	httpReq, err := as.buildRequest(as.baseURL, apiKey, req)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq = httpReq.WithContext(ctx)

	resp, err := as.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp ttsResponse
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(body, &apiResp) == nil && apiResp.Message != "" {
			return "", fmt.Errorf("TTS API error: %s (code: %d)", apiResp.Message, apiResp.Error)
		}
		return "", fmt.Errorf("TTS API returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse TTS response: %w", err)
	}

	switch {
	case apiResp.AudioURL != "":
		return apiResp.AudioURL, nil
	case apiResp.Async != "":
		return apiResp.Async, nil
	}
	return "", fmt.Errorf("TTS response carried no audio URL")
}

func buildElevenLabsRequest(baseURL, apiKey string, req ttsRequest) (*http.Request, error) {
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io/v1"
	}
	payload := map[string]interface{}{
		"text":     req.Text,
		"model_id": "eleven_turbo_v2",
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/text-to-speech/%s", baseURL, req.Voice), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", apiKey)
	return httpReq, nil
}

func buildPlayHTRequest(baseURL, apiKey string, req ttsRequest) (*http.Request, error) {
	if baseURL == "" {
		baseURL = "https://api.play.ht/api/v2"
	}
	payload := map[string]interface{}{
		"text":          req.Text,
		"voice":         req.Voice,
		"output_format": "mp3",
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/tts", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	return httpReq, nil
}

func buildFPTRequest(baseURL, apiKey string, req ttsRequest) (*http.Request, error) {
	if baseURL == "" {
		baseURL = "https://api.fpt.ai/hmi/tts/v5"
	}
	payload := map[string]interface{}{
		"text":   req.Text,
		"voice":  req.Voice,
		"speed":  1.0,
		"format": "mp3",
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", apiKey)
	return httpReq, nil
}
