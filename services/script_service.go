package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	openai "github.com/sashabaranov/go-openai"
)

const scriptSystemPrompt = `You write punchy spoken lines for short vertical videos.
Given a template scene prompt, respond with ONLY valid JSON of the form
{"lines": ["..."]} where each entry is the spoken text for one scene, in
order. Keep each line under 30 words, conversational, no hashtags, no emoji.`

// ScriptService generates scene script text through a hosted LLM.
type ScriptService struct {
	client *openai.Client
	model  string
}

// NewScriptService creates a new script service
func NewScriptService(apiKey, model string) *ScriptService {
	return &ScriptService{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

type scriptResponse struct {
	Lines []string `json:"lines"`
}

// GenerateSceneLines asks the model for one spoken line per prompt. The
// returned slice is aligned with prompts by index.
func (ss *ScriptService) GenerateSceneLines(ctx context.Context, topic string, prompts []string) ([]string, error) {
	if len(prompts) == 0 {
		return nil, nil
	}

	userPrompt := fmt.Sprintf("Topic: %s\nScene prompts, one line each:\n", topic)
	for i, p := range prompts {
		userPrompt += fmt.Sprintf("%d. %s\n", i+1, p)
	}

	resp, err := ss.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: ss.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: scriptSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.8,
	})
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from openai")
	}

	raw := resp.Choices[0].Message.Content
	var parsed scriptResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		log.Printf("[script] parse failed: %v, raw: %.200s", err, raw)
		return nil, fmt.Errorf("failed to parse script response: %w", err)
	}
	if len(parsed.Lines) != len(prompts) {
		return nil, fmt.Errorf("script response has %d lines, want %d", len(parsed.Lines), len(prompts))
	}

	return parsed.Lines, nil
}
