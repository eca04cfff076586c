package models

import "time"

// GenerateRequest represents the input from the dashboard frontend
type GenerateRequest struct {
	TemplateID   string            `json:"template_id" binding:"required"`
	UserInputs   map[string]string `json:"user_inputs"`
	Voice        string            `json:"voice"`
	MusicTrack   string            `json:"music_track"`
	MusicVolume  float64           `json:"music_volume"`
	OutputFormat string            `json:"output_format"`
}

// GenerateResponse returns the job ID
type GenerateResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// StatusResponse returns current progress
type StatusResponse struct {
	Status      string  `json:"status"` // "processing", "completed", "failed"
	Progress    int     `json:"progress"`
	CurrentStep string  `json:"current_step"`
	VideoURL    *string `json:"video_url,omitempty"`
	Error       *string `json:"error,omitempty"`
}

// JobStatus tracks processing status in memory
type JobStatus struct {
	JobID       string
	Status      string
	Progress    int
	CurrentStep string
	VideoURL    string
	Error       error
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
