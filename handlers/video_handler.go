package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"viralengine/composition"
	"viralengine/config"
	"viralengine/models"
	"viralengine/services"
	"viralengine/utils"
)

// VideoHandler handles video generation requests
type VideoHandler struct {
	cfg             *config.Config
	templateService *services.TemplateService
	scriptService   *services.ScriptService
	audioService    *services.AudioService
	stockService    *services.StockVideoService
	renderService   *services.RenderService
	styles          *composition.StyleRegistry

	// In-memory job tracking
	jobs    map[string]*models.JobStatus
	jobsMux sync.RWMutex
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(cfg *config.Config) (*VideoHandler, error) {
	templateService, err := services.NewTemplateService(cfg.TemplateCatalogPath)
	if err != nil {
		return nil, err
	}

	ttsPool := utils.NewAPIKeyPool(cfg.TTSAPIKeys)
	audioService, err := services.NewAudioService(
		services.TTSProvider(cfg.TTSProvider),
		cfg.TTSBaseURL,
		ttsPool,
		cfg.TTSDefaultVoice,
		cfg.TTSKeyRetryDelay,
	)
	if err != nil {
		return nil, err
	}

	return &VideoHandler{
		cfg:             cfg,
		templateService: templateService,
		scriptService:   services.NewScriptService(cfg.OpenAIAPIKey, cfg.ScriptModel),
		audioService:    audioService,
		stockService:    services.NewStockVideoService(cfg.PexelsAPIKey),
		renderService: services.NewRenderService(
			cfg.RenderServiceURL,
			cfg.RenderAPIKey,
			cfg.RenderPollInterval,
			cfg.RenderPollTimeout,
		),
		styles: composition.DefaultStyles(),
		jobs:   make(map[string]*models.JobStatus),
	}, nil
}

// Generate handles POST /api/generate
func (h *VideoHandler) Generate(c *gin.Context) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Reject unknown templates before queueing anything
	if _, err := h.templateService.Get(req.TemplateID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if req.MusicVolume < 0 || req.MusicVolume > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "music_volume must be between 0 and 1"})
		return
	}

	// Generate job ID
	jobID := uuid.New().String()

	job := &models.JobStatus{
		JobID:       jobID,
		Status:      "processing",
		Progress:    0,
		CurrentStep: "Initializing",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	h.jobsMux.Lock()
	h.jobs[jobID] = job
	h.jobsMux.Unlock()

	// Start background processing
	go h.processGeneration(jobID, req)

	c.JSON(http.StatusOK, models.GenerateResponse{
		JobID:  jobID,
		Status: "processing",
	})
}

// GetStatus handles GET /api/status/:job_id
func (h *VideoHandler) GetStatus(c *gin.Context) {
	jobID := c.Param("job_id")

	h.jobsMux.RLock()
	job, exists := h.jobs[jobID]
	h.jobsMux.RUnlock()

	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	resp := models.StatusResponse{
		Status:      job.Status,
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
	}

	if job.Status == "completed" && job.VideoURL != "" {
		videoURL := job.VideoURL
		resp.VideoURL = &videoURL
	}

	if job.Error != nil {
		errMsg := job.Error.Error()
		resp.Error = &errMsg
	}

	c.JSON(http.StatusOK, resp)
}

// ListTemplates handles GET /api/templates
func (h *VideoHandler) ListTemplates(c *gin.Context) {
	type templateSummary struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		SceneCount  int    `json:"scene_count"`
	}

	templates := h.templateService.List()
	out := make([]templateSummary, 0, len(templates))
	for _, tpl := range templates {
		out = append(out, templateSummary{
			ID:          tpl.ID,
			Name:        tpl.Name,
			Description: tpl.Description,
			SceneCount:  len(tpl.Scenes),
		})
	}
	c.JSON(http.StatusOK, gin.H{"templates": out})
}

// processGeneration runs the whole pipeline in the background: resolve
// template scenes, fan out asset resolution, build the timeline, compile the
// filter graph, then submit to the renderer and wait.
func (h *VideoHandler) processGeneration(jobID string, req models.GenerateRequest) {
	ctx := context.Background()

	updateStatus := func(step string, progress int) {
		h.jobsMux.Lock()
		if job, exists := h.jobs[jobID]; exists {
			job.CurrentStep = step
			job.Progress = progress
			job.UpdatedAt = time.Now()
		}
		h.jobsMux.Unlock()
		log.Printf("[Job %s] %s (%d%%)", jobID, step, progress)
	}

	updateStatus("Resolving template", 5)
	tpl, err := h.templateService.Get(req.TemplateID)
	if err != nil {
		h.markJobFailed(jobID, err)
		return
	}
	scenes, err := h.templateService.Resolve(req.TemplateID, req.UserInputs)
	if err != nil {
		h.markJobFailed(jobID, err)
		return
	}

	// Step 1: fill in LLM-generated lines for scenes that need them
	updateStatus("Generating script", 15)
	texts, err := h.resolveTexts(ctx, scenes, req.UserInputs)
	if err != nil {
		h.markJobFailed(jobID, fmt.Errorf("script generation failed: %w", err))
		return
	}

	// Step 2: resolve backgrounds and voiceovers concurrently, scene order
	// preserved by index
	updateStatus(fmt.Sprintf("Resolving media for %d scenes", len(scenes)), 30)
	backgrounds, voiceovers, err := h.resolveMedia(ctx, scenes, texts, req.Voice)
	if err != nil {
		h.markJobFailed(jobID, fmt.Errorf("media resolution failed: %w", err))
		return
	}

	// Step 3: build the timeline
	updateStatus("Building timeline", 55)
	templates := make([]composition.SceneTemplate, len(scenes))
	for i, sc := range scenes {
		templates[i] = sc.Template
	}

	musicTrack := req.MusicTrack
	if musicTrack == "" {
		musicTrack = tpl.MusicTrack
	}
	musicVolume := req.MusicVolume
	if musicVolume == 0 {
		musicVolume = tpl.MusicVolume
	}

	outputFormat := req.OutputFormat
	if outputFormat == "" {
		outputFormat = h.cfg.OutputFormat
	}

	cfg, err := composition.BuildTimeline(templates, texts, backgrounds, voiceovers, composition.Options{
		Resolution:    composition.Resolution{Width: h.cfg.VideoWidth, Height: h.cfg.VideoHeight},
		OutputFormat:  outputFormat,
		GlobalEffects: tpl.GlobalEffects,
		MusicTrack:    musicTrack,
		MusicVolume:   musicVolume,
		Pacing:        h.pacing(),
	})
	if err != nil {
		h.markJobFailed(jobID, fmt.Errorf("timeline build failed: %w", err))
		return
	}

	// Step 4: compile the filter graph
	updateStatus("Compiling render plan", 65)
	plan, err := composition.Compile(cfg, h.styles)
	if err != nil {
		h.markJobFailed(jobID, fmt.Errorf("compilation failed: %w", err))
		return
	}
	log.Printf("[Job %s] Compiled plan: %d inputs, %d stages, %.1fs total",
		jobID, len(plan.Inputs), len(plan.Stages), cfg.TotalDuration())

	// Step 5: submit and wait
	updateStatus("Submitting to renderer", 75)
	remoteID, err := h.renderService.Submit(ctx, jobID, plan)
	if err != nil {
		h.markJobFailed(jobID, fmt.Errorf("render submission failed: %w", err))
		return
	}

	updateStatus("Rendering", 85)
	videoURL, err := h.renderService.WaitForCompletion(ctx, remoteID)
	if err != nil {
		var timeout *services.RenderTimeoutError
		if errors.As(err, &timeout) {
			h.markJobFailed(jobID, fmt.Errorf("render timed out: %w", err))
		} else {
			h.markJobFailed(jobID, fmt.Errorf("render failed: %w", err))
		}
		return
	}

	updateStatus("Complete", 100)
	h.jobsMux.Lock()
	if job, exists := h.jobs[jobID]; exists {
		job.Status = "completed"
		job.VideoURL = videoURL
		job.UpdatedAt = time.Now()
	}
	h.jobsMux.Unlock()

	log.Printf("[Job %s] Video generation completed: %s", jobID, videoURL)
}

// resolveTexts returns the spoken line for every scene, calling the LLM once
// for all prompt-backed scenes.
func (h *VideoHandler) resolveTexts(ctx context.Context, scenes []services.ResolvedScene, inputs map[string]string) ([]string, error) {
	texts := make([]string, len(scenes))
	var prompts []string
	var promptIdx []int

	for i, sc := range scenes {
		if sc.Text != "" || sc.ScriptPrompt == "" {
			texts[i] = sc.Text
			continue
		}
		prompts = append(prompts, sc.ScriptPrompt)
		promptIdx = append(promptIdx, i)
	}

	if len(prompts) == 0 {
		return texts, nil
	}

	lines, err := h.scriptService.GenerateSceneLines(ctx, inputs["topic"], prompts)
	if err != nil {
		return nil, err
	}
	for j, i := range promptIdx {
		texts[i] = strings.TrimSpace(lines[j])
	}
	return texts, nil
}

// resolveMedia fans out background and voiceover resolution per scene with a
// bounded worker count, and joins everything back in scene order before the
// timeline builder runs.
func (h *VideoHandler) resolveMedia(ctx context.Context, scenes []services.ResolvedScene, texts []string, voice string) ([]string, []string, error) {
	backgrounds := make([]string, len(scenes))
	voiceovers := make([]string, len(scenes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.MaxConcurrentResolves)

	for i, sc := range scenes {
		i, sc := i, sc
		g.Go(func() error {
			minDuration := h.estimateDuration(sc.Template, texts[i])
			url, err := h.stockService.FindBackground(gctx, sc.Keywords, minDuration)
			if err != nil {
				return fmt.Errorf("scene %s background: %w", sc.Template.ID, err)
			}
			backgrounds[i] = url
			return nil
		})

		if sc.Silent || texts[i] == "" {
			continue
		}
		g.Go(func() error {
			url, err := h.audioService.SynthesizeVoiceover(gctx, texts[i], voice)
			if err != nil {
				return fmt.Errorf("scene %s voiceover: %w", sc.Template.ID, err)
			}
			voiceovers[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return backgrounds, voiceovers, nil
}

func (h *VideoHandler) pacing() composition.Pacing {
	return composition.Pacing{
		WordsPerSecond:   h.cfg.WordsPerSecond,
		DurationBuffer:   h.cfg.DurationBuffer,
		MinSceneDuration: h.cfg.MinSceneDuration,
	}
}

// estimateDuration mirrors the timeline builder's derivation so background
// clips are searched with the right minimum length.
func (h *VideoHandler) estimateDuration(tpl composition.SceneTemplate, text string) float64 {
	if tpl.Duration != nil && *tpl.Duration > 0 {
		return *tpl.Duration
	}
	p := h.pacing()
	d := float64(len(strings.Fields(text)))/p.WordsPerSecond + p.DurationBuffer
	if d < p.MinSceneDuration {
		d = p.MinSceneDuration
	}
	return d
}

// markJobFailed marks a job as failed
func (h *VideoHandler) markJobFailed(jobID string, err error) {
	log.Printf("[Job %s] FAILED: %v", jobID, err)
	h.jobsMux.Lock()
	if job, exists := h.jobs[jobID]; exists {
		job.Status = "failed"
		job.Error = err
		job.UpdatedAt = time.Now()
	}
	h.jobsMux.Unlock()
}
