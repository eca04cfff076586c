// Package composition holds the core video composition model: the scene
// timeline builder and the filter-graph compiler. Everything in this package
// is a pure function of its inputs; all I/O (asset resolution, render
// submission) lives in the services layer.
package composition

// Resolution is the target frame size in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Vertical1080 is the canonical short-form target (9:16).
var Vertical1080 = Resolution{Width: 1080, Height: 1920}

// Scene is one discrete segment of the output video.
type Scene struct {
	ID               string   `json:"id"`
	Text             string   `json:"text"`
	Duration         float64  `json:"duration"`
	BackgroundRef    string   `json:"background_ref"`
	VoiceoverRef     string   `json:"voiceover_ref,omitempty"`
	CaptionStyle     string   `json:"caption_style,omitempty"`
	Effects          []string `json:"effects,omitempty"`
	TransitionToNext string   `json:"transition_to_next,omitempty"`
}

// SceneConfig is a Scene placed on the absolute timeline with its resolved
// input-stream indices. VideoInput/AudioInput are -1 when the scene has no
// corresponding media input.
type SceneConfig struct {
	Scene
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	VideoInput int     `json:"video_input"`
	AudioInput int     `json:"audio_input"`
}

// CompositionConfig is the complete declarative description of one video.
// It is built once per job, treated as immutable, and handed to Compile.
type CompositionConfig struct {
	Resolution    Resolution    `json:"resolution"`
	OutputFormat  string        `json:"output_format"`
	Scenes        []SceneConfig `json:"scenes"`
	GlobalEffects []string      `json:"global_effects,omitempty"`
	MusicTrack    string        `json:"music_track,omitempty"`
	MusicVolume   float64       `json:"music_volume,omitempty"`
}

// TotalDuration is the sum of all scene durations. Transitions overlap scene
// boundaries, so they never change this value.
func (c *CompositionConfig) TotalDuration() float64 {
	total := 0.0
	for _, s := range c.Scenes {
		total += s.Duration
	}
	return total
}

// SceneTemplate describes one scene of a viral template before user inputs
// and media are resolved. Duration nil means "derive from the spoken text".
type SceneTemplate struct {
	ID               string   `yaml:"id" json:"id"`
	Duration         *float64 `yaml:"duration,omitempty" json:"duration,omitempty"`
	CaptionStyle     string   `yaml:"caption_style,omitempty" json:"caption_style,omitempty"`
	Effects          []string `yaml:"effects,omitempty" json:"effects,omitempty"`
	TransitionToNext string   `yaml:"transition,omitempty" json:"transition,omitempty"`
}

// Pacing controls how spoken-text duration is derived. The constants here are
// creative defaults, not invariants, so they are injected rather than fixed.
type Pacing struct {
	WordsPerSecond   float64
	DurationBuffer   float64
	MinSceneDuration float64
}

// DefaultPacing matches the production pacing: 2.5 words/sec plus a half
// second of breathing room, floored at 3 seconds.
func DefaultPacing() Pacing {
	return Pacing{
		WordsPerSecond:   2.5,
		DurationBuffer:   0.5,
		MinSceneDuration: 3.0,
	}
}

// Options carries the whole-video settings for BuildTimeline.
type Options struct {
	Resolution    Resolution
	OutputFormat  string
	GlobalEffects []string
	MusicTrack    string
	MusicVolume   float64
	Pacing        Pacing
}
