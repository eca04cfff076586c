package composition

import (
	"errors"
	"math"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestBuildTimelineContiguity(t *testing.T) {
	templates := []SceneTemplate{
		{ID: "a", Duration: f64(5)},
		{ID: "b", Duration: f64(8)},
		{ID: "c", Duration: f64(4)},
	}
	texts := []string{"one", "two", "three"}
	backgrounds := []string{"https://cdn/bg0.mp4", "https://cdn/bg1.mp4", "https://cdn/bg2.mp4"}
	voiceovers := []string{"https://cdn/vo0.mp3", "https://cdn/vo1.mp3", "https://cdn/vo2.mp3"}

	cfg, err := BuildTimeline(templates, texts, backgrounds, voiceovers, Options{})
	if err != nil {
		t.Fatalf("BuildTimeline failed: %v", err)
	}

	wantStarts := []float64{0, 5, 13}
	prevEnd := 0.0
	for i, sc := range cfg.Scenes {
		if sc.StartTime != wantStarts[i] {
			t.Errorf("scene %d start = %v, want %v", i, sc.StartTime, wantStarts[i])
		}
		if sc.StartTime != prevEnd {
			t.Errorf("scene %d start %v does not meet previous end %v", i, sc.StartTime, prevEnd)
		}
		if sc.EndTime != sc.StartTime+sc.Duration {
			t.Errorf("scene %d end = %v, want start+duration", i, sc.EndTime)
		}
		prevEnd = sc.EndTime
	}

	if total := cfg.TotalDuration(); total != 17 {
		t.Errorf("total duration = %v, want 17", total)
	}
}

func TestBuildTimelineDurations(t *testing.T) {
	tenWords := "one two three four five six seven eight nine ten"

	tests := []struct {
		name     string
		template SceneTemplate
		text     string
		want     float64
	}{
		{
			name:     "explicit duration preserved",
			template: SceneTemplate{ID: "s", Duration: f64(7.25)},
			text:     tenWords,
			want:     7.25,
		},
		{
			name:     "derived from word count",
			template: SceneTemplate{ID: "s"},
			text:     tenWords, // 10/2.5 + 0.5
			want:     4.5,
		},
		{
			name:     "short text floored at minimum",
			template: SceneTemplate{ID: "s"},
			text:     "hi there", // 2/2.5 + 0.5 = 1.3
			want:     3.0,
		},
		{
			name:     "empty text floored at minimum",
			template: SceneTemplate{ID: "s"},
			text:     "",
			want:     3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := BuildTimeline(
				[]SceneTemplate{tt.template},
				[]string{tt.text},
				[]string{"https://cdn/bg.mp4"},
				[]string{""},
				Options{},
			)
			if err != nil {
				t.Fatalf("BuildTimeline failed: %v", err)
			}
			got := cfg.Scenes[0].Duration
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("duration = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildTimelineShapeMismatch(t *testing.T) {
	templates := []SceneTemplate{{ID: "a"}, {ID: "b"}}
	two := []string{"x", "y"}
	one := []string{"x"}

	tests := []struct {
		name                          string
		texts, backgrounds, voiceover []string
	}{
		{"short texts", one, two, two},
		{"short backgrounds", two, one, two},
		{"short voiceovers", two, two, one},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildTimeline(templates, tt.texts, tt.backgrounds, tt.voiceover, Options{})
			var shapeErr *ShapeMismatchError
			if !errors.As(err, &shapeErr) {
				t.Fatalf("got %v, want ShapeMismatchError", err)
			}
			if shapeErr.Want != 2 || shapeErr.Got != 1 {
				t.Errorf("mismatch Want/Got = %d/%d, want 2/1", shapeErr.Want, shapeErr.Got)
			}
		})
	}
}

func TestBuildTimelineInvalidDuration(t *testing.T) {
	for _, d := range []float64{0, -2.5} {
		_, err := BuildTimeline(
			[]SceneTemplate{{ID: "bad", Duration: f64(d)}},
			[]string{"text"},
			[]string{"https://cdn/bg.mp4"},
			[]string{""},
			Options{},
		)
		var durErr *InvalidDurationError
		if !errors.As(err, &durErr) {
			t.Fatalf("duration %v: got %v, want InvalidDurationError", d, err)
		}
		if durErr.SceneID != "bad" {
			t.Errorf("error scene id = %q, want %q", durErr.SceneID, "bad")
		}
	}
}

func TestBuildTimelineInputIndices(t *testing.T) {
	templates := []SceneTemplate{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	texts := []string{"x", "y", "z"}
	backgrounds := []string{"https://cdn/bg0.mp4", "https://cdn/bg1.mp4", "https://cdn/bg2.mp4"}
	// Middle scene is silent
	voiceovers := []string{"https://cdn/vo0.mp3", "", "https://cdn/vo2.mp3"}

	cfg, err := BuildTimeline(templates, texts, backgrounds, voiceovers, Options{})
	if err != nil {
		t.Fatalf("BuildTimeline failed: %v", err)
	}

	// Backgrounds occupy 0..2, voiceovers follow in scene order
	wantVideo := []int{0, 1, 2}
	wantAudio := []int{3, -1, 4}
	for i, sc := range cfg.Scenes {
		if sc.VideoInput != wantVideo[i] {
			t.Errorf("scene %d video input = %d, want %d", i, sc.VideoInput, wantVideo[i])
		}
		if sc.AudioInput != wantAudio[i] {
			t.Errorf("scene %d audio input = %d, want %d", i, sc.AudioInput, wantAudio[i])
		}
	}
}

func TestBuildTimelineDefaults(t *testing.T) {
	cfg, err := BuildTimeline(
		[]SceneTemplate{{ID: "only"}},
		[]string{"hello world"},
		[]string{"https://cdn/bg.mp4"},
		[]string{""},
		Options{},
	)
	if err != nil {
		t.Fatalf("BuildTimeline failed: %v", err)
	}
	if cfg.Resolution != Vertical1080 {
		t.Errorf("resolution = %+v, want %+v", cfg.Resolution, Vertical1080)
	}
	if cfg.OutputFormat != "mp4" {
		t.Errorf("output format = %q, want mp4", cfg.OutputFormat)
	}
}
