package composition

import "strings"

// BuildTimeline assembles a CompositionConfig from a template's scenes and
// the order-aligned resolved inputs. The four slices correspond 1:1 by index;
// any length disagreement fails before timeline work begins.
//
// Scene durations come from the template when set, otherwise from the spoken
// text at the configured pacing. Start/end times are contiguous: scene i
// starts exactly where scene i-1 ends.
func BuildTimeline(templates []SceneTemplate, texts, backgrounds, voiceovers []string, opts Options) (*CompositionConfig, error) {
	if len(texts) != len(templates) {
		return nil, &ShapeMismatchError{Field: "resolved texts", Want: len(templates), Got: len(texts)}
	}
	if len(backgrounds) != len(templates) {
		return nil, &ShapeMismatchError{Field: "resolved backgrounds", Want: len(templates), Got: len(backgrounds)}
	}
	if len(voiceovers) != len(templates) {
		return nil, &ShapeMismatchError{Field: "resolved voiceovers", Want: len(templates), Got: len(voiceovers)}
	}

	pacing := opts.Pacing
	if pacing == (Pacing{}) {
		pacing = DefaultPacing()
	}

	resolution := opts.Resolution
	if resolution.Width == 0 || resolution.Height == 0 {
		resolution = Vertical1080
	}

	outputFormat := opts.OutputFormat
	if outputFormat == "" {
		outputFormat = "mp4"
	}

	scenes := make([]SceneConfig, 0, len(templates))
	start := 0.0

	// Stream indices are assigned in a fixed order: all backgrounds first,
	// then all voiceovers, then the music track. This keeps the compiled
	// command identical across runs for identical input.
	videoIndex := 0
	audioIndex := 0
	for _, bg := range backgrounds {
		if bg != "" {
			audioIndex++
		}
	}

	for i, tpl := range templates {
		duration, err := sceneDuration(tpl, texts[i], pacing)
		if err != nil {
			return nil, err
		}

		sc := SceneConfig{
			Scene: Scene{
				ID:               tpl.ID,
				Text:             texts[i],
				Duration:         duration,
				BackgroundRef:    backgrounds[i],
				VoiceoverRef:     voiceovers[i],
				CaptionStyle:     tpl.CaptionStyle,
				Effects:          tpl.Effects,
				TransitionToNext: tpl.TransitionToNext,
			},
			StartTime:  start,
			EndTime:    start + duration,
			VideoInput: -1,
			AudioInput: -1,
		}

		if backgrounds[i] != "" {
			sc.VideoInput = videoIndex
			videoIndex++
		}
		if voiceovers[i] != "" {
			sc.AudioInput = audioIndex
			audioIndex++
		}

		scenes = append(scenes, sc)
		start = sc.EndTime
	}

	return &CompositionConfig{
		Resolution:    resolution,
		OutputFormat:  outputFormat,
		Scenes:        scenes,
		GlobalEffects: opts.GlobalEffects,
		MusicTrack:    opts.MusicTrack,
		MusicVolume:   opts.MusicVolume,
	}, nil
}

func sceneDuration(tpl SceneTemplate, text string, pacing Pacing) (float64, error) {
	if tpl.Duration != nil {
		if *tpl.Duration <= 0 {
			return 0, &InvalidDurationError{SceneID: tpl.ID, Duration: *tpl.Duration}
		}
		return *tpl.Duration, nil
	}

	words := len(strings.Fields(text))
	duration := float64(words)/pacing.WordsPerSecond + pacing.DurationBuffer
	if duration < pacing.MinSceneDuration {
		duration = pacing.MinSceneDuration
	}
	return duration, nil
}
