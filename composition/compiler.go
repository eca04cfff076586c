package composition

import "fmt"

// Stage is one named transform in the filter graph: a filter expression
// consuming zero or more named input streams and producing one named output
// stream. Source filters (anullsrc) have no inputs.
type Stage struct {
	Inputs []string
	Filter string
	Output string
}

// VideoSettings are the encoder parameters of the final invocation.
type VideoSettings struct {
	Codec       string
	Preset      string
	CRF         int
	Profile     string
	Level       string
	PixelFormat string
}

// AudioSettings are the audio encoder parameters of the final invocation.
type AudioSettings struct {
	Codec      string
	Bitrate    string
	SampleRate int
}

// RenderPlan is the compiled renderer invocation: ordered input media
// references, the ordered filter stages, and the output parameters. It is
// serialized by FilterComplex and Args in printer.go.
type RenderPlan struct {
	Inputs       []string
	Stages       []Stage
	VideoOut     string
	AudioOut     string
	Video        VideoSettings
	Audio        AudioSettings
	Resolution   Resolution
	OutputFormat string
}

func defaultVideoSettings() VideoSettings {
	return VideoSettings{
		Codec:       "libx264",
		Preset:      "medium",
		CRF:         23,
		Profile:     "high",
		Level:       "4.0",
		PixelFormat: "yuv420p",
	}
}

func defaultAudioSettings() AudioSettings {
	return AudioSettings{
		Codec:      "aac",
		Bitrate:    "192k",
		SampleRate: 48000,
	}
}

const defaultMusicVolume = 0.3

// Compile lowers a CompositionConfig into a RenderPlan. The same config
// always compiles to the same plan. Compile validates every scene before
// emitting any stage: a scene without a background fails the whole call.
func Compile(cfg *CompositionConfig, styles *StyleRegistry) (*RenderPlan, error) {
	if styles == nil {
		styles = DefaultStyles()
	}
	if len(cfg.Scenes) == 0 {
		return nil, &MissingMediaError{SceneID: ""}
	}
	for _, sc := range cfg.Scenes {
		if sc.BackgroundRef == "" || sc.VideoInput < 0 {
			return nil, &MissingMediaError{SceneID: sc.ID}
		}
	}

	c := &compiler{cfg: cfg, styles: styles}
	c.hasTransitions = hasAnyTransition(cfg.Scenes)
	c.collectInputs()
	c.compileScenes()
	c.joinVideo()
	c.joinAudio()
	c.mixMusic()
	c.applyGlobalEffects()

	// Fixed terminal labels so the output mapping never depends on how many
	// stages preceded it.
	c.emit(Stage{Inputs: []string{c.videoOut}, Filter: "copy", Output: "vout"})
	c.emit(Stage{Inputs: []string{c.audioOut}, Filter: "acopy", Output: "aout"})

	return &RenderPlan{
		Inputs:       c.inputs,
		Stages:       c.stages,
		VideoOut:     "vout",
		AudioOut:     "aout",
		Video:        defaultVideoSettings(),
		Audio:        defaultAudioSettings(),
		Resolution:   cfg.Resolution,
		OutputFormat: cfg.OutputFormat,
	}, nil
}

type compiler struct {
	cfg    *CompositionConfig
	styles *StyleRegistry

	inputs     []string
	stages     []Stage
	musicInput int

	hasTransitions bool

	sceneVideo []string
	sceneAudio []string
	videoOut   string
	audioOut   string
}

func (c *compiler) emit(s Stage) {
	c.stages = append(c.stages, s)
}

func hasAnyTransition(scenes []SceneConfig) bool {
	for _, sc := range scenes[:len(scenes)-1] {
		if _, ok := ResolveTransition(sc.TransitionToNext); ok {
			return true
		}
	}
	return false
}

// transitionFPS is the constant frame rate forced onto xfade inputs; xfade
// requires both inputs to share fps, SAR and pixel format.
const transitionFPS = 30

// collectInputs lists input media in stream-index order: backgrounds first,
// then voiceovers, then music. The indices on each SceneConfig were assigned
// in this same order by BuildTimeline.
func (c *compiler) collectInputs() {
	for _, sc := range c.cfg.Scenes {
		c.inputs = append(c.inputs, sc.BackgroundRef)
	}
	for _, sc := range c.cfg.Scenes {
		if sc.VoiceoverRef != "" {
			c.inputs = append(c.inputs, sc.VoiceoverRef)
		}
	}
	c.musicInput = -1
	if c.cfg.MusicTrack != "" {
		c.musicInput = len(c.inputs)
		c.inputs = append(c.inputs, c.cfg.MusicTrack)
	}
}

// compileScenes emits the per-scene stage chains. Video order per scene is
// fixed: scale/crop, trim, effects, captions. Audio is trimmed with the same
// duration value so the two concatenated tracks stay in sync.
func (c *compiler) compileScenes() {
	res := c.cfg.Resolution

	// xfade fails on mismatched timebases, so transitioned compositions
	// normalize SAR, fps and pixel format at the source.
	normalize := ""
	if c.hasTransitions {
		normalize = fmt.Sprintf(",setsar=1,fps=%d,format=yuv420p", transitionFPS)
	}

	for i, sc := range c.cfg.Scenes {
		// Aspect-fill then center-crop: the background always covers the
		// full frame, whatever its source aspect ratio.
		cur := fmt.Sprintf("v%dbase", i)
		c.emit(Stage{
			Inputs: []string{fmt.Sprintf("%d:v", sc.VideoInput)},
			Filter: fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d%s",
				res.Width, res.Height, res.Width, res.Height, normalize),
			Output: cur,
		})

		// Reset timestamps so concatenation downstream lines up.
		next := fmt.Sprintf("v%dcut", i)
		c.emit(Stage{
			Inputs: []string{cur},
			Filter: fmt.Sprintf("trim=duration=%s,setpts=PTS-STARTPTS", seconds(sc.Duration)),
			Output: next,
		})
		cur = next

		fx := 0
		for _, tag := range sc.Effects {
			filter, ok := EffectFilter(tag)
			if !ok {
				// Cosmetic misconfiguration never aborts the pipeline.
				continue
			}
			next = fmt.Sprintf("v%dfx%d", i, fx)
			c.emit(Stage{Inputs: []string{cur}, Filter: filter, Output: next})
			cur = next
			fx++
		}

		if sc.Text != "" {
			style := c.styles.Resolve(sc.CaptionStyle)
			next = fmt.Sprintf("v%dcap", i)
			c.emit(Stage{Inputs: []string{cur}, Filter: captionFilter(sc.Text, style), Output: next})
			cur = next
		}

		c.sceneVideo = append(c.sceneVideo, cur)

		// Silent scenes still contribute exact-duration silence; audio
		// concat requires stream continuity.
		audioOut := fmt.Sprintf("a%d", i)
		if sc.AudioInput >= 0 {
			c.emit(Stage{
				Inputs: []string{fmt.Sprintf("%d:a", sc.AudioInput)},
				Filter: fmt.Sprintf("atrim=duration=%s,asetpts=PTS-STARTPTS", seconds(sc.Duration)),
				Output: audioOut,
			})
		} else {
			c.emit(Stage{
				Filter: fmt.Sprintf("anullsrc=channel_layout=stereo:sample_rate=%d,atrim=duration=%s,asetpts=PTS-STARTPTS",
					defaultAudioSettings().SampleRate, seconds(sc.Duration)),
				Output: audioOut,
			})
		}
		c.sceneAudio = append(c.sceneAudio, audioOut)
	}
}

// joinVideo merges per-scene streams in order. With no transitions this is a
// single concat stage over all scenes. When any boundary carries a
// transition, boundaries are folded left to right: cuts via pairwise concat,
// transitions via xfade. Each xfade shortens the merged stream by its own
// duration, so the anchor for boundary i is the scene start time minus
// everything already consumed by earlier transitions minus the current
// transition's duration.
func (c *compiler) joinVideo() {
	scenes := c.cfg.Scenes
	if len(scenes) == 1 {
		c.videoOut = c.sceneVideo[0]
		return
	}

	if !c.hasTransitions {
		c.emit(Stage{
			Inputs: c.sceneVideo,
			Filter: fmt.Sprintf("concat=n=%d:v=1:a=0", len(scenes)),
			Output: "vconcat",
		})
		c.videoOut = "vconcat"
		return
	}

	cur := c.sceneVideo[0]
	consumed := 0.0
	for i := 1; i < len(scenes); i++ {
		out := fmt.Sprintf("vx%d", i)
		if t, ok := ResolveTransition(scenes[i-1].TransitionToNext); ok {
			offset := scenes[i].StartTime - consumed - t.Duration
			c.emit(Stage{
				Inputs: []string{cur, c.sceneVideo[i]},
				Filter: fmt.Sprintf("xfade=transition=%s:duration=%s:offset=%s",
					t.XfadeName, seconds(t.Duration), seconds(offset)),
				Output: out,
			})
			consumed += t.Duration
		} else {
			c.emit(Stage{
				Inputs: []string{cur, c.sceneVideo[i]},
				Filter: "concat=n=2:v=1:a=0",
				Output: out,
			})
		}
		cur = out
	}
	c.videoOut = cur
}

// joinAudio mirrors joinVideo boundary for boundary. A transitioned boundary
// uses acrossfade with the same duration as the video xfade, so both tracks
// shorten in lockstep and stay in sync; cuts and untransitioned compositions
// use plain concat.
func (c *compiler) joinAudio() {
	scenes := c.cfg.Scenes
	if len(c.sceneAudio) == 1 {
		c.audioOut = c.sceneAudio[0]
		return
	}

	if !c.hasTransitions {
		c.emit(Stage{
			Inputs: c.sceneAudio,
			Filter: fmt.Sprintf("concat=n=%d:v=0:a=1", len(c.sceneAudio)),
			Output: "aconcat",
		})
		c.audioOut = "aconcat"
		return
	}

	cur := c.sceneAudio[0]
	for i := 1; i < len(scenes); i++ {
		out := fmt.Sprintf("ax%d", i)
		if t, ok := ResolveTransition(scenes[i-1].TransitionToNext); ok {
			c.emit(Stage{
				Inputs: []string{cur, c.sceneAudio[i]},
				Filter: fmt.Sprintf("acrossfade=d=%s", seconds(t.Duration)),
				Output: out,
			})
		} else {
			c.emit(Stage{
				Inputs: []string{cur, c.sceneAudio[i]},
				Filter: "concat=n=2:v=0:a=1",
				Output: out,
			})
		}
		cur = out
	}
	c.audioOut = cur
}

// mixMusic lays the music bed under the voice track. duration=first keeps the
// voice track governing total length: music is cut off, never extends it.
func (c *compiler) mixMusic() {
	if c.musicInput < 0 {
		return
	}
	volume := c.cfg.MusicVolume
	if volume == 0 {
		volume = defaultMusicVolume
	}
	c.emit(Stage{
		Inputs: []string{c.audioOut, fmt.Sprintf("%d:a", c.musicInput)},
		Filter: fmt.Sprintf("amix=inputs=2:duration=first:weights=1 %s", seconds(volume)),
		Output: "amixed",
	})
	c.audioOut = "amixed"
}

// applyGlobalEffects runs video-wide looks on the assembled stream only, so
// a grade or grain pass is applied once rather than per scene.
func (c *compiler) applyGlobalEffects() {
	fx := 0
	for _, tag := range c.cfg.GlobalEffects {
		filter, ok := EffectFilter(tag)
		if !ok {
			continue
		}
		out := fmt.Sprintf("vg%d", fx)
		c.emit(Stage{Inputs: []string{c.videoOut}, Filter: filter, Output: out})
		c.videoOut = out
		fx++
	}
}
