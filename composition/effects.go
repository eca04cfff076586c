package composition

// effectFilters maps effect tags to their fixed FFmpeg parameterizations.
// Effects are applied strictly in the order they are listed on a scene; the
// chain is not commutative, so the listed order is part of the creative
// result. Unknown tags are skipped, never fatal.
var effectFilters = map[string]string{
	"vignette":             "vignette=angle=PI/4",
	"film-grain":           "noise=c0s=20:allf=t",
	"blur":                 "boxblur=2:1",
	"sharpen":              "unsharp=5:5:1.0:5:5:0.0",
	"color-grading":        "eq=contrast=1.1:brightness=0.05:saturation=1.2",
	"chromatic-aberration": "chromashift=crh=3:cbh=-3",
	"glow":                 "gblur=sigma=10",
	"scanlines":            "interlace",
}

// EffectFilter returns the filter expression for an effect tag.
func EffectFilter(tag string) (string, bool) {
	f, ok := effectFilters[tag]
	return f, ok
}

// Transition is a timed xfade applied across a scene boundary. It overlaps
// the boundary rather than extending total runtime.
type Transition struct {
	XfadeName string
	Duration  float64
}

// TransitionCut is the no-op transition tag: scenes are joined by plain
// concatenation.
const TransitionCut = "cut"

// transitions maps transition tags to xfade operations. Unknown tags degrade
// to a cut.
var transitions = map[string]Transition{
	"fade":     {XfadeName: "fade", Duration: 0.5},
	"dissolve": {XfadeName: "dissolve", Duration: 0.5},
	"wipe":     {XfadeName: "wipeleft", Duration: 0.5},
	"slide":    {XfadeName: "slideup", Duration: 0.5},
	"circle":   {XfadeName: "circleopen", Duration: 0.6},
	"zoom":     {XfadeName: "zoomin", Duration: 0.5},
	"whip":     {XfadeName: "hblur", Duration: 0.3},
}

// ResolveTransition returns the transition for a tag. The second return is
// false for the cut tag, the empty tag, and any unknown tag.
func ResolveTransition(tag string) (Transition, bool) {
	if tag == "" || tag == TransitionCut {
		return Transition{}, false
	}
	t, ok := transitions[tag]
	return t, ok
}
