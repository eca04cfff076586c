package composition

// Shadow is a drop shadow offset and color for caption text.
type Shadow struct {
	X     int
	Y     int
	Color string
}

// CaptionStyle is a resolved caption look. FontFile is the absolute path the
// renderer loads the typeface from.
type CaptionStyle struct {
	Name            string
	FontFile        string
	FontSize        int
	Color           string
	StrokeWidth     int
	StrokeColor     string
	BackgroundColor string
	Shadow          *Shadow
	Position        string // "top", "center" or "bottom"
	Animation       string
}

// StyleRegistry resolves caption style ids. It is constructed explicitly and
// passed into the compiler so lookups stay deterministic and testable.
type StyleRegistry struct {
	styles      map[string]CaptionStyle
	defaultName string
}

// NewStyleRegistry builds a registry from the given styles. The named default
// must be present in styles.
func NewStyleRegistry(styles []CaptionStyle, defaultName string) *StyleRegistry {
	m := make(map[string]CaptionStyle, len(styles))
	for _, s := range styles {
		m[s.Name] = s
	}
	return &StyleRegistry{styles: m, defaultName: defaultName}
}

// Resolve returns the style for id, falling back to the default for unknown
// or empty ids. A misspelled style must never block video generation.
func (r *StyleRegistry) Resolve(id string) CaptionStyle {
	if s, ok := r.styles[id]; ok {
		return s
	}
	return r.styles[r.defaultName]
}

const fontDir = "/usr/share/fonts/truetype"

// DefaultStyles returns the built-in caption looks used by the viral template
// catalog. "modern" is the fallback for unknown ids.
func DefaultStyles() *StyleRegistry {
	styles := []CaptionStyle{
		{
			Name:        "modern",
			FontFile:    fontDir + "/Montserrat-Bold.ttf",
			FontSize:    64,
			Color:       "white",
			StrokeWidth: 3,
			StrokeColor: "0x000000",
			Position:    "center",
			Animation:   "fade",
		},
		{
			Name:        "bold",
			FontFile:    fontDir + "/Impact.ttf",
			FontSize:    72,
			Color:       "white",
			StrokeWidth: 4,
			StrokeColor: "0x000000",
			Shadow:      &Shadow{X: 2, Y: 2, Color: "black"},
			Position:    "center",
			Animation:   "none",
		},
		{
			Name:      "minimal",
			FontFile:  fontDir + "/Arial.ttf",
			FontSize:  48,
			Color:     "white",
			Position:  "bottom",
			Animation: "none",
		},
		{
			Name:        "neon",
			FontFile:    fontDir + "/BebasNeue-Regular.ttf",
			FontSize:    68,
			Color:       "0x39FF14",
			StrokeWidth: 2,
			StrokeColor: "0x0D0D0D",
			Shadow:      &Shadow{X: 0, Y: 0, Color: "0x39FF14"},
			Position:    "center",
			Animation:   "fade",
		},
		{
			Name:            "classic",
			FontFile:        fontDir + "/dejavu/DejaVuSans-Bold.ttf",
			FontSize:        56,
			Color:           "white",
			BackgroundColor: "black@0.5",
			Position:        "bottom",
			Animation:       "none",
		},
	}
	return NewStyleRegistry(styles, "modern")
}
