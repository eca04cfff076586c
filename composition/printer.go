package composition

import (
	"fmt"
	"strconv"
	"strings"
)

// seconds formats a duration or offset for a filter expression. Two fixed
// decimals keep compiled output byte-identical across runs.
func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// drawtextEscaper neutralizes characters that would terminate or restructure
// a drawtext argument. Backslash is listed first so already-escaped text is
// not double-processed by a later rule.
var drawtextEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`:`, `\:`,
	`[`, `\[`,
	`]`, `\]`,
	`,`, `\,`,
	`;`, `\;`,
	`%`, `\%`,
)

// EscapeDrawtext escapes caption text for embedding in a drawtext filter.
// This is a correctness requirement: user-supplied quotes, colons and
// brackets must not be able to corrupt the stage expression.
func EscapeDrawtext(text string) string {
	return drawtextEscaper.Replace(text)
}

// captionPositions map the style position names to frame-fractional drawtext
// coordinates, always horizontally centered.
var captionPositions = map[string]string{
	"top":    "x=(w-text_w)/2:y=h*0.1",
	"center": "x=(w-text_w)/2:y=(h-text_h)/2",
	"bottom": "x=(w-text_w)/2:y=h*0.85",
}

// captionFilter renders one scene's caption overlay as a drawtext filter.
func captionFilter(text string, style CaptionStyle) string {
	position, ok := captionPositions[style.Position]
	if !ok {
		position = captionPositions["bottom"]
	}

	strokeColor := style.StrokeColor
	if strokeColor == "" {
		strokeColor = "0x000000"
	}

	parts := []string{
		fmt.Sprintf("drawtext=text='%s'", EscapeDrawtext(text)),
		fmt.Sprintf("fontfile=%s", style.FontFile),
		fmt.Sprintf("fontsize=%d", style.FontSize),
		fmt.Sprintf("fontcolor=%s", style.Color),
		position,
		fmt.Sprintf("borderw=%d", style.StrokeWidth),
		fmt.Sprintf("bordercolor=%s", strokeColor),
	}

	if style.BackgroundColor != "" {
		parts = append(parts,
			"box=1",
			fmt.Sprintf("boxcolor=%s", style.BackgroundColor),
			"boxborderw=10",
		)
	}

	if style.Shadow != nil {
		parts = append(parts,
			fmt.Sprintf("shadowx=%d", style.Shadow.X),
			fmt.Sprintf("shadowy=%d", style.Shadow.Y),
			fmt.Sprintf("shadowcolor=%s", style.Shadow.Color),
		)
	}

	return strings.Join(parts, ":")
}

// FilterComplex serializes the stage list to FFmpeg filter-graph syntax, one
// stage per semicolon-separated expression.
func (p *RenderPlan) FilterComplex() string {
	var b strings.Builder
	for i, st := range p.Stages {
		if i > 0 {
			b.WriteByte(';')
		}
		for _, in := range st.Inputs {
			b.WriteByte('[')
			b.WriteString(in)
			b.WriteByte(']')
		}
		b.WriteString(st.Filter)
		b.WriteByte('[')
		b.WriteString(st.Output)
		b.WriteByte(']')
	}
	return b.String()
}

// Args builds the complete renderer argument vector for the plan. The flags
// mirror the production encoder defaults: quality-controlled H.264 in a
// faststart MP4 with AAC audio.
func (p *RenderPlan) Args(outputPath string) []string {
	args := []string{"-y"}
	for _, in := range p.Inputs {
		args = append(args, "-i", in)
	}

	args = append(args,
		"-filter_complex", p.FilterComplex(),
		"-map", "["+p.VideoOut+"]",
		"-map", "["+p.AudioOut+"]",
		"-c:v", p.Video.Codec,
		"-preset", p.Video.Preset,
		"-crf", strconv.Itoa(p.Video.CRF),
		"-profile:v", p.Video.Profile,
		"-level", p.Video.Level,
		"-pix_fmt", p.Video.PixelFormat,
		"-movflags", "+faststart",
		"-c:a", p.Audio.Codec,
		"-b:a", p.Audio.Bitrate,
		"-ar", strconv.Itoa(p.Audio.SampleRate),
	)

	return append(args, outputPath)
}
