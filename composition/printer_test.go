package composition

import (
	"strings"
	"testing"
)

func TestEscapeDrawtext(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"it's fine", `it\'s fine`},
		{"time: 10:30", `time\: 10\:30`},
		{"[label]", `\[label\]`},
		{"a,b;c", `a\,b\;c`},
		{"100%", `100\%`},
		{`back\slash`, `back\\slash`},
	}

	for _, tt := range tests {
		if got := EscapeDrawtext(tt.in); got != tt.want {
			t.Errorf("EscapeDrawtext(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCaptionFilterPositions(t *testing.T) {
	tests := []struct {
		position string
		want     string
	}{
		{"top", "y=h*0.1"},
		{"center", "y=(h-text_h)/2"},
		{"bottom", "y=h*0.85"},
		{"somewhere-weird", "y=h*0.85"}, // unknown positions land at the bottom
	}

	for _, tt := range tests {
		style := CaptionStyle{Position: tt.position, FontSize: 60, Color: "white"}
		got := captionFilter("hi", style)
		if !strings.Contains(got, tt.want) {
			t.Errorf("position %q: filter %q missing %q", tt.position, got, tt.want)
		}
		if !strings.Contains(got, "x=(w-text_w)/2") {
			t.Errorf("position %q: caption not horizontally centered: %q", tt.position, got)
		}
	}
}

func TestCaptionFilterStyleAttributes(t *testing.T) {
	style := CaptionStyle{
		Position:        "bottom",
		FontSize:        72,
		Color:           "white",
		StrokeWidth:     3,
		StrokeColor:     "0x111111",
		BackgroundColor: "black@0.5",
		Shadow:          &Shadow{X: 2, Y: 2, Color: "black"},
	}

	got := captionFilter("hi", style)
	for _, want := range []string{
		"fontsize=72",
		"fontcolor=white",
		"borderw=3",
		"bordercolor=0x111111",
		"box=1",
		"boxcolor=black@0.5",
		"boxborderw=10",
		"shadowx=2",
		"shadowy=2",
		"shadowcolor=black",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("filter %q missing %q", got, want)
		}
	}
}

func TestRenderPlanArgs(t *testing.T) {
	cfg, err := BuildTimeline(
		[]SceneTemplate{{ID: "s", Duration: f64(5)}},
		[]string{"hello"},
		[]string{"https://cdn/bg.mp4"},
		[]string{"https://cdn/vo.mp3"},
		Options{},
	)
	if err != nil {
		t.Fatalf("BuildTimeline failed: %v", err)
	}
	plan, err := Compile(cfg, nil)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	args := plan.Args("final.mp4")
	joined := strings.Join(args, " ")

	if args[0] != "-y" {
		t.Errorf("args start with %q, want -y", args[0])
	}
	if args[len(args)-1] != "final.mp4" {
		t.Errorf("args end with %q, want output path", args[len(args)-1])
	}

	inputs := 0
	for _, a := range args {
		if a == "-i" {
			inputs++
		}
	}
	if inputs != len(plan.Inputs) {
		t.Errorf("got %d -i flags, want %d", inputs, len(plan.Inputs))
	}

	for _, want := range []string{
		"-map [vout]",
		"-map [aout]",
		"-c:v libx264",
		"-preset medium",
		"-crf 23",
		"-profile:v high",
		"-level 4.0",
		"-pix_fmt yuv420p",
		"-movflags +faststart",
		"-c:a aac",
		"-b:a 192k",
		"-ar 48000",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
}
