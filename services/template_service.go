package services

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"viralengine/composition"
)

// ErrTemplateNotFound is returned for unknown template ids.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateScene is one scene of a viral template as authored in the catalog.
// Either Text (literal, with {{placeholder}} substitution) or ScriptPrompt
// (LLM-generated line) supplies the spoken text.
type TemplateScene struct {
	ID           string   `yaml:"id"`
	Text         string   `yaml:"text,omitempty"`
	ScriptPrompt string   `yaml:"script_prompt,omitempty"`
	Duration     *float64 `yaml:"duration,omitempty"`
	CaptionStyle string   `yaml:"caption_style,omitempty"`
	Effects      []string `yaml:"effects,omitempty"`
	Transition   string   `yaml:"transition,omitempty"`
	Keywords     string   `yaml:"keywords,omitempty"`
	Silent       bool     `yaml:"silent,omitempty"`
}

// Template is one entry of the viral template catalog.
type Template struct {
	ID            string          `yaml:"id"`
	Name          string          `yaml:"name"`
	Description   string          `yaml:"description,omitempty"`
	MusicTrack    string          `yaml:"music,omitempty"`
	MusicVolume   float64         `yaml:"music_volume,omitempty"`
	GlobalEffects []string        `yaml:"global_effects,omitempty"`
	Scenes        []TemplateScene `yaml:"scenes"`
}

type catalogFile struct {
	Templates []Template `yaml:"templates"`
}

// ResolvedScene is a template scene after placeholder substitution, ready
// for media resolution. Text is empty when the line still needs the LLM.
type ResolvedScene struct {
	Template     composition.SceneTemplate
	Text         string
	ScriptPrompt string
	Keywords     string
	Silent       bool
}

// TemplateService loads the viral template catalog and applies user inputs.
type TemplateService struct {
	templates map[string]Template
	order     []string
}

// NewTemplateService loads the catalog from a YAML file.
func NewTemplateService(path string) (*TemplateService, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template catalog: %w", err)
	}

	var catalog catalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse template catalog: %w", err)
	}
	if len(catalog.Templates) == 0 {
		return nil, errors.New("template catalog is empty")
	}

	ts := &TemplateService{templates: make(map[string]Template, len(catalog.Templates))}
	for _, tpl := range catalog.Templates {
		if tpl.ID == "" || len(tpl.Scenes) == 0 {
			return nil, fmt.Errorf("template %q is missing an id or scenes", tpl.Name)
		}
		ts.templates[tpl.ID] = tpl
		ts.order = append(ts.order, tpl.ID)
	}
	return ts, nil
}

// Get returns a template by id.
func (ts *TemplateService) Get(id string) (Template, error) {
	tpl, ok := ts.templates[id]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return tpl, nil
}

// List returns the catalog templates in file order.
func (ts *TemplateService) List() []Template {
	out := make([]Template, 0, len(ts.order))
	for _, id := range ts.order {
		out = append(out, ts.templates[id])
	}
	return out
}

// Resolve applies user inputs to a template's scenes. Placeholders of the
// form {{key}} are substituted in text, prompts and keywords; unknown
// placeholders are left untouched so they surface in review rather than
// silently vanishing.
func (ts *TemplateService) Resolve(id string, inputs map[string]string) ([]ResolvedScene, error) {
	tpl, err := ts.Get(id)
	if err != nil {
		return nil, err
	}

	sub := substituter(inputs)
	scenes := make([]ResolvedScene, 0, len(tpl.Scenes))
	for _, sc := range tpl.Scenes {
		scenes = append(scenes, ResolvedScene{
			Template: composition.SceneTemplate{
				ID:               sc.ID,
				Duration:         sc.Duration,
				CaptionStyle:     sc.CaptionStyle,
				Effects:          sc.Effects,
				TransitionToNext: sc.Transition,
			},
			Text:         sub(sc.Text),
			ScriptPrompt: sub(sc.ScriptPrompt),
			Keywords:     sub(sc.Keywords),
			Silent:       sc.Silent,
		})
	}
	return scenes, nil
}

func substituter(inputs map[string]string) func(string) string {
	if len(inputs) == 0 {
		return func(s string) string { return s }
	}
	pairs := make([]string, 0, len(inputs)*2)
	for k, v := range inputs {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	r := strings.NewReplacer(pairs...)
	return r.Replace
}
