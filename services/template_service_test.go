package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
templates:
  - id: did-you-know
    name: "Did You Know?"
    music_volume: 0.25
    global_effects: [color-grading]
    scenes:
      - id: hook
        text: "Did you know {{topic}} could change everything?"
        caption_style: bold
        transition: fade
        keywords: "{{topic}}"
      - id: fact
        script_prompt: "One surprising fact about {{topic}}"
        keywords: "{{topic}} closeup"
      - id: cta
        text: "Follow for more"
        duration: 3
        silent: true
        keywords: "abstract motion"
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestTemplateServiceLoad(t *testing.T) {
	ts, err := NewTemplateService(writeCatalog(t, testCatalog))
	require.NoError(t, err)

	tpl, err := ts.Get("did-you-know")
	require.NoError(t, err)
	assert.Equal(t, "Did You Know?", tpl.Name)
	assert.Len(t, tpl.Scenes, 3)
	assert.Equal(t, 0.25, tpl.MusicVolume)

	list := ts.List()
	require.Len(t, list, 1)
	assert.Equal(t, "did-you-know", list[0].ID)
}

func TestTemplateServiceUnknownID(t *testing.T) {
	ts, err := NewTemplateService(writeCatalog(t, testCatalog))
	require.NoError(t, err)

	_, err = ts.Get("nope")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = ts.Resolve("nope", nil)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTemplateServiceEmptyCatalog(t *testing.T) {
	_, err := NewTemplateService(writeCatalog(t, "templates: []\n"))
	assert.Error(t, err)
}

func TestTemplateServiceMissingFile(t *testing.T) {
	_, err := NewTemplateService(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestTemplateServiceResolve(t *testing.T) {
	ts, err := NewTemplateService(writeCatalog(t, testCatalog))
	require.NoError(t, err)

	scenes, err := ts.Resolve("did-you-know", map[string]string{"topic": "cold showers"})
	require.NoError(t, err)
	require.Len(t, scenes, 3)

	assert.Equal(t, "Did you know cold showers could change everything?", scenes[0].Text)
	assert.Equal(t, "cold showers", scenes[0].Keywords)
	assert.Equal(t, "fade", scenes[0].Template.TransitionToNext)
	assert.Equal(t, "bold", scenes[0].Template.CaptionStyle)

	// LLM-scripted scenes carry the substituted prompt and no literal text.
	assert.Empty(t, scenes[1].Text)
	assert.Equal(t, "One surprising fact about cold showers", scenes[1].ScriptPrompt)

	assert.True(t, scenes[2].Silent)
	require.NotNil(t, scenes[2].Template.Duration)
	assert.Equal(t, 3.0, *scenes[2].Template.Duration)
}

func TestTemplateServiceResolveUnknownPlaceholder(t *testing.T) {
	ts, err := NewTemplateService(writeCatalog(t, testCatalog))
	require.NoError(t, err)

	// No inputs: placeholders stay visible instead of vanishing.
	scenes, err := ts.Resolve("did-you-know", nil)
	require.NoError(t, err)
	assert.Contains(t, scenes[0].Text, "{{topic}}")
}
