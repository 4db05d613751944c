package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ideaflow/internal/model"
)

func TestDefault_EveryFieldHasPrompt(t *testing.T) {
	r := Default()
	for _, k := range model.FieldKeys {
		for _, lang := range []string{"en", "ar", "fr"} {
			assert.NotEmpty(t, r.Question(k, lang), "%s/%s", k, lang)
		}
	}
}

func TestQuestion_FallsBackToEnglish(t *testing.T) {
	r := Default()
	assert.Equal(t, r.Question(model.FieldTitle, "en"), r.Question(model.FieldTitle, "de"))
	assert.Empty(t, r.Question("nonexistent", "en"))
}

func TestOrdered(t *testing.T) {
	r := Default()
	got := r.Ordered([]string{model.FieldLocation, "zzz", model.FieldBusinessModel, model.FieldTitle})
	assert.Equal(t, []string{model.FieldTitle, model.FieldBusinessModel, model.FieldLocation, "zzz"}, got)
}

func TestLoadFile_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
prompts:
  - field_key: location
    priority: 1
    text:
      en: "Which city?"
`), 0o644))

	r, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Which city?", r.Question(model.FieldLocation, "en"))
	// Untouched languages keep the built-in text.
	assert.Equal(t, Default().Question(model.FieldLocation, "fr"), r.Question(model.FieldLocation, "fr"))
	assert.Equal(t, model.FieldLocation, r.Ordered([]string{model.FieldBusinessModel, model.FieldLocation})[0])
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prompts:\n  - field_key: budget\n"), 0o644))
	_, err = LoadFile(path)
	assert.ErrorContains(t, err, "unknown field")

	r, err := LoadFile("")
	require.NoError(t, err)
	assert.NotEmpty(t, r.Question(model.FieldTitle, "en"))
}
