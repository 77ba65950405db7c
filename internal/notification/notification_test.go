package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	out := RenderTemplate("{{days}}-day streak! +{{bonus_xp}} XP", map[string]any{
		"days":     30,
		"bonus_xp": 1000,
	})
	assert.Equal(t, "30-day streak! +1000 XP", out)
}

func TestRenderTemplateMissingKeyLeftIntact(t *testing.T) {
	out := RenderTemplate("Hello {{name}}", map[string]any{"other": "x"})
	assert.Equal(t, "Hello {{name}}", out)
}

func TestRenderTemplateNilData(t *testing.T) {
	out := RenderTemplate("Static title", nil)
	assert.Equal(t, "Static title", out)
}

func TestRenderTemplateRepeatedPlaceholder(t *testing.T) {
	out := RenderTemplate("{{rank}} and {{rank}} again", map[string]any{"rank": 8})
	assert.Equal(t, "8 and 8 again", out)
}
