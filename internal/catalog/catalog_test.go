package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogLoads(t *testing.T) {
	models := ListModels()
	require.NotEmpty(t, models)

	seen := map[string]bool{}
	for _, m := range models {
		assert.False(t, seen[m.ID], "duplicate %s", m.ID)
		seen[m.ID] = true
		assert.NoError(t, m.Validate())
	}

	gpt, ok := Default().Lookup("gpt-4o")
	require.True(t, ok)
	assert.Equal(t, []string{"openai:gpt-4o", "openrouter:openai/gpt-4o"}, gpt.Adapters)
	assert.Equal(t, ModeText, gpt.Mode)
	assert.True(t, gpt.Has(AbilityVision))
	assert.False(t, gpt.Has(AbilityReasoning))
}

func TestListModels_ReturnsCopies(t *testing.T) {
	first := ListModels()
	first[0].Adapters[0] = "mutated:model"
	first[0].Name = "mutated"

	second := ListModels()
	assert.NotEqual(t, "mutated:model", second[0].Adapters[0])
	assert.NotEqual(t, "mutated", second[0].Name)
}

func TestListModels_OrderIsStable(t *testing.T) {
	assert.Equal(t, ListModels(), ListModels())
}

func TestParse(t *testing.T) {
	c, err := Parse(`
[[models]]
id = "a"
name = "A"
adapters = ["openai:a", "i3-groq:a"]
abilities = ["reasoning"]

[[models]]
id = "img"
name = "Image"
adapters = ["google:img"]
mode = "image"
supported_image_sizes = ["1:1", "1024x1024-hd"]
`)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	a, ok := c.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, ModeText, a.Mode)

	_, ok = c.Lookup("missing")
	assert.False(t, ok)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"custom provider", `[[models]]
id = "a"
name = "A"
adapters = ["my-endpoint:a"]`},
		{"no adapters", `[[models]]
id = "a"
name = "A"`},
		{"bad ability", `[[models]]
id = "a"
name = "A"
adapters = ["openai:a"]
abilities = ["telepathy"]`},
		{"bad mode", `[[models]]
id = "a"
name = "A"
adapters = ["openai:a"]
mode = "video"`},
		{"bad image size", `[[models]]
id = "a"
name = "A"
adapters = ["openai:a"]
supported_image_sizes = ["large"]`},
		{"duplicate id", `[[models]]
id = "a"
name = "A"
adapters = ["openai:a"]
[[models]]
id = "a"
name = "A"
adapters = ["openai:a"]`},
		{"unknown key", `[[models]]
id = "a"
name = "A"
adapters = ["openai:a"]
price = 3`},
		{"malformed", `[[models]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestByProvider(t *testing.T) {
	c, err := New([]ModelDescriptor{
		{ID: "a", Name: "A", Adapters: []string{"openai:a", "openrouter:openai/a"}},
		{ID: "b", Name: "B", Adapters: []string{"i3-openai:b", "openai:b", "openai:b-alt"}},
	})
	require.NoError(t, err)

	groups := c.ByProvider()
	assert.Equal(t, []string{"a", "b"}, groups["openai"])
	assert.Equal(t, []string{"a"}, groups["openrouter"])
	assert.Equal(t, []string{"b"}, groups["i3-openai"])
}

func TestNew_DoesNotAliasInput(t *testing.T) {
	input := []ModelDescriptor{{ID: "a", Name: "A", Adapters: []string{"openai:a"}}}
	c, err := New(input)
	require.NoError(t, err)

	input[0].Adapters[0] = "xai:changed"
	m, _ := c.Lookup("a")
	assert.Equal(t, "openai:a", m.Adapters[0])
}
