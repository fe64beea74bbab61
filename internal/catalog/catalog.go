// Package catalog holds the static list of logical models offered to users.
package catalog

import (
	_ "embed"
	"fmt"
	"regexp"

	"github.com/BurntSushi/toml"

	"chat_backend/internal/providers"
)

// Ability is a capability a model advertises.
type Ability string

const (
	AbilityReasoning       Ability = "reasoning"
	AbilityVision          Ability = "vision"
	AbilityFunctionCalling Ability = "function_calling"
	AbilityPDF             Ability = "pdf"
	AbilityEffortControl   Ability = "effort_control"
)

// Mode is what a model produces.
type Mode string

const (
	ModeText         Mode = "text"
	ModeImage        Mode = "image"
	ModeSpeechToText Mode = "speech-to-text"
)

// ValidAbility reports whether a belongs to the closed ability set.
func ValidAbility(a Ability) bool {
	switch a {
	case AbilityReasoning, AbilityVision, AbilityFunctionCalling, AbilityPDF, AbilityEffortControl:
		return true
	}
	return false
}

// ValidMode reports whether m is a known mode.
func ValidMode(m Mode) bool {
	switch m {
	case ModeText, ModeImage, ModeSpeechToText:
		return true
	}
	return false
}

var imageSizePattern = regexp.MustCompile(`^(\d+:\d+|\d+x\d+)(-hd)?$`)

// ModelDescriptor describes one logical model. Adapters are listed in
// preference order.
type ModelDescriptor struct {
	ID                         string    `toml:"id" json:"id"`
	Name                       string    `toml:"name" json:"name"`
	ShortName                  string    `toml:"short_name" json:"shortName,omitempty"`
	Adapters                   []string  `toml:"adapters" json:"adapters"`
	Abilities                  []Ability `toml:"abilities" json:"abilities"`
	Mode                       Mode      `toml:"mode" json:"mode"`
	ContextLength              int       `toml:"context_length" json:"contextLength,omitempty"`
	MaxTokens                  int       `toml:"max_tokens" json:"maxTokens,omitempty"`
	SupportedImageSizes        []string  `toml:"supported_image_sizes" json:"supportedImageSizes,omitempty"`
	CustomIcon                 string    `toml:"custom_icon" json:"customIcon,omitempty"`
	SupportsDisablingReasoning bool      `toml:"supports_disabling_reasoning" json:"supportsDisablingReasoning,omitempty"`
}

// Has reports whether the model advertises ability a.
func (m ModelDescriptor) Has(a Ability) bool {
	for _, have := range m.Abilities {
		if have == a {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (m ModelDescriptor) Clone() ModelDescriptor {
	out := m
	out.Adapters = append([]string(nil), m.Adapters...)
	out.Abilities = append([]Ability(nil), m.Abilities...)
	out.SupportedImageSizes = append([]string(nil), m.SupportedImageSizes...)
	return out
}

// Validate checks a catalog entry. Catalog adapters may only name core,
// internal or aggregator providers.
func (m ModelDescriptor) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("model id is required")
	}
	if m.Name == "" {
		return fmt.Errorf("model %q: name is required", m.ID)
	}
	if len(m.Adapters) == 0 {
		return fmt.Errorf("model %q: at least one adapter is required", m.ID)
	}
	for _, raw := range m.Adapters {
		a, err := providers.ParseAdapter(raw)
		if err != nil {
			return fmt.Errorf("model %q: %w", m.ID, err)
		}
		if a.Provider.Kind == providers.KindCustom {
			return fmt.Errorf("model %q: adapter %q names unknown provider %q", m.ID, raw, a.Provider.ID)
		}
	}
	for _, ab := range m.Abilities {
		if !ValidAbility(ab) {
			return fmt.Errorf("model %q: unknown ability %q", m.ID, ab)
		}
	}
	if !ValidMode(m.Mode) {
		return fmt.Errorf("model %q: unknown mode %q", m.ID, m.Mode)
	}
	for _, size := range m.SupportedImageSizes {
		if !imageSizePattern.MatchString(size) {
			return fmt.Errorf("model %q: invalid image size %q", m.ID, size)
		}
	}
	return nil
}

// Catalog is an ordered, immutable set of model descriptors.
type Catalog struct {
	models []ModelDescriptor
	index  map[string]int
}

// New validates models and builds a catalog. Missing modes default to text.
func New(models []ModelDescriptor) (*Catalog, error) {
	c := &Catalog{
		models: make([]ModelDescriptor, 0, len(models)),
		index:  make(map[string]int, len(models)),
	}
	for _, m := range models {
		m = m.Clone()
		if m.Mode == "" {
			m.Mode = ModeText
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.index[m.ID]; dup {
			return nil, fmt.Errorf("duplicate model id %q", m.ID)
		}
		c.index[m.ID] = len(c.models)
		c.models = append(c.models, m)
	}
	return c, nil
}

type catalogFile struct {
	Models []ModelDescriptor `toml:"models"`
}

// Parse decodes a TOML catalog. Unknown keys are rejected.
func Parse(data string) (*Catalog, error) {
	var f catalogFile
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode catalog: unknown key %q", undecoded[0].String())
	}
	return New(f.Models)
}

// ListModels returns copies of every model in catalog order.
func (c *Catalog) ListModels() []ModelDescriptor {
	out := make([]ModelDescriptor, len(c.models))
	for i, m := range c.models {
		out[i] = m.Clone()
	}
	return out
}

// Lookup returns a copy of the model with the given id.
func (c *Catalog) Lookup(id string) (ModelDescriptor, bool) {
	i, ok := c.index[id]
	if !ok {
		return ModelDescriptor{}, false
	}
	return c.models[i].Clone(), true
}

// Len returns the number of models.
func (c *Catalog) Len() int {
	return len(c.models)
}

// ByProvider maps each provider segment to the ids of the models that list
// an adapter for it, in catalog order.
func (c *Catalog) ByProvider() map[string][]string {
	out := make(map[string][]string)
	for _, m := range c.models {
		seen := make(map[string]bool, len(m.Adapters))
		for _, raw := range m.Adapters {
			a, err := providers.ParseAdapter(raw)
			if err != nil {
				continue
			}
			segment := a.Provider.String()
			if seen[segment] {
				continue
			}
			seen[segment] = true
			out[segment] = append(out[segment], m.ID)
		}
	}
	return out
}

//go:embed catalog.toml
var builtin string

var defaultCatalog = mustParse(builtin)

func mustParse(data string) *Catalog {
	c, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog.toml is invalid: %v", err))
	}
	return c
}

// Default returns the compiled-in catalog.
func Default() *Catalog {
	return defaultCatalog
}

// ListModels returns the models of the compiled-in catalog.
func ListModels() []ModelDescriptor {
	return defaultCatalog.ListModels()
}
