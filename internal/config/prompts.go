package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptPair holds a system and user prompt template.
type PromptPair struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// SinglePrompt holds a single system prompt (no user template).
type SinglePrompt struct {
	System string `yaml:"system"`
}

// ExtractionPrompts holds crawler fallback extraction prompt templates.
type ExtractionPrompts struct {
	Ingredients SinglePrompt `yaml:"ingredients"`
}

// CuisinePrompts holds cuisine classification prompt templates.
type CuisinePrompts struct {
	Classify PromptPair `yaml:"classify"`
}

// RecipePrompts holds recipe generation prompt templates.
type RecipePrompts struct {
	Variation PromptPair `yaml:"variation"`
}

// Prompts is the top-level prompt configuration loaded from YAML.
type Prompts struct {
	Extraction ExtractionPrompts `yaml:"extraction"`
	Cuisine    CuisinePrompts    `yaml:"cuisine"`
	Recipe     RecipePrompts     `yaml:"recipe"`
}

// LoadPrompts reads and parses a YAML prompt configuration file.
func LoadPrompts(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var prompts Prompts
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompts YAML: %w", err)
	}

	return &prompts, nil
}

// RenderPrompt executes Go template interpolation on a prompt string.
// The data map provides values for placeholders like {{.Title}},
// {{.Ingredients}}, and {{.PantryItems}}.
func RenderPrompt(tmpl string, data map[string]interface{}) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt template: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}
