package common

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Prompts are the instructions sent to the LLM extractor. Empty fields keep the
// built-in defaults.
type Prompts struct {
	System string `toml:"system"`
	User   string `toml:"user"`
}

type promptsFile struct {
	Extraction Prompts `toml:"extraction"`
}

// LoadPrompts reads an optional TOML file of the form
//
//	[extraction]
//	system = "..."
//	user = "... %s ..."
//
// An empty path returns zero Prompts.
func LoadPrompts(path string) (Prompts, error) {
	if path == "" {
		return Prompts{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Prompts{}, fmt.Errorf("failed to read prompts file '%s': %w", path, err)
	}
	var f promptsFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return Prompts{}, fmt.Errorf("failed to parse prompts file '%s': %w", path, err)
	}
	return f.Extraction, nil
}
