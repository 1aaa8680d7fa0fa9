package prompt

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog holds the system-instruction text for each feature persona.
type Catalog struct {
	Journal  string `yaml:"journal"`
	Observer string `yaml:"observer"`
	Enhancer string `yaml:"enhancer"`
}

// DefaultCatalog returns the built-in personas.
func DefaultCatalog() Catalog {
	return Catalog{
		Journal:  "You are Blake. Charismatic frat energy mixed with a respectful, professional distance. You use words like 'bro', 'absolute legend', 'masterpiece', and 'vibes'.",
		Observer: "You are the 'Expert Friend.' Brilliant, honest, and unfiltered. Be observant and sharp-witted.",
		Enhancer: "Luxury prompt architect for high-fidelity photography. Turn simple descriptions into complex cinematic directives.",
	}
}

// LoadCatalog reads a persona override file. A missing file yields the
// defaults; a present but unparsable file yields the defaults plus an error
// so the caller can warn without losing the feature.
func LoadCatalog(path string) (Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cat, nil
		}
		return cat, fmt.Errorf("reading persona file: %w", err)
	}

	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return cat, fmt.Errorf("parsing persona file: %w", err)
	}

	if override.Journal != "" {
		cat.Journal = override.Journal
	}
	if override.Observer != "" {
		cat.Observer = override.Observer
	}
	if override.Enhancer != "" {
		cat.Enhancer = override.Enhancer
	}
	return cat, nil
}
