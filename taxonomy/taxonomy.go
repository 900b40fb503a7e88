// Package taxonomy holds the static challenge categories and the stimulus
// word pool. Both are embedded and read-only after load.
package taxonomy

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data.yaml
var embeddedData []byte

// Category 是挑战领域。
type Category struct {
	ID            string        `yaml:"id" json:"id"`
	Label         string        `yaml:"label" json:"label"`
	Icon          string        `yaml:"icon" json:"icon"`
	Subcategories []Subcategory `yaml:"subcategories" json:"subcategories"`
}

// Subcategory 是领域下的具体场景，Prompts 是引导用户描述难题的示例。
type Subcategory struct {
	ID      string   `yaml:"id" json:"id"`
	Label   string   `yaml:"label" json:"label"`
	Prompts []string `yaml:"prompts" json:"prompts"`
}

// WordGroup is one themed slice of the stimulus pool.
type WordGroup struct {
	Name  string   `yaml:"name" json:"name"`
	Words []string `yaml:"words" json:"words"`
}

// Taxonomy is the parsed data file.
type Taxonomy struct {
	Categories []Category  `yaml:"categories" json:"categories"`
	Stimuli    []WordGroup `yaml:"stimuli" json:"stimuli"`
}

// ErrNotFound is returned by Resolve for unknown keys.
var ErrNotFound = errors.New("taxonomy entry not found")

// Parse decodes a taxonomy document and checks ids are unique.
func Parse(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	seen := make(map[string]bool)
	for _, c := range t.Categories {
		if c.ID == "" || c.Label == "" {
			return nil, errors.New("parse taxonomy: category without id or label")
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("parse taxonomy: duplicate category %q", c.ID)
		}
		seen[c.ID] = true
	}
	return &t, nil
}

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
)

// Default returns the embedded taxonomy. It panics if the embedded file is
// broken, which the package tests guard against.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		t, err := Parse(embeddedData)
		if err != nil {
			panic(err)
		}
		defaultTax = t
	})
	return defaultTax
}

// StimulusPool returns the word groups in file order. Callers get fresh
// slices and cannot mutate the shared pool.
func (t *Taxonomy) StimulusPool() [][]string {
	pool := make([][]string, len(t.Stimuli))
	for i, g := range t.Stimuli {
		pool[i] = append([]string(nil), g.Words...)
	}
	return pool
}

// Resolve finds a category and subcategory by id or label (case-insensitive).
func (t *Taxonomy) Resolve(categoryKey, subcategoryKey string) (Category, Subcategory, error) {
	for _, c := range t.Categories {
		if !matches(c.ID, c.Label, categoryKey) {
			continue
		}
		for _, s := range c.Subcategories {
			if matches(s.ID, s.Label, subcategoryKey) {
				return c, s, nil
			}
		}
		return Category{}, Subcategory{}, fmt.Errorf("subcategory %q in %q: %w", subcategoryKey, c.Label, ErrNotFound)
	}
	return Category{}, Subcategory{}, fmt.Errorf("category %q: %w", categoryKey, ErrNotFound)
}

func matches(id, label, key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && (strings.EqualFold(id, key) || label == key)
}
