// Package exercise implements exercise generation: semantic template
// matching over an embedding index, a static fallback path, assembly of
// the externally visible exercise record, and solution validation.
package exercise

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/taanya/pylearn/internal/embedding"
)

// TestCase is one input/expected-output pair for an exercise.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Explanation    string `json:"explanation,omitempty"`
}

// Example is one concrete exercise definition within a template.
// Immutable once loaded from the template source.
type Example struct {
	Action    string     `json:"action"`
	Concept   string     `json:"concept"`
	Question  string     `json:"question"`
	Hints     []string   `json:"hints"`
	Solution  string     `json:"solution"`
	TestCases []TestCase `json:"test_cases"`
}

// Template is a (topic, difficulty) bucket of candidate examples.
type Template struct {
	Topic      string    `json:"topic"`
	Difficulty string    `json:"difficulty"`
	Examples   []Example `json:"examples"`
}

// Key derives the deterministic identifier for an example within a
// template: topic_difficulty_action, action spaces replaced with
// underscores. Used both as the embedding-cache key and as the exercise
// identifier. Keys are not guaranteed unique if two examples share an
// action within one template; the first occurrence wins on lookup.
func (t Template) Key(e Example) string {
	action := strings.ReplaceAll(e.Action, " ", "_")
	return fmt.Sprintf("%s_%s_%s", t.Topic, t.Difficulty, action)
}

// embedText is the text encoded for an example when building the index.
func (t Template) embedText(e Example) string {
	return fmt.Sprintf("%s %s %s %s", t.Topic, t.Difficulty, e.Action, e.Concept)
}

// Library holds all loaded templates in source order.
type Library struct {
	templates []Template
}

// templateFile matches the template source format: a mapping with a
// top-level "templates" list.
type templateFile struct {
	Templates []Template `json:"templates"`
}

// LoadLibrary reads templates from a JSON file.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	var tf templateFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse template file: %w", err)
	}

	return NewLibrary(tf.Templates), nil
}

// NewLibrary creates a library from templates already in memory.
func NewLibrary(templates []Template) *Library {
	return &Library{templates: templates}
}

// Templates returns the templates in load order.
func (l *Library) Templates() []Template {
	return l.templates
}

// Len returns the total number of (template, example) pairs.
func (l *Library) Len() int {
	n := 0
	for _, t := range l.templates {
		n += len(t.Examples)
	}
	return n
}

// Entries returns the (key, text) pairs to embed for every
// (template, example) pair, in enumeration order.
func (l *Library) Entries() []embedding.Entry {
	entries := make([]embedding.Entry, 0, l.Len())
	for _, t := range l.templates {
		for _, e := range t.Examples {
			entries = append(entries, embedding.Entry{
				Key:  t.Key(e),
				Text: t.embedText(e),
			})
		}
	}
	return entries
}

// FindByKey returns the template and example for an exercise identifier.
// First occurrence wins when keys collide.
func (l *Library) FindByKey(key string) (Template, Example, bool) {
	for _, t := range l.templates {
		for _, e := range t.Examples {
			if t.Key(e) == key {
				return t, e, true
			}
		}
	}
	return Template{}, Example{}, false
}
