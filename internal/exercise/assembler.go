package exercise

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source identifies which generation path produced an exercise.
type Source string

const (
	// SourceSemanticMatch is the embedding-similarity path.
	SourceSemanticMatch Source = "semantic_match"

	// SourceRandomTemplate is the experimental templated-random path.
	SourceRandomTemplate Source = "random_template"

	// SourceFallback is the static fallback path.
	SourceFallback Source = "fallback"
)

// GeneratedExercise is the externally visible exercise record. The
// assembler creates it and hands it to the caller; no long-lived
// reference is kept afterwards.
type GeneratedExercise struct {
	ID               string     `json:"id"`
	Topic            string     `json:"topic"`
	Difficulty       string     `json:"difficulty"`
	Question         string     `json:"question"`
	Hints            []string   `json:"hints"`
	Solution         string     `json:"solution,omitempty"`
	SolutionTemplate string     `json:"solution_template,omitempty"`
	TestCases        []TestCase `json:"test_cases"`
	Context          string     `json:"context,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
	Source           Source     `json:"source"`
	Fallback         bool       `json:"fallback"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Assemble turns a match into the exercise record. Fields come verbatim
// from the example; the template key is the exercise identifier; the
// supplied context, if any, is appended to the question text.
func Assemble(m *Match, contextText string) *GeneratedExercise {
	question := m.Example.Question
	if contextText != "" {
		question = fmt.Sprintf("%s\n\nContext: %s", question, contextText)
	}

	return &GeneratedExercise{
		ID:               m.Key,
		Topic:            m.Template.Topic,
		Difficulty:       m.Template.Difficulty,
		Question:         question,
		Hints:            m.Example.Hints,
		Solution:         m.Example.Solution,
		SolutionTemplate: solutionTemplate(m.Example.TestCases),
		TestCases:        m.Example.TestCases,
		Context:          contextText,
		Tags:             tags(m.Template.Topic, m.Template.Difficulty, m.Example),
		Source:           SourceSemanticMatch,
		CreatedAt:        time.Now().UTC(),
	}
}

// AssembleFallback emits the same shape from a fixed exercise with the
// fallback marker set, so callers can warn that results are
// lower-fidelity.
func AssembleFallback(fb FixedExercise, topic, difficulty string) *GeneratedExercise {
	return &GeneratedExercise{
		ID:         uuid.New().String(),
		Topic:      topic,
		Difficulty: difficulty,
		Question:   fb.Question,
		Hints:      fb.Hints,
		Solution:   fb.Solution,
		TestCases:  fb.TestCases,
		Source:     SourceFallback,
		Fallback:   true,
		CreatedAt:  time.Now().UTC(),
	}
}

// solutionTemplate derives a starter stub from the first test case:
// variable-assignment exercises get an initialization prompt, everything
// else gets a function skeleton.
func solutionTemplate(cases []TestCase) string {
	if len(cases) == 0 {
		return ""
	}
	input := cases[0].Input
	if strings.Contains(input, "=") {
		varName := strings.TrimSpace(strings.SplitN(input, "=", 2)[0])
		return fmt.Sprintf("# Initialize your %s variable here\n\n# Your code here\n", varName)
	}
	return fmt.Sprintf("def solution():\n    # Your code here\n    pass\n\n# Example usage:\n%s\n", input)
}

// tags derives searchable tags from the topic, difficulty, concept, and
// question content. Duplicates are removed, order is stable.
func tags(topic, difficulty string, e Example) []string {
	out := []string{topic, difficulty}
	for _, c := range strings.Split(e.Concept, " and ") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}

	question := strings.ToLower(e.Question)
	for keyword, tag := range map[string]string{
		"loop":     "loops",
		"function": "functions",
		"class":    "classes",
		"error":    "error-handling",
	} {
		if strings.Contains(question, keyword) {
			out = append(out, tag)
		}
	}

	seen := make(map[string]bool, len(out))
	unique := out[:0]
	for _, tag := range out {
		key := strings.ToLower(tag)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, tag)
		}
	}
	return unique
}
