package exercise

import (
	"fmt"
	"strings"
)

// FixedExercise is a static, hand-authored exercise returned when the
// semantic backend cannot be used.
type FixedExercise struct {
	Title     string
	Question  string
	Hints     []string
	Solution  string
	TestCases []TestCase
}

// Fallbacks is the in-memory table of fixed exercises keyed by
// difficulty tier, seeded at startup.
type Fallbacks struct {
	byDifficulty map[string]FixedExercise
}

// NewFallbacks creates a fallback table. Keys are lowercased.
func NewFallbacks(table map[string]FixedExercise) *Fallbacks {
	byDifficulty := make(map[string]FixedExercise, len(table))
	for tier, ex := range table {
		byDifficulty[strings.ToLower(tier)] = ex
	}
	return &Fallbacks{byDifficulty: byDifficulty}
}

// Get returns the fixed exercise for a difficulty tier (case-insensitive).
// An undeclared tier is a configuration error, never a silent empty result.
func (f *Fallbacks) Get(difficulty string) (FixedExercise, error) {
	ex, ok := f.byDifficulty[strings.ToLower(difficulty)]
	if !ok {
		return FixedExercise{}, fmt.Errorf("no fallback exercise configured for difficulty %q", difficulty)
	}
	return ex, nil
}

// Tiers returns the declared difficulty tiers.
func (f *Fallbacks) Tiers() []string {
	tiers := make([]string, 0, len(f.byDifficulty))
	for tier := range f.byDifficulty {
		tiers = append(tiers, tier)
	}
	return tiers
}

// DefaultFallbacks returns the built-in fallback table covering every
// difficulty tier the platform serves.
func DefaultFallbacks() *Fallbacks {
	return NewFallbacks(map[string]FixedExercise{
		"beginner": {
			Title:    "Basic Python Variables",
			Question: "Create variables for your name and age, then print a message using both.",
			Hints: []string{
				"Remember to use appropriate variable names",
				"String variables need quotes",
				"Use f-strings for formatted output",
			},
			Solution: "name = \"Student\"\nage = 20\nprint(f\"Hello, my name is {name} and I am {age} years old.\")",
			TestCases: []TestCase{
				{
					Input:          "name = \"Student\"",
					ExpectedOutput: "Hello, my name is Student and I am 20 years old.",
					Explanation:    "The printed message should include both variables",
				},
			},
		},
		"intermediate": {
			Title:    "List Comprehension Practice",
			Question: "Write a function squares(n) that returns a list of the squares of 1 through n using a list comprehension.",
			Hints: []string{
				"A list comprehension has the form [expr for x in iterable]",
				"range(1, n + 1) covers 1 through n inclusive",
			},
			Solution: "def squares(n):\n    return [x * x for x in range(1, n + 1)]",
			TestCases: []TestCase{
				{
					Input:          "squares(4)",
					ExpectedOutput: "[1, 4, 9, 16]",
					Explanation:    "Squares of 1 through 4",
				},
			},
		},
		"advanced": {
			Title:    "Memoized Fibonacci",
			Question: "Implement fib(n) with memoization so repeated calls run in linear time.",
			Hints: []string{
				"A dictionary can cache already-computed values",
				"functools.lru_cache is the idiomatic shortcut",
			},
			Solution: "from functools import lru_cache\n\n@lru_cache(maxsize=None)\ndef fib(n):\n    if n < 2:\n        return n\n    return fib(n - 1) + fib(n - 2)",
			TestCases: []TestCase{
				{
					Input:          "fib(10)",
					ExpectedOutput: "55",
					Explanation:    "The tenth Fibonacci number",
				},
			},
		},
	})
}
