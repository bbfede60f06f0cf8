package exercise

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteTemplates persists templates in the library source format.
func WriteTemplates(path string, templates []Template) error {
	data, err := json.MarshalIndent(templateFile{Templates: templates}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal templates: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write template file: %w", err)
	}
	return nil
}

// DefaultTemplates is the starter template set written on first init.
// Users extend the template file with their own material over time.
func DefaultTemplates() []Template {
	return []Template{
		{
			Topic:      "variables",
			Difficulty: "beginner",
			Examples: []Example{
				{
					Action:   "create variable",
					Concept:  "assignment",
					Question: "Create a variable called 'age' and assign it the value 25. Then print it.",
					Hints: []string{
						"Use the = operator to assign a value",
						"Use print() to display the variable",
					},
					Solution: "age = 25\nprint(age)",
					TestCases: []TestCase{
						{Input: "age = 25", ExpectedOutput: "25", Explanation: "The variable holds the assigned value"},
					},
				},
				{
					Action:   "string formatting",
					Concept:  "f-strings",
					Question: "Create variables 'name' and 'city', then print \"NAME lives in CITY\" using an f-string.",
					Hints: []string{
						"f-strings start with f before the quote",
						"Embed variables with {curly braces}",
					},
					Solution: "name = \"Taanya\"\ncity = \"Berlin\"\nprint(f\"{name} lives in {city}\")",
					TestCases: []TestCase{
						{Input: "name = \"Taanya\"", ExpectedOutput: "Taanya lives in Berlin"},
					},
				},
			},
		},
		{
			Topic:      "loops",
			Difficulty: "beginner",
			Examples: []Example{
				{
					Action:   "count to ten",
					Concept:  "for loop with range",
					Question: "Write a for loop that prints the numbers 1 through 10.",
					Hints: []string{
						"range(1, 11) yields 1 through 10",
					},
					Solution: "for i in range(1, 11):\n    print(i)",
					TestCases: []TestCase{
						{Input: "range(1, 11)", ExpectedOutput: "1 2 3 4 5 6 7 8 9 10"},
					},
				},
			},
		},
		{
			Topic:      "loops",
			Difficulty: "intermediate",
			Examples: []Example{
				{
					Action:   "sum even numbers",
					Concept:  "iteration and conditionals",
					Question: "Write a function sum_evens(nums) that returns the sum of the even numbers in a list.",
					Hints: []string{
						"n % 2 == 0 tests for even",
						"Accumulate into a running total",
					},
					Solution: "def sum_evens(nums):\n    total = 0\n    for n in nums:\n        if n % 2 == 0:\n            total += n\n    return total",
					TestCases: []TestCase{
						{Input: "sum_evens([1, 2, 3, 4])", ExpectedOutput: "6"},
						{Input: "sum_evens([])", ExpectedOutput: "0"},
					},
				},
			},
		},
		{
			Topic:      "functions",
			Difficulty: "intermediate",
			Examples: []Example{
				{
					Action:   "default arguments",
					Concept:  "function parameters and defaults",
					Question: "Write a function greet(name, greeting=\"Hello\") that returns \"GREETING, NAME!\".",
					Hints: []string{
						"Default values go in the parameter list",
						"Build the result with an f-string",
					},
					Solution: "def greet(name, greeting=\"Hello\"):\n    return f\"{greeting}, {name}!\"",
					TestCases: []TestCase{
						{Input: "greet(\"Taanya\")", ExpectedOutput: "Hello, Taanya!"},
						{Input: "greet(\"Taanya\", \"Hi\")", ExpectedOutput: "Hi, Taanya!"},
					},
				},
			},
		},
		{
			Topic:      "lists",
			Difficulty: "intermediate",
			Examples: []Example{
				{
					Action:   "filter with comprehension",
					Concept:  "list comprehensions",
					Question: "Write a function longer_than(words, n) that returns the words longer than n characters, using a list comprehension.",
					Hints: []string{
						"[w for w in words if ...]",
						"len(w) gives a word's length",
					},
					Solution: "def longer_than(words, n):\n    return [w for w in words if len(w) > n]",
					TestCases: []TestCase{
						{Input: "longer_than([\"a\", \"tree\", \"sky\"], 2)", ExpectedOutput: "['tree', 'sky']"},
					},
				},
			},
		},
		{
			Topic:      "functions",
			Difficulty: "advanced",
			Examples: []Example{
				{
					Action:   "memoize recursion",
					Concept:  "decorators and caching",
					Question: "Write a memoized fibonacci(n) using functools.lru_cache so large inputs stay fast.",
					Hints: []string{
						"Import lru_cache from functools",
						"Apply it as a decorator above the function",
					},
					Solution: "from functools import lru_cache\n\n@lru_cache(maxsize=None)\ndef fibonacci(n):\n    if n < 2:\n        return n\n    return fibonacci(n - 1) + fibonacci(n - 2)",
					TestCases: []TestCase{
						{Input: "fibonacci(10)", ExpectedOutput: "55"},
						{Input: "fibonacci(50)", ExpectedOutput: "12586269025"},
					},
				},
			},
		},
		{
			Topic:      "error-handling",
			Difficulty: "advanced",
			Examples: []Example{
				{
					Action:   "safe division",
					Concept:  "exceptions and custom errors",
					Question: "Write safe_divide(a, b) that raises a ValueError with the message \"cannot divide by zero\" when b is 0, and returns a / b otherwise.",
					Hints: []string{
						"raise ValueError(\"message\")",
						"Check b before dividing",
					},
					Solution: "def safe_divide(a, b):\n    if b == 0:\n        raise ValueError(\"cannot divide by zero\")\n    return a / b",
					TestCases: []TestCase{
						{Input: "safe_divide(10, 2)", ExpectedOutput: "5.0"},
						{Input: "safe_divide(1, 0)", ExpectedOutput: "ValueError: cannot divide by zero"},
					},
				},
			},
		},
	}
}
