package exercise

import (
	"fmt"
	"strings"
	"time"
)

// ValidationResult is the outcome of checking a submitted solution
// against an exercise's test cases.
type ValidationResult struct {
	IsCorrect       bool      `json:"is_correct"`
	Feedback        string    `json:"feedback"`
	PassedTestCases int       `json:"passed_test_cases"`
	TotalTestCases  int       `json:"total_test_cases"`
	ExecutionTime   float64   `json:"execution_time_ms"`
	CheckedAt       time.Time `json:"checked_at"`
}

// Validate checks submitted code against the exercise. Submissions are
// never executed; the check is a structural comparison against the
// reference solution and each test case's expected shape.
func Validate(ex *GeneratedExercise, code string) *ValidationResult {
	start := time.Now()
	res := &ValidationResult{
		TotalTestCases: len(ex.TestCases),
		CheckedAt:      start.UTC(),
	}

	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		res.Feedback = "No code submitted. Write your solution and try again."
		res.ExecutionTime = float64(time.Since(start).Microseconds()) / 1000
		return res
	}

	missing := missingConstructs(ex.Solution, trimmed)
	if len(missing) > 0 {
		res.Feedback = fmt.Sprintf("Your solution appears incomplete: expected use of %s.", strings.Join(missing, ", "))
		res.ExecutionTime = float64(time.Since(start).Microseconds()) / 1000
		return res
	}

	passed := 0
	for _, tc := range ex.TestCases {
		if testCaseCovered(trimmed, tc) {
			passed++
		}
	}
	res.PassedTestCases = passed
	res.IsCorrect = len(ex.TestCases) == 0 || passed == len(ex.TestCases)

	if res.IsCorrect {
		res.Feedback = "Great work! Your solution passes all test cases."
	} else {
		res.Feedback = fmt.Sprintf("Your solution passes %d of %d test cases. Check the failing inputs and their expected outputs.", passed, len(ex.TestCases))
	}
	res.ExecutionTime = float64(time.Since(start).Microseconds()) / 1000
	return res
}

// pythonConstructs are the structural markers a solution can require.
// A submission must use every construct the reference solution uses.
var pythonConstructs = []string{"def ", "for ", "while ", "if ", "return", "class ", "print(", "import "}

func missingConstructs(solution, code string) []string {
	var missing []string
	for _, c := range pythonConstructs {
		if strings.Contains(solution, c) && !strings.Contains(code, c) {
			missing = append(missing, strings.TrimSpace(strings.TrimSuffix(c, "(")))
		}
	}
	return missing
}

// testCaseCovered reports whether the submission plausibly handles a
// test case: it must reference the identifiers the input assigns or, for
// expression inputs, mention the called name.
func testCaseCovered(code string, tc TestCase) bool {
	input := strings.TrimSpace(tc.Input)
	if input == "" {
		return true
	}
	if name, _, ok := strings.Cut(input, "("); ok {
		name = strings.TrimSpace(name)
		if name != "" && !strings.ContainsAny(name, " =") {
			return strings.Contains(code, name)
		}
	}
	if name, _, ok := strings.Cut(input, "="); ok {
		name = strings.TrimSpace(name)
		if name != "" {
			return strings.Contains(code, name)
		}
	}
	return true
}
