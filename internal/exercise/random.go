package exercise

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// randomSpec is a parameterized exercise blueprint: placeholders in the
// question and solution are filled with randomly chosen values at
// generation time.
type randomSpec struct {
	topic      string
	difficulty string
	question   string
	solution   string
	hints      []string
	names      []string
	values     []int
}

var randomSpecs = []randomSpec{
	{
		topic:      "variables",
		difficulty: "beginner",
		question:   "Create a variable called '{name}' and assign it the value {value}. Then print the variable.",
		solution:   "{name} = {value}\nprint({name})",
		hints: []string{
			"Use the = operator to assign a value",
			"Use print() to display the variable",
		},
		names:  []string{"count", "total", "score", "age"},
		values: []int{5, 10, 42, 100},
	},
	{
		topic:      "loops",
		difficulty: "beginner",
		question:   "Write a for loop that prints the numbers from 1 to {value}.",
		solution:   "for i in range(1, {value} + 1):\n    print(i)",
		hints: []string{
			"range(1, n + 1) produces 1 through n",
			"The loop body must be indented",
		},
		values: []int{5, 7, 10},
	},
	{
		topic:      "functions",
		difficulty: "intermediate",
		question:   "Write a function called '{name}' that takes a number and returns it multiplied by {value}.",
		solution:   "def {name}(n):\n    return n * {value}",
		hints: []string{
			"Define the function with def",
			"Use return to produce the result",
		},
		names:  []string{"scale", "multiply", "grow"},
		values: []int{2, 3, 10},
	},
}

// RandomTemplate generates an exercise from a parameterized blueprint
// instead of the embedding matcher. It is an experimental path: output
// quality is below the semantic matcher and it should not be used as an
// availability fallback. Returns false when no blueprint covers the
// requested topic and difficulty.
func RandomTemplate(topic, difficulty string) (*GeneratedExercise, bool) {
	var candidates []randomSpec
	for _, s := range randomSpecs {
		if strings.EqualFold(s.topic, topic) && strings.EqualFold(s.difficulty, difficulty) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}

	spec := candidates[rand.Intn(len(candidates))]
	repl := []string{"{value}", fmt.Sprintf("%d", spec.values[rand.Intn(len(spec.values))])}
	if len(spec.names) > 0 {
		repl = append(repl, "{name}", spec.names[rand.Intn(len(spec.names))])
	}
	r := strings.NewReplacer(repl...)

	ex := Assemble(&Match{
		Template: Template{Topic: spec.topic, Difficulty: spec.difficulty},
		Example: Example{
			Question: r.Replace(spec.question),
			Hints:    spec.hints,
			Solution: r.Replace(spec.solution),
		},
		Key: uuid.New().String(),
	}, "")
	ex.Source = SourceRandomTemplate
	return ex, true
}
