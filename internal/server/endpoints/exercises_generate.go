package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/taanya/pylearn/internal/api"
	"github.com/taanya/pylearn/internal/exercise"
	"github.com/taanya/pylearn/internal/svcctx"
)

// GenerateRequest carries exercise generation parameters. Source
// selects the generation path: semantic_match (default) or
// random_template for blueprint-based variety without backend calls.
type GenerateRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Context    string `json:"context,omitempty"`
	Source     string `json:"source,omitempty"`
}

// GenerateResponse wraps the generated exercise with an optional
// degradation warning.
type GenerateResponse struct {
	Exercise *exercise.GeneratedExercise `json:"exercise"`
	Warning  string                      `json:"warning,omitempty"`
}

// GenerateEndpoint handles POST /exercises/generate.
type GenerateEndpoint struct{}

func (e *GenerateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/exercises/generate", e.handler
}

func (e *GenerateEndpoint) RequiresAuth() bool { return true }

func (e *GenerateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Topic == "" || req.Difficulty == "" {
		writeError(w, http.StatusBadRequest, "topic and difficulty are required")
		return
	}

	gen := svcctx.GeneratorFrom(r.Context())

	var ex *exercise.GeneratedExercise
	var err error
	switch exercise.Source(req.Source) {
	case "", exercise.SourceSemanticMatch:
		ex, err = gen.Generate(r.Context(), req.Topic, req.Difficulty, req.Context)
	case exercise.SourceRandomTemplate:
		ex, err = gen.GenerateRandom(req.Topic, req.Difficulty)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown source %q", req.Source))
		return
	}
	if err != nil {
		// The only generation error is a fallback tier missing from
		// configuration; nothing the client can fix.
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if st := svcctx.StoreFrom(r.Context()); st != nil {
		if err := st.SaveExercise(ex); err != nil {
			svcctx.LoggerFrom(r.Context()).Warn("failed to persist exercise", "id", ex.ID, "error", err)
		}
	}

	resp := GenerateResponse{Exercise: ex}
	if ex.Fallback {
		resp.Warning = "exercise generation is temporarily degraded, serving a standard exercise"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *GenerateEndpoint) Command(getServerURL func() string) *cobra.Command {
	var topic, difficulty, contextText string
	var random bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new exercise",
		RunE: func(cmd *cobra.Command, args []string) error {
			source := ""
			if random {
				source = string(exercise.SourceRandomTemplate)
			}
			client := api.NewClient(getServerURL())
			var resp GenerateResponse
			err := client.Post(cmd.Context(), "/exercises/generate", GenerateRequest{
				Topic:      topic,
				Difficulty: difficulty,
				Context:    contextText,
				Source:     source,
			}, &resp)
			if err != nil {
				return err
			}
			if resp.Warning != "" {
				fmt.Printf("Warning: %s\n\n", resp.Warning)
			}
			return api.Output(resp.Exercise)
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "exercise topic (e.g. variables, loops)")
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "difficulty (beginner, intermediate, advanced)")
	cmd.Flags().StringVarP(&contextText, "context", "c", "", "free-text context to steer the match")
	cmd.Flags().BoolVar(&random, "random", false, "use the blueprint-based random source instead of semantic matching")
	cmd.MarkFlagRequired("topic")
	cmd.MarkFlagRequired("difficulty")
	return cmd
}
