package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/taanya/pylearn/internal/api"
	"github.com/taanya/pylearn/internal/exercise"
	"github.com/taanya/pylearn/internal/store"
	"github.com/taanya/pylearn/internal/svcctx"
)

// SubmitRequest carries a solution submission.
type SubmitRequest struct {
	Code string `json:"code"`
}

// SubmitEndpoint handles POST /exercises/{id}/submit.
type SubmitEndpoint struct{}

func (e *SubmitEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/exercises/{id}/submit", e.handler
}

func (e *SubmitEndpoint) RequiresAuth() bool { return true }

func (e *SubmitEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	ex, err := st.GetExercise(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("exercise %s not found", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load exercise")
		return
	}

	result := exercise.Validate(ex, req.Code)

	username := svcctx.UserFrom(r.Context())
	if _, err := st.RecordAttempt(username, store.Attempt{
		ExerciseID:  id,
		Code:        req.Code,
		IsCorrect:   result.IsCorrect,
		Feedback:    result.Feedback,
		SubmittedAt: time.Now().UTC(),
	}); err != nil {
		svcctx.LoggerFrom(r.Context()).Warn("failed to record attempt", "exercise", id, "error", err)
	}

	writeJSON(w, http.StatusOK, result)
}

func (e *SubmitEndpoint) Command(getServerURL func() string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "submit <id>",
		Short: "Submit a solution for an exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read solution file: %w", err)
			}

			client := api.NewClient(getServerURL())
			var result exercise.ValidationResult
			err = client.Post(cmd.Context(), "/exercises/"+args[0]+"/submit", SubmitRequest{
				Code: string(code),
			}, &result)
			if err != nil {
				return err
			}

			if result.IsCorrect {
				fmt.Println("Correct!")
			} else {
				fmt.Println("Not quite.")
			}
			fmt.Printf("%s\n", result.Feedback)
			fmt.Printf("Test cases: %d/%d passed\n", result.PassedTestCases, result.TotalTestCases)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the solution file")
	cmd.MarkFlagRequired("file")
	return cmd
}
