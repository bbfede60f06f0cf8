package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taanya/pylearn/internal/api"
	"github.com/taanya/pylearn/internal/exercise"
	"github.com/taanya/pylearn/internal/store"
	"github.com/taanya/pylearn/internal/svcctx"
)

// ListExercisesResponse is the response for the exercise list endpoint.
type ListExercisesResponse struct {
	Exercises []*exercise.GeneratedExercise `json:"exercises"`
	Count     int                           `json:"count"`
}

// ListExercisesEndpoint handles GET /exercises.
type ListExercisesEndpoint struct{}

func (e *ListExercisesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/exercises", e.handler
}

func (e *ListExercisesEndpoint) RequiresAuth() bool { return true }

func (e *ListExercisesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	exercises, err := svcctx.StoreFrom(r.Context()).ListExercises()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list exercises")
		return
	}

	topic := r.URL.Query().Get("topic")
	difficulty := r.URL.Query().Get("difficulty")
	if topic != "" || difficulty != "" {
		filtered := exercises[:0]
		for _, ex := range exercises {
			if topic != "" && !strings.EqualFold(ex.Topic, topic) {
				continue
			}
			if difficulty != "" && !strings.EqualFold(ex.Difficulty, difficulty) {
				continue
			}
			filtered = append(filtered, ex)
		}
		exercises = filtered
	}

	writeJSON(w, http.StatusOK, ListExercisesResponse{
		Exercises: exercises,
		Count:     len(exercises),
	})
}

func (e *ListExercisesEndpoint) Command(getServerURL func() string) *cobra.Command {
	var topic, difficulty string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved exercises",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if topic != "" {
				query.Set("topic", topic)
			}
			if difficulty != "" {
				query.Set("difficulty", difficulty)
			}
			path := "/exercises"
			if len(query) > 0 {
				path += "?" + query.Encode()
			}

			client := api.NewClient(getServerURL())
			var resp ListExercisesResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			for _, ex := range resp.Exercises {
				marker := ""
				if ex.Fallback {
					marker = " (fallback)"
				}
				fmt.Printf("%s  %s/%s%s\n", ex.ID, ex.Topic, ex.Difficulty, marker)
			}
			fmt.Printf("\n%d exercise(s)\n", resp.Count)
			return nil
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "filter by topic")
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "filter by difficulty")
	return cmd
}

// GetExerciseEndpoint handles GET /exercises/{id}.
type GetExerciseEndpoint struct{}

func (e *GetExerciseEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/exercises/{id}", e.handler
}

func (e *GetExerciseEndpoint) RequiresAuth() bool { return true }

func (e *GetExerciseEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ex, err := svcctx.StoreFrom(r.Context()).GetExercise(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("exercise %s not found", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load exercise")
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (e *GetExerciseEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a saved exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var ex exercise.GeneratedExercise
			if err := client.Get(cmd.Context(), "/exercises/"+args[0], &ex); err != nil {
				return err
			}
			return api.Output(ex)
		},
	}
}

// DeleteExerciseEndpoint handles DELETE /exercises/{id}.
type DeleteExerciseEndpoint struct{}

func (e *DeleteExerciseEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/exercises/{id}", e.handler
}

func (e *DeleteExerciseEndpoint) RequiresAuth() bool { return true }

func (e *DeleteExerciseEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := svcctx.StoreFrom(r.Context()).DeleteExercise(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("exercise %s not found", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete exercise")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (e *DeleteExerciseEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/exercises/"+args[0], nil); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}
