package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taanya/pylearn/internal/api"
	"github.com/taanya/pylearn/internal/auth"
	"github.com/taanya/pylearn/internal/svcctx"
)

// LoginRequest carries login credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// LoginEndpoint handles POST /auth/login.
type LoginEndpoint struct{}

func (e *LoginEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/auth/login", e.handler
}

func (e *LoginEndpoint) RequiresAuth() bool { return false }

func (e *LoginEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	a := svcctx.AuthenticatorFrom(r.Context())
	token, err := a.Login(req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Username: req.Username})
}

func (e *LoginEndpoint) Command(getServerURL func() string) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a session token",
		Long: `Log in with username and password and print a session token.

Export the token so other api commands can use it:
  export PYLEARN_TOKEN=$(pylearn api login -u taanya -p <password>)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp LoginResponse
			err := client.Post(cmd.Context(), "/auth/login", LoginRequest{
				Username: username,
				Password: password,
			}, &resp)
			if err != nil {
				return err
			}
			fmt.Println(resp.Token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")
	return cmd
}

// LogoutEndpoint handles POST /auth/logout. The session behind the
// presented token is revoked; the token stops verifying immediately.
type LogoutEndpoint struct{}

func (e *LogoutEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/auth/logout", e.handler
}

func (e *LogoutEndpoint) RequiresAuth() bool { return true }

func (e *LogoutEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	token, _ := strings.CutPrefix(header, "Bearer ")
	svcctx.AuthenticatorFrom(r.Context()).Logout(token)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (e *LogoutEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Post(cmd.Context(), "/auth/logout", nil, nil); err != nil {
				return err
			}
			fmt.Println("Logged out; unset PYLEARN_TOKEN")
			return nil
		},
	}
}
