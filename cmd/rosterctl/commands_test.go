package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/roster/internal/api"
	"example.com/roster/internal/domain"
	"example.com/roster/internal/registry"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	mux := http.NewServeMux()
	api.NewHandler(domain.NewService(registry.NewInMemory(registry.DefaultSeed())), nil).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", srv.URL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	out, err := runCLI(t, "list")
	require.NoError(t, err)
	require.Contains(t, out, "Chess Club (2/12)")
	require.Contains(t, out, "michael@mergington.edu, daniel@mergington.edu")
}

func TestListCommandJSON(t *testing.T) {
	out, err := runCLI(t, "list", "--json")
	require.NoError(t, err)
	require.Contains(t, out, `"max_participants": 12`)
}

func TestSignupCommand(t *testing.T) {
	out, err := runCLI(t, "signup", "Chess Club", "new@mergington.edu")
	require.NoError(t, err)
	require.Contains(t, out, "Signed up new@mergington.edu for Chess Club")
}

func TestSignupCommandDuplicate(t *testing.T) {
	_, err := runCLI(t, "signup", "Gym Class", "john@mergington.edu")
	require.ErrorContains(t, err, "Student already signed up for this activity")
}

func TestUnregisterCommandAlias(t *testing.T) {
	out, err := runCLI(t, "drop", "Gym Class", "john@mergington.edu")
	require.NoError(t, err)
	require.Contains(t, out, "Unregistered john@mergington.edu from Gym Class")
}

func TestHealthCommand(t *testing.T) {
	out, err := runCLI(t, "health")
	require.NoError(t, err)
	require.Contains(t, out, "ok")
}

func TestSignupCommandRequiresTwoArgs(t *testing.T) {
	_, err := runCLI(t, "signup", "Chess Club")
	require.Error(t, err)
}
