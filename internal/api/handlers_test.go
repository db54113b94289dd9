package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"example.com/roster/internal/domain"
	"example.com/roster/internal/registry"
)

func newTestMux(t *testing.T, reg domain.Registry) *http.ServeMux {
	t.Helper()
	logger := zaptest.NewLogger(t)
	handler := NewHandler(domain.NewService(reg, domain.WithLogger(logger)), logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux
}

func scenarioRegistry() *registry.InMemory {
	return registry.NewInMemory([]domain.Activity{
		{Name: "Chess Club", Description: "Learn strategies", Schedule: "Fridays, 3:30 PM - 5:00 PM", MaxParticipants: 12},
		{Name: "Programming Class", Description: "Code", Schedule: "Tuesdays", MaxParticipants: 20, Participants: []string{"existing@x.edu"}},
		{Name: "Gym Class", Description: "Gym", Schedule: "Mondays", MaxParticipants: 30, Participants: []string{"bob@x.edu"}},
		{Name: "Soccer Team", Description: "Soccer", Schedule: "Thursdays", MaxParticipants: 22},
	})
}

func rosterURL(activity, action, email string) string {
	u := "/activities/" + url.PathEscape(activity) + "/" + action
	if email != "" {
		u += "?email=" + url.QueryEscape(email)
	}
	return u
}

func do(t *testing.T, mux http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeActivities(t *testing.T, rr *httptest.ResponseRecorder) map[string]ActivityView {
	t.Helper()
	var resp map[string]ActivityView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestListActivitiesDefaultSeed(t *testing.T) {
	mux := newTestMux(t, registry.NewInMemory(registry.DefaultSeed()))

	rr := do(t, mux, http.MethodGet, "/activities")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	resp := decodeActivities(t, rr)
	chess, ok := resp["Chess Club"]
	require.True(t, ok)
	require.Equal(t, "Fridays, 3:30 PM - 5:00 PM", chess.Schedule)
	require.Equal(t, 12, chess.MaxParticipants)
	require.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu"}, chess.Participants)
}

func TestListActivitiesEmptyRosterIsArray(t *testing.T) {
	mux := newTestMux(t, scenarioRegistry())

	rr := do(t, mux, http.MethodGet, "/activities")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"participants":[]`)
}

func TestSignupThenListShowsParticipant(t *testing.T) {
	mux := newTestMux(t, scenarioRegistry())

	rr := do(t, mux, http.MethodPost, rosterURL("Chess Club", "signup", "a@x.edu"))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var msg MessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &msg))
	require.Equal(t, "Signed up a@x.edu for Chess Club", msg.Message)

	list := decodeActivities(t, do(t, mux, http.MethodGet, "/activities"))
	require.Equal(t, []string{"a@x.edu"}, list["Chess Club"].Participants)
}

func TestSignupDuplicate(t *testing.T) {
	mux := newTestMux(t, scenarioRegistry())

	rr := do(t, mux, http.MethodPost, rosterURL("Programming Class", "signup", "existing@x.edu"))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, DetailAlreadySignedUp, decodeError(t, rr).Detail)

	list := decodeActivities(t, do(t, mux, http.MethodGet, "/activities"))
	require.Equal(t, []string{"existing@x.edu"}, list["Programming Class"].Participants)
}

func TestSignupUnknownActivity(t *testing.T) {
	mux := newTestMux(t, scenarioRegistry())

	rr := do(t, mux, http.MethodPost, rosterURL("Quidditch", "signup", "a@x.edu"))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, DetailActivityNotFound, decodeError(t, rr).Detail)
}

func TestSignupMissingEmail(t *testing.T) {
	mux := newTestMux(t, scenarioRegistry())

	rr := do(t, mux, http.MethodPost, rosterURL("Chess Club", "signup", ""))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "validation_failed", decodeError(t, rr).Type)
}

func TestUnregisterSuccess(t *testing.T) {
	mux := newTestMux(t, scenarioRegistry())

	rr := do(t, mux, http.MethodDelete, rosterURL("Gym Class", "unregister", "bob@x.edu"))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var msg MessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &msg))
	require.Equal(t, "Unregistered bob@x.edu from Gym Class", msg.Message)

	list := decodeActivities(t, do(t, mux, http.MethodGet, "/activities"))
	require.Empty(t, list["Gym Class"].Participants)
}

func TestUnregisterParticipantNotFound(t *testing.T) {
	mux := newTestMux(t, scenarioRegistry())

	rr := do(t, mux, http.MethodDelete, rosterURL("Soccer Team", "unregister", "ghost@x.edu"))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, DetailParticipantNotFound, decodeError(t, rr).Detail)
}

func TestUnregisterActivityNotFound(t *testing.T) {
	mux := newTestMux(t, scenarioRegistry())

	rr := do(t, mux, http.MethodDelete, rosterURL("Ghost Club", "unregister", "bob@x.edu"))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, DetailActivityNotFound, decodeError(t, rr).Detail)
}

func TestWrongMethodIsRejected(t *testing.T) {
	mux := newTestMux(t, scenarioRegistry())

	rr := do(t, mux, http.MethodGet, rosterURL("Chess Club", "signup", "a@x.edu"))
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestEmptyActivitySegmentIsNotRouted(t *testing.T) {
	reg := scenarioRegistry()
	mux := newTestMux(t, reg)

	rr := do(t, mux, http.MethodPost, "/activities//signup?email=a@x.edu")
	require.NotEqual(t, http.StatusOK, rr.Code)

	activities, err := reg.List(context.Background())
	require.NoError(t, err)
	for _, activity := range activities {
		require.NotContains(t, activity.Participants, "a@x.edu")
	}
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(t, scenarioRegistry())

	rr := do(t, mux, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestRegistryFailureIsServerError(t *testing.T) {
	mux := newTestMux(t, failingRegistry{err: errors.New("storage unavailable")})

	rr := do(t, mux, http.MethodGet, "/activities")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "server_error", decodeError(t, rr).Type)

	rr = do(t, mux, http.MethodPost, rosterURL("Chess Club", "signup", "a@x.edu"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

type failingRegistry struct {
	err error
}

func (f failingRegistry) List(context.Context) (map[string]domain.Activity, error) {
	return nil, f.err
}

func (f failingRegistry) AddParticipant(context.Context, string, string) (domain.Activity, error) {
	return domain.Activity{}, f.err
}

func (f failingRegistry) RemoveParticipant(context.Context, string, string) (domain.Activity, error) {
	return domain.Activity{}, f.err
}
