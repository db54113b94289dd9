package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"example.com/roster/internal/api"
	"example.com/roster/internal/domain"
	"example.com/roster/internal/registry"
	"example.com/roster/pkg/client"
)

func newServer(t *testing.T) *client.Client {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := domain.NewService(registry.NewInMemory(registry.DefaultSeed()), domain.WithLogger(logger))
	mux := http.NewServeMux()
	api.NewHandler(svc, logger).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return client.New(srv.URL+"/", client.WithHTTPClient(srv.Client()))
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newServer(t)

	require.NoError(t, c.Health(ctx))

	activities, err := c.ListActivities(ctx)
	require.NoError(t, err)
	require.Contains(t, activities, "Chess Club")
	require.Equal(t, 12, activities["Chess Club"].MaxParticipants)

	msg, err := c.Signup(ctx, "Chess Club", "new+student@mergington.edu")
	require.NoError(t, err)
	require.Equal(t, "Signed up new+student@mergington.edu for Chess Club", msg)

	activities, err = c.ListActivities(ctx)
	require.NoError(t, err)
	require.Contains(t, activities["Chess Club"].Participants, "new+student@mergington.edu")

	msg, err = c.Unregister(ctx, "Chess Club", "new+student@mergington.edu")
	require.NoError(t, err)
	require.Equal(t, "Unregistered new+student@mergington.edu from Chess Club", msg)
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	c := newServer(t)

	_, err := c.Signup(ctx, "Programming Class", "emma@mergington.edu")
	require.True(t, client.IsAlreadySignedUp(err), "got %v", err)
	require.False(t, client.IsNotFound(err))

	_, err = c.Unregister(ctx, "Soccer Team", "doesnotexist@mergington.edu")
	require.True(t, client.IsNotFound(err))
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Participant not found in this activity", apiErr.Detail)

	_, err = c.Signup(ctx, "Underwater Chess", "a@x.edu")
	require.True(t, client.IsNotFound(err))
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Activity not found", apiErr.Detail)
}

func TestAPIErrorMessage(t *testing.T) {
	require.Equal(t, "roster api: status 502", (&client.APIError{Status: 502}).Error())
	require.Equal(t, "roster api: status 404: Activity not found", (&client.APIError{Status: 404, Detail: "Activity not found"}).Error())
}
