package teams

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notiteams/activity-api/internal/cards"
	"github.com/notiteams/activity-api/pkg/logging"
)

const testTokenPath = "/botframework.com/oauth2/v2.0/token"

// connectorStub fakes the login and connector endpoints together.
type connectorStub struct {
	tokenHits  atomic.Int64
	activities func(w http.ResponseWriter, r *http.Request)
}

func (s *connectorStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == testTokenPath {
		s.tokenHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
		return
	}
	if strings.HasPrefix(r.URL.Path, "/v3/conversations/") && s.activities != nil {
		s.activities(w, r)
		return
	}
	http.NotFound(w, r)
}

func newTestClient(t *testing.T, stub *connectorStub) *Client {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		ServiceURL:  srv.URL,
		LoginURL:    srv.URL,
		AppID:       "app-1",
		AppPassword: "secret",
		Logger:      logging.New("error"),
	})
	require.NoError(t, err)
	return client
}

func TestSendToConversation(t *testing.T) {
	var gotAuth string
	var gotActivity cards.Activity
	stub := &connectorStub{activities: func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/conversations/19:abc@thread.tacv2/activities", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotActivity))
		_, _ = w.Write([]byte(`{"id":"act-123"}`))
	}}
	client := newTestClient(t, stub)

	id, err := client.SendToConversation(context.Background(), "19:abc@thread.tacv2",
		cards.SimpleMessage("hello", cards.SimpleMessageOpts{}))
	require.NoError(t, err)
	assert.Equal(t, "act-123", id)

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "message", gotActivity.Type)
	assert.Equal(t, "hello", gotActivity.Text)
	assert.Equal(t, ChannelID, gotActivity.ChannelID)
	require.NotNil(t, gotActivity.From)
	assert.Equal(t, "app-1", gotActivity.From.ID)
}

func TestTokenIsCachedAcrossCalls(t *testing.T) {
	stub := &connectorStub{activities: func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"act-1"}`))
	}}
	client := newTestClient(t, stub)

	ctx := context.Background()
	_, err := client.SendToConversation(ctx, "conv", cards.SimpleMessage("a", cards.SimpleMessageOpts{}))
	require.NoError(t, err)
	_, err = client.SendToConversation(ctx, "conv", cards.SimpleMessage("b", cards.SimpleMessageOpts{}))
	require.NoError(t, err)

	assert.Equal(t, int64(1), stub.tokenHits.Load())
}

func TestSendRejectedSurfacesAPIError(t *testing.T) {
	remote := `{"error":{"code":"BadArgument","message":"Unknown conversation"}}`
	stub := &connectorStub{activities: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(remote))
	}}
	client := newTestClient(t, stub)

	_, err := client.SendToConversation(context.Background(), "conv",
		cards.SimpleMessage("x", cards.SimpleMessageOpts{}))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "BadArgument", apiErr.Code)
	assert.Equal(t, "Unknown conversation", apiErr.Message)
	assert.JSONEq(t, remote, string(apiErr.Body))
}

func TestUpdateActivity(t *testing.T) {
	stub := &connectorStub{activities: func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v3/conversations/conv/activities/act-9", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"act-9"}`))
	}}
	client := newTestClient(t, stub)

	id, err := client.UpdateActivity(context.Background(), "conv", "act-9",
		cards.SimpleMessage("new text", cards.SimpleMessageOpts{}))
	require.NoError(t, err)
	assert.Equal(t, "act-9", id)
}

func TestUpdateActivityEmptyResponseKeepsID(t *testing.T) {
	stub := &connectorStub{activities: func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}}
	client := newTestClient(t, stub)

	id, err := client.UpdateActivity(context.Background(), "conv", "act-4",
		cards.SimpleMessage("x", cards.SimpleMessageOpts{}))
	require.NoError(t, err)
	assert.Equal(t, "act-4", id)
}

func TestDeleteActivity(t *testing.T) {
	var gotMethod, gotPath string
	stub := &connectorStub{activities: func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}}
	client := newTestClient(t, stub)

	require.NoError(t, client.DeleteActivity(context.Background(), "conv", "act-7"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/v3/conversations/conv/activities/act-7", gotPath)
}

func TestConnectorUnreachableIsNotAPIError(t *testing.T) {
	stub := &connectorStub{}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		ServiceURL:  "http://127.0.0.1:1",
		LoginURL:    srv.URL,
		AppID:       "app-1",
		AppPassword: "secret",
		Logger:      logging.New("error"),
	})
	require.NoError(t, err)

	_, err = client.SendToConversation(context.Background(), "conv",
		cards.SimpleMessage("x", cards.SimpleMessageOpts{}))
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{AppID: "app-1"})
	require.Error(t, err)

	_, err = New(Config{AppPassword: "secret"})
	require.Error(t, err)
}
