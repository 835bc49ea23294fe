package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient returns a client aimed at the test server with a
// pre-cached token so no token endpoint is needed.
func newTestClient(serverURL string) *Client {
	return &Client{
		baseURL:    serverURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		tokens:     &TokenManager{token: "test-token", expiry: time.Now().Add(time.Hour)},
		limiter:    NewRateLimiterWithConfig(RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1000}),
	}
}

type batchEnvelope struct {
	Requests []BatchOperation `json:"requests"`
}

func decodeEnvelope(t *testing.T, r *http.Request) batchEnvelope {
	t.Helper()
	var env batchEnvelope
	require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
	return env
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, responses []BatchResponse) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"responses": responses}))
}

func makeOps(n int) []BatchOperation {
	ops := make([]BatchOperation, 0, n)
	for i := 0; i < n; i++ {
		ops = append(ops, BatchOperation{
			ID:     fmt.Sprintf("op-%d", i),
			Method: http.MethodDelete,
			URL:    fmt.Sprintf("/users/u/contactFolders/f/contacts/c%d", i),
		})
	}
	return ops
}

func TestExecuteBatch_Empty(t *testing.T) {
	client := newTestClient("http://unused.invalid")

	responses, err := client.ExecuteBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, responses)
}

func TestExecuteBatch_Chunking(t *testing.T) {
	var chunkSizes []int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/$batch", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		env := decodeEnvelope(t, r)
		chunkSizes = append(chunkSizes, len(env.Requests))

		responses := make([]BatchResponse, 0, len(env.Requests))
		for _, op := range env.Requests {
			responses = append(responses, BatchResponse{ID: op.ID, Status: http.StatusNoContent})
		}
		writeEnvelope(t, w, responses)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	ops := makeOps(45)

	responses, err := client.ExecuteBatch(context.Background(), ops)

	require.NoError(t, err)
	assert.Equal(t, []int{20, 20, 5}, chunkSizes, "45 operations must go out as 3 envelopes")

	require.Len(t, responses, 45)
	for i, resp := range responses {
		assert.Equal(t, ops[i].ID, resp.ID, "aggregate order must follow request order")
	}
}

func TestExecuteBatch_RestoresRequestOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := decodeEnvelope(t, r)

		// Reply in reverse to prove correlation, not position, drives matching.
		responses := make([]BatchResponse, 0, len(env.Requests))
		for i := len(env.Requests) - 1; i >= 0; i-- {
			responses = append(responses, BatchResponse{ID: env.Requests[i].ID, Status: http.StatusOK})
		}
		writeEnvelope(t, w, responses)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	ops := makeOps(5)

	responses, err := client.ExecuteBatch(context.Background(), ops)

	require.NoError(t, err)
	require.Len(t, responses, 5)
	for i, resp := range responses {
		assert.Equal(t, ops[i].ID, resp.ID)
	}
}

func TestExecuteBatch_EnvelopeFailureAborts(t *testing.T) {
	var calls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		env := decodeEnvelope(t, r)
		responses := make([]BatchResponse, 0, len(env.Requests))
		for _, op := range env.Requests {
			responses = append(responses, BatchResponse{ID: op.ID, Status: http.StatusNoContent})
		}
		writeEnvelope(t, w, responses)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	responses, err := client.ExecuteBatch(context.Background(), makeOps(45))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, ErrServerError)
	assert.Nil(t, responses)
	assert.Equal(t, 2, calls, "chunks after the failing one must not be attempted")
}

func TestExecuteBatch_SubOperationFailureIsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := decodeEnvelope(t, r)
		writeEnvelope(t, w, []BatchResponse{
			{ID: env.Requests[0].ID, Status: http.StatusNotFound, Body: json.RawMessage(`{"error":{"code":"ErrorItemNotFound"}}`)},
			{ID: env.Requests[1].ID, Status: http.StatusCreated},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	responses, err := client.ExecuteBatch(context.Background(), makeOps(2))

	require.NoError(t, err, "a failing sub-response must not raise")
	require.Len(t, responses, 2)
	assert.True(t, responses[0].Failed())
	assert.Equal(t, http.StatusNotFound, responses[0].Status)
	assert.False(t, responses[1].Failed())
}

func TestExecuteBatch_ResponseMismatchSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := decodeEnvelope(t, r)
		// Drop the response for the second request and add one with an
		// unknown correlation id.
		writeEnvelope(t, w, []BatchResponse{
			{ID: env.Requests[0].ID, Status: http.StatusNoContent},
			{ID: "never-sent", Status: http.StatusOK},
			{ID: env.Requests[2].ID, Status: http.StatusNoContent},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	ops := makeOps(3)

	responses, err := client.ExecuteBatch(context.Background(), ops)

	require.NoError(t, err)
	require.Len(t, responses, 2, "unmatched entries are skipped, not indexed")
	assert.Equal(t, ops[0].ID, responses[0].ID)
	assert.Equal(t, ops[2].ID, responses[1].ID)
}

func TestExecuteBatch_MalformedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "{not json")
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	_, err := client.ExecuteBatch(context.Background(), makeOps(1))

	assert.ErrorIs(t, err, ErrMalformedResponse)
}
