package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	c := NewClient(5 * time.Second)
	c.Retry = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	return c
}

func TestDoJSON_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	status, err := testClient().DoJSON(context.Background(), http.MethodGet, ts.URL,
		map[string]string{"Authorization": "Bearer tok"}, nil, &out)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.True(t, out.OK)
}

func TestDoJSON_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	status, err := testClient().DoJSON(context.Background(), http.MethodGet, ts.URL, nil, nil, &out)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 3, hits.Load())
}

func TestDoJSON_GivesUpAfterMaxAttempts(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := testClient().DoJSON(context.Background(), http.MethodGet, ts.URL, nil, nil, nil)
	require.Error(t, err)
	require.EqualValues(t, 3, hits.Load())
}

func TestDoJSON_NoRetryOn4xx(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad token"}`))
	}))
	defer ts.Close()

	var out struct {
		Error string `json:"error"`
	}
	status, err := testClient().DoJSON(context.Background(), http.MethodGet, ts.URL, nil, nil, &out)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "bad token", out.Error)
	require.EqualValues(t, 1, hits.Load())
}

func TestDoJSON_NoRetryOnDecodeFailure(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		// Shape mismatch: result is a bool where the caller expects an object.
		w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	defer ts.Close()

	var out struct {
		Result struct {
			ID int64 `json:"id"`
		} `json:"result"`
	}
	status, err := testClient().DoJSON(context.Background(), http.MethodGet, ts.URL, nil, nil, &out)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
	require.Equal(t, http.StatusOK, status)

	// The endpoint already answered; re-sending the request cannot help.
	require.EqualValues(t, 1, hits.Load())
}

func TestDoJSON_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient().DoJSON(ctx, http.MethodGet, ts.URL, nil, nil, nil)
	require.Error(t, err)
}

func TestDoJSON_PostBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in struct {
			URL string `json:"url"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Equal(t, "https://example.com/hook", in.URL)
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	body := map[string]any{"url": "https://example.com/hook"}
	status, err := testClient().DoJSON(context.Background(), http.MethodPost, ts.URL, nil, body, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
}
