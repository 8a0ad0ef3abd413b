package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacoach/assessment"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_LoginKeepsToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["password"] != "secret1" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid email or password!"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"token":   "tok-1",
				"user":    map[string]any{"id": "u1", "email": body["email"], "role": "student"},
			})
		case "/api/results":
			gotAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]any{{"testId": "t1", "score": 3, "totalQuestions": 5}}})
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.Login(ctx, "a@b.io", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid email or password!", apiErr.Message)

	user, err := c.Login(ctx, "a@b.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "tok-1", c.Token())

	results, err := c.Results(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].Score)
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/attempts":
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"success": false, "message": "Validation failed!", "data": map[string]string{"testId": "testId is required"},
			})
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Attempt not found!"})
		}
	}))
	ctx := context.Background()
	c := New(srv.URL)

	_, err := c.Attempt(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.StartAttempt(ctx, "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "testId is required", apiErr.Fields["testId"])

	srv.Close()
	_, err = c.Courses(ctx)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClient_SubmitConflictReturnsSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/attempts/a1/submit", r.URL.Path)
		writeJSON(w, http.StatusConflict, map[string]any{
			"success": false,
			"message": "This attempt was already submitted.",
			"data": map[string]any{
				"id":      "a1",
				"state":   "submitted",
				"answers": []int{1, -1},
				"result":  map[string]any{"score": 1, "totalQuestions": 2},
			},
		})
	}))
	defer srv.Close()

	snap, err := New(srv.URL).Submit(context.Background(), "a1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, assessment.Submitted, snap.State)
	require.NotNil(t, snap.Result)
	assert.Equal(t, 1, snap.Result.Score)
}

func TestClient_NonJSONErrorBodyKeepsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/courses":
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html><body>502 Bad Gateway</body></html>"))
		case "/api/attempts/a1":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("upstream down"))
		default:
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("<html>not json</html>"))
		}
	}))
	defer srv.Close()
	ctx := context.Background()
	c := New(srv.URL)

	_, err := c.Courses(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Empty(t, apiErr.Message)
	assert.Equal(t, "request failed with status 502", apiErr.Error())

	_, err = c.Attempt(ctx, "a1")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)

	// a 2xx that is not JSON is still a decode failure
	_, err = c.Results(ctx)
	require.Error(t, err)
	assert.False(t, errors.As(err, &apiErr))
	assert.ErrorContains(t, err, "decoding")
}
