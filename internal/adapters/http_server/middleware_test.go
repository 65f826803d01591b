package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_LevelFollowsStatus(t *testing.T) {
	cases := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusBadRequest, "warn"},
		{http.StatusBadGateway, "error"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		m := chi.NewRouter()
		m.Use(Logger(zerolog.New(&buf)))
		m.Get("/x/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte("body"))
		})

		m.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x/42", nil))

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, tc.level, line["level"])
		assert.Equal(t, "/x/{id}", line["route"])
		assert.EqualValues(t, tc.status, line["status"])
		assert.EqualValues(t, 4, line["bytes"])
	}
}

func TestRemoteIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", remoteIP(r))

	r.Header.Set("X-Real-IP", "10.1.1.1")
	assert.Equal(t, "10.1.1.1", remoteIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.1.1.1")
	assert.Equal(t, "203.0.113.7", remoteIP(r))
}
