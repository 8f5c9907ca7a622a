package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput(t *testing.T) {
	_, err := NewWithOutput("verbose", "json", &bytes.Buffer{})
	assert.Error(t, err)

	_, err = NewWithOutput("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)

	logger, err := NewWithOutput("debug", "text", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithOutput("info", "json", &buf)
	require.NoError(t, err)

	handler := middleware.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromRequest(r).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/7", nil))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inside, done map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &inside))
	require.NoError(t, json.Unmarshal(lines[1], &done))

	assert.Equal(t, "inside handler", inside["msg"])
	assert.Equal(t, "/users/7", inside["path"])
	assert.NotEmpty(t, inside["request_id"])

	assert.Equal(t, "request completed", done["msg"])
	assert.Equal(t, float64(http.StatusTeapot), done["status"])
	assert.Equal(t, inside["request_id"], done["request_id"])
}

func TestFromRequestFallback(t *testing.T) {
	assert.Equal(t, logrus.StandardLogger(), FromRequest(httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, logrus.StandardLogger(), FromRequest(nil))
}
