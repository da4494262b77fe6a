package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mo-amir99/training-portal/pkg/logger"
)

func TestServesFilesWithoutCaching(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Admin_Portal.html"), []byte("<h1>admin</h1>"), 0o644))

	r := newRouter(dir, logger.Discard())

	req := httptest.NewRequest(http.MethodGet, "/Admin_Portal.html", nil)
	req.Header.Set("Origin", "http://example.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<h1>admin</h1>", w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "no-store, no-cache, must-revalidate", w.Header().Get("Cache-Control"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMissingFileAndMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newRouter(t.TempDir(), logger.Discard())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope.html", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/index.html", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
