package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// gzipWriter routes the body through gz while keeping gin's writer API.
type gzipWriter struct {
	gin.ResponseWriter
	writer *gzip.Writer
}

func (g *gzipWriter) WriteString(s string) (int, error) {
	return g.writer.Write([]byte(s))
}

func (g *gzipWriter) Write(data []byte) (int, error) {
	return g.writer.Write(data)
}

func (g *gzipWriter) WriteHeader(code int) {
	g.Header().Del("Content-Length")
	g.ResponseWriter.WriteHeader(code)
}

// Compression gzips responses for clients that accept it. Day and recording
// lists are small but repetitive, so BestSpeed is usually enough.
func Compression(level int) gin.HandlerFunc {
	pool := sync.Pool{
		New: func() interface{} {
			gz, err := gzip.NewWriterLevel(io.Discard, level)
			if err != nil {
				gz = gzip.NewWriter(io.Discard)
			}
			return gz
		},
	}

	return func(c *gin.Context) {
		if !shouldCompress(c.Request) {
			c.Next()
			return
		}

		gz := pool.Get().(*gzip.Writer)
		defer pool.Put(gz)

		gz.Reset(c.Writer)
		defer gz.Close()

		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")

		c.Writer = &gzipWriter{
			ResponseWriter: c.Writer,
			writer:         gz,
		}

		c.Next()
	}
}

func shouldCompress(req *http.Request) bool {
	if !strings.Contains(req.Header.Get("Accept-Encoding"), "gzip") {
		return false
	}

	// Socket.IO manages its own framing and promhttp negotiates gzip itself.
	if strings.Contains(strings.ToLower(req.Header.Get("Connection")), "upgrade") ||
		strings.HasPrefix(req.URL.Path, "/socket.io") ||
		req.URL.Path == "/metrics" {
		return false
	}

	// Request bodies are JSON (REST, GraphQL) or empty (GET).
	contentType := req.Header.Get("Content-Type")
	return contentType == "" || strings.HasPrefix(contentType, "application/json")
}
