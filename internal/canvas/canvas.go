// Package canvas serves a local live preview of HTML and JavaScript files.
package canvas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aigent47/grok-code/internal"
)

// DefaultAddr is where previews are served
const DefaultAddr = "localhost:8888"

// ErrUnsupported is returned for file types that cannot be previewed
var ErrUnsupported = errors.New("unsupported file type")

var page = template.Must(template.New("canvas").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>{{.Title}}</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 20px; background: #1a1a1a; color: #ffffff; }
    #canvas { border: 1px solid #444; display: block; margin: 20px auto; }
    #output { background: #2a2a2a; padding: 10px; border-radius: 5px; margin-top: 20px; font-family: 'Monaco', 'Menlo', monospace; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <canvas id="canvas" width="800" height="600"></canvas>
  <div id="output"></div>
  <script>
    const output = document.getElementById('output');
    const originalLog = console.log;
    console.log = function(...args) {
      originalLog.apply(console, args);
      output.textContent += args.join(' ') + '\n';
    };
  </script>
  <script>
{{.Script}}
  </script>
</body>
</html>
`))

// Handler builds the preview handler for path and the URL path to open
func Handler(path string) (http.Handler, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%s: %w", path, internal.ErrNotFound)
		}
		return nil, "", &internal.StorageError{Path: path, Op: "stat", Err: err}
	}
	if info.IsDir() {
		return nil, "", fmt.Errorf("%s is a directory: %w", path, ErrUnsupported)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".html", ".htm":
		return http.FileServer(http.Dir(filepath.Dir(path))), "/" + filepath.Base(path), nil
	case ".js":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", &internal.StorageError{Path: path, Op: "read", Err: err}
		}
		var buf bytes.Buffer
		err = page.Execute(&buf, struct {
			Title  string
			Script template.JS
		}{
			Title:  "Canvas Preview: " + filepath.Base(path),
			Script: template.JS(data),
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to render preview: %w", err)
		}
		body := buf.Bytes()
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write(body)
		}), "/", nil
	default:
		return nil, "", fmt.Errorf("%q: %w", ext, ErrUnsupported)
	}
}

// Server runs at most one preview at a time
type Server struct {
	Addr string
	srv  *http.Server
}

// NewServer creates a preview server on addr
func NewServer(addr string) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{Addr: addr}
}

// Start serves path in the background, replacing any running preview, and
// returns the URL to open.
func (s *Server) Start(path string) (string, error) {
	handler, urlPath, err := Handler(path)
	if err != nil {
		return "", err
	}
	if err := s.Stop(context.Background()); err != nil {
		internal.LogDebug("stopping previous preview: %v", err)
	}

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}
	s.srv = &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	srv := s.srv
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			internal.LogWarn("canvas preview stopped: %v", err)
		}
	}()

	return "http://" + ln.Addr().String() + urlPath, nil
}

// Stop shuts down the running preview, if any
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err := s.srv.Shutdown(ctx)
	s.srv = nil
	return err
}
