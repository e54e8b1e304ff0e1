package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gentaxai/gentax/internal/log"
)

// fallbackIndex is served when the static directory has no index.html, so
// the service stays usable without deployed assets.
const fallbackIndex = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>GenTax Chatbot</title>
</head>
<body>
<h1>GenTax Chatbot</h1>
<p>The service is running. POST questions to <code>/api/chat</code>:</p>
<pre>curl -X POST /api/chat -H 'Content-Type: application/json' \
  -d '{"question": "What is the GST registration threshold?"}'</pre>
</body>
</html>
`

// PagesHandler serves the landing page and static assets.
type PagesHandler struct {
	staticDir string
	logger    log.Logger
}

// NewPagesHandler creates a pages handler rooted at staticDir.
func NewPagesHandler(staticDir string, logger log.Logger) *PagesHandler {
	return &PagesHandler{staticDir: staticDir, logger: logger}
}

// RegisterRoutes registers the page routes on the mux.
func (h *PagesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(h.staticDir))))
}

func (h *PagesHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(h.staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		h.logger.Debug("index.html not found, serving fallback", "path", index)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(fallbackIndex))
		return
	}
	http.ServeFile(w, r, index)
}
