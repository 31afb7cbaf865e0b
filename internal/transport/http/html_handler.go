package http

import (
	"bytes"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"

	"policydash/pkg/contracts/domain"
)

// PageData is the data the dashboard page template renders with.
type PageData struct {
	Title      string
	Version    string
	Currency   string
	Dimensions []string
	Scopes     []string
}

// PageHandler serves the single page dashboard from a template filesystem.
type PageHandler struct {
	tmpl   *template.Template
	static fs.FS
	data   PageData
	logger *slog.Logger
}

// NewPageHandler parses index.html from frontend. Static assets are served
// from the same filesystem.
func NewPageHandler(frontend fs.FS, data PageData, logger *slog.Logger) (*PageHandler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := template.ParseFS(frontend, "index.html")
	if err != nil {
		return nil, err
	}
	if data.Dimensions == nil {
		data.Dimensions = domain.FilterDimensions
	}
	return &PageHandler{
		tmpl:   tmpl,
		static: frontend,
		data:   data,
		logger: logger.With(slog.String("handler", "page")),
	}, nil
}

// ServeIndex renders the dashboard page.
func (h *PageHandler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, h.data); err != nil {
		h.logger.ErrorContext(r.Context(), "page render failed", slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = w.Write(buf.Bytes())
}

// ServeStatic serves files below /static from the frontend filesystem.
func (h *PageHandler) ServeStatic() http.Handler {
	sub, err := fs.Sub(h.static, "static")
	if err != nil {
		return http.NotFoundHandler()
	}
	files := http.StripPrefix("/static", http.FileServer(http.FS(sub)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if path.Ext(r.URL.Path) == "" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		files.ServeHTTP(w, r)
	})
}
