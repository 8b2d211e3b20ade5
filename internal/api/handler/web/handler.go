// internal/api/handler/web/handler.go
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"

	"github.com/newthinker/signalpro/internal/chart"
	"github.com/newthinker/signalpro/internal/logger"
	"go.uber.org/zap"
)

//go:embed templates/*
var templateFS embed.FS

var pages = []string{"dashboard.html"}

var funcs = template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
}

// Options configures the dashboard page.
type Options struct {
	Chart       chart.Config
	ChartWidth  int
	ChartHeight int
	Logger      *zap.Logger
}

// Handler renders the dashboard page from a session snapshot.
type Handler struct {
	// pageTemplates holds one template set per page, each containing
	// layout.html plus the page itself
	pageTemplates map[string]*template.Template
	src           SnapshotSource
	opts          Options
	logger        *zap.Logger
}

// NewHandler creates a web handler with templates loaded from templatesDir.
// If templatesDir is empty, it falls back to embedded templates.
func NewHandler(src SnapshotSource, templatesDir string, opts Options) (*Handler, error) {
	if templatesDir == "" {
		return NewHandlerWithFS(src, TemplateFS(), opts)
	}

	pageTemplates := make(map[string]*template.Template)
	for _, page := range pages {
		layoutPath := filepath.Join(templatesDir, "layout.html")
		pagePath := filepath.Join(templatesDir, page)
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFiles(layoutPath, pagePath)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		pageTemplates[page] = tmpl
	}

	return newHandler(src, pageTemplates, opts), nil
}

// NewHandlerWithFS creates a web handler using a custom filesystem.
func NewHandlerWithFS(src SnapshotSource, fsys fs.FS, opts Options) (*Handler, error) {
	pageTemplates := make(map[string]*template.Template)
	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(fsys, "layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s from fs: %w", page, err)
		}
		pageTemplates[page] = tmpl
	}

	return newHandler(src, pageTemplates, opts), nil
}

func newHandler(src SnapshotSource, pageTemplates map[string]*template.Template, opts Options) *Handler {
	return &Handler{
		pageTemplates: pageTemplates,
		src:           src,
		opts:          opts,
		logger:        logger.OrNop(opts.Logger),
	}
}

// render executes the specified page template with the given data
func (h *Handler) render(w http.ResponseWriter, page string, data any) {
	tmpl, ok := h.pageTemplates[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		h.logger.Error("rendering page", zap.String("page", page), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// TemplateFS returns the embedded template filesystem for external use.
func TemplateFS() fs.FS {
	subFS, err := fs.Sub(templateFS, "templates")
	if err != nil {
		// This should never happen with valid embed directive
		return templateFS
	}
	return subFS
}
