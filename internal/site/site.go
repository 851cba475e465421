// Package site serve a landing page embutida no binário.
//
// Qualquer GET fora da API que não corresponda a um arquivo recebe o
// index.html (fallback de SPA).
package site

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed public
var embedded embed.FS

const indexFile = "index.html"

type Handler struct {
	files      fs.FS
	index      []byte
	production bool
}

// New usa os arquivos embutidos.
func New(production bool) (*Handler, error) {
	files, err := fs.Sub(embedded, "public")
	if err != nil {
		return nil, fmt.Errorf("open embedded assets: %w", err)
	}
	return NewFromFS(files, production)
}

// NewFromFS usa outro conjunto de arquivos; precisa conter index.html.
func NewFromFS(files fs.FS, production bool) (*Handler, error) {
	index, err := fs.ReadFile(files, indexFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", indexFile, err)
	}
	return &Handler{files: files, index: index, production: production}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" || name == indexFile || !h.isFile(name) {
		h.serveIndex(w, r)
		return
	}

	if h.production {
		w.Header().Set("Cache-Control", "public, max-age=86400")
	}
	http.ServeFileFS(w, r, h.files, name)
}

func (h *Handler) isFile(name string) bool {
	info, err := fs.Stat(h.files, name)
	return err == nil && !info.IsDir()
}

func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(h.index)
}
