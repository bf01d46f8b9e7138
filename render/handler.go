package render

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHandler serves the gallery built from the artifact at dataPath. The
// artifact is re-read on every request to "/".
func NewHandler(r *Renderer, dataPath string) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		var buf bytes.Buffer
		if err := r.RenderFile(&buf, dataPath); err != nil {
			slog.Error("render gallery", slog.Any("error", err))
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}).Methods(http.MethodGet, http.MethodHead)

	router.HandleFunc("/data.json", func(w http.ResponseWriter, req *http.Request) {
		data, err := os.ReadFile(dataPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				http.NotFound(w, req)
				return
			}
			http.Error(w, "read artifact failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(data)
	}).Methods(http.MethodGet, http.MethodHead)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	if r.Metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(r.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	return router
}
