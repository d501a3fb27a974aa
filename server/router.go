package server

import (
	"net/http"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/config"
	"github.com/brettbedarf/webfm/internal/fsops"
	"github.com/brettbedarf/webfm/internal/metrics"
	"github.com/brettbedarf/webfm/internal/util"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the file manager endpoints.
type Handler struct {
	cfg     *config.Config
	exec    webfm.Executor
	files   *fsops.FS
	auth    webfm.Authenticator
	metrics *metrics.Metrics
	logger  util.Logger
}

// NewHandler wires the endpoint handlers. exec runs actions, files serves
// uploads and downloads. m may be nil.
func NewHandler(cfg *config.Config, exec webfm.Executor, files *fsops.FS, auth webfm.Authenticator, m *metrics.Metrics) *Handler {
	return &Handler{
		cfg:     cfg,
		exec:    exec,
		files:   files,
		auth:    auth,
		metrics: m,
		logger:  util.GetLogger("HTTP"),
	}
}

// NewRouter builds the chi router. /metrics is only mounted when gatherer is
// non-nil.
//
// Routes:
//   - POST /file-manager/actions
//   - POST /file-manager/upload
//   - POST /file-manager/download
//   - GET  /file-manager/images?path=
//   - GET, POST, PUT, DELETE /filesystem/{path}
//   - GET  /healthz
//   - GET  /metrics
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	// order matters: the logger needs the request id
	r.Use(withRequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/file-manager", func(r chi.Router) {
		r.Use(h.authenticate)
		r.Post("/actions", h.Actions)
		r.Post("/upload", h.Upload)
		r.Post("/download", h.Download)
		r.Get("/images", h.Images)
	})

	r.Route("/filesystem", func(r chi.Router) {
		r.Use(h.authenticate)
		r.Get("/*", h.Browse)
		r.Post("/*", h.CreateFiles)
		r.Put("/*", h.UpdateFiles)
		r.Delete("/*", h.DeleteFile)
	})

	return r
}
