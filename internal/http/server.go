package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"spendbook/internal/cache"
	"spendbook/internal/core"
	"spendbook/internal/log"
	"spendbook/internal/middleware/security"
	"spendbook/internal/middleware/trace"
	"spendbook/internal/services"
	appweb "spendbook/web"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
	cacheSweepEvery = time.Minute
	staticMaxAge    = 3600
)

// ChartSource renders the category chart and publishes it as a static asset.
type ChartSource interface {
	PNG(data []core.CategoryAmount) ([]byte, error)
	Publish(ctx context.Context, data []core.CategoryAmount) error
}

// Server serves the HTML pages, the JSON API and the ops endpoints.
type Server struct {
	http.Server

	expenses  *services.ExpenseService
	charts    ChartSource
	templates *template.Template
	tracer    *trace.Middleware
	caches    *cache.Manager
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. chartCache may be nil.
func NewServer(addr string, svc *services.ExpenseService, charts ChartSource, chartCache cache.Cleaner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	mux := http.NewServeMux()

	s := &Server{
		expenses: svc,
		charts:   charts,
		tracer:   trace.NewMiddleware(extractClientIP),
		caches:   cache.NewManager(),
		started:  time.Now(),
	}

	if chartCache != nil {
		s.caches.Register(chartCache)
	}
	s.caches.Start(context.Background(), cacheSweepEvery)

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.CacheControl(staticMaxAge)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// HTML pages
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("/add", s.handleAdd)
	mux.HandleFunc("GET /summary", s.handleSummary)
	mux.HandleFunc("/modify", s.handleModify)
	mux.HandleFunc("GET /plot", s.handlePlot)
	mux.Handle("GET /plot.png", security.CacheControl(0)(http.HandlerFunc(s.handlePlotImage)))

	// JSON API
	mux.HandleFunc("GET /api/expenses", s.handleAPIList)
	mux.HandleFunc("POST /api/expenses", s.handleAPICreate)
	mux.HandleFunc("PUT /api/expenses/{position}", s.handleAPIUpdate)
	mux.HandleFunc("DELETE /api/expenses/{position}", s.handleAPIDelete)
	mux.HandleFunc("GET /api/summary", s.handleAPISummary)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = headers.Middleware(handler)
	handler = log.Middleware(logger, trace.FromRequest)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	return s
}

// Shutdown stops the cache sweeper and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

var templateFuncs = template.FuncMap{
	"amount": core.FormatAmount,
}
