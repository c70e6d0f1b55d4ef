package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pfbt/internal/core"
	"pfbt/internal/gateway"
	"pfbt/internal/identity"
	applog "pfbt/internal/log"
	"pfbt/internal/middleware/ratelimit"
	"pfbt/internal/middleware/security"
	"pfbt/internal/middleware/trace"
	"pfbt/internal/services"
	appweb "pfbt/web"
)

// Deps are the collaborators the server is built from.
type Deps struct {
	Transactions *services.TransactionService
	Categories   *services.CategoryRegistry
	// Activity is optional; without it the dashboard shows no recent changes.
	Activity gateway.ActivityRecorder
	Pinger   gateway.Pinger
	Identity identity.Provider
	Logger   *applog.Logger
	// Detector is shared with the identity layer so both agree on which
	// peers are trusted proxies. A default one is built when nil.
	Detector *security.Detector

	RateLimitPerMinute int
}

type Server struct {
	http.Server
	templates *template.Template
	logger    *applog.Logger

	txs      *services.TransactionService
	cats     *services.CategoryRegistry
	activity gateway.ActivityRecorder
	pinger   gateway.Pinger

	rateLimiter     *ratelimit.Limiter
	detector        *security.Detector
	traceMiddleware *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

var templateFuncs = template.FuncMap{
	"amount": core.FormatAmount,
	"money":  func(d decimal.Decimal) string { return d.StringFixed(2) },
	"signed": func(t core.Transaction) string { return t.SignedAmount().StringFixed(2) },
	"date": func(d core.Date) string {
		if d.IsEmpty() {
			return ""
		}
		return d.String()
	},
}

func parseTemplates() (*template.Template, error) {
	return template.New("pfbt").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger:   logger,
		txs:      deps.Transactions,
		cats:     deps.Categories,
		activity: deps.Activity,
		pinger:   deps.Pinger,
		detector: deps.Detector,
		started:  time.Now(),
	}

	if s.detector == nil {
		s.detector = security.NewDetector()
	}

	rlConfig := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = deps.RateLimitPerMinute
	}
	s.rateLimiter = ratelimit.NewLimiter(rlConfig)
	s.traceMiddleware = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	t, err := parseTemplates()
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.Handle("/{$}", s.page(s.handleIndex))
	mux.Handle("/transactions", s.page(s.requireActor(s.handleTransactions)))
	mux.Handle("/transactions/delete", s.page(s.requireActor(s.handleDeleteTransaction)))
	mux.Handle("/categories", s.page(s.requireActor(s.handleCategories)))
	mux.Handle("/categories/delete", s.page(s.requireActor(s.handleDeleteCategory)))
	mux.Handle("/dashboard", s.page(s.requireActor(s.handleDashboard)))

	var handler http.Handler = mux
	if deps.Identity != nil {
		handler = identity.Middleware(deps.Identity)(handler)
	}
	handler = s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(handler)
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	s.Handler = handler

	return s
}

// page marks per-user HTML responses as uncacheable.
func (s *Server) page(h http.HandlerFunc) http.Handler {
	return security.NoStore(h)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").
		Header("Retry-After", "60").
		TriggerErrorNotification("Too many requests, slow down").
		Write(w)
}

// Shutdown stops background goroutines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
