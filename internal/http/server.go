package http

import (
	"context"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"compras/internal/cache"
	"compras/internal/explorer"
	"compras/internal/log"
	"compras/internal/middleware/ratelimit"
	"compras/internal/middleware/security"
	"compras/internal/middleware/trace"
	"compras/internal/ports"
	appweb "compras/web"
)

const (
	defaultPreviewRows = 500
	headRows           = 5
	specStoreSize      = 100
	specStoreTTL       = 5 * time.Minute
	cacheCleanupEvery  = 10 * time.Minute
	maxFeedbackBody    = 16 << 10
)

// Options configures a Server.
type Options struct {
	Addr   string
	Source ports.TableSource
	// Feedback may be nil, which hides the survey form.
	Feedback ports.FeedbackService
	Logger   *log.Logger

	PreviewRows        int
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	// TrustedProxies are CIDRs, in addition to private networks, whose
	// forwarding headers are believed.
	TrustedProxies []string

	// Caches receives the server's caches. When nil the server runs its
	// own cleanup loop.
	Caches *cache.Manager
}

type Server struct {
	http.Server
	templates *template.Template
	source    ports.TableSource
	feedback  ports.FeedbackService
	logger    *log.Logger

	specs       *explorer.Store
	caches      *cache.Manager
	ownCaches   bool
	limiter     *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware
	previewRows int
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = defaultPreviewRows
	}
	if len(opts.CORSAllowedOrigins) == 0 {
		opts.CORSAllowedOrigins = []string{"*"}
	}

	s := &Server{
		source:      opts.Source,
		feedback:    opts.Feedback,
		logger:      logger.WithComponent(log.ComponentHTTP),
		specs:       explorer.NewStore(specStoreSize, specStoreTTL),
		caches:      opts.Caches,
		previewRows: opts.PreviewRows,
		started:     time.Now(),
	}
	detector, err := security.NewDetector(opts.TrustedProxies...)
	if err != nil {
		s.logger.Warn("Ignoring trusted proxies", log.FieldError, err)
		detector, _ = security.NewDetector()
	}
	s.detector = detector
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	if s.caches == nil {
		s.caches = cache.NewManager()
		s.ownCaches = true
	}
	s.caches.Register("explorer_specs", s.specs)
	s.caches.Register("rate_limit", s.limiter)
	if s.ownCaches {
		s.caches.StartCleanup(cacheCleanupEvery)
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.Files, appweb.TemplatePattern)
	if err != nil {
		s.logger.Warn("Failed parsing templates",
			log.NewFields().WithComponent(log.ComponentTemplate).WithError(err).ToSlice()...)
		t = nil
	}
	s.templates = t

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(opts.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(s.detector.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	// Static assets (served from embedded FS)
	if sub, err := appweb.Static(); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	limit := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r), log.FieldPath, r.URL.Path)
		TooManyRequestsError("Demasiadas solicitudes. Intenta nuevamente en un minuto.").Write(w)
	})

	// Dashboard pages and partials.
	r.Group(func(r chi.Router) {
		r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
		r.Use(security.NoStore)

		r.Get("/", s.handleIndex)
		r.Get("/ui/analysis", s.handleAnalysis)
		r.Get("/ui/explorer", s.handleExplorer)
		r.Get("/export.xlsx", s.handleExport)
		r.With(limit).Post("/explorer/upload", s.handleExplorerUpload)
		r.With(limit).Post("/feedback", s.handleFeedback)
	})

	// Standalone chart documents, framed by the pages above.
	r.Group(func(r chi.Router) {
		r.Use(security.NewHeadersMiddleware(security.ChartDocumentConfig()).Middleware)
		r.Use(security.NoStore)

		r.Get("/charts/{name}", s.handleChart)
		r.Get("/explorer/render", s.handleExplorerRender)
	})

	// JSON API over the same pipeline.
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{trace.RequestIDHeader},
			MaxAge:         300,
		}))
		r.Use(security.NoStore)

		r.Get("/options", s.handleAPIOptions)
		r.Get("/dashboard", s.handleAPIDashboard)
		r.Get("/records", s.handleAPIRecords)
		r.Get("/glossary", s.handleAPIGlossary)
		r.Get("/feedback", s.handleAPIFeedback)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Página no encontrada").Write(w)
	})
	return r
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.ownCaches {
			s.caches.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
