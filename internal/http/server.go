// Package http serves the dashboard page and the JSON API.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"moneybook/internal/cache"
	"moneybook/internal/core"
	"moneybook/internal/ledger"
	"moneybook/internal/log"
	"moneybook/internal/metrics"
	"moneybook/internal/middleware/ratelimit"
	"moneybook/internal/middleware/security"
	"moneybook/internal/middleware/trace"
	appweb "moneybook/web"
)

// EventPublisher announces recorded transactions to the export pipeline.
// Publishing is best-effort; failures never fail the write.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, transactionID string) error
}

// Backend bundles the data ports the server depends on.
type Backend interface {
	ledger.TransactionWriter
	ledger.TransactionLister
	ledger.CategoryReader
	ledger.AssetReader
	ledger.AssetWriter
}

type Server struct {
	http.Server

	backend   Backend
	publisher EventPublisher
	logger    *log.Logger
	metrics   *metrics.Metrics
	limiter   *ratelimit.Limiter
	templates *template.Template

	// Categories are immutable reference data; a short TTL covers reseeds.
	catCache *cache.LRU[[]core.Category]

	// assetCache holds the current asset snapshot; writes invalidate it and
	// the TTL is a backstop.
	assetCache cache.Cache[core.Assets]

	// refreshDelay is how long the page waits after a successful submit
	// before reloading, keeping the success banner readable.
	refreshDelay time.Duration

	now          func() time.Time
	janitorStop  chan struct{}
	shutdownOnce sync.Once
}

const (
	postRateLimit  = 60
	postRateWindow = time.Minute

	assetSnapshotKey = "snapshot"
	janitorInterval  = time.Minute
)

// NewServer wires routes, middleware and templates into a ready-to-run
// server. publisher may be nil when event publishing is disabled.
func NewServer(addr string, b Backend, publisher EventPublisher, logger *log.Logger, m *metrics.Metrics, refreshDelay time.Duration) *Server {
	httpLogger := logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		backend:      b,
		publisher:    publisher,
		logger:       httpLogger,
		metrics:      m,
		limiter:      ratelimit.New(postRateLimit, postRateWindow, logger),
		catCache:     cache.NewLRU[[]core.Category](4, 5*time.Minute),
		assetCache:   cache.NewLRU[core.Assets](1, 30*time.Second),
		refreshDelay: refreshDelay,
		now:          time.Now,
		janitorStop:  make(chan struct{}),
	}
	go s.cacheJanitor()

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		httpLogger.Warn("failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()
	s.routes(mux)

	tracer := trace.New(logger)
	headers := security.Headers(security.DefaultHeadersConfig())

	s.Server = http.Server{
		Addr:         addr,
		Handler:      headers(tracer.Handler(mux)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("failed to mount embedded static FS", log.FieldError, err)
	}

	mux.Handle("GET /{$}", s.route("/", http.HandlerFunc(s.handleIndex)))
	mux.Handle("GET /categories", s.route("/categories", http.HandlerFunc(s.handleListCategories)))
	mux.Handle("GET /transactions", s.route("/transactions", http.HandlerFunc(s.handleListTransactions)))
	mux.Handle("POST /transactions", s.postRoute("/transactions", http.HandlerFunc(s.handleCreateTransaction)))
	mux.Handle("GET /assets", s.route("/assets", http.HandlerFunc(s.handleGetAssets)))
	mux.Handle("POST /assets/cash", s.postRoute("/assets/cash", http.HandlerFunc(s.handleSetCash)))
	mux.Handle("POST /assets/bank-accounts", s.postRoute("/assets/bank-accounts", http.HandlerFunc(s.handleAddBankAccount)))
	mux.Handle("POST /assets/investments", s.postRoute("/assets/investments", http.HandlerFunc(s.handleAddInvestment)))
	mux.Handle("POST /assets/other", s.postRoute("/assets/other", http.HandlerFunc(s.handleAddOtherAsset)))
	mux.Handle("GET /analysis", s.route("/analysis", http.HandlerFunc(s.handleAnalysis)))

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /healthz", handleLiveness)
	mux.HandleFunc("GET /readyz", handleReadiness)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

func (s *Server) route(pattern string, next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return s.metrics.Instrument(pattern, next)
}

// postRoute adds rate limiting on top of instrumentation for write paths.
func (s *Server) postRoute(pattern string, next http.Handler) http.Handler {
	return s.route(pattern, s.limiter.Handler(next))
}

// categories serves the cached list, falling back to the backend on miss.
func (s *Server) categories(ctx context.Context) ([]core.Category, error) {
	const key = "all"
	if cats, ok := s.catCache.Get(key); ok {
		return cats, nil
	}
	cats, err := s.backend.Categories(ctx)
	if err != nil {
		return nil, err
	}
	s.catCache.Set(key, cats)
	return cats, nil
}

// assets serves the cached snapshot, reloading from the backend on miss.
func (s *Server) assets(ctx context.Context) (core.Assets, error) {
	if snap, ok := s.assetCache.Get(assetSnapshotKey); ok {
		return snap, nil
	}
	snap, err := s.backend.Assets(ctx)
	if err != nil {
		return core.Assets{}, err
	}
	s.assetCache.Set(assetSnapshotKey, snap)
	return snap, nil
}

// cacheJanitor drops expired cache entries until Shutdown.
func (s *Server) cacheJanitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.janitorStop:
			return
		case <-ticker.C:
			if removed := s.catCache.CleanExpired(); removed > 0 {
				s.logger.Debug("dropped expired cache entries",
					"removed", removed,
					"cached_categories", s.catCache.Size(),
					"cached_assets", s.assetCache.Size(),
				)
			}
		}
	}
}

// Shutdown stops the HTTP server and the background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.janitorStop)
		s.limiter.Close()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, nil)
}

func handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReadiness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
