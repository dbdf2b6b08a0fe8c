// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"laporan/internal/auth"
	"laporan/internal/cache"
	"laporan/internal/core"
	"laporan/internal/log"
	"laporan/internal/middleware/ratelimit"
	"laporan/internal/middleware/security"
	"laporan/internal/middleware/trace"
	"laporan/internal/services"
)

// Options configures NewServer.
type Options struct {
	Addr   string
	Ledger *services.LedgerService
	// Auth enables bearer authentication on /api routes when non-nil.
	Auth               *auth.Service
	Logger             *log.Logger
	CacheTTL           time.Duration
	CacheSize          int
	RateLimitPerMinute int
	// Now is the clock used for default periods.
	Now func() time.Time
}

type Server struct {
	http.Server
	ledger *services.LedgerService
	auth   *auth.Service
	logger *log.Logger
	now    func() time.Time

	entriesCache     *cache.LRUCache[[]core.Entry]
	cacheGen         cacheGenerations
	cacheManager     *cache.Manager
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

// cacheGenerations counts invalidations so a slow read cannot repopulate the
// cache with entries older than a concurrent write.
type cacheGenerations struct {
	mu    sync.Mutex
	epoch uint64
	menus map[string]uint64
}

func (g *cacheGenerations) current(menuID string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.epoch + g.menus[menuID]
}

type appMetrics struct {
	uptime       time.Time
	totalEntries atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.FromSlog(nil)
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 200
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		ledger:           opts.Ledger,
		auth:             opts.Auth,
		logger:           logger,
		now:              opts.Now,
		entriesCache:     cache.NewLRUCache[[]core.Entry](opts.CacheSize, opts.CacheTTL),
		cacheManager:     cache.NewManager(logger),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: security.NewDetector(),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)
	s.cacheManager.Register("entries", s.entriesCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/ping", s.handlePing)
	mux.HandleFunc("POST /api/login", s.handleLogin)

	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.requireAuth(h))
	}
	admin := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.requireAuth(s.requireAdmin(h)))
	}

	admin("GET /api/users", s.handleListUsers)
	admin("POST /api/users", s.handleCreateUser)
	admin("DELETE /api/users/{id}", s.handleDeleteUser)

	api("GET /api/sections", s.handleListSections)
	api("POST /api/sections", s.handleCreateSection)
	api("PUT /api/sections/{id}", s.handleUpdateSection)
	api("DELETE /api/sections/{id}", s.handleDeleteSection)

	api("GET /api/menus", s.handleListMenus)
	api("POST /api/menus", s.handleCreateMenu)
	api("PUT /api/menus/{id}", s.handleUpdateMenu)
	api("DELETE /api/menus/{id}", s.handleDeleteMenu)

	api("GET /api/transactions/{menuId}", s.handleListEntries)
	api("POST /api/transactions", s.handleCreateEntry)
	api("PUT /api/transactions/{id}", s.handleUpdateEntry)
	api("DELETE /api/transactions/{id}", s.handleDeleteEntry)

	api("POST /api/transfers", s.handleCreateTransfer)
	api("DELETE /api/transfers/{entryId}", s.handleCancelTransfer)

	api("GET /api/summary/{menuId}", s.handleSummary)
	api("GET /api/series/{menuId}", s.handleSeries)
	api("GET /api/dashboard", s.handleDashboard)
	api("GET /api/allocation", s.handleAllocation)
	api("GET /api/export/{menuId}", s.handleExport)

	api("GET /api/division-settings", s.handleListDivisions)
	api("POST /api/division-settings", s.handleCreateDivision)
	api("PUT /api/division-settings/{id}", s.handleUpdateDivision)
	api("DELETE /api/division-settings/{id}", s.handleDeleteDivision)
	return mux
}

// middleware wraps h, outermost first: tracing, security headers, suspicious
// request logging, write rate limiting.
func (s *Server) middleware(h http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, ratelimit.WritesOnly,
		func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
		})(h)
	detected := s.securityDetector.Middleware(limited)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(detected)
	return s.traceMiddleware.Middleware(headers)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// entries returns a menu's entries through the cache. The slice is a copy.
func (s *Server) entries(ctx context.Context, menuID string) ([]core.Entry, error) {
	if items, ok := s.entriesCache.Get(menuID); ok {
		s.appMetrics.cacheHits.Add(1)
		log.FromContext(ctx).DebugContext(ctx, "Entries cache hit", log.FieldMenuID, menuID, "count", len(items))
		return append([]core.Entry(nil), items...), nil
	}
	s.appMetrics.cacheMisses.Add(1)

	gen := s.cacheGen.current(menuID)
	items, err := s.ledger.Entries(ctx, menuID)
	if err != nil {
		return nil, err
	}

	s.cacheGen.mu.Lock()
	if s.cacheGen.epoch+s.cacheGen.menus[menuID] == gen {
		s.entriesCache.Set(menuID, items)
	} else {
		log.FromContext(ctx).DebugContext(ctx, "Entries changed during read, not caching", log.FieldMenuID, menuID)
	}
	s.cacheGen.mu.Unlock()
	return append([]core.Entry(nil), items...), nil
}

// invalidate drops cached entries for the given menus, or everything when
// none are named.
func (s *Server) invalidate(menuIDs ...string) {
	s.cacheGen.mu.Lock()
	defer s.cacheGen.mu.Unlock()
	if len(menuIDs) == 0 {
		s.cacheGen.epoch++
		s.entriesCache.Purge()
		return
	}
	if s.cacheGen.menus == nil {
		s.cacheGen.menus = make(map[string]uint64)
	}
	for _, id := range menuIDs {
		s.cacheGen.menus[id]++
		s.entriesCache.Delete(id)
	}
}
