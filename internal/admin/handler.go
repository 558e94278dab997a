// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/azadnexus/backend/internal/core"
	"github.com/azadnexus/backend/internal/inquiry"
)

type InquiryStats interface {
	Stats(ctx context.Context, loc *time.Location) (inquiry.Stats, error)
}

type Counter interface {
	Count(ctx context.Context) (int, error)
}

type HandlerConfig struct {
	Inquiries  InquiryStats
	BlogPosts  Counter
	Services   Counter
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	DBPing     func(ctx context.Context) error
	RedisPing  func(ctx context.Context) error
}

type Handler struct {
	cfg     HandlerConfig
	started time.Time
	now     func() time.Time
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg, started: time.Now(), now: time.Now}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(adminOnly)

		r.Get("/dashboard", h.GetDashboard)
		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
	})
}

// GetDashboard gathers the back-office counters in parallel. Any failing
// source fails the whole response.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	tz := r.URL.Query().Get("tz")
	loc, err := inquiry.ParseLocation(tz)
	if err != nil {
		core.JSONError(w, core.ValidationError(map[string]string{"tz": "unknown time zone"}))
		return
	}

	resp := DashboardResponse{
		TimeZone:    loc.String(),
		GeneratedAt: h.now().UTC(),
	}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		stats, err := h.cfg.Inquiries.Stats(ctx, loc)
		resp.Inquiries = stats
		return err
	})
	g.Go(func() error {
		n, err := h.cfg.BlogPosts.Count(ctx)
		resp.BlogPosts = n
		return err
	})
	g.Go(func() error {
		n, err := h.cfg.Services.Count(ctx)
		resp.Services = n
		return err
	})

	if err := g.Wait(); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	core.OK(w, SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: pingOK(ctx, h.cfg.DBPing),
			Stats:   h.dbPoolStats(),
		},
		Redis: RedisStatus{
			Healthy: pingOK(ctx, h.cfg.RedisPing),
			Stats:   h.redisPoolStats(),
		},
		Runtime: h.runtimeStats(),
	})
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.dbPoolStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.redisPoolStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.runtimeStats())
}

func pingOK(ctx context.Context, ping func(context.Context) error) bool {
	return ping != nil && ping(ctx) == nil
}

func (h *Handler) runtimeStats() RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     mem.Alloc,
		HeapObjects:  mem.HeapObjects,
		NumGC:        mem.NumGC,
		Uptime:       h.now().Sub(h.started).Round(time.Second).String(),
	}
}

func (h *Handler) dbPoolStats() *DBPoolStats {
	if h.cfg.DBStats == nil {
		return nil
	}

	s := h.cfg.DBStats()
	return &DBPoolStats{
		MaxOpenConnections: s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration.String(),
		MaxIdleClosed:      s.MaxIdleClosed,
		MaxLifetimeClosed:  s.MaxLifetimeClosed,
	}
}

func (h *Handler) redisPoolStats() *RedisPoolStats {
	if h.cfg.RedisStats == nil {
		return nil
	}

	s := h.cfg.RedisStats()
	return &RedisPoolStats{
		Hits:       s.Hits,
		Misses:     s.Misses,
		Timeouts:   s.Timeouts,
		TotalConns: s.TotalConns,
		IdleConns:  s.IdleConns,
	}
}
