package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/danmuck/mavctl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// StatsFunc returns a JSON-serializable snapshot for /stats.
type StatsFunc func() any

type Config struct {
	Node        string
	Addr        string
	CORSOrigins []string
	Stats       StatsFunc
}

// Server is the status endpoint of a running link process.
type Server struct {
	node     string
	addr     string
	router   *gin.Engine
	stats    StatsFunc
	appeared time.Time
	ready    atomic.Bool
}

func New(cfg Config) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.StatusMiddleware(cfg.Node, log.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CORSOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		node:     cfg.Node,
		addr:     cfg.Addr,
		router:   r,
		stats:    cfg.Stats,
		appeared: time.Now(),
	}
	s.registerRoutes()
	return s
}

// SetReady flips /ready, e.g. once the link and publisher are up.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on the configured address until ctx is done, then shuts
// down with a short grace period.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("node", s.node).Str("addr", s.addr).Msg("status server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
