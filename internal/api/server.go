package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"

	"github.com/timertimertimer/kfudao/internal/domain/config"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Board produces proposal views
type Board interface {
	Views(ctx context.Context, now time.Time) []usecase.ProposalView
	View(ctx context.Context, id *big.Int, now time.Time) (*usecase.ProposalView, error)
	ViewsForAddress(ctx context.Context, address string, now time.Time) []usecase.ProposalView
}

// Catalog serves institute reference data
type Catalog interface {
	Load(ctx context.Context) (map[string]string, error)
	Faculties(ctx context.Context, abbreviation string) ([]string, error)
}

// Server is the read-only JSON API over the synced proposals
type Server struct {
	cfg       *config.RuntimeConfig
	board     Board
	head      usecase.ChainSnapshot
	catalog   Catalog
	sanitizer *bluemonday.Policy
	now       func() time.Time
	log       *slog.Logger
}

// NewServer creates a new API server
func NewServer(cfg *config.RuntimeConfig, board Board, head usecase.ChainSnapshot, catalog Catalog, log *slog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		board:     board,
		head:      head,
		catalog:   catalog,
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
		log:       log.With("component", "API"),
	}
}

// Handler builds the gin engine
func (s *Server) Handler() *gin.Engine {
	if !s.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	g := gin.New()
	g.Use(gin.Recovery(), s.requestLogger())

	origins := s.cfg.API.CORSOrigins
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "If-None-Match"},
		ExposeHeaders: []string{"Content-Length", "ETag"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	g.Use(cors.New(corsCfg))

	s.attachRoutes(g)
	return g
}

func (s *Server) attachRoutes(g *gin.Engine) {
	g.GET("/healthz", s.health)

	api := g.Group("/api")
	{
		api.GET("/proposals", s.listProposals)
		api.GET("/proposals/:id", s.getProposal)
		api.GET("/chain/head", s.chainHead)
		api.GET("/institutes", s.listInstitutes)
		api.GET("/institutes/:abbr/faculties", s.listFaculties)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.API.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.API.Listen, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Serve(listener)
	}()
	s.log.Info("API listening", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("failed to shut down api server: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
