package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/analytics"

	"github.com/gin-gonic/gin"
)

// Reporter produces the ordered funnel report.
type Reporter interface {
	Report(ctx context.Context) ([]analytics.StepStat, error)
}

// Stats exposes live counters. Nil funcs report zero.
type Stats struct {
	Sessions func() int
	Pending  func() int
}

// Server serves the admin endpoints next to the bot: health, funnel and live stats.
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

func New(addr string, reporter Reporter, stats Stats) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.GET("/funnel", func(c *gin.Context) {
		steps, err := reporter.Report(c.Request.Context())
		if err != nil {
			log.Printf("[funnel] Failed to build report: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "funnel report unavailable"})
			return
		}
		if c.Query("format") == "text" {
			c.String(http.StatusOK, analytics.Chart(steps))
			return
		}
		c.JSON(http.StatusOK, gin.H{"steps": steps, "chart": analytics.Chart(steps)})
	})

	engine.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"sessions": count(stats.Sessions),
			"pending":  count(stats.Pending),
		})
	})

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks until the server stops. A graceful Shutdown is not reported as an error.
func (s *Server) Start() error {
	log.Printf("Admin HTTP server listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[admin] %s %s -> %d in %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func count(fn func() int) int {
	if fn == nil {
		return 0
	}
	return fn()
}
