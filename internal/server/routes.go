package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "0.1.0"

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(s.appeared).String(),
			"component": s.node,
			"version":   version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		ready := s.ready.Load()
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":     ready,
			"uptime":    time.Since(s.appeared).String(),
			"component": s.node,
			"version":   version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/stats", func(c *gin.Context) {
		if s.stats == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no stats source"})
			return
		}
		c.JSON(http.StatusOK, s.stats())
	})
}
