// Package api defines the HTTP surface of the scribe service: job
// submission, status and result polling, cancellation, health and stats.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/scribe/server/middleware"
)

// authSkipPaths are path prefixes that bypass authentication when it is
// enabled. Health and info stay open so load balancers keep working.
var authSkipPaths = []string{"/health", "/info", "/metrics"}

// Register mounts all API routes on the Gin engine. When authSecret is
// non-empty, routes outside the skip list require a Bearer token.
func Register(engine *gin.Engine, h *Handler, authSecret string) {
	if authSecret != "" {
		engine.Use(middleware.Auth(middleware.AuthConfig{
			TokenValidator: middleware.HMACValidator(authSecret),
			SkipPaths:      authSkipPaths,
		}))
	}

	engine.POST("/transcribe", h.Submit)
	engine.GET("/status/:id", h.Status)
	engine.GET("/result/:id", h.Result)
	engine.DELETE("/cancel/:id", h.Cancel)
	engine.GET("/health", h.Health)
	engine.GET("/stats", h.Stats)
}
