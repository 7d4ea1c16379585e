// Package api serves the engine's HTTP surface: circuit conversion,
// package listing, job lookup and health.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/dig"
)

// Router builds the HTTP surface of the engine. It only assembles the
// routes; the listener belongs to the run-group Server.
type Router struct {
	engine *gin.Engine
}

func (r *Router) Setup(container *dig.Container) error {
	r.engine = newEngine(container)
	return nil
}

func (r *Router) TearDown() {
	// nothing to stop here, the run-group server owns the listener
}

// Handler is the assembled HTTP surface.
func (r *Router) Handler() http.Handler {
	return r.engine
}

func newEngine(container *dig.Container) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())
	RegisterRoutes(e, NewHandlers(container))
	return e
}

// RegisterRoutes registers all engine routes.
func RegisterRoutes(e *gin.Engine, h *Handlers) {
	v1 := e.Group("/v1")
	{
		v1.POST("/conversions", h.HandleConversion)
		v1.GET("/packages", h.HandlePackages)
		v1.GET("/jobs/:id", h.HandleJob)
	}
	e.GET("/health", h.HandleHealth)
}
