package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Routes groups the handlers mounted under /api/v1
type Routes struct {
	Chat      *ChatHandler
	Search    *SearchHandler
	Documents *DocumentHandler
}

// Register mounts the API routes on router
func (r Routes) Register(router gin.IRouter) {
	apiV1 := router.Group("/api/v1")
	{
		// Conversation endpoints
		apiV1.POST("/chat/sessions", r.Chat.Start)
		apiV1.GET("/chat/sessions/:id", r.Chat.Get)
		apiV1.POST("/chat/sessions/:id/actions", r.Chat.Act)
		apiV1.DELETE("/chat/sessions/:id", r.Chat.End)

		// Search endpoints
		apiV1.POST("/search", r.Search.Search)
		apiV1.POST("/search/stream", r.Search.SearchStream)

		// Corpus endpoints
		apiV1.POST("/documents", r.Documents.Upload)
		apiV1.GET("/sources", r.Documents.Sources)
		apiV1.DELETE("/sources/:id", r.Documents.DeleteSource)
	}
}

// NewRouter builds a gin engine with recovery, request logging and the API routes
func NewRouter(routes Routes, log zerolog.Logger, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))
	router.Use(middleware...)
	routes.Register(router)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
	})
	return router
}
