package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig parametriza el stub.
type RouterConfig struct {
	// JWTSecret activa el middleware de auth cuando no esta vacio.
	JWTSecret string
	// StreamDelay es la pausa entre deltas del stream; cero en tests.
	StreamDelay time.Duration
}

// NewRouter configura el router de Gin del stub con middlewares y rutas.
func NewRouter(logger *zap.Logger, st *Store, cfg RouterConfig) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	convH := newConversationHandler(logger, st)
	ragH := newRagHandler(logger, st)
	streamH := newStreamHandler(logger, st, cfg.StreamDelay)

	if cfg.JWTSecret != "" {
		r.POST("/auth/token", func(c *gin.Context) {
			token, err := IssueToken(cfg.JWTSecret, "local", 24*time.Hour)
			if err != nil {
				respondError(c, http.StatusInternalServerError, codeInvalidRequest, "could not issue token")
				return
			}
			respondOK(c, http.StatusOK, "token issued", gin.H{"token": token})
		})
	}

	api := r.Group("/api")
	if cfg.JWTSecret != "" {
		api.Use(BearerAuthMiddleware(cfg.JWTSecret))
	}

	conversations := api.Group("/conversations")
	conversations.POST("", streamH.Chat)
	conversations.POST("/new", convH.Create)
	conversations.GET("", convH.List)
	conversations.GET("/favorites", convH.Favorites)
	conversations.GET("/:id", convH.PageMessages)
	conversations.GET("/:id/messages", convH.AllMessages)
	conversations.PATCH("/:id", convH.Rename)
	conversations.DELETE("/:id", convH.Delete)
	conversations.POST("/:id/favorites", convH.AddFavorite)
	conversations.DELETE("/:id/favorites", convH.RemoveFavorite)

	api.DELETE("/messages", convH.DeleteMessagePair)

	rags := api.Group("/rags")
	rags.POST("", ragH.CreateEmbedding)
	rags.GET("/resources", ragH.ListResources)
	rags.GET("/resources/:id", ragH.ResourceDetail)
	rags.DELETE("/resources/:id", ragH.DeleteResource)
	rags.DELETE("/chunks/:id", ragH.DeleteChunk)

	return r
}

// zapLoggerMiddleware loguea cada request con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
