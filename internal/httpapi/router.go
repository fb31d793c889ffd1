package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/common"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/config"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/httpapi/handlers"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/httpapi/middleware"
)

func NewRouter(cfg config.Config, h *handlers.Handler, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery(log))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	r.GET("/ping", h.Ping)
	r.GET("/charts/:chart_id", h.GetChart)

	r.POST("/conversations", h.CreateConversation)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.POST("/chat", h.Ask)
	authGroup.GET("/chat/history", h.History)
	authGroup.DELETE("/chat/history", h.ClearHistory)
	authGroup.POST("/chat/batch", h.EnqueueBatch)
	authGroup.GET("/chat/jobs/:job_id", h.GetJob)

	return r
}
