package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/answer"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/common"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/config"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/convo"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/httpapi/middleware"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/pipeline"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/store/redisstore"
)

// Asker is the pipeline entry the HTTP layer depends on.
type Asker interface {
	Resolve(ctx context.Context, in pipeline.Input) (*answer.Envelope, error)
}

// JobPublisher enqueues batch jobs; nil when no broker is configured.
type JobPublisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

type Handler struct {
	Cfg      config.Config
	Resolver Asker
	Repo     *convo.Repo
	Redis    *redisstore.Store
	Jobs     JobPublisher
	Log      *zap.Logger
}

func NewHandler(cfg config.Config, resolver Asker, repo *convo.Repo, rds *redisstore.Store, jobs JobPublisher, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Cfg: cfg, Resolver: resolver, Repo: repo, Redis: rds, Jobs: jobs, Log: log}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"status": "ok"})
}

// GetChart serves a stored chart spec by handle. Specs expire with their
// cache TTL.
func (h *Handler) GetChart(c *gin.Context) {
	spec := h.Redis.Get(c.Request.Context(), answer.ChartKeyPrefix+c.Param("chart_id"))
	if spec == "" {
		common.Fail(c, http.StatusNotFound, 40006, "chart not found or expired")
		return
	}
	c.Data(http.StatusOK, "application/json", []byte(spec))
}

func conversationIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(middleware.ConversationIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
