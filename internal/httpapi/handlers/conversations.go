package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/auth"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/common"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/convo"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/pipeline"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/schema"
)

type createConversationReq struct {
	Database string `json:"database"`
}

// CreateConversation opens a thread against one database and issues the
// bearer token scoped to it.
func (h *Handler) CreateConversation(c *gin.Context) {
	var req createConversationReq
	_ = c.ShouldBindJSON(&req) // allow empty {}

	database := req.Database
	if database == "" {
		database = h.Cfg.QueryDBName
	}

	conversation := &convo.Conversation{
		ConversationID: convo.NewID(),
		Database:       database,
	}
	if err := h.Repo.CreateConversation(c.Request.Context(), conversation); err != nil {
		h.Log.Error("create conversation failed", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create conversation")
		return
	}

	token, err := auth.IssueConversationToken(h.Cfg.JWTSecret, conversation.ConversationID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to issue token")
		return
	}

	common.OK(c, gin.H{
		"conversation_id": conversation.ConversationID,
		"database":        database,
		"token":           token,
	})
}

type askReq struct {
	Question string `json:"question" binding:"required"`
}

// Ask resolves one question and returns its envelope.
func (h *Handler) Ask(c *gin.Context) {
	conversationID, ok := conversationIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req askReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	conversation, err := h.Repo.GetConversation(c.Request.Context(), conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40004, "conversation not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to load conversation")
		return
	}

	env, err := h.Resolver.Resolve(c.Request.Context(), pipeline.Input{
		ConversationID: conversationID,
		Database:       conversation.Database,
		Question:       req.Question,
	})
	if err != nil {
		if errors.Is(err, schema.ErrSchemaUnavailable) {
			common.Fail(c, http.StatusServiceUnavailable, 50301, "database schema unavailable")
			return
		}
		h.Log.Error("resolve failed",
			zap.String("conversation", conversationID),
			zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to answer question")
		return
	}

	common.OK(c, env)
}

// History lists recent turns oldest first.
func (h *Handler) History(c *gin.Context) {
	conversationID, ok := conversationIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	turns, err := h.Repo.RecentTurns(c.Request.Context(), conversationID, limit)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to list history")
		return
	}

	common.OK(c, gin.H{"turns": turns})
}

// ClearHistory drops all turns of the conversation.
func (h *Handler) ClearHistory(c *gin.Context) {
	conversationID, ok := conversationIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	if err := h.Repo.ClearTurns(c.Request.Context(), conversationID); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50006, "failed to clear history")
		return
	}
	common.OK(c, gin.H{"cleared": true})
}
