package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/auth"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/common"
)

const (
	RequestIDKey      = "request_id"
	ConversationIDKey = "conversation_id"
	requestIDHeader   = "X-Request-ID"
)

// RequestID tags every request with an id, honoring one supplied upstream.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// Recovery converts panics into a clean 500 envelope.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("handler panic",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path))
				common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
				c.Abort()
			}
		}()
		c.Next()
	}
}

// AuthRequired validates the conversation bearer token and stores the
// conversation id on the context.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			common.Fail(c, http.StatusUnauthorized, 40100, "missing bearer token")
			c.Abort()
			return
		}
		conversationID, err := auth.ParseConversationToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40101, "invalid token")
			c.Abort()
			return
		}
		c.Set(ConversationIDKey, conversationID)
		c.Next()
	}
}
