package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

type conversationClaims struct {
	ConversationID string `json:"conversation_id"`
	jwt.RegisteredClaims
}

// IssueConversationToken signs a bearer token scoped to one conversation.
func IssueConversationToken(secret, conversationID string) (string, error) {
	now := time.Now()
	claims := conversationClaims{
		ConversationID: conversationID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseConversationToken validates the token and returns the conversation it
// is scoped to.
func ParseConversationToken(secret, tokenString string) (string, error) {
	var claims conversationClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid || claims.ConversationID == "" {
		return "", ErrInvalidToken
	}
	return claims.ConversationID, nil
}
