package jwtmw

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// ContextUserID は認証済みユーザーIDを格納するGinコンテキストキーです。
	ContextUserID = "userID"
	// ContextUsername は認証済みユーザー名を格納するGinコンテキストキーです。
	ContextUsername = "username"
)

// AuthRequired returns a Gin middleware function that validates JWT tokens
// and restricts access to authenticated users only.
func AuthRequired(verifier *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimPrefix(auth, "Bearer ")

		// 2. Verify signature and claims
		identity, err := verifier.Verify(tokenStr)
		if errors.Is(err, ErrMissingSecret) {
			slog.Error("JWT secret is not configured")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server misconfigured"})
			return
		}
		if err != nil {
			slog.Warn("token rejected", "error", err, "remote_addr", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		// 3. Store identity for downstream handlers
		c.Set(ContextUserID, identity.UserID)
		c.Set(ContextUsername, identity.Username)
		c.Next()
	}
}

// UserID はAuthRequiredが設定したユーザーIDを取り出します。
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id > 0
}

// UserKey はレートリミット等でクライアントを識別するキーを返します。未認証の場合は空文字です。
func UserKey(c *gin.Context) string {
	id, ok := UserID(c)
	if !ok {
		return ""
	}
	return "user:" + strconv.FormatUint(uint64(id), 10)
}
