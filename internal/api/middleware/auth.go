package middleware

import (
	"ConectaYa/internal/pkg/consts"
	"ConectaYa/internal/pkg/redis"
	"ConectaYa/internal/pkg/response"
	"ConectaYa/internal/pkg/security"
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 负责验证 JWT 并将用户身份信息注入 Context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Fail(c, response.Unauthorized, "token faltante o con formato incorrecto")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		signature, err := security.ExtractSignature(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "token faltante o con formato incorrecto")
			c.Abort()
			return
		}

		// 已注销的 Token 在黑名单里
		value, err := redis.GetValue(c.Request.Context(), consts.AuthBlacklistKey+signature)
		if err != nil {
			response.Fail(c, response.InternalServerError, "error interno, inténtalo más tarde")
			c.Abort()
			return
		}
		if value != "" {
			response.Fail(c, response.Unauthorized, "token inválido o expirado")
			c.Abort()
			return
		}

		claims, err := security.ValidateToken(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "token inválido o expirado")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("roles", claims.Roles)

		newCtx := context.WithValue(c.Request.Context(), "user_id", claims.UserID)
		c.Request = c.Request.WithContext(newCtx)

		c.Next()
	}
}
