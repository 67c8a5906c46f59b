package middleware

import (
	"ConectaYa/internal/model"
	"ConectaYa/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// CheckRoles 检查当前用户是否拥有至少一个指定的角色
func CheckRoles(requiredRoles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles := c.GetStringSlice("roles")

		hasPermission := false
		for _, required := range requiredRoles {
			if model.HasRole(roles, required) {
				hasPermission = true
				break
			}
		}

		if !hasPermission {
			response.Fail(c, response.Forbidden, "no tienes permisos para acceder a este recurso")
			c.Abort()
			return
		}

		c.Next()
	}
}
