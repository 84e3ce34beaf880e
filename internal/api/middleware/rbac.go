package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zapify/zapify/internal/storage"
	"github.com/zapify/zapify/internal/storage/model"
)

// RequireAdmin confere o papel direto no banco, para que rebaixar um usuário
// tenha efeito imediato mesmo com token antigo.
func RequireAdmin(users storage.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "usuário não autenticado"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID.(string))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "usuário não encontrado"})
			return
		}

		if user.Role != model.UserRoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "acesso negado: apenas administradores"})
			return
		}

		c.Set("userRole", user.Role)
		c.Next()
	}
}
