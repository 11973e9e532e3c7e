package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"contacts-api/internal/domain"
	"contacts-api/internal/repository"
	"contacts-api/internal/service"
)

const authUserKey = "auth_user"

// AuthMiddleware resuelve el bearer token a un usuario vivo. Ademas de la
// firma y expiracion del JWT compara contra el token almacenado en el
// registro: un logout o login en otro lado invalida de inmediato.
func AuthMiddleware(jwtSvc *service.JWTService, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSvc == nil || users == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "auth not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			notAuthorized(c)
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		userID, err := jwtSvc.Parse(token)
		if err != nil {
			notAuthorized(c)
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			notAuthorized(c)
			return
		}
		if user.Token == nil || *user.Token != token {
			notAuthorized(c)
			return
		}

		c.Set(authUserKey, user)
		c.Next()
	}
}

// GetAuthUser obtiene el usuario autenticado desde el contexto.
func GetAuthUser(c *gin.Context) (domain.User, bool) {
	val, ok := c.Get(authUserKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := val.(domain.User)
	return user, ok
}

func notAuthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
	c.Abort()
}
