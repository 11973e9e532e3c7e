package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	userH *UserHandler,
	contactH *ContactHandler,
	authMW gin.HandlerFunc,
	avatarDir string,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	auth := r.Group("/auth")
	auth.POST("/signup", userH.Signup)
	auth.POST("/login", userH.Login)
	auth.GET("/verify/:token", userH.VerifyEmail)
	auth.POST("/verify", userH.ResendVerification)
	auth.POST("/logout", authMW, userH.Logout)
	auth.GET("/current", authMW, userH.Current)
	auth.PATCH("/avatars", authMW, userH.UpdateAvatar)
	auth.PATCH("/subscription", authMW, userH.UpdateSubscription)

	contacts := r.Group("/contacts", authMW)
	contacts.GET("", contactH.List)
	contacts.POST("", contactH.Create)
	contacts.GET("/:id", contactH.GetByID)
	contacts.PUT("/:id", contactH.Update)
	contacts.PATCH("/:id/favorite", contactH.UpdateFavorite)
	contacts.DELETE("/:id", contactH.Delete)

	r.Static("/avatars", avatarDir)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	})

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en
// responses de la API; los avatares estaticos conservan su tipo real.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, "/avatars/") {
			c.Writer.Header().Set("Content-Type", "application/json")
		}
		c.Next()
	}
}
