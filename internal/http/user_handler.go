package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"contacts-api/internal/service"
)

// UserHandler mantiene dependencias para endpoints de cuentas.
type UserHandler struct {
	logger    *zap.Logger
	userServ  *service.UserService
	avatarSrv *service.AvatarService
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(logger *zap.Logger, userServ *service.UserService, avatarSrv *service.AvatarService) *UserHandler {
	return &UserHandler{
		logger:    logger,
		userServ:  userServ,
		avatarSrv: avatarSrv,
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Signup maneja POST /auth/signup.
func (h *UserHandler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid signup request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}

	user, err := h.userServ.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailInUse) {
			c.JSON(http.StatusConflict, gin.H{"message": "Email in use"})
			return
		}
		h.logger.Error("signup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user.Profile()})
}

// Login maneja POST /auth/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}

	user, token, err := h.userServ.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Email or password is wrong"})
			return
		case errors.Is(err, service.ErrEmailNotVerified):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Email is not verified"})
			return
		default:
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "could not login"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user.Profile()})
}

// Logout maneja POST /auth/logout.
func (h *UserHandler) Logout(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		notAuthorized(c)
		return
	}

	if err := h.userServ.Logout(c.Request.Context(), user.ID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			notAuthorized(c)
			return
		}
		h.logger.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not logout"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Current maneja GET /auth/current.
func (h *UserHandler) Current(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		notAuthorized(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"email":        user.Email,
		"subscription": user.Subscription,
	})
}

// VerifyEmail maneja GET /auth/verify/:token.
func (h *UserHandler) VerifyEmail(c *gin.Context) {
	_, err := h.userServ.VerifyEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		h.logger.Error("verify email failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not verify email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification successful"})
}

// ResendVerification maneja POST /auth/verify.
func (h *UserHandler) ResendVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid resend request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing required field email"})
		return
	}

	if err := h.userServ.ResendVerification(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		case errors.Is(err, service.ErrAlreadyVerified):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Verification has already been passed"})
			return
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"message": "too many requests"})
			return
		default:
			h.logger.Error("resend verification failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "could not send verification email"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification email sent"})
}

// UpdateAvatar maneja PATCH /auth/avatars.
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		notAuthorized(c)
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing avatar file"})
		return
	}

	avatarURL, err := h.avatarSrv.UpdateAvatar(c.Request.Context(), user, fileHeader)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAvatarMissing):
			c.JSON(http.StatusBadRequest, gin.H{"message": "missing avatar file"})
			return
		case errors.Is(err, service.ErrAvatarNotImage):
			c.JSON(http.StatusBadRequest, gin.H{"message": "avatar must be an image"})
			return
		case errors.Is(err, service.ErrAvatarTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"message": "avatar exceeds 2MB limit"})
			return
		default:
			h.logger.Error("update avatar failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "could not process avatar"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"avatarURL": avatarURL})
}

// UpdateSubscription maneja PATCH /auth/subscription.
func (h *UserHandler) UpdateSubscription(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		notAuthorized(c)
		return
	}

	var req struct {
		Subscription string `json:"subscription" binding:"required,oneof=starter pro business"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid subscription"})
		return
	}

	updated, err := h.userServ.UpdateSubscription(c.Request.Context(), user.ID, req.Subscription)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSubscription):
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid subscription"})
			return
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		default:
			h.logger.Error("update subscription failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "could not update subscription"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"user": updated.Profile()})
}
