package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"contacts-api/internal/service"
)

// ContactHandler mantiene dependencias para endpoints de contactos.
// Todas las rutas pasan por el auth middleware; el owner sale del contexto.
type ContactHandler struct {
	logger      *zap.Logger
	contactServ *service.ContactService
}

func NewContactHandler(logger *zap.Logger, contactServ *service.ContactService) *ContactHandler {
	return &ContactHandler{
		logger:      logger,
		contactServ: contactServ,
	}
}

type contactRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Favorite bool   `json:"favorite"`
}

// List maneja GET /contacts?page&limit&favorite.
func (h *ContactHandler) List(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		notAuthorized(c)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	var favorite *bool
	if raw := c.Query("favorite"); raw != "" {
		val, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid favorite filter"})
			return
		}
		favorite = &val
	}

	pageResult, err := h.contactServ.List(c.Request.Context(), user.ID, page, limit, favorite)
	if err != nil {
		h.logger.Error("list contacts failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not list contacts"})
		return
	}
	c.JSON(http.StatusOK, pageResult)
}

// GetByID maneja GET /contacts/:id.
func (h *ContactHandler) GetByID(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		notAuthorized(c)
		return
	}

	contact, err := h.contactServ.GetByID(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Contact not found"})
			return
		}
		h.logger.Error("get contact failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not get contact"})
		return
	}
	c.JSON(http.StatusOK, contact)
}

// Create maneja POST /contacts.
func (h *ContactHandler) Create(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		notAuthorized(c)
		return
	}

	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing required fields"})
		return
	}

	contact, err := h.contactServ.Create(c.Request.Context(), user.ID, service.ContactInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Favorite: req.Favorite,
	})
	if err != nil {
		if errors.Is(err, service.ErrContactInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "missing required fields"})
			return
		}
		h.logger.Error("create contact failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not create contact"})
		return
	}
	c.JSON(http.StatusCreated, contact)
}

// Update maneja PUT /contacts/:id.
func (h *ContactHandler) Update(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		notAuthorized(c)
		return
	}

	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing required fields"})
		return
	}

	contact, err := h.contactServ.Update(c.Request.Context(), user.ID, c.Param("id"), service.ContactInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Favorite: req.Favorite,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrContactInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"message": "missing required fields"})
			return
		case errors.Is(err, service.ErrContactNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Contact not found"})
			return
		default:
			h.logger.Error("update contact failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "could not update contact"})
			return
		}
	}
	c.JSON(http.StatusOK, contact)
}

// UpdateFavorite maneja PATCH /contacts/:id/favorite.
func (h *ContactHandler) UpdateFavorite(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		notAuthorized(c)
		return
	}

	// *bool distingue "favorite":false de un campo ausente.
	var req struct {
		Favorite *bool `json:"favorite"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Favorite == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing field favorite"})
		return
	}

	contact, err := h.contactServ.UpdateFavorite(c.Request.Context(), user.ID, c.Param("id"), *req.Favorite)
	if err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Contact not found"})
			return
		}
		h.logger.Error("update favorite failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not update contact"})
		return
	}
	c.JSON(http.StatusOK, contact)
}

// Delete maneja DELETE /contacts/:id.
func (h *ContactHandler) Delete(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		notAuthorized(c)
		return
	}

	if err := h.contactServ.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Contact not found"})
			return
		}
		h.logger.Error("delete contact failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not delete contact"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contact deleted"})
}
