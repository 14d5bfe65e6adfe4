package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Attique-dash/cjs-backend/src/middleware"
	"github.com/Attique-dash/cjs-backend/src/models"
	"github.com/Attique-dash/cjs-backend/src/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// KeyHandler exposes the administrative API key lifecycle surface
type KeyHandler struct {
	keyService   *services.KeyService
	externalHost string
}

// NewKeyHandler creates a new key handler
func NewKeyHandler(keyService *services.KeyService, externalHost string) *KeyHandler {
	return &KeyHandler{keyService: keyService, externalHost: externalHost}
}

// IssueKeyRequest is the request body for key issuance
type IssueKeyRequest struct {
	Description   string                  `json:"description"`
	CourierCode   string                  `json:"courier_code"`
	WarehouseID   string                  `json:"warehouse_id"`
	Permissions   []string                `json:"permissions"`
	ExpiresInDays int                     `json:"expires_in_days"`
	RateLimit     *models.RateLimitPolicy `json:"rate_limit"`
}

// HandleIssueKey creates a new API key. The response body is the only
// place the raw key value is ever returned; store it on receipt.
func (kh *KeyHandler) HandleIssueKey(c *gin.Context) {
	var req IssueKeyRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": services.ErrCredentialMissing.Error()})
		return
	}

	key, err := kh.keyService.Issue(c.Request.Context(), services.IssueParams{
		OwnerID:       principal.ID,
		Description:   req.Description,
		CourierCode:   req.CourierCode,
		WarehouseID:   req.WarehouseID,
		Permissions:   req.Permissions,
		ExpiresInDays: req.ExpiresInDays,
		RateLimit:     req.RateLimit,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidScope):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrDuplicateKey):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue key"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"api_key": key.KeyValue,
		"key":     key.Info(time.Now()),
		"notice":  "store this key now; it will not be shown again",
	})
}

// HandleListKeys lists keys with the secret stripped
func (kh *KeyHandler) HandleListKeys(c *gin.Context) {
	filter := services.ListFilter{CourierCode: c.Query("courier")}
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}

	keys, err := kh.keyService.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list keys"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"keys": keys, "count": len(keys)})
}

// HandleGetKey returns a single key with the secret stripped
func (kh *KeyHandler) HandleGetKey(c *gin.Context) {
	id, ok := kh.keyID(c)
	if !ok {
		return
	}

	info, err := kh.keyService.Get(c.Request.Context(), id)
	if err != nil {
		kh.keyError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// HandleDeactivateKey marks the key inactive; idempotent
func (kh *KeyHandler) HandleDeactivateKey(c *gin.Context) {
	kh.toggle(c, kh.keyService.Deactivate)
}

// HandleActivateKey marks the key active; idempotent
func (kh *KeyHandler) HandleActivateKey(c *gin.Context) {
	kh.toggle(c, kh.keyService.Activate)
}

// HandleDeleteKey permanently removes the key
func (kh *KeyHandler) HandleDeleteKey(c *gin.Context) {
	id, ok := kh.keyID(c)
	if !ok {
		return
	}

	if err := kh.keyService.Delete(c.Request.Context(), id); err != nil {
		kh.keyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted_id": id})
}

// HandleConnectionInfo returns non-secret integration metadata for the
// partner portal configuration screen
func (kh *KeyHandler) HandleConnectionInfo(c *gin.Context) {
	info, err := kh.keyService.GetConnectionInfo(c.Request.Context(), kh.externalHost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load connection info"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (kh *KeyHandler) toggle(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*models.APIKeyInfo, error)) {
	id, ok := kh.keyID(c)
	if !ok {
		return
	}

	info, err := op(c.Request.Context(), id)
	if err != nil {
		kh.keyError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (kh *KeyHandler) keyID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key id"})
		return uuid.Nil, false
	}
	return id, true
}

func (kh *KeyHandler) keyError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrKeyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "key operation failed"})
}
