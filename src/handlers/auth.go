package handlers

import (
	"errors"
	"net/http"

	"github.com/Attique-dash/cjs-backend/src/middleware"
	"github.com/Attique-dash/cjs-backend/src/services"
	"github.com/gin-gonic/gin"
)

// AuthHandler exposes the portal session endpoints
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest is the request body for portal login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// HandleLogin verifies credentials and returns a session token
func (ah *AuthHandler) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	token, user, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrAccountInactive):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "account_inactive"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// HandleLogout acknowledges the logout. Session tokens are stateless;
// the client discards the token and the expiry bounds its remaining life.
func (ah *AuthHandler) HandleLogout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// HandleMe returns the principal attached to the current session
func (ah *AuthHandler) HandleMe(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": services.ErrCredentialMissing.Error()})
		return
	}
	c.JSON(http.StatusOK, principal)
}
