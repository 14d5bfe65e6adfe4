package middleware

import (
	"errors"
	"net/http"

	"github.com/Attique-dash/cjs-backend/src/models"
	"github.com/Attique-dash/cjs-backend/src/services"
	"github.com/gin-gonic/gin"
)

// Context keys for credential attachments
const (
	// PrincipalKey holds the resolved *models.Principal
	PrincipalKey = "principal"
	// WebhookContextKey holds the resolved *models.WebhookContext
	WebhookContextKey = "webhook_context"
)

// GetPrincipal retrieves the resolved principal from the request
// context. Handlers must consume this rather than re-deriving
// authentication themselves.
func GetPrincipal(c *gin.Context) (*models.Principal, bool) {
	v, exists := c.Get(PrincipalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*models.Principal)
	return p, ok
}

// GetWebhookContext retrieves the webhook credential attachment
func GetWebhookContext(c *gin.Context) (*models.WebhookContext, bool) {
	v, exists := c.Get(WebhookContextKey)
	if !exists {
		return nil, false
	}
	wc, ok := v.(*models.WebhookContext)
	return wc, ok
}

// APIKeyAuth authenticates machine callers only. Metering is queued on
// every successful resolution, before the handler runs: "the key was
// valid and used" and "the caller lacked permission for this route"
// are independent facts.
func APIKeyAuth(resolver *services.Resolver, recorder *services.UsageRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := resolver.ResolveAPIKey(c.Request.Context(), c.Request.Header)
		if err != nil {
			abortAuthError(c, err)
			return
		}

		recorder.Record(principal.APIKeyID)
		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// SessionAuth authenticates human callers only
func SessionAuth(resolver *services.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := resolver.ResolveSession(c.Request.Context(), c.Request.Header)
		if err != nil {
			abortAuthError(c, err)
			return
		}

		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// CombinedAuth serves routes reachable by both staff and the external
// partner. A request carrying both headers always resolves via the
// API-key path.
func CombinedAuth(resolver *services.Resolver, recorder *services.UsageRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := resolver.Resolve(c.Request.Context(), c.Request.Header)
		if err != nil {
			abortAuthError(c, err)
			return
		}

		if principal.Kind == models.PrincipalMachine {
			recorder.Record(principal.APIKeyID)
		}
		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// abortAuthError maps resolver and gate errors to HTTP responses.
// Authentication failures surface as 401 with the remediation hint
// baked into the sentinel message; AccountInactive and Forbidden are
// 403 because the credential itself was fine.
func abortAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAccountInactive):
		c.JSON(http.StatusForbidden, gin.H{
			"error": err.Error(),
			"code":  "account_inactive",
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"error": err.Error(),
			"code":  "forbidden",
		})
	case errors.Is(err, services.ErrCredentialMissing),
		errors.Is(err, services.ErrCredentialMalformed),
		errors.Is(err, services.ErrCredentialNotFound),
		errors.Is(err, services.ErrCredentialInactive),
		errors.Is(err, services.ErrCredentialExpired),
		errors.Is(err, services.ErrSessionInvalid),
		errors.Is(err, services.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "authentication failed",
		})
	}
	c.Abort()
}
