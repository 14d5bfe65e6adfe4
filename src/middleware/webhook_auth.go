package middleware

import (
	"github.com/Attique-dash/cjs-backend/src/services"
	"github.com/gin-gonic/gin"
)

// WebhookAuth authenticates inbound webhook senders. It accepts the
// wider webhook header alias set and never falls back to bearer-token
// resolution: a webhook call without a key header is unconditionally
// rejected as missing credentials. On success a WebhookContext is
// attached instead of a full Principal.
func WebhookAuth(resolver *services.Resolver, recorder *services.UsageRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		wc, err := resolver.ResolveWebhook(c.Request.Context(), c.Request.Header)
		if err != nil {
			abortAuthError(c, err)
			return
		}

		recorder.Record(wc.KeyID)
		c.Set(WebhookContextKey, wc)
		c.Next()
	}
}
