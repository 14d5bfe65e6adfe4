package middleware

import (
	"net/http"
	"testing"

	"github.com/Attique-dash/cjs-backend/src/models"
	"github.com/Attique-dash/cjs-backend/src/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequireRoles(t *testing.T) {
	s := newTestStack(t)
	router := gin.New()
	router.GET("/admin", SessionAuth(s.resolver), RequireRoles(models.RoleAdmin), okHandler)

	token := s.adminToken(t)
	w := performRequest(router, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)

	// A staff-only route rejects the admin: membership is exact
	staffRouter := gin.New()
	staffRouter.GET("/staff", SessionAuth(s.resolver), RequireRoles(models.RoleWarehouseStaff), okHandler)
	w = performRequest(staffRouter, http.MethodGet, "/staff", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "forbidden")
}

func TestRequirePermissions(t *testing.T) {
	s := newTestStack(t)
	router := gin.New()
	router.GET("/packages",
		APIKeyAuth(s.resolver, s.recorder),
		RequirePermissions(models.PermPackagesRead, models.PermPackagesWrite),
		okHandler)

	fullKey := s.issueKey(t, services.IssueParams{
		Permissions: []string{models.PermPackagesRead, models.PermPackagesWrite},
	})
	readOnlyKey := s.issueKey(t, services.IssueParams{
		Permissions: []string{models.PermPackagesRead},
	})

	w := performRequest(router, http.MethodGet, "/packages", map[string]string{models.HeaderAPIKey: fullKey.KeyValue})
	assert.Equal(t, http.StatusOK, w.Code)

	// Holding one of two required tokens is not enough
	w = performRequest(router, http.MethodGet, "/packages", map[string]string{models.HeaderAPIKey: readOnlyKey.KeyValue})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), models.PermPackagesWrite)

	// Authorization failures still meter the key: it authenticated
	s.recorder.Wait()
	assert.Equal(t, int64(1), s.keys.Get(readOnlyKey.ID).UsageCount)
}

func TestRequireCourierScope(t *testing.T) {
	s := newTestStack(t)
	router := gin.New()
	router.GET("/couriers/:code/manifests",
		APIKeyAuth(s.resolver, s.recorder),
		RequireCourierScope("code"),
		okHandler)

	scopedKey := s.issueKey(t, services.IssueParams{
		CourierCode: "ACME",
		Permissions: []string{models.PermManifestsRead},
	})
	unscopedKey := s.issueKey(t, services.IssueParams{
		Permissions: []string{models.PermManifestsRead},
	})

	// Matching scope passes
	w := performRequest(router, http.MethodGet, "/couriers/ACME/manifests", map[string]string{models.HeaderAPIKey: scopedKey.KeyValue})
	assert.Equal(t, http.StatusOK, w.Code)

	// A key scoped to one courier can never touch another courier's
	// records
	w = performRequest(router, http.MethodGet, "/couriers/OTHER/manifests", map[string]string{models.HeaderAPIKey: scopedKey.KeyValue})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "scope_mismatch")

	// Unscoped keys pass every courier
	w = performRequest(router, http.MethodGet, "/couriers/OTHER/manifests", map[string]string{models.HeaderAPIKey: unscopedKey.KeyValue})
	assert.Equal(t, http.StatusOK, w.Code)
}
