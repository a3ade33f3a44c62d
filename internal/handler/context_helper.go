package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/appdev-aems/portal-api/internal/middleware"
	"github.com/appdev-aems/portal-api/internal/session"
	appErrors "github.com/appdev-aems/portal-api/pkg/errors"
	"github.com/appdev-aems/portal-api/pkg/response"
)

// currentManager resolves the caller's session manager from the verified
// JWT claims. It writes the error response itself; callers just return
// on nil.
func currentManager(c *gin.Context, sessions *session.Registry) *session.Manager {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	mgr := sessions.Get(claims.Subject)
	if mgr == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "no active session, log in first"))
		return nil
	}
	return mgr
}

// currentRole returns the caller's role, empty when unauthenticated.
func currentRole(c *gin.Context) string {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return ""
	}
	return claims.Role
}
