package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/construction-pm-api/internal/auth"
	"github.com/yukikurage/construction-pm-api/internal/authz"
	"github.com/yukikurage/construction-pm-api/internal/constants"
	apierrors "github.com/yukikurage/construction-pm-api/internal/errors"
	"github.com/yukikurage/construction-pm-api/internal/repository"
	"gorm.io/gorm"
)

const (
	msgNoToken      = "No token provided"
	msgUnauthorized = "Unauthorized"
	reasonNoUser    = "user not found"
)

// RequireAuth resolves the x-access-token header to a user and stores the
// user ID and actor in the context.
func RequireAuth(tokens *auth.TokenManager, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(constants.TokenHeader))
		if token == "" {
			apierrors.TokenRejected(c, http.StatusForbidden, msgNoToken, "")
			c.Abort()
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			reason := auth.ErrInvalidToken.Error()
			if errors.Is(err, auth.ErrTokenExpired) {
				reason = auth.ErrTokenExpired.Error()
			}
			apierrors.TokenRejected(c, http.StatusUnauthorized, msgUnauthorized, reason)
			c.Abort()
			return
		}

		user, err := users.FindByID(claims.UserID, "Roles")
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.TokenRejected(c, http.StatusUnauthorized, msgUnauthorized, reasonNoUser)
			} else {
				apierrors.InternalError(c, err.Error())
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyActor, authz.NewActor(user))
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetActor retrieves the authenticated actor from context
func GetActor(c *gin.Context) (authz.Actor, bool) {
	value, exists := c.Get(constants.ContextKeyActor)
	if !exists {
		return authz.Actor{}, false
	}
	actor, ok := value.(authz.Actor)
	return actor, ok
}
