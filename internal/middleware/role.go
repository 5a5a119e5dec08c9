package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/construction-pm-api/internal/authz"
	apierrors "github.com/yukikurage/construction-pm-api/internal/errors"
	"github.com/yukikurage/construction-pm-api/internal/models"
)

// RequireRole checks if the actor resolved by RequireAuth holds role
func RequireRole(role models.RoleName) gin.HandlerFunc {
	return requireActor(func(actor authz.Actor) error {
		return authz.RequireRole(actor, role)
	})
}

// RequireManagerOrAdmin checks if the actor holds the manager or admin role
func RequireManagerOrAdmin() gin.HandlerFunc {
	return requireActor(func(actor authz.Actor) error {
		if authz.IsManagerOrAdmin(actor, nil) {
			return nil
		}
		return authz.ErrManagerRequired
	})
}

func requireActor(check func(authz.Actor) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, exists := GetActor(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if err := check(actor); err != nil {
			code := apierrors.ErrCodeInsufficientPermissions
			if denial, ok := authz.IsDenial(err); ok && denial.Kind == authz.DenialNotOwner {
				code = apierrors.ErrCodeNotOwner
			}
			apierrors.RespondWithError(c, http.StatusForbidden, apierrors.NewAPIError(code, err.Error()))
			c.Abort()
			return
		}

		c.Next()
	}
}
