package middleware

import (
	domainUser "precast-tracker/internal/domain/user"
	"precast-tracker/internal/usecase/authz"
	appErrors "precast-tracker/pkg/errors"
	"precast-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
)

const RoleKey = "role"

// RoleMiddleware resolves the caller's role from storage and rejects
// anyone outside allowedRoles. With no roles it only requires an active
// account.
func RoleMiddleware(gate *authz.Gate, allowedRoles ...domainUser.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, ok := CurrentUserID(c)
		if !ok {
			utils.RespondError(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		var (
			role domainUser.Role
			err  error
		)
		if len(allowedRoles) == 0 {
			role, err = gate.RoleOf(c.Request.Context(), actorID)
		} else {
			role, err = gate.Require(c.Request.Context(), actorID, allowedRoles...)
		}
		if err != nil {
			utils.RespondError(c, err)
			c.Abort()
			return
		}

		c.Set(RoleKey, role)
		c.Next()
	}
}

func AdminOnly(gate *authz.Gate) gin.HandlerFunc {
	return RoleMiddleware(gate, domainUser.RoleAdmin)
}

func FactoryOnly(gate *authz.Gate) gin.HandlerFunc {
	return RoleMiddleware(gate, authz.FactoryRoles...)
}
