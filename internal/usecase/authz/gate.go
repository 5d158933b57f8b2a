// Package authz resolves who is acting and what they may touch.
package authz

import (
	"context"
	"errors"
	"slices"

	domainDelivery "precast-tracker/internal/domain/delivery"
	domainUser "precast-tracker/internal/domain/user"
	appErrors "precast-tracker/pkg/errors"

	"github.com/google/uuid"
)

// Factory roles may drive production transitions and batches.
var FactoryRoles = []domainUser.Role{domainUser.RoleAdmin, domainUser.RoleFactoryManager}

// Gate answers role and ownership questions from the user and delivery
// tables. It never trusts a role carried in a token.
type Gate struct {
	userRepo     domainUser.Repository
	deliveryRepo domainDelivery.Repository
}

func NewGate(userRepo domainUser.Repository, deliveryRepo domainDelivery.Repository) *Gate {
	return &Gate{
		userRepo:     userRepo,
		deliveryRepo: deliveryRepo,
	}
}

// RoleOf returns the stored role of an active principal. Unknown or
// inactive principals are Forbidden.
func (g *Gate) RoleOf(ctx context.Context, actorID uuid.UUID) (domainUser.Role, error) {
	u, err := g.userRepo.GetByID(ctx, actorID)
	if errors.Is(err, domainUser.ErrUserNotFound) {
		return "", appErrors.Forbidden("unknown principal")
	}
	if err != nil {
		return "", appErrors.StorageFailure("role lookup", err)
	}
	if !u.IsActive {
		return "", appErrors.Forbidden("principal is inactive")
	}
	if !u.Role.Valid() {
		return "", appErrors.Forbidden("principal has no valid role")
	}
	return u.Role, nil
}

// Require fails Forbidden unless the actor holds one of roles.
func (g *Gate) Require(ctx context.Context, actorID uuid.UUID, roles ...domainUser.Role) (domainUser.Role, error) {
	role, err := g.RoleOf(ctx, actorID)
	if err != nil {
		return "", err
	}
	if !slices.Contains(roles, role) {
		return role, appErrors.Forbidden("role " + string(role) + " may not perform this action")
	}
	return role, nil
}

// IsDeliveryOwner reports whether actorID is the driver assigned to the
// delivery.
func (g *Gate) IsDeliveryOwner(ctx context.Context, actorID, deliveryID uuid.UUID) (bool, error) {
	d, err := g.deliveryRepo.GetByID(ctx, deliveryID)
	if errors.Is(err, domainDelivery.ErrDeliveryNotFound) {
		return false, appErrors.NotFound("delivery", deliveryID)
	}
	if err != nil {
		return false, appErrors.StorageFailure("delivery lookup", err)
	}
	return d.DriverID == actorID, nil
}

// RequireDeliveryActor passes admins and the delivery's own driver.
func (g *Gate) RequireDeliveryActor(ctx context.Context, actorID uuid.UUID, d *domainDelivery.Delivery) error {
	role, err := g.RoleOf(ctx, actorID)
	if err != nil {
		return err
	}
	if role == domainUser.RoleAdmin {
		return nil
	}
	if role == domainUser.RoleDriver && d.DriverID == actorID {
		return nil
	}
	return appErrors.Forbidden("only an admin or the assigned driver may change this delivery")
}
