package delivery

import (
	"context"
	"errors"
	"time"

	domainDelivery "precast-tracker/internal/domain/delivery"
	domainElement "precast-tracker/internal/domain/element"
	domainProject "precast-tracker/internal/domain/project"
	domainUser "precast-tracker/internal/domain/user"
	"precast-tracker/internal/logger"
	"precast-tracker/internal/usecase/authz"
	"precast-tracker/internal/usecase/scan"
	appErrors "precast-tracker/pkg/errors"
	"precast-tracker/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ElementLifecycle is the transition entry point for delivery-driven
// element moves.
type ElementLifecycle interface {
	TransitionForDelivery(ctx context.Context, d *domainDelivery.Delivery, id uuid.UUID, to domainElement.Status, actorID uuid.UUID) (*domainElement.Element, error)
}

// Resolver turns a scanned label into an eligible element.
type Resolver interface {
	Resolve(ctx context.Context, token string, actorID uuid.UUID) (*scan.Resolution, error)
}

// Service implements delivery use cases
type Service struct {
	deliveryRepo domainDelivery.Repository
	elementRepo  domainElement.Repository
	projectRepo  domainProject.Repository
	lifecycle    ElementLifecycle
	resolver     Resolver
	gate         *authz.Gate
}

// NewService creates a new delivery service
func NewService(
	deliveryRepo domainDelivery.Repository,
	elementRepo domainElement.Repository,
	projectRepo domainProject.Repository,
	lifecycle ElementLifecycle,
	resolver Resolver,
	gate *authz.Gate,
) *Service {
	return &Service{
		deliveryRepo: deliveryRepo,
		elementRepo:  elementRepo,
		projectRepo:  projectRepo,
		lifecycle:    lifecycle,
		resolver:     resolver,
		gate:         gate,
	}
}

func (s *Service) CreateDelivery(ctx context.Context, actorID uuid.UUID, req *CreateDeliveryRequest) (*domainDelivery.Delivery, error) {
	role, err := s.gate.Require(ctx, actorID, domainUser.RoleDriver, domainUser.RoleAdmin)
	if err != nil {
		return nil, err
	}
	req.TruckRegistration = utils.NormalizeRegistration(req.TruckRegistration)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}

	driverID := actorID
	switch {
	case role == domainUser.RoleDriver && req.DriverID != nil && *req.DriverID != actorID:
		return nil, appErrors.Forbidden("drivers can only plan their own deliveries")
	case role == domainUser.RoleAdmin:
		if req.DriverID == nil {
			return nil, appErrors.New(appErrors.KindValidation, "driver_id is required")
		}
		driverRole, err := s.gate.RoleOf(ctx, *req.DriverID)
		if err != nil || driverRole != domainUser.RoleDriver {
			return nil, appErrors.New(appErrors.KindValidation, "driver_id must reference an active driver").
				WithDetail("driver_id", *req.DriverID)
		}
		driverID = *req.DriverID
	}

	if _, err := s.projectRepo.GetByID(ctx, req.ProjectID); err != nil {
		if errors.Is(err, domainProject.ErrProjectNotFound) {
			return nil, appErrors.NotFound("project", req.ProjectID)
		}
		return nil, appErrors.StorageFailure("project lookup", err)
	}

	d := &domainDelivery.Delivery{
		ProjectID:         req.ProjectID,
		DriverID:          driverID,
		TruckRegistration: req.TruckRegistration,
		Status:            domainDelivery.StatusPlanned,
		PlannedDate:       req.PlannedDate,
	}
	if err := s.deliveryRepo.Create(ctx, d); err != nil {
		return nil, appErrors.StorageFailure("delivery create", err)
	}

	logger.Info("Delivery created",
		zap.String("delivery_id", d.ID.String()),
		zap.String("project_id", d.ProjectID.String()),
		zap.String("driver_id", d.DriverID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("event", "delivery_created"),
	)

	return d, nil
}

// LoadElement puts a ready element on the truck. The manifest insert and
// the element move are two writes; a failed move deletes the manifest line
// again.
func (s *Service) LoadElement(ctx context.Context, deliveryID, actorID uuid.UUID, req *LoadElementRequest) (*domainDelivery.Item, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}

	d, err := s.authorized(ctx, deliveryID, actorID)
	if err != nil {
		return nil, err
	}
	if !d.Status.Loadable() {
		return nil, appErrors.InvalidState("the truck has already left").
			WithDetail("status", string(d.Status))
	}

	elementID, err := s.elementFor(ctx, req, actorID)
	if err != nil {
		return nil, err
	}

	e, err := s.elementRepo.GetByID(ctx, elementID)
	if errors.Is(err, domainElement.ErrElementNotFound) {
		return nil, appErrors.NotFound("element", elementID)
	}
	if err != nil {
		return nil, appErrors.StorageFailure("element lookup", err)
	}

	if e.Status != domainElement.StatusReady {
		dup, err := s.onManifest(ctx, deliveryID, elementID)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, duplicate(deliveryID, elementID)
		}
		return nil, appErrors.InvalidState("only ready elements can be loaded").
			WithDetail("element_id", elementID).
			WithDetail("status", string(e.Status))
	}
	if e.ProjectID != d.ProjectID {
		return nil, appErrors.New(appErrors.KindProjectMismatch, "element belongs to another project").
			WithDetail("element_project_id", e.ProjectID).
			WithDetail("delivery_project_id", d.ProjectID)
	}
	dup, err := s.onManifest(ctx, deliveryID, elementID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, duplicate(deliveryID, elementID)
	}

	item := &domainDelivery.Item{
		DeliveryID:   deliveryID,
		ElementID:    elementID,
		LoadPosition: utils.SanitizeOptional(req.LoadPosition),
		LoadedAt:     time.Now(),
		LoadedBy:     actorID,
	}
	if err := s.deliveryRepo.InsertItem(ctx, item); err != nil {
		if errors.Is(err, domainDelivery.ErrDuplicateItem) {
			return nil, duplicate(deliveryID, elementID)
		}
		return nil, appErrors.StorageFailure("manifest insert", err)
	}

	if _, err := s.lifecycle.TransitionForDelivery(ctx, d, elementID, domainElement.StatusLoaded, actorID); err != nil {
		s.compensate("load", deliveryID, elementID, func() error {
			return s.deliveryRepo.DeleteItem(ctx, deliveryID, elementID)
		})
		return nil, err
	}

	if d.Status == domainDelivery.StatusPlanned {
		if err := s.startLoading(ctx, d); err != nil {
			s.compensate("load", deliveryID, elementID, func() error {
				if _, err := s.lifecycle.TransitionForDelivery(ctx, d, elementID, domainElement.StatusReady, actorID); err != nil {
					return err
				}
				return s.deliveryRepo.DeleteItem(ctx, deliveryID, elementID)
			})
			return nil, err
		}
	}

	logger.Info("Element loaded",
		zap.String("delivery_id", deliveryID.String()),
		zap.String("element_id", elementID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("event", "element_loaded"),
	)

	return item, nil
}

// startLoading moves a planned delivery to loading. Losing the race to a
// parallel load is fine; losing it to a cancel is not.
func (s *Service) startLoading(ctx context.Context, d *domainDelivery.Delivery) error {
	err := s.deliveryRepo.UpdateStatus(ctx, d.ID, domainDelivery.StatusPlanned, domainDelivery.StatusLoading, map[string]interface{}{
		"loading_started_at": time.Now(),
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, domainDelivery.ErrDeliveryStatusConflict) {
		return mapRepoError(err, d.ID)
	}

	current, err := s.deliveryRepo.GetByID(ctx, d.ID)
	if err != nil {
		return mapRepoError(err, d.ID)
	}
	if current.Status == domainDelivery.StatusLoading {
		return nil
	}
	return appErrors.InvalidState("delivery changed while loading, reload and retry").
		WithDetail("status", string(current.Status))
}

func (s *Service) elementFor(ctx context.Context, req *LoadElementRequest, actorID uuid.UUID) (uuid.UUID, error) {
	if req.ScanToken != nil {
		res, err := s.resolver.Resolve(ctx, *req.ScanToken, actorID)
		if err != nil {
			return uuid.Nil, err
		}
		return res.Element.ID, nil
	}
	if req.ElementID == nil || *req.ElementID == uuid.Nil {
		return uuid.Nil, appErrors.New(appErrors.KindValidation, "element_id or scan_token is required")
	}
	return *req.ElementID, nil
}

func (s *Service) onManifest(ctx context.Context, deliveryID, elementID uuid.UUID) (bool, error) {
	_, err := s.deliveryRepo.GetItem(ctx, deliveryID, elementID)
	if errors.Is(err, domainDelivery.ErrItemNotFound) {
		return false, nil
	}
	if err != nil {
		return false, appErrors.StorageFailure("manifest lookup", err)
	}
	return true, nil
}

// UnloadElement takes an element off a truck that has not left and returns
// it to ready.
func (s *Service) UnloadElement(ctx context.Context, deliveryID, elementID, actorID uuid.UUID) error {
	d, err := s.authorized(ctx, deliveryID, actorID)
	if err != nil {
		return err
	}
	if !d.Status.Loadable() {
		return appErrors.InvalidState("the truck has already left").
			WithDetail("status", string(d.Status))
	}

	item, err := s.deliveryRepo.GetItem(ctx, deliveryID, elementID)
	if err != nil {
		return mapRepoError(err, deliveryID)
	}

	if err := s.deliveryRepo.DeleteItem(ctx, deliveryID, elementID); err != nil {
		return mapRepoError(err, deliveryID)
	}

	// A depart may have landed between the status check and the delete.
	current, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err == nil && !current.Status.Loadable() {
		s.compensate("unload", deliveryID, elementID, func() error {
			return s.deliveryRepo.InsertItem(ctx, item)
		})
		return appErrors.InvalidState("the truck has already left").
			WithDetail("status", string(current.Status))
	}
	if err != nil {
		s.compensate("unload", deliveryID, elementID, func() error {
			return s.deliveryRepo.InsertItem(ctx, item)
		})
		return mapRepoError(err, deliveryID)
	}

	if _, err := s.lifecycle.TransitionForDelivery(ctx, d, elementID, domainElement.StatusReady, actorID); err != nil {
		s.compensate("unload", deliveryID, elementID, func() error {
			return s.deliveryRepo.InsertItem(ctx, item)
		})
		return err
	}

	if d.Status == domainDelivery.StatusLoading {
		s.backToPlannedIfEmpty(ctx, deliveryID)
	}

	logger.Info("Element unloaded",
		zap.String("delivery_id", deliveryID.String()),
		zap.String("element_id", elementID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("event", "element_unloaded"),
	)

	return nil
}

func (s *Service) backToPlannedIfEmpty(ctx context.Context, deliveryID uuid.UUID) {
	count, err := s.deliveryRepo.CountItems(ctx, deliveryID)
	if err != nil || count > 0 {
		return
	}
	err = s.deliveryRepo.UpdateStatus(ctx, deliveryID, domainDelivery.StatusLoading, domainDelivery.StatusPlanned, map[string]interface{}{
		"loading_started_at": nil,
	})
	if err != nil {
		logger.Debug("Emptied delivery left in loading",
			zap.String("delivery_id", deliveryID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) Depart(ctx context.Context, deliveryID, actorID uuid.UUID) (*domainDelivery.Delivery, error) {
	d, err := s.authorized(ctx, deliveryID, actorID)
	if err != nil {
		return nil, err
	}

	count, err := s.deliveryRepo.CountItems(ctx, deliveryID)
	if err != nil {
		return nil, appErrors.StorageFailure("manifest count", err)
	}
	if count == 0 {
		return nil, appErrors.New(appErrors.KindEmptyManifest, "nothing is loaded")
	}
	if d.Status != domainDelivery.StatusLoading {
		return nil, invalidStatus(d.Status, domainDelivery.StatusLoading)
	}

	departed, err := s.move(ctx, d, domainDelivery.StatusInTransit, actorID, map[string]interface{}{
		"departed_at": time.Now(),
	})
	if err != nil {
		return nil, err
	}

	// An unload racing the status write can empty the truck; count again
	// now that no further unloads are accepted.
	if len(departed.Items) > 0 {
		return departed, nil
	}
	err = s.deliveryRepo.UpdateStatus(ctx, deliveryID, domainDelivery.StatusInTransit, domainDelivery.StatusLoading, map[string]interface{}{
		"departed_at": nil,
	})
	if err != nil {
		logger.Error("Empty delivery left in transit",
			zap.String("delivery_id", deliveryID.String()),
			zap.Error(err),
			zap.Bool("critical", true),
			zap.String("event", "compensation_failed"),
		)
		return nil, appErrors.StorageFailure("depart rollback", err)
	}
	logger.Warn("Departure rolled back, manifest emptied concurrently",
		zap.String("delivery_id", deliveryID.String()),
		zap.String("event", "compensation_applied"),
	)
	return nil, appErrors.New(appErrors.KindEmptyManifest, "nothing is loaded")
}

func (s *Service) Arrive(ctx context.Context, deliveryID, actorID uuid.UUID) (*domainDelivery.Delivery, error) {
	d, err := s.authorized(ctx, deliveryID, actorID)
	if err != nil {
		return nil, err
	}
	if d.Status != domainDelivery.StatusInTransit {
		return nil, invalidStatus(d.Status, domainDelivery.StatusInTransit)
	}

	return s.move(ctx, d, domainDelivery.StatusArrived, actorID, map[string]interface{}{
		"arrived_at": time.Now(),
	})
}

// Revert steps a delivery back one leg: a truck that turned around goes
// from in_transit to loading, one that left site unloaded goes from
// arrived to in_transit.
func (s *Service) Revert(ctx context.Context, deliveryID, actorID uuid.UUID) (*domainDelivery.Delivery, error) {
	d, err := s.authorized(ctx, deliveryID, actorID)
	if err != nil {
		return nil, err
	}

	switch d.Status {
	case domainDelivery.StatusInTransit:
		return s.move(ctx, d, domainDelivery.StatusLoading, actorID, map[string]interface{}{
			"departed_at": nil,
		})
	case domainDelivery.StatusArrived:
		if confirmed := len(d.Items) - domainDelivery.PendingCount(d.Items); confirmed > 0 {
			return nil, appErrors.InvalidState("items have already been confirmed on site").
				WithDetail("confirmed", confirmed)
		}
		return s.move(ctx, d, domainDelivery.StatusInTransit, actorID, map[string]interface{}{
			"arrived_at": nil,
		})
	}
	return nil, appErrors.InvalidState("delivery cannot be reverted from its current status").
		WithDetail("status", string(d.Status))
}

// ConfirmItemDelivered records one element as received on site. The
// delivery itself stays arrived until Complete.
func (s *Service) ConfirmItemDelivered(ctx context.Context, deliveryID, elementID, actorID uuid.UUID, req *ConfirmItemRequest) (*domainDelivery.Item, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}

	d, err := s.authorized(ctx, deliveryID, actorID)
	if err != nil {
		return nil, err
	}
	if d.Status != domainDelivery.StatusArrived {
		return nil, invalidStatus(d.Status, domainDelivery.StatusArrived)
	}

	item, err := s.deliveryRepo.GetItem(ctx, deliveryID, elementID)
	if err != nil {
		return nil, mapRepoError(err, deliveryID)
	}
	if item.DeliveredAt != nil {
		return nil, appErrors.InvalidState("item is already confirmed").
			WithDetail("delivered_at", *item.DeliveredAt)
	}

	now := time.Now()
	notes := utils.SanitizeOptional(req.Notes)
	if err := s.deliveryRepo.SetItemDelivered(ctx, deliveryID, elementID, &now, req.PhotoURL, notes); err != nil {
		return nil, mapRepoError(err, deliveryID)
	}

	if _, err := s.lifecycle.TransitionForDelivery(ctx, d, elementID, domainElement.StatusDelivered, actorID); err != nil {
		s.compensate("confirm", deliveryID, elementID, func() error {
			return s.deliveryRepo.SetItemDelivered(ctx, deliveryID, elementID, nil, nil, nil)
		})
		return nil, err
	}

	logger.Info("Element delivered",
		zap.String("delivery_id", deliveryID.String()),
		zap.String("element_id", elementID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("event", "element_delivered"),
	)

	item.DeliveredAt = &now
	if req.PhotoURL != nil {
		item.ReceivedPhotoURL = req.PhotoURL
	}
	if notes != nil {
		item.Notes = notes
	}
	return item, nil
}

// Complete signs the delivery off. Every item must be confirmed first.
func (s *Service) Complete(ctx context.Context, deliveryID, actorID uuid.UUID, req *CompleteDeliveryRequest) (*domainDelivery.Delivery, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}

	d, err := s.authorized(ctx, deliveryID, actorID)
	if err != nil {
		return nil, err
	}
	if d.Status != domainDelivery.StatusArrived {
		return nil, invalidStatus(d.Status, domainDelivery.StatusArrived)
	}

	if pending := domainDelivery.PendingCount(d.Items); pending > 0 {
		return nil, appErrors.New(appErrors.KindItemsPending, "some items are not confirmed").
			WithDetail("pending", pending).
			WithDetail("total", len(d.Items))
	}

	return s.move(ctx, d, domainDelivery.StatusCompleted, actorID, map[string]interface{}{
		"completed_at":     time.Now(),
		"received_by_name": utils.SanitizeString(req.ReceivedByName),
		"signature_url":    req.SignatureURL,
		"photo_url":        req.PhotoURL,
		"notes":            utils.SanitizeOptional(req.Notes),
	})
}

// CancelDelivery calls off a delivery whose truck is still empty.
func (s *Service) CancelDelivery(ctx context.Context, deliveryID, actorID uuid.UUID) (*domainDelivery.Delivery, error) {
	d, err := s.authorized(ctx, deliveryID, actorID)
	if err != nil {
		return nil, err
	}
	if !d.Status.Loadable() {
		return nil, appErrors.InvalidState("only deliveries that have not left can be cancelled").
			WithDetail("status", string(d.Status))
	}
	if len(d.Items) > 0 {
		return nil, appErrors.InvalidState("unload every element before cancelling").
			WithDetail("items", len(d.Items))
	}

	return s.move(ctx, d, domainDelivery.StatusCancelled, actorID, nil)
}

func (s *Service) ReopenDelivery(ctx context.Context, deliveryID, actorID uuid.UUID) (*domainDelivery.Delivery, error) {
	d, err := s.authorized(ctx, deliveryID, actorID)
	if err != nil {
		return nil, err
	}
	if d.Status != domainDelivery.StatusCancelled {
		return nil, invalidStatus(d.Status, domainDelivery.StatusCancelled)
	}

	return s.move(ctx, d, domainDelivery.StatusPlanned, actorID, map[string]interface{}{
		"loading_started_at": nil,
	})
}

func (s *Service) GetDelivery(ctx context.Context, deliveryID uuid.UUID) (*domainDelivery.Delivery, error) {
	d, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, mapRepoError(err, deliveryID)
	}
	return d, nil
}

// ListDeliveries lists deliveries; drivers only ever see their own.
func (s *Service) ListDeliveries(ctx context.Context, actorID uuid.UUID, req *DeliveryFilterRequest) ([]*domainDelivery.Delivery, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}
	role, err := s.gate.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}

	filter := &domainDelivery.Filter{
		DriverID:  req.DriverID,
		ProjectID: req.ProjectID,
	}
	if role == domainUser.RoleDriver {
		filter.DriverID = &actorID
	}
	if req.Status != nil {
		status := domainDelivery.Status(*req.Status)
		filter.Status = &status
	}

	deliveries, err := s.deliveryRepo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.StorageFailure("delivery list", err)
	}
	return deliveries, nil
}

// authorized loads the delivery fresh and checks the actor may change it.
func (s *Service) authorized(ctx context.Context, deliveryID, actorID uuid.UUID) (*domainDelivery.Delivery, error) {
	d, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, mapRepoError(err, deliveryID)
	}
	if err := s.gate.RequireDeliveryActor(ctx, actorID, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) move(ctx context.Context, d *domainDelivery.Delivery, to domainDelivery.Status, actorID uuid.UUID, fields map[string]interface{}) (*domainDelivery.Delivery, error) {
	if err := domainDelivery.Transitions.Validate(d.Status, to); err != nil {
		return nil, err
	}
	if err := s.deliveryRepo.UpdateStatus(ctx, d.ID, d.Status, to, fields); err != nil {
		return nil, mapRepoError(err, d.ID)
	}

	logger.Info("Delivery status changed",
		zap.String("delivery_id", d.ID.String()),
		zap.String("from", string(d.Status)),
		zap.String("to", string(to)),
		zap.String("actor_id", actorID.String()),
		zap.String("event", "delivery_status_changed"),
	)

	return s.GetDelivery(ctx, d.ID)
}

// compensate runs an undo step. If the undo itself fails the manifest and
// the element disagree; that is reported, never retried.
func (s *Service) compensate(op string, deliveryID, elementID uuid.UUID, undo func() error) {
	if err := undo(); err != nil {
		logger.Error("Compensating rollback failed, manifest and element may disagree",
			zap.String("operation", op),
			zap.String("delivery_id", deliveryID.String()),
			zap.String("element_id", elementID.String()),
			zap.Error(err),
			zap.Bool("critical", true),
			zap.String("event", "compensation_failed"),
		)
		return
	}
	logger.Warn("Rolled back partial delivery operation",
		zap.String("operation", op),
		zap.String("delivery_id", deliveryID.String()),
		zap.String("element_id", elementID.String()),
		zap.String("event", "compensation_applied"),
	)
}

func duplicate(deliveryID, elementID uuid.UUID) error {
	return appErrors.New(appErrors.KindDuplicateItem, "element is already on this delivery").
		WithDetail("delivery_id", deliveryID).
		WithDetail("element_id", elementID)
}

func invalidStatus(current, want domainDelivery.Status) error {
	return appErrors.InvalidState("delivery is " + string(current)).
		WithDetail("status", string(current)).
		WithDetail("required", string(want))
}

func mapRepoError(err error, deliveryID uuid.UUID) error {
	switch {
	case errors.Is(err, domainDelivery.ErrDeliveryNotFound):
		return appErrors.NotFound("delivery", deliveryID)
	case errors.Is(err, domainDelivery.ErrItemNotFound):
		return appErrors.New(appErrors.KindNotFound, "element is not on this delivery").
			WithDetail("entity", "delivery_item")
	case errors.Is(err, domainDelivery.ErrDeliveryStatusConflict):
		return appErrors.InvalidState("delivery status changed concurrently, reload and retry")
	case errors.Is(err, domainDelivery.ErrDuplicateItem):
		return appErrors.New(appErrors.KindDuplicateItem, "element is already on this delivery")
	}
	return appErrors.StorageFailure("delivery", err)
}
