package element

import (
	"context"
	"errors"
	"time"

	domainDelivery "precast-tracker/internal/domain/delivery"
	domainElement "precast-tracker/internal/domain/element"
	domainNotification "precast-tracker/internal/domain/notification"
	domainProject "precast-tracker/internal/domain/project"
	"precast-tracker/internal/logger"
	"precast-tracker/internal/usecase/authz"
	appErrors "precast-tracker/pkg/errors"
	"precast-tracker/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher receives one event per successful transition. Implementations
// must not block the caller.
type Dispatcher interface {
	Dispatch(event domainNotification.StatusChangedEvent)
}

// Service implements element use cases. It is the only writer of
// element status.
type Service struct {
	elementRepo  domainElement.Repository
	projectRepo  domainProject.Repository
	deliveryRepo domainDelivery.Repository
	gate         *authz.Gate
	dispatcher   Dispatcher
}

// NewService creates a new element service
func NewService(
	elementRepo domainElement.Repository,
	projectRepo domainProject.Repository,
	deliveryRepo domainDelivery.Repository,
	gate *authz.Gate,
	dispatcher Dispatcher,
) *Service {
	return &Service{
		elementRepo:  elementRepo,
		projectRepo:  projectRepo,
		deliveryRepo: deliveryRepo,
		gate:         gate,
		dispatcher:   dispatcher,
	}
}

func (s *Service) CreateElement(ctx context.Context, actorID uuid.UUID, req *CreateElementRequest) (*domainElement.Element, error) {
	if _, err := s.gate.Require(ctx, actorID, authz.FactoryRoles...); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}

	if _, err := s.projectRepo.GetByID(ctx, req.ProjectID); err != nil {
		if errors.Is(err, domainProject.ErrProjectNotFound) {
			return nil, appErrors.NotFound("project", req.ProjectID)
		}
		return nil, appErrors.StorageFailure("project lookup", err)
	}

	e := &domainElement.Element{
		ProjectID:   req.ProjectID,
		BuildingID:  req.BuildingID,
		Name:        utils.SanitizeString(req.Name),
		ElementType: domainElement.Type(req.ElementType),
		Status:      domainElement.StatusPlanned,
		Priority:    req.Priority,
		Floor:       req.Floor,
		LengthMM:    req.LengthMM,
		WidthMM:     req.WidthMM,
		HeightMM:    req.HeightMM,
		WeightKG:    req.WeightKG,
		Notes:       utils.SanitizeOptional(req.Notes),
		CreatedBy:   actorID,
	}

	if err := s.elementRepo.Create(ctx, e); err != nil {
		return nil, appErrors.StorageFailure("element create", err)
	}

	logger.Info("Element created",
		zap.String("element_id", e.ID.String()),
		zap.String("project_id", e.ProjectID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("event", "element_created"),
	)

	return e, nil
}

func (s *Service) UpdateElement(ctx context.Context, id, actorID uuid.UUID, req *UpdateElementRequest) (*domainElement.Element, error) {
	if _, err := s.gate.Require(ctx, actorID, authz.FactoryRoles...); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}

	e, err := s.getElement(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.touchesProduction() && !e.InProduction() {
		return nil, appErrors.InvalidState("placement and geometry are frozen once an element is cast").
			WithDetail("status", string(e.Status))
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = utils.SanitizeString(*req.Name)
	}
	if req.BuildingID != nil {
		fields["building_id"] = *req.BuildingID
	}
	if req.Priority != nil {
		fields["priority"] = *req.Priority
	}
	if req.Floor != nil {
		fields["floor"] = *req.Floor
	}
	if req.LengthMM != nil {
		fields["length_mm"] = *req.LengthMM
	}
	if req.WidthMM != nil {
		fields["width_mm"] = *req.WidthMM
	}
	if req.HeightMM != nil {
		fields["height_mm"] = *req.HeightMM
	}
	if req.WeightKG != nil {
		fields["weight_kg"] = *req.WeightKG
	}
	if req.Notes != nil {
		fields["notes"] = utils.SanitizeOptional(req.Notes)
	}
	if len(fields) == 0 {
		return nil, appErrors.New(appErrors.KindValidation, "no fields to update")
	}

	if err := s.elementRepo.Update(ctx, id, fields); err != nil {
		return nil, mapRepoError(err, id)
	}

	logger.Info("Element updated",
		zap.String("element_id", id.String()),
		zap.String("actor_id", actorID.String()),
		zap.Int("fields", len(fields)),
		zap.String("event", "element_updated"),
	)

	return s.getElement(ctx, id)
}

func (s *Service) GetElement(ctx context.Context, id uuid.UUID) (*domainElement.Element, error) {
	return s.getElement(ctx, id)
}

func (s *Service) ListElements(ctx context.Context, req *ElementFilterRequest) ([]*domainElement.Element, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}

	filter := &domainElement.Filter{
		ProjectID: req.ProjectID,
		BatchID:   req.BatchID,
	}
	if req.Status != nil {
		status := domainElement.Status(*req.Status)
		filter.Status = &status
	}

	elements, err := s.elementRepo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.StorageFailure("element list", err)
	}
	return elements, nil
}

// AllowedTransitions lists the statuses the element may move to next.
func (s *Service) AllowedTransitions(ctx context.Context, id uuid.UUID) ([]domainElement.Status, error) {
	e, err := s.getElement(ctx, id)
	if err != nil {
		return nil, err
	}
	return domainElement.Transitions.Next(e.Status), nil
}

// DeleteElement removes an element that has never entered production or a
// manifest.
func (s *Service) DeleteElement(ctx context.Context, id, actorID uuid.UUID) error {
	if _, err := s.gate.Require(ctx, actorID, authz.FactoryRoles...); err != nil {
		return err
	}

	e, err := s.getElement(ctx, id)
	if err != nil {
		return err
	}
	if e.Status != domainElement.StatusPlanned || e.BatchID != nil {
		return appErrors.InvalidState("only planned elements outside a batch can be deleted").
			WithDetail("status", string(e.Status))
	}

	onManifest, err := s.deliveryRepo.HasElement(ctx, id)
	if err != nil {
		return appErrors.StorageFailure("manifest lookup", err)
	}
	if onManifest {
		return appErrors.InvalidState("element is referenced by a delivery")
	}

	if err := s.elementRepo.Delete(ctx, id); err != nil {
		return mapRepoError(err, id)
	}

	logger.Info("Element deleted",
		zap.String("element_id", id.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("event", "element_deleted"),
	)

	return nil
}

// Transition moves an element along the production path on behalf of
// factory staff. Edges into or out of loaded and delivered are refused.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to domainElement.Status, actorID uuid.UUID, notes *string) (*domainElement.Element, error) {
	e, err := s.getElement(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.gate.Require(ctx, actorID, authz.FactoryRoles...); err != nil {
		return nil, err
	}
	if err := domainElement.Transitions.Validate(e.Status, to); err != nil {
		return nil, err
	}
	// Edges touching the truck must keep the manifest in step.
	if e.Status.Shipping() || to.Shipping() {
		return nil, appErrors.InvalidState("loading and delivery are recorded on a delivery").
			WithDetail("from", string(e.Status)).
			WithDetail("to", string(to))
	}
	return s.apply(ctx, e, to, actorID, notes)
}

// TransitionForDelivery moves an element as part of a delivery operation.
// Only admins and the delivery's driver may do this.
func (s *Service) TransitionForDelivery(ctx context.Context, d *domainDelivery.Delivery, id uuid.UUID, to domainElement.Status, actorID uuid.UUID) (*domainElement.Element, error) {
	e, err := s.getElement(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.RequireDeliveryActor(ctx, actorID, d); err != nil {
		return nil, err
	}
	return s.apply(ctx, e, to, actorID, nil)
}

func (s *Service) apply(ctx context.Context, e *domainElement.Element, to domainElement.Status, actorID uuid.UUID, notes *string) (*domainElement.Element, error) {
	from := e.Status
	if err := domainElement.Transitions.Validate(from, to); err != nil {
		return nil, err
	}

	change := domainElement.StatusChange{
		ID:      e.ID,
		From:    from,
		To:      to,
		At:      time.Now(),
		Notes:   utils.SanitizeOptional(notes),
		ActorID: actorID,
	}
	if from.IsReversal(to) {
		change.Clear = domainElement.MilestoneColumn(from)
	} else if e.Milestone(to) == nil {
		change.Stamp = domainElement.MilestoneColumn(to)
	}

	if err := s.elementRepo.UpdateStatus(ctx, change); err != nil {
		if errors.Is(err, domainElement.ErrStatusConflict) {
			return nil, appErrors.InvalidState("element status changed concurrently, reload and retry").
				WithDetail("expected", string(from))
		}
		return nil, mapRepoError(err, e.ID)
	}

	updated, err := s.getElement(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	logger.Info("Element status changed",
		zap.String("element_id", e.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor_id", actorID.String()),
		zap.String("event", "element_status_changed"),
	)

	s.notify(ctx, updated, from, actorID, change.At)
	return updated, nil
}

// notify is best effort: nothing here may fail the transition.
func (s *Service) notify(ctx context.Context, e *domainElement.Element, from domainElement.Status, actorID uuid.UUID, at time.Time) {
	if s.dispatcher == nil {
		return
	}

	p, err := s.projectRepo.GetByID(ctx, e.ProjectID)
	if err != nil {
		logger.Warn("Skipping status notification, project lookup failed",
			zap.String("element_id", e.ID.String()),
			zap.Error(err),
			zap.String("event", "notification_skipped"),
		)
		return
	}

	s.dispatcher.Dispatch(domainNotification.StatusChangedEvent{
		ElementID:   e.ID,
		ElementName: e.Name,
		ProjectID:   e.ProjectID,
		CompanyID:   p.CompanyID,
		OldStatus:   string(from),
		NewStatus:   string(e.Status),
		ActorID:     actorID,
		OccurredAt:  at,
	})
}

func (s *Service) getElement(ctx context.Context, id uuid.UUID) (*domainElement.Element, error) {
	e, err := s.elementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, id)
	}
	return e, nil
}

func mapRepoError(err error, id uuid.UUID) error {
	switch {
	case errors.Is(err, domainElement.ErrElementNotFound):
		return appErrors.NotFound("element", id)
	case errors.Is(err, domainElement.ErrElementInUse):
		return appErrors.InvalidState("element is in use")
	case errors.Is(err, domainElement.ErrStatusConflict):
		return appErrors.InvalidState("element status changed concurrently, reload and retry")
	}
	return appErrors.StorageFailure("element", err)
}
