package batch

import (
	"context"
	"errors"
	"time"

	domainBatch "precast-tracker/internal/domain/batch"
	domainElement "precast-tracker/internal/domain/element"
	domainProject "precast-tracker/internal/domain/project"
	"precast-tracker/internal/logger"
	"precast-tracker/internal/usecase/authz"
	appErrors "precast-tracker/pkg/errors"
	"precast-tracker/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ElementLifecycle is the transition entry point member elements are cast
// through.
type ElementLifecycle interface {
	Transition(ctx context.Context, id uuid.UUID, to domainElement.Status, actorID uuid.UUID, notes *string) (*domainElement.Element, error)
}

// selectable are the statuses an element may be in to join a batch.
var selectable = []domainElement.Status{domainElement.StatusPlanned, domainElement.StatusRebar}

// castPath lists the steps from each selectable status up to cast.
var castPath = map[domainElement.Status][]domainElement.Status{
	domainElement.StatusPlanned: {domainElement.StatusRebar, domainElement.StatusCast},
	domainElement.StatusRebar:   {domainElement.StatusCast},
	domainElement.StatusCast:    {},
}

// Service implements production batch use cases
type Service struct {
	batchRepo   domainBatch.Repository
	elementRepo domainElement.Repository
	projectRepo domainProject.Repository
	lifecycle   ElementLifecycle
	gate        *authz.Gate
}

// NewService creates a new batch service
func NewService(
	batchRepo domainBatch.Repository,
	elementRepo domainElement.Repository,
	projectRepo domainProject.Repository,
	lifecycle ElementLifecycle,
	gate *authz.Gate,
) *Service {
	return &Service{
		batchRepo:   batchRepo,
		elementRepo: elementRepo,
		projectRepo: projectRepo,
		lifecycle:   lifecycle,
		gate:        gate,
	}
}

// CreateBatch groups planned or rebar elements of one project into a new
// preparing batch. Element status is not touched.
func (s *Service) CreateBatch(ctx context.Context, actorID uuid.UUID, req *CreateBatchRequest) (*domainBatch.Batch, error) {
	if _, err := s.gate.Require(ctx, actorID, authz.FactoryRoles...); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}

	ids := dedupe(req.ElementIDs)
	if len(ids) == 0 {
		return nil, appErrors.New(appErrors.KindInvalidSelection, "a batch needs at least one element")
	}

	if _, err := s.projectRepo.GetByID(ctx, req.ProjectID); err != nil {
		if errors.Is(err, domainProject.ErrProjectNotFound) {
			return nil, appErrors.NotFound("project", req.ProjectID)
		}
		return nil, appErrors.StorageFailure("project lookup", err)
	}

	if err := s.checkSelection(ctx, req.ProjectID, ids); err != nil {
		return nil, err
	}

	batchDate := time.Now()
	if req.BatchDate != nil {
		batchDate = *req.BatchDate
	}

	b := &domainBatch.Batch{
		ProjectID: req.ProjectID,
		BatchDate: batchDate,
		Concrete: domainBatch.ConcreteInfo{
			Supplier:       utils.SanitizeOptional(req.ConcreteSupplier),
			Grade:          utils.SanitizeOptional(req.ConcreteGrade),
			AirTemperature: req.AirTemperature,
		},
		Checklist: domainBatch.DefaultChecklist(),
		Status:    domainBatch.StatusPreparing,
		Notes:     utils.SanitizeOptional(req.Notes),
		CreatedBy: actorID,
	}
	if err := s.insertWithNumber(ctx, b); err != nil {
		return nil, err
	}

	assigned, err := s.elementRepo.AssignBatch(ctx, b.ID, ids, selectable)
	if err != nil || assigned != int64(len(ids)) {
		s.releaseBatch(ctx, b.ID)
		if err != nil {
			return nil, appErrors.StorageFailure("batch assignment", err)
		}
		return nil, appErrors.New(appErrors.KindInvalidSelection, "elements changed while the batch was created, reload and retry")
	}

	logger.Info("Batch created",
		zap.String("batch_id", b.ID.String()),
		zap.String("batch_number", b.BatchNumber),
		zap.String("project_id", b.ProjectID.String()),
		zap.Int("elements", len(ids)),
		zap.String("actor_id", actorID.String()),
		zap.String("event", "batch_created"),
	)

	return b, nil
}

// checkSelection re-reads every element and reports the ones that cannot
// join a batch of projectID.
func (s *Service) checkSelection(ctx context.Context, projectID uuid.UUID, ids []uuid.UUID) error {
	elements, err := s.elementRepo.GetByIDs(ctx, ids)
	if err != nil {
		return appErrors.StorageFailure("element lookup", err)
	}

	found := make(map[uuid.UUID]*domainElement.Element, len(elements))
	for _, e := range elements {
		found[e.ID] = e
	}

	var rejected []uuid.UUID
	for _, id := range ids {
		e, ok := found[id]
		switch {
		case !ok:
			rejected = append(rejected, id)
		case e.ProjectID != projectID:
			rejected = append(rejected, id)
		case e.Status != domainElement.StatusPlanned && e.Status != domainElement.StatusRebar:
			rejected = append(rejected, id)
		case e.BatchID != nil:
			rejected = append(rejected, id)
		}
	}

	if len(rejected) > 0 {
		return appErrors.New(appErrors.KindInvalidSelection, "some elements cannot be added to this batch").
			WithDetail("element_ids", rejected)
	}
	return nil
}

func (s *Service) insertWithNumber(ctx context.Context, b *domainBatch.Batch) error {
	for attempt := 1; attempt <= batchNumberAttempts; attempt++ {
		number, err := newBatchNumber(b.BatchDate)
		if err != nil {
			return appErrors.StorageFailure("batch number", err)
		}
		b.BatchNumber = number

		err = s.batchRepo.Create(ctx, b)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domainBatch.ErrBatchNumberTaken) {
			return appErrors.StorageFailure("batch create", err)
		}

		logger.Debug("Batch number collision, retrying",
			zap.String("batch_number", number),
			zap.Int("attempt", attempt),
		)
		b.ID = uuid.Nil
	}
	return appErrors.StorageFailure("batch create", domainBatch.ErrBatchNumberTaken)
}

// releaseBatch undoes a half-created batch.
func (s *Service) releaseBatch(ctx context.Context, batchID uuid.UUID) {
	if err := s.elementRepo.ClearBatch(ctx, batchID); err != nil {
		logger.Error("Failed to release batch members",
			zap.String("batch_id", batchID.String()),
			zap.Error(err),
			zap.Bool("critical", true),
			zap.String("event", "compensation_failed"),
		)
		return
	}
	if err := s.batchRepo.Delete(ctx, batchID); err != nil {
		logger.Error("Failed to delete half-created batch",
			zap.String("batch_id", batchID.String()),
			zap.Error(err),
			zap.Bool("critical", true),
			zap.String("event", "compensation_failed"),
		)
	}
}

// SetChecklistItem checks or unchecks one gate of a preparing batch.
func (s *Service) SetChecklistItem(ctx context.Context, batchID uuid.UUID, key string, checked bool, actorID uuid.UUID) (*domainBatch.Batch, error) {
	if _, err := s.gate.Require(ctx, actorID, authz.FactoryRoles...); err != nil {
		return nil, err
	}

	b, err := s.getBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b.Status != domainBatch.StatusPreparing {
		return nil, appErrors.InvalidState("checklist is frozen once a batch leaves preparing").
			WithDetail("status", string(b.Status))
	}

	idx := b.Item(key)
	if idx < 0 {
		return nil, appErrors.New(appErrors.KindValidation, "unknown checklist item").
			WithDetail("key", key)
	}

	item := &b.Checklist[idx]
	item.Checked = checked
	if checked {
		now := time.Now()
		item.CheckedBy = &actorID
		item.CheckedAt = &now
	} else {
		item.CheckedBy = nil
		item.CheckedAt = nil
	}

	if err := s.batchRepo.UpdateChecklist(ctx, batchID, b.Checklist); err != nil {
		return nil, mapRepoError(err, batchID)
	}

	logger.Info("Batch checklist updated",
		zap.String("batch_id", batchID.String()),
		zap.String("key", key),
		zap.Bool("checked", checked),
		zap.String("actor_id", actorID.String()),
		zap.String("event", "batch_checklist_updated"),
	)

	return s.getBatch(ctx, batchID)
}

// CompleteBatch casts every member element and closes the batch. If a
// member fails the batch stays preparing; members already cast are skipped
// on the next attempt.
func (s *Service) CompleteBatch(ctx context.Context, batchID, actorID uuid.UUID) (*domainBatch.Batch, error) {
	if _, err := s.gate.Require(ctx, actorID, authz.FactoryRoles...); err != nil {
		return nil, err
	}

	b, err := s.getBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b.Status != domainBatch.StatusPreparing {
		return nil, appErrors.InvalidState("batch is not preparing").
			WithDetail("status", string(b.Status))
	}
	if !b.ChecklistComplete() {
		return nil, appErrors.New(appErrors.KindChecklistIncomplete, "checklist is incomplete").
			WithDetail("unchecked", b.UncheckedKeys())
	}

	members, err := s.elementRepo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.StorageFailure("batch members", err)
	}

	var cast []uuid.UUID
	for _, e := range members {
		if err := s.castMember(ctx, e, actorID); err != nil {
			logger.Error("Batch partially cast",
				zap.String("batch_id", batchID.String()),
				zap.String("failed_element_id", e.ID.String()),
				zap.Int("cast", len(cast)),
				zap.Int("members", len(members)),
				zap.Error(err),
				zap.String("event", "batch_partially_cast"),
			)
			return nil, partialCast(err, cast, e.ID)
		}
		cast = append(cast, e.ID)
	}

	now := time.Now()
	err = s.batchRepo.UpdateStatus(ctx, batchID, domainBatch.StatusPreparing, domainBatch.StatusCompleted, map[string]interface{}{
		"completed_by": actorID,
		"completed_at": now,
	})
	if err != nil {
		return nil, mapRepoError(err, batchID)
	}

	logger.Info("Batch completed",
		zap.String("batch_id", batchID.String()),
		zap.Int("elements", len(members)),
		zap.String("actor_id", actorID.String()),
		zap.String("event", "batch_completed"),
	)

	return s.getBatch(ctx, batchID)
}

func (s *Service) castMember(ctx context.Context, e *domainElement.Element, actorID uuid.UUID) error {
	steps, ok := castPath[e.Status]
	if !ok {
		return appErrors.InvalidState("element is past cast and cannot be cast again").
			WithDetail("element_id", e.ID).
			WithDetail("status", string(e.Status))
	}
	for _, to := range steps {
		if _, err := s.lifecycle.Transition(ctx, e.ID, to, actorID, nil); err != nil {
			return err
		}
	}
	return nil
}

func partialCast(err error, cast []uuid.UUID, failed uuid.UUID) error {
	var appErr *appErrors.AppError
	if !errors.As(err, &appErr) {
		appErr = appErrors.StorageFailure("batch cast", err)
	}
	if cast == nil {
		cast = []uuid.UUID{}
	}
	return appErr.WithDetail("cast", cast).WithDetail("failed", failed)
}

// CancelBatch abandons a preparing batch and frees its members. Batches
// with a member past rebar cannot be cancelled.
func (s *Service) CancelBatch(ctx context.Context, batchID, actorID uuid.UUID) (*domainBatch.Batch, error) {
	if _, err := s.gate.Require(ctx, actorID, authz.FactoryRoles...); err != nil {
		return nil, err
	}

	b, err := s.getBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b.Status != domainBatch.StatusPreparing {
		return nil, appErrors.InvalidState("only preparing batches can be cancelled").
			WithDetail("status", string(b.Status))
	}

	members, err := s.elementRepo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.StorageFailure("batch members", err)
	}
	var cast []uuid.UUID
	for _, m := range members {
		if !m.InProduction() {
			cast = append(cast, m.ID)
		}
	}
	// A partially cast batch keeps its provenance; finish it instead.
	if len(cast) > 0 {
		return nil, appErrors.InvalidState("batch has members that are already cast").
			WithDetail("cast", cast)
	}

	err = s.batchRepo.UpdateStatus(ctx, batchID, domainBatch.StatusPreparing, domainBatch.StatusCancelled, nil)
	if err != nil {
		return nil, mapRepoError(err, batchID)
	}

	if err := s.elementRepo.ClearBatch(ctx, batchID); err != nil {
		logger.Error("Cancelled batch still holds its members",
			zap.String("batch_id", batchID.String()),
			zap.Error(err),
			zap.Bool("critical", true),
			zap.String("event", "compensation_failed"),
		)
		return nil, appErrors.StorageFailure("batch release", err)
	}

	logger.Info("Batch cancelled",
		zap.String("batch_id", batchID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("event", "batch_cancelled"),
	)

	return s.getBatch(ctx, batchID)
}

func (s *Service) GetBatch(ctx context.Context, batchID uuid.UUID) (*Detail, error) {
	b, err := s.getBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	members, err := s.elementRepo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.StorageFailure("batch members", err)
	}
	return &Detail{Batch: b, Elements: members}, nil
}

func (s *Service) ListBatches(ctx context.Context, projectID uuid.UUID) ([]*domainBatch.Batch, error) {
	batches, err := s.batchRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.StorageFailure("batch list", err)
	}
	return batches, nil
}

func (s *Service) getBatch(ctx context.Context, id uuid.UUID) (*domainBatch.Batch, error) {
	b, err := s.batchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, id)
	}
	return b, nil
}

func mapRepoError(err error, id uuid.UUID) error {
	switch {
	case errors.Is(err, domainBatch.ErrBatchNotFound):
		return appErrors.NotFound("batch", id)
	case errors.Is(err, domainBatch.ErrBatchStatusConflict):
		return appErrors.InvalidState("batch status changed concurrently, reload and retry")
	}
	return appErrors.StorageFailure("batch", err)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
