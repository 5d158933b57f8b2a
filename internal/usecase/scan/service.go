package scan

import (
	"context"
	"errors"
	"fmt"

	domainElement "precast-tracker/internal/domain/element"
	domainProject "precast-tracker/internal/domain/project"
	domainUser "precast-tracker/internal/domain/user"
	"precast-tracker/internal/logger"
	"precast-tracker/internal/usecase/authz"
	appErrors "precast-tracker/pkg/errors"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const DefaultLabelSize = 512

// Resolution is a scanned element with the project it belongs to.
type Resolution struct {
	Element *domainElement.Element
	Project *domainProject.Project
}

// Service resolves scanned labels to elements and renders the labels.
type Service struct {
	elementRepo domainElement.Repository
	projectRepo domainProject.Repository
	gate        *authz.Gate
	baseURL     string
}

func NewService(
	elementRepo domainElement.Repository,
	projectRepo domainProject.Repository,
	gate *authz.Gate,
	baseURL string,
) *Service {
	return &Service{
		elementRepo: elementRepo,
		projectRepo: projectRepo,
		gate:        gate,
		baseURL:     baseURL,
	}
}

// Resolve identifies the element behind a scan and checks that it can take
// part in a delivery. It never writes.
func (s *Service) Resolve(ctx context.Context, token string, actorID uuid.UUID) (*Resolution, error) {
	id, err := ParseToken(token)
	if err != nil {
		return nil, err
	}

	if _, err := s.gate.Require(ctx, actorID, domainUser.RoleDriver, domainUser.RoleAdmin); err != nil {
		return nil, err
	}

	e, err := s.elementRepo.GetByID(ctx, id)
	if errors.Is(err, domainElement.ErrElementNotFound) {
		return nil, appErrors.NotFound("element", id)
	}
	if err != nil {
		return nil, appErrors.StorageFailure("element lookup", err)
	}

	switch e.Status {
	case domainElement.StatusDelivered:
		appErr := appErrors.New(appErrors.KindAlreadyDelivered, "element has already been delivered").
			WithDetail("element_id", e.ID)
		if e.DeliveredAt != nil {
			appErr = appErr.WithDetail("delivered_at", *e.DeliveredAt)
		}
		return nil, appErr
	case domainElement.StatusReady, domainElement.StatusLoaded:
	default:
		return nil, appErrors.New(appErrors.KindNotEligible, "element is still in production").
			WithDetail("element_id", e.ID).
			WithDetail("status", string(e.Status))
	}

	p, err := s.projectRepo.GetByID(ctx, e.ProjectID)
	if errors.Is(err, domainProject.ErrProjectNotFound) {
		return nil, appErrors.NotFound("project", e.ProjectID)
	}
	if err != nil {
		return nil, appErrors.StorageFailure("project lookup", err)
	}

	logger.Debug("Scan resolved",
		zap.String("element_id", e.ID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("event", "scan_resolved"),
	)

	return &Resolution{Element: e, Project: p}, nil
}

// Label renders the PNG QR label of an existing element.
func (s *Service) Label(ctx context.Context, elementID uuid.UUID, size int) ([]byte, error) {
	if _, err := s.elementRepo.GetByID(ctx, elementID); err != nil {
		if errors.Is(err, domainElement.ErrElementNotFound) {
			return nil, appErrors.NotFound("element", elementID)
		}
		return nil, appErrors.StorageFailure("element lookup", err)
	}
	return EncodeLabel(s.baseURL, elementID, size)
}

// EncodeLabel renders the QR label for an element id without a store.
func EncodeLabel(baseURL string, elementID uuid.UUID, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultLabelSize
	}

	qr, err := qrcode.New(LabelURL(baseURL, elementID), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to build QR code: %w", err)
	}
	png, err := qr.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}
