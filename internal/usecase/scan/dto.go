package scan

import (
	elementUsecase "precast-tracker/internal/usecase/element"

	"github.com/google/uuid"
)

type ProjectSummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
}

type ResolutionResponse struct {
	Element *elementUsecase.ElementResponse `json:"element"`
	Project ProjectSummary                  `json:"project"`
}

func ToResolutionResponse(r *Resolution) *ResolutionResponse {
	return &ResolutionResponse{
		Element: elementUsecase.ToElementResponse(r.Element),
		Project: ProjectSummary{
			ID:      r.Project.ID,
			Name:    r.Project.Name,
			Address: r.Project.Address,
		},
	}
}
