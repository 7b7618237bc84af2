package dto

import "complianceai/internal/model"

type ChatRequestDTO struct {
	Message   string `json:"message" validate:"max=4000"`
	Context   string `json:"context,omitempty" validate:"max=2000"`
	SessionID string `json:"sessionId,omitempty" validate:"omitempty,max=100"`
}

type InsightsResponseDTO struct {
	Insights *model.Insights     `json:"insights"`
	Stats    *model.InsightStats `json:"stats"`
}
