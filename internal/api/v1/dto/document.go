package dto

import "complianceai/internal/model"

// GenerateDocumentDTO is the body of POST /documents/generate.
type GenerateDocumentDTO struct {
	CompanyID    string                 `json:"companyId" validate:"required"`
	TemplateID   string                 `json:"templateId" validate:"required"`
	DocumentName string                 `json:"documentName" validate:"required,min=1,max=200"`
	UserInputs   map[string]interface{} `json:"userInputs"`
}

type UpdateDocumentStatusDTO struct {
	Status model.DocumentStatus `json:"status" validate:"required,oneof=draft completed reviewed signed"`
}

type DownloadResponseDTO struct {
	URL string `json:"url"`
}
