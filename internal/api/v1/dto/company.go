package dto

import (
	"encoding/json"
	"time"

	"complianceai/internal/model"
	"complianceai/internal/validation"
)

// CompanyCreateDTO is the body of POST /companies. Dates are YYYY-MM-DD.
type CompanyCreateDTO struct {
	CompanyName       string          `json:"companyName" validate:"required,min=1,max=200"`
	Industry          *string         `json:"industry,omitempty" validate:"omitempty,max=100"`
	CompanyType       string          `json:"companyType,omitempty" validate:"omitempty,companytype"`
	IncorporationDate *string         `json:"incorporationDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CIN               *string         `json:"cin,omitempty" validate:"omitempty,len=21,alphanum"`
	GSTIN             *string         `json:"gstin,omitempty" validate:"omitempty,gstin"`
	PAN               *string         `json:"pan,omitempty" validate:"omitempty,pan"`
	RegisteredAddress *string         `json:"registeredAddress,omitempty" validate:"omitempty,max=500"`
	BusinessAddress   *string         `json:"businessAddress,omitempty" validate:"omitempty,max=500"`
	State             *string         `json:"state,omitempty" validate:"omitempty,max=100"`
	City              *string         `json:"city,omitempty" validate:"omitempty,max=100"`
	Pincode           *string         `json:"pincode,omitempty" validate:"omitempty,pincode"`
	AuthorizedCapital *int64          `json:"authorizedCapital,omitempty" validate:"omitempty,min=0"`
	PaidUpCapital     *int64          `json:"paidUpCapital,omitempty" validate:"omitempty,min=0"`
	DirectorDetails   json.RawMessage `json:"directorDetails,omitempty"`
}

// ToModel builds a Company from the request with every string sanitised.
func (d *CompanyCreateDTO) ToModel() *model.Company {
	c := &model.Company{
		CompanyName:       validation.SanitizeString(d.CompanyName),
		Industry:          sanitized(d.Industry),
		CompanyType:       d.CompanyType,
		CIN:               sanitized(d.CIN),
		GSTIN:             sanitized(d.GSTIN),
		PAN:               sanitized(d.PAN),
		RegisteredAddress: sanitized(d.RegisteredAddress),
		BusinessAddress:   sanitized(d.BusinessAddress),
		State:             sanitized(d.State),
		City:              sanitized(d.City),
		Pincode:           sanitized(d.Pincode),
		AuthorizedCapital: d.AuthorizedCapital,
		PaidUpCapital:     d.PaidUpCapital,
		DirectorDetails:   d.DirectorDetails,
	}
	if d.IncorporationDate != nil {
		if t, err := time.Parse("2006-01-02", *d.IncorporationDate); err == nil {
			c.IncorporationDate = &t
		}
	}
	return c
}

func sanitized(s *string) *string {
	if s == nil {
		return nil
	}
	v := validation.SanitizeString(*s)
	if v == "" {
		return nil
	}
	return &v
}
