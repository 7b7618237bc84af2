package model

import (
	"encoding/json"
	"time"
)

// Company is the business entity most records hang off via company_id.
type Company struct {
	ID                string          `db:"id" json:"id"`
	UserID            string          `db:"user_id" json:"user_id"`
	CompanyName       string          `db:"company_name" json:"company_name"`
	Industry          *string         `db:"industry" json:"industry,omitempty"`
	CompanyType       string          `db:"company_type" json:"company_type"`
	IncorporationDate *time.Time      `db:"incorporation_date" json:"incorporation_date,omitempty"`
	CIN               *string         `db:"cin" json:"cin,omitempty"`
	GSTIN             *string         `db:"gstin" json:"gstin,omitempty"`
	PAN               *string         `db:"pan" json:"pan,omitempty"`
	RegisteredAddress *string         `db:"registered_address" json:"registered_address,omitempty"`
	BusinessAddress   *string         `db:"business_address" json:"business_address,omitempty"`
	State             *string         `db:"state" json:"state,omitempty"`
	City              *string         `db:"city" json:"city,omitempty"`
	Pincode           *string         `db:"pincode" json:"pincode,omitempty"`
	AuthorizedCapital *int64          `db:"authorized_capital" json:"authorized_capital,omitempty"`
	PaidUpCapital     *int64          `db:"paid_up_capital" json:"paid_up_capital,omitempty"`
	DirectorDetails   json.RawMessage `db:"director_details" json:"director_details,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`

	// Populated by list queries; not a column.
	ActiveSubscription *Subscription `db:"-" json:"active_subscription,omitempty"`
}

// Field returns a printable value for template placeholders.
func (c *Company) Field(name string) string {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	switch name {
	case "companyName":
		return c.CompanyName
	case "companyAddress", "registeredAddress":
		return deref(c.RegisteredAddress)
	case "businessAddress":
		return deref(c.BusinessAddress)
	case "industry":
		return deref(c.Industry)
	case "companyType":
		return c.CompanyType
	case "cin":
		return deref(c.CIN)
	case "gstin":
		return deref(c.GSTIN)
	case "pan":
		return deref(c.PAN)
	case "state":
		return deref(c.State)
	case "city":
		return deref(c.City)
	case "pincode":
		return deref(c.Pincode)
	}
	return ""
}
