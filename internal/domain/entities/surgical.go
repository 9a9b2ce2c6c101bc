package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SurgeryBundle groups the surgical services quoted together as one package
type SurgeryBundle struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	Services []*SurgicalService `json:"services,omitempty" db:"-"`
}

// SurgicalService is one billed service within a surgery bundle, identified
// by its CPT/HCPCS code. Fee components hang off it one-to-one.
type SurgicalService struct {
	ID              string    `json:"id" db:"id"`
	SurgeryBundleID string    `json:"surgery_bundle_id" db:"surgery_bundle_id"`
	ProcedureCode   string    `json:"procedure_code" db:"procedure_code"`
	Description     string    `json:"description,omitempty" db:"description"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`

	SurgicalFee   *SurgicalFee   `json:"surgical_fee,omitempty" db:"-"`
	AnesthesiaFee *AnesthesiaFee `json:"anesthesia_fee,omitempty" db:"-"`
	FacilityFee   *FacilityFee   `json:"facility_fee,omitempty" db:"-"`
}

func (s *SurgicalService) String() string {
	return fmt.Sprintf("%s (%s)", s.ProcedureCode, s.SurgeryBundleID)
}

// SurgicalFee holds the Medicare fee percentiles for a surgical service
type SurgicalFee struct {
	ID                string          `json:"id" db:"id"`
	SurgicalServiceID string          `json:"surgical_service_id" db:"surgical_service_id"`
	IsActive          bool            `json:"is_active" db:"is_active"`
	MedFee50          decimal.Decimal `json:"med_fee_50" db:"med_fee_50"`
	MedFee75          decimal.Decimal `json:"med_fee_75" db:"med_fee_75"`
}

// Range returns the (50th, 75th) percentile fee pair
func (f *SurgicalFee) Range() (decimal.Decimal, decimal.Decimal) {
	return f.MedFee50, f.MedFee75
}

// AnesthesiaFee derives its fee from anesthesia units and the ASA
// conversion factor. All unit fields are non-negative.
type AnesthesiaFee struct {
	ID                string          `json:"id" db:"id"`
	SurgicalServiceID string          `json:"surgical_service_id" db:"surgical_service_id"`
	IsActive          bool            `json:"is_active" db:"is_active"`
	BaseUnits         decimal.Decimal `json:"base_units" db:"base_units"`
	TimeUnits         decimal.Decimal `json:"time_units" db:"time_units"`
	ConversionFactor  decimal.Decimal `json:"conversion_factor" db:"conversion_factor"`
}

// CalculateFee returns (base units + time units) x conversion factor
func (f *AnesthesiaFee) CalculateFee() decimal.Decimal {
	return f.BaseUnits.Add(f.TimeUnits).Mul(f.ConversionFactor)
}

// FacilityFee stores the quoted low/high facility charge for a service
type FacilityFee struct {
	ID                string          `json:"id" db:"id"`
	SurgicalServiceID string          `json:"surgical_service_id" db:"surgical_service_id"`
	IsActive          bool            `json:"is_active" db:"is_active"`
	LowFee            decimal.Decimal `json:"low_fee" db:"low_fee"`
	HighFee           decimal.Decimal `json:"high_fee" db:"high_fee"`
}

// Range returns the stored (low, high) pair
func (f *FacilityFee) Range() (decimal.Decimal, decimal.Decimal) {
	return f.LowFee, f.HighFee
}
