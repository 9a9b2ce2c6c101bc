package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	apperrors "github.com/zemedica/feereference/backend/pkg/errors"
)

// CodeType identifies the coding system a procedure code belongs to
type CodeType string

const (
	CodeTypeCPT   CodeType = "CPT"
	CodeTypeHCPCS CodeType = "HCPCS"
	CodeTypeASA   CodeType = "ASA"
)

// ValidCodeType reports whether s is one of the supported code types
func ValidCodeType(s string) bool {
	switch CodeType(s) {
	case CodeTypeCPT, CodeTypeHCPCS, CodeTypeASA:
		return true
	}
	return false
}

// FeePercentile is a supported fee percentile (25, 50 or 75)
type FeePercentile int

const (
	Percentile25 FeePercentile = 25
	Percentile50 FeePercentile = 50
	Percentile75 FeePercentile = 75
)

// FeeType selects between the physician and medical fee series
type FeeType string

const (
	FeeTypePhysician FeeType = "phys"
	FeeTypeMedical   FeeType = "med"
)

// ProcedureCode represents a medical procedure billing code (CPT, HCPCS or
// ASA) with its reference fee percentiles. Fee columns are nullable: a code
// without published data at a given percentile carries an invalid NullDecimal.
type ProcedureCode struct {
	ID          string              `json:"id" db:"id"`
	Code        string              `json:"code" db:"code"`
	CodeType    CodeType            `json:"code_type" db:"code_type"`
	Description string              `json:"description" db:"description"`
	Category    string              `json:"category,omitempty" db:"category"`
	BaseUnits   *int                `json:"base_units,omitempty" db:"base_units"`
	PhysFee25   decimal.NullDecimal `json:"phys_fee_25" db:"phys_fee_25"`
	PhysFee50   decimal.NullDecimal `json:"phys_fee_50" db:"phys_fee_50"`
	PhysFee75   decimal.NullDecimal `json:"phys_fee_75" db:"phys_fee_75"`
	MedFee25    decimal.NullDecimal `json:"med_fee_25" db:"med_fee_25"`
	MedFee50    decimal.NullDecimal `json:"med_fee_50" db:"med_fee_50"`
	MedFee75    decimal.NullDecimal `json:"med_fee_75" db:"med_fee_75"`
	CreatedAt   time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" db:"updated_at"`
}

// IsASACode reports whether this is an anesthesia (ASA) code. Base units are
// only meaningful for ASA codes.
func (p *ProcedureCode) IsASACode() bool {
	return p.CodeType == CodeTypeASA
}

// FeeByPercentile returns the stored fee for the given percentile and fee
// type. Invalid parameters yield a validation error; a missing fee value is
// not an error and is returned as an invalid NullDecimal.
//
// The percentile/type pair maps to a fixed set of fields rather than a
// constructed field name, so an unsupported combination cannot slip through
// to a silent zero.
func (p *ProcedureCode) FeeByPercentile(percentile FeePercentile, feeType FeeType) (decimal.NullDecimal, error) {
	var series [3]decimal.NullDecimal
	switch feeType {
	case FeeTypePhysician:
		series = [3]decimal.NullDecimal{p.PhysFee25, p.PhysFee50, p.PhysFee75}
	case FeeTypeMedical:
		series = [3]decimal.NullDecimal{p.MedFee25, p.MedFee50, p.MedFee75}
	default:
		return decimal.NullDecimal{}, apperrors.NewFieldValidationError("fee_type", "Fee type must be 'phys' or 'med'")
	}

	switch percentile {
	case Percentile25:
		return series[0], nil
	case Percentile50:
		return series[1], nil
	case Percentile75:
		return series[2], nil
	default:
		return decimal.NullDecimal{}, apperrors.NewFieldValidationError("percentile", "Percentile must be 25, 50, or 75")
	}
}

// RecommendedFee returns the 50th percentile physician fee, or zero when no
// fee is published.
func (p *ProcedureCode) RecommendedFee() decimal.Decimal {
	if p.PhysFee50.Valid {
		return p.PhysFee50.Decimal
	}
	return decimal.Zero
}

// AdjustedFee returns the GAF-adjusted fee for the given percentile and fee
// type. A missing base fee yields zero so downstream totals never blow up on
// absent data; a nil gaf returns the base fee unadjusted. Parameter errors
// from FeeByPercentile propagate unchanged.
func (p *ProcedureCode) AdjustedFee(percentile FeePercentile, feeType FeeType, gaf *decimal.Decimal) (decimal.Decimal, error) {
	fee, err := p.FeeByPercentile(percentile, feeType)
	if err != nil {
		return decimal.Zero, err
	}
	if !fee.Valid {
		return decimal.Zero, nil
	}
	if gaf == nil {
		return fee.Decimal, nil
	}
	return fee.Decimal.Mul(*gaf), nil
}

func (p *ProcedureCode) String() string {
	return fmt.Sprintf("%s - %s", p.Code, p.Description)
}
