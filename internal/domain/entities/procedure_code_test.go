package entities

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/zemedica/feereference/backend/pkg/errors"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func sampleCode() *ProcedureCode {
	return &ProcedureCode{
		ID:          "pc-1",
		Code:        "99213",
		CodeType:    CodeTypeCPT,
		Description: "Office visit, established patient",
		PhysFee25:   nullDec("85.00"),
		PhysFee50:   nullDec("110.00"),
		PhysFee75:   nullDec("145.00"),
		MedFee25:    nullDec("60.00"),
		MedFee50:    nullDec("80.00"),
		MedFee75:    nullDec("105.00"),
	}
}

func TestFeeByPercentileReturnsStoredValues(t *testing.T) {
	code := sampleCode()

	cases := []struct {
		percentile FeePercentile
		feeType    FeeType
		want       string
	}{
		{Percentile25, FeeTypePhysician, "85.00"},
		{Percentile50, FeeTypePhysician, "110.00"},
		{Percentile75, FeeTypePhysician, "145.00"},
		{Percentile25, FeeTypeMedical, "60.00"},
		{Percentile50, FeeTypeMedical, "80.00"},
		{Percentile75, FeeTypeMedical, "105.00"},
	}

	for _, tc := range cases {
		fee, err := code.FeeByPercentile(tc.percentile, tc.feeType)
		require.NoError(t, err)
		require.True(t, fee.Valid)
		assert.True(t, fee.Decimal.Equal(dec(tc.want)),
			"percentile %d type %s: got %s want %s", tc.percentile, tc.feeType, fee.Decimal, tc.want)
	}
}

func TestFeeByPercentileMissingValueIsNotAnError(t *testing.T) {
	code := sampleCode()
	code.PhysFee75 = decimal.NullDecimal{}

	fee, err := code.FeeByPercentile(Percentile75, FeeTypePhysician)
	require.NoError(t, err)
	assert.False(t, fee.Valid)
}

func TestFeeByPercentileRejectsInvalidPercentile(t *testing.T) {
	code := sampleCode()

	for _, p := range []FeePercentile{0, 10, 40, 80, 100} {
		_, err := code.FeeByPercentile(p, FeeTypePhysician)
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
		assert.Contains(t, appErr.Details, "percentile")
	}
}

func TestFeeByPercentileRejectsInvalidFeeType(t *testing.T) {
	code := sampleCode()

	_, err := code.FeeByPercentile(Percentile50, FeeType("dental"))
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	assert.Contains(t, appErr.Details, "fee_type")
}

func TestAdjustedFeeMultipliesByGAF(t *testing.T) {
	code := sampleCode()
	gaf := dec("1.25")

	fee, err := code.AdjustedFee(Percentile50, FeeTypePhysician, &gaf)
	require.NoError(t, err)
	assert.True(t, fee.Equal(dec("137.50")), "got %s", fee)
}

func TestAdjustedFeeNilGAFReturnsBaseFee(t *testing.T) {
	code := sampleCode()

	fee, err := code.AdjustedFee(Percentile75, FeeTypeMedical, nil)
	require.NoError(t, err)
	assert.True(t, fee.Equal(dec("105.00")), "got %s", fee)
}

func TestAdjustedFeeMissingBaseFeeIsZero(t *testing.T) {
	code := sampleCode()
	code.MedFee25 = decimal.NullDecimal{}
	gaf := dec("2.00")

	fee, err := code.AdjustedFee(Percentile25, FeeTypeMedical, &gaf)
	require.NoError(t, err)
	assert.True(t, fee.IsZero())
}

func TestAdjustedFeePropagatesParameterErrors(t *testing.T) {
	code := sampleCode()
	gaf := dec("1.10")

	_, err := code.AdjustedFee(FeePercentile(90), FeeTypePhysician, &gaf)
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
}

func TestRecommendedFee(t *testing.T) {
	code := sampleCode()
	assert.True(t, code.RecommendedFee().Equal(dec("110.00")))

	code.PhysFee50 = decimal.NullDecimal{}
	assert.True(t, code.RecommendedFee().IsZero())
}

func TestIsASACode(t *testing.T) {
	code := sampleCode()
	assert.False(t, code.IsASACode())

	code.CodeType = CodeTypeASA
	assert.True(t, code.IsASACode())
}

func TestValidCodeType(t *testing.T) {
	assert.True(t, ValidCodeType("CPT"))
	assert.True(t, ValidCodeType("HCPCS"))
	assert.True(t, ValidCodeType("ASA"))
	assert.False(t, ValidCodeType("ICD10"))
	assert.False(t, ValidCodeType("cpt"))
	assert.False(t, ValidCodeType(""))
}
