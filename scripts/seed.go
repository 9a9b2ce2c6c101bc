package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/zemedica/feereference/backend/internal/adapters/database"
	"github.com/zemedica/feereference/backend/internal/adapters/search"
	"github.com/zemedica/feereference/backend/internal/domain/entities"
	"github.com/zemedica/feereference/backend/internal/infrastructure/clients/postgres"
	"github.com/zemedica/feereference/backend/internal/infrastructure/clients/typesense"
	"github.com/zemedica/feereference/backend/internal/infrastructure/observability"
	"github.com/zemedica/feereference/backend/pkg/config"
)

func main() {
	observability.InitLogger("fee-reference-seed", os.Getenv("APP_ENV"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	ctx := context.Background()

	var searchRepo *search.TypesenseAdapter
	if tsClient, err := typesense.NewClient(&cfg.Typesense); err == nil {
		searchRepo = search.NewTypesenseAdapter(tsClient)
		if err := searchRepo.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to initialize search schema, skipping indexing")
			searchRepo = nil
		}
	} else {
		log.Warn().Err(err).Msg("Typesense unavailable, skipping indexing")
	}

	procedureRepo := database.NewProcedureCodeAdapter(pgClient)
	scheduleRepo := database.NewFeeScheduleAdapter(pgClient)
	physicianFeeRepo := database.NewPhysicianFeeReferenceAdapter(pgClient)
	medicationRepo := database.NewMedicationPriceAdapter(pgClient)
	surgicalRepo := database.NewSurgicalAdapter(pgClient)

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				facility_fees,
				anesthesia_fees,
				surgical_fees,
				surgical_services,
				surgery_bundles,
				medication_price_quotes,
				medication_prices,
				physician_fee_references,
				fee_adjustments,
				fee_schedule_items,
				fee_schedules,
				procedure_codes
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	now := time.Now()
	fiveUnits := 5

	// 1. Procedure codes across all three code types
	codes := []entities.ProcedureCode{
		{
			ID: uuid.New().String(), Code: "99213", CodeType: entities.CodeTypeCPT,
			Description: "Office or other outpatient visit, established patient, low complexity",
			Category:    "Evaluation & Management",
			PhysFee25:   nullDec("85.00"), PhysFee50: nullDec("110.00"), PhysFee75: nullDec("150.00"),
			MedFee25: nullDec("72.00"), MedFee50: nullDec("92.00"), MedFee75: nullDec("118.00"),
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: uuid.New().String(), Code: "45378", CodeType: entities.CodeTypeCPT,
			Description: "Colonoscopy, flexible; diagnostic",
			Category:    "Surgery - Digestive",
			PhysFee25:   nullDec("380.00"), PhysFee50: nullDec("480.00"), PhysFee75: nullDec("640.00"),
			MedFee25: nullDec("310.00"), MedFee50: nullDec("395.00"), MedFee75: nullDec("520.00"),
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: uuid.New().String(), Code: "J3301", CodeType: entities.CodeTypeHCPCS,
			Description: "Injection, triamcinolone acetonide, 10 mg",
			Category:    "Drugs Administered Other Than Oral Method",
			PhysFee50:   nullDec("12.50"), PhysFee75: nullDec("18.00"),
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: uuid.New().String(), Code: "00810", CodeType: entities.CodeTypeASA,
			Description: "Anesthesia for lower intestinal endoscopic procedures",
			Category:    "Anesthesia",
			BaseUnits:   &fiveUnits,
			PhysFee50:   nullDec("275.00"), PhysFee75: nullDec("360.00"),
			CreatedAt: now, UpdatedAt: now,
		},
	}

	codeIDByCode := map[string]string{}
	for i := range codes {
		c := &codes[i]
		if err := procedureRepo.Create(ctx, c); err != nil {
			log.Warn().Str("code", c.Code).Err(err).Msg("failed to create procedure code")
			continue
		}
		codeIDByCode[c.Code] = c.ID
		if searchRepo != nil {
			if err := searchRepo.Index(ctx, c); err != nil {
				log.Warn().Str("code", c.Code).Err(err).Msg("failed to index procedure code")
			}
		}
	}

	// 2. A current fee schedule with items and a regional adjustment
	schedule := entities.FeeSchedule{
		ID:            uuid.New().String(),
		Name:          "Standard Commercial 2026",
		Description:   "Baseline commercial payer schedule, effective calendar year 2026",
		EffectiveDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := scheduleRepo.Create(ctx, &schedule); err != nil {
		log.Warn().Str("name", schedule.Name).Err(err).Msg("failed to create fee schedule")
	} else {
		items := []entities.FeeScheduleItem{
			{ID: uuid.New().String(), FeeScheduleID: schedule.ID, ProcedureCodeID: codeIDByCode["99213"], Fee: dec("104.00"), CreatedAt: now, UpdatedAt: now},
			{ID: uuid.New().String(), FeeScheduleID: schedule.ID, ProcedureCodeID: codeIDByCode["45378"], Fee: dec("455.00"), CreatedAt: now, UpdatedAt: now},
		}
		for i := range items {
			if err := scheduleRepo.AddItem(ctx, &items[i]); err != nil {
				log.Warn().Err(err).Msg("failed to add fee schedule item")
			}
		}

		adjustment := entities.FeeAdjustment{
			ID:              uuid.New().String(),
			FeeScheduleID:   schedule.ID,
			AdjustmentType:  entities.AdjustmentPercentage,
			AdjustmentValue: dec("8"),
			Notes:           "High cost-of-living region uplift",
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := scheduleRepo.AddAdjustment(ctx, &adjustment); err != nil {
			log.Warn().Err(err).Msg("failed to add fee adjustment")
		}
	}

	// 3. Physician fee references (MFUS/PFR percentile pairs)
	references := []entities.PhysicianFeeReference{
		{
			ID: uuid.New().String(), ServiceName: "Diagnostic colonoscopy",
			ProcedureCodeID: codeIDByCode["45378"],
			M50:             dec("420.00"), P50: dec("455.00"),
			M75: dec("560.00"), P75: dec("610.00"),
			M80: dec("600.00"), P80: dec("655.00"),
			M85: dec("645.00"), P85: dec("700.00"),
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: uuid.New().String(), ServiceName: "Established patient office visit",
			ProcedureCodeID: codeIDByCode["99213"],
			M50:             dec("98.00"), P50: dec("112.00"),
			M75: dec("132.00"), P75: dec("148.00"),
			M80: dec("141.00"), P80: dec("158.00"),
			M85: dec("152.00"), P85: dec("170.00"),
			CreatedAt: now, UpdatedAt: now,
		},
	}
	for i := range references {
		if err := physicianFeeRepo.Create(ctx, &references[i]); err != nil {
			log.Warn().Str("service", references[i].ServiceName).Err(err).Msg("failed to create physician fee reference")
		}
	}

	// 4. Medication prices with pharmacy quotes
	amoxicillin := entities.MedicationPrice{
		ID: uuid.New().String(), MedicationName: "Amoxicillin 500mg (30 capsules)",
		CreatedAt: now, UpdatedAt: now,
	}
	if err := medicationRepo.Create(ctx, &amoxicillin); err != nil {
		log.Warn().Err(err).Msg("failed to create medication")
	} else {
		quotes := []entities.MedicationPriceQuote{
			{ID: uuid.New().String(), MedicationID: amoxicillin.ID, QuotedPrice: dec("8.99"), Source: "CostPlus", QuoteDate: now, IsActive: true, CreatedAt: now, UpdatedAt: now},
			{ID: uuid.New().String(), MedicationID: amoxicillin.ID, QuotedPrice: dec("14.50"), Source: "RetailAvg", QuoteDate: now, IsActive: true, CreatedAt: now, UpdatedAt: now},
		}
		for i := range quotes {
			if err := medicationRepo.AddQuote(ctx, &quotes[i]); err != nil {
				log.Warn().Err(err).Msg("failed to add medication quote")
			}
		}
	}

	// 5. A surgery bundle with a fully costed service
	bundle := entities.SurgeryBundle{
		ID:          uuid.New().String(),
		Name:        "Screening Colonoscopy Bundle",
		Description: "Physician, anesthesia, and facility components for a routine screening colonoscopy",
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := surgicalRepo.CreateBundle(ctx, &bundle); err != nil {
		log.Warn().Str("name", bundle.Name).Err(err).Msg("failed to create surgery bundle")
	} else {
		service := entities.SurgicalService{
			ID:              uuid.New().String(),
			SurgeryBundleID: bundle.ID,
			ProcedureCode:   "45378",
			Description:     "Diagnostic colonoscopy",
			IsActive:        true,
			CreatedAt:       now,
			UpdatedAt:       now,
			SurgicalFee: &entities.SurgicalFee{
				ID: uuid.New().String(), IsActive: true,
				MedFee50: dec("395.00"), MedFee75: dec("520.00"),
			},
			AnesthesiaFee: &entities.AnesthesiaFee{
				ID: uuid.New().String(), IsActive: true,
				BaseUnits: dec("5"), TimeUnits: dec("4"), ConversionFactor: dec("22.50"),
			},
			FacilityFee: &entities.FacilityFee{
				ID: uuid.New().String(), IsActive: true,
				LowFee: dec("850.00"), HighFee: dec("1650.00"),
			},
		}
		if err := surgicalRepo.CreateService(ctx, &service); err != nil {
			log.Warn().Err(err).Msg("failed to create surgical service")
		}
	}

	log.Info().Msg("seeding complete")
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Fatal().Str("value", s).Err(err).Msg("invalid decimal in seed data")
	}
	return d
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}
