package routes

import (
	"net/http"

	"github.com/zemedica/feereference/backend/internal/api/handlers"
	"github.com/zemedica/feereference/backend/internal/api/middleware"
	"github.com/zemedica/feereference/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	procedureCodeHandler *handlers.ProcedureCodeHandler
	feeScheduleHandler   *handlers.FeeScheduleHandler
	physicianFeeHandler  *handlers.PhysicianFeeHandler
	medicationHandler    *handlers.MedicationHandler
	surgicalHandler      *handlers.SurgicalHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	procedureCodeHandler *handlers.ProcedureCodeHandler,
	feeScheduleHandler *handlers.FeeScheduleHandler,
	physicianFeeHandler *handlers.PhysicianFeeHandler,
	medicationHandler *handlers.MedicationHandler,
	surgicalHandler *handlers.SurgicalHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                  http.NewServeMux(),
		procedureCodeHandler: procedureCodeHandler,
		feeScheduleHandler:   feeScheduleHandler,
		physicianFeeHandler:  physicianFeeHandler,
		medicationHandler:    medicationHandler,
		surgicalHandler:      surgicalHandler,
		cacheMiddleware:      cacheMiddleware,
		metrics:              metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Procedure code endpoints
	r.mux.HandleFunc("GET /api/procedure-codes", r.procedureCodeHandler.ListProcedureCodes)
	r.mux.HandleFunc("GET /api/procedure-codes/search", r.procedureCodeHandler.SearchProcedureCodes)
	r.mux.HandleFunc("GET /api/procedure-codes/{code}", r.procedureCodeHandler.GetProcedureCode)
	r.mux.HandleFunc("GET /api/procedure-codes/{code}/adjusted-fees", r.procedureCodeHandler.GetAdjustedFees)

	// Fee schedule endpoints
	r.mux.HandleFunc("GET /api/fee-schedules", r.feeScheduleHandler.ListFeeSchedules)
	r.mux.HandleFunc("GET /api/fee-schedules/{id}", r.feeScheduleHandler.GetFeeSchedule)
	r.mux.HandleFunc("GET /api/fee-schedules/{id}/items", r.feeScheduleHandler.ListFeeScheduleItems)

	// Physician fee reference endpoints
	r.mux.HandleFunc("GET /api/physician-fee-references", r.physicianFeeHandler.ListReferences)
	r.mux.HandleFunc("GET /api/physician-fee-references/{id}/range", r.physicianFeeHandler.GetReferenceRange)

	// Medication endpoints
	r.mux.HandleFunc("GET /api/medications", r.medicationHandler.ListMedications)
	r.mux.HandleFunc("GET /api/medications/{id}", r.medicationHandler.GetMedication)

	// Surgery bundle endpoints
	r.mux.HandleFunc("GET /api/surgery-bundles", r.surgicalHandler.ListBundles)
	r.mux.HandleFunc("GET /api/surgery-bundles/{id}", r.surgicalHandler.GetBundle)
	r.mux.HandleFunc("GET /api/surgery-bundles/{id}/estimate", r.surgicalHandler.GetBundleEstimate)

	// Admin endpoints (mutating, publish reference change events)
	r.mux.HandleFunc("POST /api/admin/procedure-codes", r.procedureCodeHandler.CreateProcedureCode)
	r.mux.HandleFunc("PUT /api/admin/procedure-codes/{code}", r.procedureCodeHandler.UpdateProcedureCode)
	r.mux.HandleFunc("DELETE /api/admin/procedure-codes/{code}", r.procedureCodeHandler.DeleteProcedureCode)

	r.mux.HandleFunc("POST /api/admin/fee-schedules", r.feeScheduleHandler.CreateFeeSchedule)
	r.mux.HandleFunc("POST /api/admin/fee-schedules/{id}/items", r.feeScheduleHandler.AddFeeScheduleItem)
	r.mux.HandleFunc("POST /api/admin/fee-schedules/{id}/adjustments", r.feeScheduleHandler.AddFeeAdjustment)

	r.mux.HandleFunc("POST /api/admin/physician-fee-references", r.physicianFeeHandler.CreateReference)

	r.mux.HandleFunc("POST /api/admin/medications", r.medicationHandler.CreateMedication)
	r.mux.HandleFunc("POST /api/admin/medications/{id}/quotes", r.medicationHandler.AddQuote)
	r.mux.HandleFunc("DELETE /api/admin/medications/{id}/quotes/{quoteId}", r.medicationHandler.DeactivateQuote)

	r.mux.HandleFunc("POST /api/admin/surgery-bundles", r.surgicalHandler.CreateBundle)
	r.mux.HandleFunc("POST /api/admin/surgery-bundles/{id}/services", r.surgicalHandler.CreateService)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	if r.metrics != nil {
		handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	}

	// HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
