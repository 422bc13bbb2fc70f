package server

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"parkease/internal/analytics"
	"parkease/internal/facility"
)

func getServiceName() string {
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		return name
	}
	return "parkease-service"
}

// Handler exposes the facility over HTTP. The controller owns a single
// mutable tree, so all mutating calls are serialized through one mutex.
type Handler struct {
	controller *facility.InstrumentedController
	reporter   *analytics.Reporter
	mu         sync.Mutex
}

func NewHandler(controller *facility.InstrumentedController, reporter *analytics.Reporter) *Handler {
	return &Handler{
		controller: controller,
		reporter:   reporter,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": getServiceName(),
		"meta":    extractMeta(r.Context()),
	})
}

// decodeStrict rejects bodies with unknown keys so a misspelled field never
// silently becomes a zero value.
func decodeStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusForMessage maps a controller outcome onto an HTTP status. The
// controller speaks in messages rather than error types at this boundary, so
// the mapping keys off the message text.
func statusForMessage(message string) int {
	switch {
	case !facility.IsError(message):
		return http.StatusOK
	case strings.Contains(message, "does not exist"):
		return http.StatusNotFound
	case strings.Contains(message, "already"):
		return http.StatusConflict
	case strings.Contains(message, "storage failure"):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func (h *Handler) writeOutcome(w http.ResponseWriter, r *http.Request, message string, data any) {
	ctx := r.Context()
	status := statusForMessage(message)
	if status == http.StatusOK {
		WriteSuccess(ctx, w, message, data)
		return
	}
	WriteError(ctx, w, status, message)
}

func (h *Handler) GetFacility(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	snapshot := h.controller.Snapshot()
	h.mu.Unlock()

	WriteSuccess(r.Context(), w, "Facility retrieved successfully", snapshot)
}

func (h *Handler) GetRender(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	rendered := h.controller.Render()
	h.mu.Unlock()

	WriteSuccess(r.Context(), w, "Facility rendered successfully", map[string]any{
		"tree": rendered,
	})
}

func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	h.mu.Lock()
	err := h.controller.Load(ctx)
	var snapshot any
	if err == nil {
		snapshot = h.controller.Snapshot()
	}
	h.mu.Unlock()

	if err != nil {
		WriteError(ctx, w, http.StatusInternalServerError, "Failed to reload facility")
		return
	}
	WriteSuccess(ctx, w, "Facility reloaded successfully", snapshot)
}

func (h *Handler) CreateSpot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req SpotRequest
	if err := decodeStrict(r, &req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.complete() {
		WriteError(ctx, w, http.StatusBadRequest, "floor_number, row_number and spot_number are required")
		return
	}

	h.mu.Lock()
	message := h.controller.CreateSpot(ctx, *req.FloorNumber, *req.RowNumber, *req.SpotNumber)
	h.mu.Unlock()

	h.writeOutcome(w, r, message, map[string]any{
		"floor_number": *req.FloorNumber,
		"row_number":   *req.RowNumber,
		"spot_number":  *req.SpotNumber,
	})
}

func (h *Handler) DeleteSpot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req SpotRequest
	if err := decodeStrict(r, &req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.complete() {
		WriteError(ctx, w, http.StatusBadRequest, "floor_number, row_number and spot_number are required")
		return
	}

	h.mu.Lock()
	message := h.controller.DeleteSpot(ctx, *req.FloorNumber, *req.RowNumber, *req.SpotNumber)
	h.mu.Unlock()

	h.writeOutcome(w, r, message, nil)
}

func (h *Handler) GetSpotStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	spotID, err := strconv.ParseInt(chi.URLParam(r, "spotID"), 10, 64)
	if err != nil || spotID <= 0 {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid spot id")
		return
	}

	h.mu.Lock()
	plate, status, err := h.controller.CheckSpotStatus(ctx, spotID)
	h.mu.Unlock()

	if err != nil {
		WriteError(ctx, w, http.StatusInternalServerError, "Failed to check spot status")
		return
	}

	WriteSuccess(ctx, w, "Spot status retrieved successfully", SpotStatusResponse{
		SpotID: spotID,
		Plate:  plate,
		Status: string(status),
	})
}

func (h *Handler) NewEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req VehicleRequest
	if err := decodeStrict(r, &req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.complete() {
		WriteError(ctx, w, http.StatusBadRequest, "floor_number, row_number, spot_number and plate are required")
		return
	}

	h.mu.Lock()
	message := h.controller.NewEntry(ctx, *req.FloorNumber, *req.RowNumber, *req.SpotNumber, *req.Plate)
	h.mu.Unlock()

	h.writeOutcome(w, r, message, map[string]any{
		"plate": *req.Plate,
	})
}

func (h *Handler) NewExit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req VehicleRequest
	if err := decodeStrict(r, &req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.complete() {
		WriteError(ctx, w, http.StatusBadRequest, "floor_number, row_number, spot_number and plate are required")
		return
	}

	h.mu.Lock()
	message := h.controller.NewExit(ctx, *req.FloorNumber, *req.RowNumber, *req.SpotNumber, *req.Plate)
	h.mu.Unlock()

	h.writeOutcome(w, r, message, map[string]any{
		"plate": *req.Plate,
	})
}

func (h *Handler) NewBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req VehicleRequest
	if err := decodeStrict(r, &req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.complete() {
		WriteError(ctx, w, http.StatusBadRequest, "floor_number, row_number, spot_number and plate are required")
		return
	}

	h.mu.Lock()
	message := h.controller.NewBooking(ctx, *req.FloorNumber, *req.RowNumber, *req.SpotNumber, *req.Plate)
	h.mu.Unlock()

	h.writeOutcome(w, r, message, map[string]any{
		"plate": *req.Plate,
	})
}

func (h *Handler) ListPremium(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	plates, err := h.controller.PremiumPlates(ctx)
	if err != nil {
		WriteError(ctx, w, http.StatusInternalServerError, "Failed to list premium subscribers")
		return
	}

	WriteSuccess(ctx, w, "Premium subscribers retrieved successfully", map[string]any{
		"plates": plates,
	})
}

func (h *Handler) RegisterPremium(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req PremiumRequest
	if err := decodeStrict(r, &req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Plate == nil || *req.Plate == "" {
		WriteError(ctx, w, http.StatusBadRequest, "plate is required")
		return
	}

	h.mu.Lock()
	message := h.controller.RegisterPremium(ctx, *req.Plate)
	h.mu.Unlock()

	h.writeOutcome(w, r, message, map[string]any{
		"plate": *req.Plate,
	})
}

func (h *Handler) UnregisterPremium(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	plate := chi.URLParam(r, "plate")
	if plate == "" {
		WriteError(ctx, w, http.StatusBadRequest, "plate is required")
		return
	}

	h.mu.Lock()
	message := h.controller.UnregisterPremium(ctx, plate)
	h.mu.Unlock()

	status := statusForMessage(message)
	if status == http.StatusOK {
		WriteSuccess(ctx, w, message, nil)
		return
	}
	if strings.Contains(message, "not registered") {
		status = http.StatusNotFound
	}
	WriteError(ctx, w, status, message)
}

func (h *Handler) GetUsageReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lines, err := h.reporter.UsageReport(ctx)
	if err != nil {
		WriteError(ctx, w, http.StatusInternalServerError, "Failed to build usage report")
		return
	}

	WriteSuccess(ctx, w, "Usage report retrieved successfully", map[string]any{
		"episodes": lines,
	})
}

func (h *Handler) GetPaymentsReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payments, err := h.reporter.Payments(ctx)
	if err != nil {
		WriteError(ctx, w, http.StatusInternalServerError, "Failed to list payments")
		return
	}
	total, err := h.reporter.TotalRevenue(ctx)
	if err != nil {
		WriteError(ctx, w, http.StatusInternalServerError, "Failed to total revenue")
		return
	}

	WriteSuccess(ctx, w, "Payments retrieved successfully", map[string]any{
		"payments": payments,
		"total":    total,
	})
}
