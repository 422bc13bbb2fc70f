package server

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// SpotRequest addresses one spot by its physical coordinate. The fields are
// pointers so a missing key is distinguishable from a zero value; combined
// with DisallowUnknownFields on decode this rejects malformed shapes before
// anything is mutated.
type SpotRequest struct {
	FloorNumber *int `json:"floor_number"`
	RowNumber   *int `json:"row_number"`
	SpotNumber  *int `json:"spot_number"`
}

func (r *SpotRequest) complete() bool {
	return r.FloorNumber != nil && r.RowNumber != nil && r.SpotNumber != nil
}

// VehicleRequest is a spot coordinate plus the acting car's plate.
type VehicleRequest struct {
	FloorNumber *int    `json:"floor_number"`
	RowNumber   *int    `json:"row_number"`
	SpotNumber  *int    `json:"spot_number"`
	Plate       *string `json:"plate"`
}

func (r *VehicleRequest) complete() bool {
	return r.FloorNumber != nil && r.RowNumber != nil && r.SpotNumber != nil &&
		r.Plate != nil && *r.Plate != ""
}

type PremiumRequest struct {
	Plate *string `json:"plate"`
}

type SpotStatusResponse struct {
	SpotID int64  `json:"spot_id"`
	Plate  string `json:"plate,omitempty"`
	Status string `json:"status"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
