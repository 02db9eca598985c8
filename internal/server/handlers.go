/*
PURPOSE:
  HTTP handlers for the estimate service.

REQUIREMENTS:
  User-specified:
  - POST /api/v1/estimate takes {"material","weight","distanceKm"} and
    answers with the estimate JSON.
  - A fallback estimate is returned with 200, the same as a real one.

  Implementation-discovered:
  - Bodies are capped at maxBodyBytes.
  - The resolution ID goes out in X-Estimate-ID so operators can find the
    journal entry.

ARCHITECTURE INTEGRATION:
  - Registered by: internal/server/server.go (routes)
  - Uses: internal/model, internal/output (Logger)

ERROR HANDLING:
  - 415 for anything but application/json.
  - 400 for undecodable or incomplete shipments. The resolver is not called.
  - Errors are JSON: {"error": "..."}.

IMPLEMENTATION RULES:
  - Responses are encoded to a buffer before the status is written.

RELATED FILES:
  - internal/server/server.go
  - internal/server/middleware.go
*/

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/daryltucker/load-estimator/internal/model"
	"github.com/daryltucker/load-estimator/internal/output"
)

const maxBodyBytes = 64 << 10

// EstimateIDHeader carries the resolution ID so clients can quote it.
const EstimateIDHeader = "X-Estimate-ID"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := fmt.Fprintln(w, "OK"); err != nil {
		output.Logger.Debug("Health write failed", "error", err)
	}
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
		return
	}

	var shipment model.Shipment
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&shipment); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !shipment.Complete() {
		writeError(w, http.StatusBadRequest, "material, weight and distanceKm are required")
		return
	}

	res := s.est.Resolve(r.Context(), shipment)

	w.Header().Set(EstimateIDHeader, res.ID)
	writeJSON(w, http.StatusOK, res.Estimate)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes to a buffer first so an encoding failure can still
// become a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		output.Logger.Error("Failed to encode response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		output.Logger.Debug("Response write failed", "error", err)
	}
}
