package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/limaJavier/invigilation/internal/metrics"
	"github.com/limaJavier/invigilation/pkg/allocation"
	"github.com/limaJavier/invigilation/pkg/model"
)

const maxBodyBytes = 10 << 20

type AllocationHandler struct {
	source   Source
	recorder *metrics.Recorder
	logger   logr.Logger
	now      func() time.Time
}

func NewAllocationHandler(source Source, recorder *metrics.Recorder, logger logr.Logger) *AllocationHandler {
	return &AllocationHandler{
		source:   source,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

func (h *AllocationHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/allocate", h.handleAllocate)
	mux.HandleFunc("/api/health", h.handleHealth)
}

type allocateResponse struct {
	Success bool               `json:"success"`
	Data    *allocation.Result `json:"data,omitempty"`
	Error   string             `json:"error,omitempty"`
	Message string             `json:"message,omitempty"`
}

// handleAllocate runs an allocation on the request body's snapshot, or on the configured source when the body is empty
func (h *AllocationHandler) handleAllocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	strategy := allocation.StrategyRetrospective
	if value := r.URL.Query().Get("strategy"); value != "" {
		strategy = allocation.Strategy(value)
	}
	allocator, err := allocation.NewAllocator(strategy, h.logger.WithValues("strategy", strategy))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, allocateResponse{Error: "Invalid strategy", Message: err.Error()})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, allocateResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}

	var input model.Input
	if len(bytes.TrimSpace(body)) == 0 {
		input, err = h.source.Load(r.Context())
		if err != nil {
			h.logger.Error(err, "cannot load allocation snapshot")
			h.recorder.ObserveFailure(strategy)
			writeJSON(w, http.StatusInternalServerError, allocateResponse{Error: "Failed to perform allocation", Message: err.Error()})
			return
		}
	} else {
		input, err = model.InputFromReader(bytes.NewReader(body))
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, model.ErrInvalidInput) {
				status = http.StatusUnprocessableEntity
			}
			writeJSON(w, status, allocateResponse{Error: "Invalid allocation input", Message: err.Error()})
			return
		}
	}

	start := h.now()
	result, err := allocator.Build(input)
	if err != nil {
		h.logger.Error(err, "allocation failed")
		h.recorder.ObserveFailure(strategy)
		writeJSON(w, http.StatusInternalServerError, allocateResponse{Error: "Failed to perform allocation", Message: err.Error()})
		return
	}
	h.recorder.ObserveRun(strategy, h.now().Sub(start), result)

	writeJSON(w, http.StatusOK, allocateResponse{Success: true, Data: &result})
}

func (h *AllocationHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
