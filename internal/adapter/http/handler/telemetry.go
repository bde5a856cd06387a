package handler

import (
	"context"
	"net/http"

	"github.com/courierops/fieldtrack/internal/adapter/http/handler/dto"
	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/pkg/logger"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	"github.com/courierops/fieldtrack/pkg/uuid"
	"github.com/courierops/fieldtrack/pkg/validator"
)

type Telemetry struct {
	service TelemetryService
	l       logger.Logger
}

type TelemetryService interface {
	Submit(ctx context.Context, fix *models.Fix) (bool, error)
	LastPosition(ctx context.Context, workerID uuid.UUID) (*models.Fix, error)
	Settings(ctx context.Context, workerID uuid.UUID) (models.TrackingSettings, error)
	SetTracking(ctx context.Context, settings models.TrackingSettings) (models.TrackingSettings, error)
}

func NewTelemetry(service TelemetryService, l logger.Logger) *Telemetry {
	return &Telemetry{
		service: service,
		l:       l,
	}
}

// PushFix godoc
// @Summary      Push a position fix
// @Description  Stores one device position report for the authenticated worker
// @Tags         Telemetry
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /telemetry/fixes [post]
func (h *Telemetry) PushFix(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "push_fix")
	user := models.UserFromContext(ctx)

	var req dto.PushFixRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	fix := req.ToModel(user.ID)
	stored, err := h.service.Submit(ctx, fix)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to submit fix", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if !stored {
		response := envelope{"status": "discarded", "reason": "accuracy worse than storable threshold"}
		if err := writeJSON(w, http.StatusAccepted, response, nil); err != nil {
			internalErrorResponse(w, err.Error())
		}
		return
	}

	response := envelope{
		"status":      "accepted",
		"recorded_at": fix.RecordedAt,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// SetTracking godoc
// @Summary      Toggle tracking
// @Description  Enables or disables tracking for the authenticated worker and returns the stored state
// @Tags         Telemetry
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.TrackingSettings
// @Router       /telemetry/tracking [post]
func (h *Telemetry) SetTracking(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "set_tracking")
	user := models.UserFromContext(ctx)

	var req dto.TrackingToggleRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	settings := models.TrackingSettings{
		WorkerID: user.ID,
		Enabled:  *req.Enabled,
	}
	if req.IntervalSeconds != nil {
		settings.IntervalSeconds = *req.IntervalSeconds
	}

	stored, err := h.service.SetTracking(ctx, settings)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to update tracking settings", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	// The stored row is authoritative: clients render from the response,
	// never from their own optimistic state.
	response := envelope{"settings": stored}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// GetSettings godoc
// @Summary      Tracking settings
// @Description  Returns the authenticated worker's tracking settings
// @Tags         Telemetry
// @Produce      json
// @Success      200  {object}  models.TrackingSettings
// @Router       /telemetry/settings [get]
func (h *Telemetry) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_settings")
	user := models.UserFromContext(ctx)

	settings, err := h.service.Settings(ctx, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to load tracking settings", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"settings": settings}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// LastPosition godoc
// @Summary      Last known position
// @Description  Returns the most recent stored fix for a worker
// @Tags         Telemetry
// @Produce      json
// @Success      200  {object}  models.Fix
// @Failure      404  {object}  map[string]string
// @Router       /telemetry/workers/{worker_id}/last [get]
func (h *Telemetry) LastPosition(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "last_position")

	workerID, err := uuid.Parse(r.PathValue("worker_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid worker uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid worker uuid format")
		return
	}

	fix, err := h.service.LastPosition(ctx, workerID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to load last position", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"fix": fix}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}
