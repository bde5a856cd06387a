package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/courierops/fieldtrack/internal/adapter/http/handler/dto"
	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/internal/domain/types"
	"github.com/courierops/fieldtrack/internal/service/aggregate"
	"github.com/courierops/fieldtrack/internal/service/export"
	"github.com/courierops/fieldtrack/pkg/logger"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	"github.com/courierops/fieldtrack/pkg/uuid"
	"github.com/courierops/fieldtrack/pkg/validator"
)

const dateLayout = "2006-01-02"

type Analytics struct {
	metrics  MetricService
	rankings RankingService
	zones    ZoneAnalyticsService
	exporter ExportService
	weights  WeightsService
	l        logger.Logger
}

type MetricService interface {
	Daily(ctx context.Context, workerID uuid.UUID, date time.Time) (*models.DailyMetric, error)
	DailyAll(ctx context.Context, date time.Time) ([]models.DailyMetric, error)
	RecomputeDate(ctx context.Context, date time.Time) (int, error)
	Rollup(ctx context.Context, from, to time.Time, workerID *uuid.UUID) ([]models.RollupRow, error)
}

type RankingService interface {
	Rank(ctx context.Context, from, to time.Time, metric types.RankingMetric, topN int) ([]models.RankingEntry, error)
}

type ZoneAnalyticsService interface {
	Stats(ctx context.Context, from, to time.Time) ([]models.ZoneStat, error)
	WorkerEvents(ctx context.Context, workerID uuid.UUID, from, to time.Time) ([]models.ZoneEvent, error)
}

type ExportService interface {
	Export(ctx context.Context, req export.Request) (export.Table, error)
}

type WeightsService interface {
	Get() models.ScoreWeights
	Update(ctx context.Context, courses, profit float64, updatedBy string) (models.ScoreWeights, error)
}

func NewAnalytics(
	metrics MetricService,
	rankings RankingService,
	zones ZoneAnalyticsService,
	exporter ExportService,
	weights WeightsService,
	l logger.Logger,
) *Analytics {
	return &Analytics{
		metrics:  metrics,
		rankings: rankings,
		zones:    zones,
		exporter: exporter,
		weights:  weights,
		l:        l,
	}
}

// Daily godoc
// @Summary      Daily performance
// @Description  Returns daily metrics for one worker or every worker on a date
// @Tags         Analytics
// @Produce      json
// @Param        date       query  string  true   "Date (YYYY-MM-DD)"
// @Param        worker_id  query  string  false  "Worker UUID"
// @Success      200  {object}  map[string]any
// @Router       /analytics/daily [get]
func (h *Analytics) Daily(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "daily_metrics")

	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "date must use the YYYY-MM-DD format")
		return
	}

	var response envelope
	if raw := r.URL.Query().Get("worker_id"); raw != "" {
		workerID, err := uuid.Parse(raw)
		if err != nil {
			errorResponse(w, http.StatusBadRequest, "invalid worker uuid format")
			return
		}
		metric, err := h.metrics.Daily(ctx, workerID, date)
		if err != nil {
			h.l.Error(wrap.ErrorCtx(ctx, err), "failed to load daily metric", err)
			errorResponse(w, GetCode(err), err.Error())
			return
		}
		response = envelope{"metric": metric}
	} else {
		metrics, err := h.metrics.DailyAll(ctx, date)
		if err != nil {
			h.l.Error(wrap.ErrorCtx(ctx, err), "failed to load daily metrics", err)
			errorResponse(w, GetCode(err), err.Error())
			return
		}
		response = envelope{"metrics": metrics}
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// Rollup godoc
// @Summary      Period rollup
// @Description  Returns per-worker totals over a day, week or month window
// @Tags         Analytics
// @Produce      json
// @Param        period  query  string  true   "day, week or month"
// @Param        date    query  string  false  "Window anchor date, defaults to today"
// @Success      200  {object}  map[string]any
// @Router       /analytics/rollup [get]
func (h *Analytics) Rollup(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "period_rollup")

	period := types.Period(r.URL.Query().Get("period"))
	if !period.Valid() {
		errorResponse(w, http.StatusBadRequest, "period must be one of: day, week, month")
		return
	}

	ref := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			errorResponse(w, http.StatusBadRequest, "date must use the YYYY-MM-DD format")
			return
		}
		ref = parsed
	}
	var workerID *uuid.UUID
	if raw := r.URL.Query().Get("worker_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			errorResponse(w, http.StatusBadRequest, "invalid worker uuid format")
			return
		}
		workerID = &parsed
	}
	from, to := aggregate.PeriodBounds(period, ref)

	rows, err := h.metrics.Rollup(ctx, from, to, workerID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to compute rollup", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"period": period,
		"from":   from.Format(dateLayout),
		"to":     to.Format(dateLayout),
		"rows":   rows,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// Rankings godoc
// @Summary      Worker rankings
// @Description  Returns the leaderboard for a period, globally or net of salary
// @Tags         Analytics
// @Produce      json
// @Param        period  query  string  true   "day, week or month"
// @Param        metric  query  string  false  "global or global_salary, defaults to global"
// @Param        top     query  int     false  "Maximum entries, defaults to 50"
// @Success      200  {object}  map[string]any
// @Router       /analytics/rankings [get]
func (h *Analytics) Rankings(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "rankings")

	period := types.Period(r.URL.Query().Get("period"))
	if !period.Valid() {
		errorResponse(w, http.StatusBadRequest, "period must be one of: day, week, month")
		return
	}

	metric := types.MetricGlobal
	if raw := r.URL.Query().Get("metric"); raw != "" {
		metric = types.RankingMetric(raw)
		if !metric.Valid() {
			errorResponse(w, http.StatusBadRequest, "metric must be one of: global, global_salary")
			return
		}
	}

	topN := 0
	if raw := r.URL.Query().Get("top"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			errorResponse(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		topN = parsed
	}

	from, to := aggregate.PeriodBounds(period, time.Now().UTC())
	entries, err := h.rankings.Rank(ctx, from, to, metric, topN)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to build rankings", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"period":   period,
		"metric":   metric,
		"formula":  h.weights.Get().Formula(),
		"rankings": entries,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// ZoneStats godoc
// @Summary      Zone analytics
// @Description  Returns per-zone visit counts, average dwell and unique workers over a window
// @Tags         Analytics
// @Produce      json
// @Param        from  query  string  true  "Window start (YYYY-MM-DD)"
// @Param        to    query  string  true  "Window end (YYYY-MM-DD)"
// @Success      200  {object}  map[string]any
// @Router       /analytics/zones [get]
func (h *Analytics) ZoneStats(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "zone_stats")

	from, to, ok := h.parseWindow(w, r)
	if !ok {
		return
	}

	stats, err := h.zones.Stats(ctx, from, to)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to load zone stats", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"zones": stats}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// WorkerZoneEvents godoc
// @Summary      Worker zone events
// @Description  Returns a worker's geofence enter and exit events over a window
// @Tags         Analytics
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /analytics/zones/workers/{worker_id} [get]
func (h *Analytics) WorkerZoneEvents(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "worker_zone_events")

	workerID, err := uuid.Parse(r.PathValue("worker_id"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid worker uuid format")
		return
	}

	from, to, ok := h.parseWindow(w, r)
	if !ok {
		return
	}

	events, err := h.zones.WorkerEvents(ctx, workerID, from, to)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to load zone events", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"events": events}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// Recompute godoc
// @Summary      Recompute a day
// @Description  Rebuilds daily metrics for every worker with fixes on the given date
// @Tags         Analytics
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /analytics/recompute [post]
func (h *Analytics) Recompute(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "recompute")

	var req dto.RecomputeRequest
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

	processed, err := h.metrics.RecomputeDate(ctx, req.ParsedDate())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to recompute daily metrics", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"date":              req.Date,
		"workers_processed": processed,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// UpdateWeights godoc
// @Summary      Update scoring weights
// @Description  Replaces the ranking formula weights, both must pass bounds checks
// @Tags         Analytics
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.ScoreWeights
// @Failure      422  {object}  map[string]string
// @Router       /analytics/weights [put]
func (h *Analytics) UpdateWeights(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_weights")
	user := models.UserFromContext(ctx)

	var req dto.WeightsUpdateRequest
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

	weights, err := h.weights.Update(ctx, *req.CoursesWeight, *req.ProfitWeight, user.Name)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to update score weights", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"weights": weights,
		"formula": weights.Formula(),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// GetWeights godoc
// @Summary      Current scoring weights
// @Tags         Analytics
// @Produce      json
// @Success      200  {object}  models.ScoreWeights
// @Router       /analytics/weights [get]
func (h *Analytics) GetWeights(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_weights")

	weights := h.weights.Get()
	response := envelope{
		"weights": weights,
		"formula": weights.Formula(),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// Export godoc
// @Summary      Export a dataset
// @Description  Streams daily metrics, rankings or zone events for a date range as CSV
// @Tags         Analytics
// @Produce      text/csv
// @Param        type        query  string  true   "daily, rankings or zone_events"
// @Param        start_date  query  string  true   "Range start (YYYY-MM-DD)"
// @Param        end_date    query  string  true   "Range end (YYYY-MM-DD)"
// @Param        worker_id   query  string  false  "Restrict to one worker"
// @Success      200  {string}  string
// @Router       /analytics/export [get]
func (h *Analytics) Export(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "export")

	q := r.URL.Query()
	req := export.Request{Type: types.ExportType(q.Get("type"))}

	var err error
	req.From, err = time.Parse(dateLayout, q.Get("start_date"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "start_date must use the YYYY-MM-DD format")
		return
	}
	req.To, err = time.Parse(dateLayout, q.Get("end_date"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "end_date must use the YYYY-MM-DD format")
		return
	}
	if req.To.Before(req.From) {
		errorResponse(w, http.StatusBadRequest, "end_date must not precede start_date")
		return
	}
	if raw := q.Get("worker_id"); raw != "" {
		workerID, err := uuid.Parse(raw)
		if err != nil {
			errorResponse(w, http.StatusBadRequest, "invalid worker uuid format")
			return
		}
		req.WorkerID = &workerID
	}

	table, err := h.exporter.Export(ctx, req)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to export dataset", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s_%s_%s.csv",
			table.Name, req.From.Format(dateLayout), req.To.Format(dateLayout))))

	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write csv header", err)
		return
	}
	for _, row := range table.Rows {
		if err := cw.Write(row); err != nil {
			h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write csv row", err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to flush csv output", err)
	}
}

func (h *Analytics) parseWindow(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, err := time.Parse(dateLayout, r.URL.Query().Get("from"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "from must use the YYYY-MM-DD format")
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(dateLayout, r.URL.Query().Get("to"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "to must use the YYYY-MM-DD format")
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		errorResponse(w, http.StatusBadRequest, "to must not precede from")
		return time.Time{}, time.Time{}, false
	}
	// Zone events carry a time of day, so stretch the end to cover it.
	return from, to.Add(24*time.Hour - time.Nanosecond), true
}
