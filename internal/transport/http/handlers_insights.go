package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"vouch/internal/insights"
	"vouch/internal/platform/middleware"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
)

const (
	defaultWindowDays  = 7
	defaultWindowHours = 48
	maxWindowDays      = 90
	maxWindowHours     = 24 * 90
)

//go:generate mockgen -source=handlers_insights.go -destination=mocks/insights-mocks.go -package=mocks InsightsService

// InsightsService is the k-gated rollup read surface.
type InsightsService interface {
	MinK() int
	Divergence(ctx context.Context, now time.Time, windowDays, minK int) ([]insights.ActivityRow, error)
	Heatmap(ctx context.Context, now time.Time, windowDays, minK int) ([]insights.HeatmapCell, error)
	TopicVolatility(ctx context.Context, now time.Time, windowDays, minK int) ([]insights.VolatilityRow, error)
	WindowImpact(ctx context.Context, now time.Time, windowHours, minK int) ([]insights.WindowRow, error)
}

// InsightsHandler serves the anonymized rollup endpoints. Every response is
// already k-gated by the service; handlers only parse the window and the
// optional min_k override (which can raise the floor, never lower it).
type InsightsHandler struct {
	logger   *slog.Logger
	insights InsightsService
}

func NewInsightsHandler(svc InsightsService, logger *slog.Logger) *InsightsHandler {
	return &InsightsHandler{logger: logger, insights: svc}
}

func (h *InsightsHandler) handleDivergence(w http.ResponseWriter, r *http.Request) {
	windowDays, minK, ok := h.params(w, r, defaultWindowDays, maxWindowDays)
	if !ok {
		return
	}
	rows, err := h.insights.Divergence(r.Context(), time.Now().UTC(), windowDays, minK)
	h.respond(w, r, map[string]any{"window_days": windowDays, "rows": rows}, err)
}

func (h *InsightsHandler) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	windowDays, minK, ok := h.params(w, r, defaultWindowDays, maxWindowDays)
	if !ok {
		return
	}
	cells, err := h.insights.Heatmap(r.Context(), time.Now().UTC(), windowDays, minK)
	h.respond(w, r, map[string]any{"window_days": windowDays, "cells": cells}, err)
}

func (h *InsightsHandler) handleTopicVolatility(w http.ResponseWriter, r *http.Request) {
	windowDays, minK, ok := h.params(w, r, defaultWindowDays, maxWindowDays)
	if !ok {
		return
	}
	rows, err := h.insights.TopicVolatility(r.Context(), time.Now().UTC(), windowDays, minK)
	h.respond(w, r, map[string]any{"window_days": windowDays, "rows": rows}, err)
}

func (h *InsightsHandler) handleWindowImpact(w http.ResponseWriter, r *http.Request) {
	windowHours, minK, ok := h.params(w, r, defaultWindowHours, maxWindowHours)
	if !ok {
		return
	}
	rows, err := h.insights.WindowImpact(r.Context(), time.Now().UTC(), windowHours, minK)
	h.respond(w, r, map[string]any{"window_hours": windowHours, "rows": rows}, err)
}

// params parses ?window= and ?min_k=. A min_k below the configured floor is
// not an error; the service clamps it up.
func (h *InsightsHandler) params(w http.ResponseWriter, r *http.Request, def, max int) (window, minK int, ok bool) {
	window = def
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > max {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput, "window must be between 1 and %d", max))
			return 0, 0, false
		}
		window = parsed
	}
	if raw := r.URL.Query().Get("min_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "min_k must be a non-negative integer"))
			return 0, 0, false
		}
		minK = parsed
	}
	return window, minK, true
}

func (h *InsightsHandler) respond(w http.ResponseWriter, r *http.Request, body map[string]any, err error) {
	if err != nil {
		h.logger.ErrorContext(r.Context(), "insight query failed",
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "insight query failed"))
		return
	}
	body["min_k"] = h.insights.MinK()
	httputil.WriteJSON(w, http.StatusOK, body)
}
