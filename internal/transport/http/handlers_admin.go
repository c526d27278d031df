package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"vouch/internal/platform/middleware"
	"vouch/internal/replay"
	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/platform/sentinel"
)

//go:generate mockgen -source=handlers_admin.go -destination=mocks/admin-mocks.go -package=mocks Recomputer

// Recomputer runs one replay and reports what it did.
type Recomputer interface {
	Run(ctx context.Context, scope domain.Cohort, dryRun bool) (replay.Report, error)
}

// AdminHandler serves the recompute endpoint. Steward only; the engine
// serializes concurrent attempts via its durable lock.
type AdminHandler struct {
	logger *slog.Logger
	engine Recomputer
}

func NewAdminHandler(engine Recomputer, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{logger: logger, engine: engine}
}

func (h *AdminHandler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req recomputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	h.logger.InfoContext(ctx, "recompute requested",
		"cohort", req.Cohort,
		"dry_run", req.DryRun,
		"subject", middleware.GetSubjectID(ctx),
		"request_id", middleware.GetRequestID(ctx),
	)

	report, err := h.engine.Run(ctx, domain.Cohort(req.Cohort), req.DryRun)
	if err != nil {
		if errors.Is(err, sentinel.ErrReplayActive) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "a replay is already running"))
			return
		}
		h.logger.ErrorContext(ctx, "recompute failed",
			"cohort", req.Cohort,
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "recompute failed"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, recomputeResponse{
		RunID:          report.RunID.String(),
		Scope:          report.Scope,
		DryRun:         report.DryRun,
		EventsReplayed: report.EventsReplayed,
		AlgoVersion:    report.AlgoVersion,
		EmittedEventID: report.EmittedEventID.String(),
	})
}
