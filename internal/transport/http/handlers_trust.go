package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vouch/internal/platform/middleware"
	"vouch/internal/trust/models"
	trustservice "vouch/internal/trust/service"
	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/platform/sentinel"
)

// maxBatchSize bounds the internal credibility lookup.
const maxBatchSize = 200

// defaultVolatileThreshold flags nodes when the caller names none.
const defaultVolatileThreshold = 5.0

//go:generate mockgen -source=handlers_trust.go -destination=mocks/trust-mocks.go -package=mocks TrustService

// TrustService is the read surface the trust handlers delegate to.
type TrustService interface {
	View(ctx context.Context, identity domain.IdentityID) (trustservice.IdentityView, error)
	Volatile(ctx context.Context, threshold float64) ([]*models.Node, error)
	Scores(ctx context.Context, ids []domain.IdentityID) (map[domain.IdentityID]float64, error)
}

// TrustHandler serves the per-identity trust reads and the batch internal
// lookup.
type TrustHandler struct {
	logger *slog.Logger
	trust  TrustService
}

func NewTrustHandler(trust TrustService, logger *slog.Logger) *TrustHandler {
	return &TrustHandler{logger: logger, trust: trust}
}

// handleIdentityView returns all cohort nodes plus recent history for one
// identity. Steward only.
func (h *TrustHandler) handleIdentityView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := domain.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid identity id"))
		return
	}

	view, err := h.trust.View(ctx, identity)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "identity has no trust nodes"))
			return
		}
		h.logger.ErrorContext(ctx, "identity view failed",
			"identity_id", identity.String(),
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "trust lookup failed"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, identityViewResponse{
		IdentityID: identity.String(),
		Nodes:      toNodeResponses(view.Nodes),
		History:    toHistoryResponses(view.History),
	})
}

// handleVolatile lists nodes whose volatility exceeds ?threshold=. Steward
// only.
func (h *TrustHandler) handleVolatile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	threshold := defaultVolatileThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "threshold must be a non-negative number"))
			return
		}
		threshold = parsed
	}

	nodes, err := h.trust.Volatile(ctx, threshold)
	if err != nil {
		h.logger.ErrorContext(ctx, "volatile listing failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "trust lookup failed"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, volatileResponse{
		Threshold: threshold,
		Nodes:     toNodeResponses(nodes),
	})
}

// handleCredibilityBatch resolves up to maxBatchSize identities to their
// current scores. Internal-service credential only.
func (h *TrustHandler) handleCredibilityBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if len(req.IdentityIDs) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "identity_ids is required"))
		return
	}
	if len(req.IdentityIDs) > maxBatchSize {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput, "at most %d identity_ids per request", maxBatchSize))
		return
	}

	ids := make([]domain.IdentityID, 0, len(req.IdentityIDs))
	for _, raw := range req.IdentityIDs {
		id, err := domain.ParseIdentityID(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput, "invalid identity id %q", raw))
			return
		}
		ids = append(ids, id)
	}

	scores, err := h.trust.Scores(ctx, ids)
	if err != nil {
		h.logger.ErrorContext(ctx, "batch credibility lookup failed",
			"count", len(ids),
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "trust lookup failed"))
		return
	}

	out := make(map[string]float64, len(scores))
	for id, score := range scores {
		out[id.String()] = score
	}
	httputil.WriteJSON(w, http.StatusOK, credibilityResponse{Scores: out})
}
