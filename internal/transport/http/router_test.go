package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/bus"
	eventstore "vouch/internal/event/store"
	"vouch/internal/insights"
	jwttoken "vouch/internal/jwt_token"
	"vouch/internal/outbox"
	"vouch/internal/processed"
	"vouch/internal/replay"
	"vouch/internal/trust/models"
	trustservice "vouch/internal/trust/service"
	"vouch/internal/trust/store/history"
	"vouch/internal/trust/store/node"
	"vouch/pkg/domain"
	txrunner "vouch/pkg/platform/tx"
)

const (
	testInternalToken = "internal-secret"
	testInsightToken  = "insight-secret"
)

type env struct {
	router http.Handler
	jwt    *jwttoken.JWTService
	nodes  *node.MemoryStore
}

func newEnv(t *testing.T, production bool) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	nodes := node.NewMemory()
	hist := history.NewMemory()
	events := eventstore.NewMemory()
	proc := processed.NewMemory()

	trust := trustservice.New(nodes, hist, trustservice.DefaultWeights(), logger)
	agg := insights.NewService(insights.NewMemory(), 2, nil)

	emitter := outbox.NewEmitter(bus.NewMemoryPublisher(), outbox.NewMemory(), "vouch.lifecycle", logger)
	engine := replay.NewEngine(
		replay.NewMemory(), txrunner.PassthroughRunner{}, events, nodes, hist, proc,
		trust, agg, emitter, nil, logger,
	)

	jwtSvc := jwttoken.NewJWTService("test-signing-key", "vouch", "vouch-api")
	router := NewRouter(
		NewTrustHandler(trust, logger),
		NewAdminHandler(engine, logger),
		NewInsightsHandler(agg, logger),
		RouterConfig{
			JWTValidator:  jwttoken.NewMiddlewareAdapter(jwtSvc),
			InternalToken: testInternalToken,
			InsightToken:  testInsightToken,
			Production:    production,
		},
		nil,
		logger,
	)
	return &env{router: router, jwt: jwtSvc, nodes: nodes}
}

func (e *env) bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := e.jwt.GenerateAccessToken("subject-1", role, time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func (e *env) seedNode(t *testing.T, identity domain.IdentityID, cohort domain.Cohort, score, volatility float64) {
	t.Helper()
	require.NoError(t, e.nodes.Upsert(context.Background(), &models.Node{
		IdentityID: identity,
		Cohort:     cohort,
		Score:      score,
		Volatility: volatility,
		ComputedAt: time.Now().UTC(),
	}))
}

func newIdentity(t *testing.T) domain.IdentityID {
	t.Helper()
	id, err := domain.ParseIdentityID(uuid.New().String())
	require.NoError(t, err)
	return id
}

func do(e *env, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestIdentityView(t *testing.T) {
	e := newEnv(t, false)
	identity := newIdentity(t)
	e.seedNode(t, identity, "gen-z", 12.5, 0)

	t.Run("requires token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/trust/identities/"+identity.String(), nil)
		assert.Equal(t, http.StatusUnauthorized, do(e, req).Code)
	})

	t.Run("requires steward role", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/trust/identities/"+identity.String(), nil)
		req.Header.Set("Authorization", e.bearer(t, "member"))
		assert.Equal(t, http.StatusForbidden, do(e, req).Code)
	})

	t.Run("returns nodes", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/trust/identities/"+identity.String(), nil)
		req.Header.Set("Authorization", e.bearer(t, "steward"))
		w := do(e, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp identityViewResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Nodes, 1)
		assert.Equal(t, "gen-z", resp.Nodes[0].Cohort)
		assert.Equal(t, 12.5, resp.Nodes[0].Score)
	})

	t.Run("404 for unknown identity", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/trust/identities/"+uuid.NewString(), nil)
		req.Header.Set("Authorization", e.bearer(t, "steward"))
		assert.Equal(t, http.StatusNotFound, do(e, req).Code)
	})

	t.Run("400 for malformed id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/trust/identities/not-a-uuid", nil)
		req.Header.Set("Authorization", e.bearer(t, "steward"))
		assert.Equal(t, http.StatusBadRequest, do(e, req).Code)
	})
}

func TestVolatile(t *testing.T) {
	e := newEnv(t, false)
	calm := newIdentity(t)
	jumpy := newIdentity(t)
	e.seedNode(t, calm, "gen-z", 1, 0.5)
	e.seedNode(t, jumpy, "gen-z", 1, 9.5)

	req := httptest.NewRequest("GET", "/trust/volatile?threshold=5", nil)
	req.Header.Set("Authorization", e.bearer(t, "steward"))
	w := do(e, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp volatileResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Nodes, 1)
	assert.Equal(t, jumpy.String(), resp.Nodes[0].IdentityID)
}

func TestCredibilityBatch(t *testing.T) {
	e := newEnv(t, false)
	identity := newIdentity(t)
	e.seedNode(t, identity, "gen-z", 3, 0)
	e.seedNode(t, identity, "boomer", 4, 0)

	body := func(ids []string) *bytes.Reader {
		raw, _ := json.Marshal(credibilityRequest{IdentityIDs: ids})
		return bytes.NewReader(raw)
	}

	t.Run("requires internal token", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/internal/credibility", body([]string{identity.String()}))
		assert.Equal(t, http.StatusUnauthorized, do(e, req).Code)
	})

	t.Run("sums scores across cohorts", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/internal/credibility", body([]string{identity.String()}))
		req.Header.Set("X-Internal-Token", testInternalToken)
		w := do(e, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp credibilityResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 7.0, resp.Scores[identity.String()])
	})

	t.Run("rejects oversized batch", func(t *testing.T) {
		ids := make([]string, maxBatchSize+1)
		for i := range ids {
			ids[i] = uuid.NewString()
		}
		req := httptest.NewRequest("POST", "/internal/credibility", body(ids))
		req.Header.Set("X-Internal-Token", testInternalToken)
		assert.Equal(t, http.StatusBadRequest, do(e, req).Code)
	})
}

func TestRecompute(t *testing.T) {
	e := newEnv(t, false)

	raw, err := json.Marshal(recomputeRequest{DryRun: true})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/admin/recompute", bytes.NewReader(raw))
	req.Header.Set("Authorization", e.bearer(t, "steward"))
	w := do(e, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp recomputeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.DryRun)
	assert.Equal(t, replay.ScopeAll, resp.Scope)
	assert.NotEmpty(t, resp.RunID)
	assert.NotEmpty(t, resp.EmittedEventID)
}

func TestInsightsAuth(t *testing.T) {
	t.Run("open outside production", func(t *testing.T) {
		e := newEnv(t, false)
		req := httptest.NewRequest("GET", "/insights/heatmap", nil)
		assert.Equal(t, http.StatusOK, do(e, req).Code)
	})

	t.Run("credential enforced in production", func(t *testing.T) {
		e := newEnv(t, true)
		req := httptest.NewRequest("GET", "/insights/heatmap", nil)
		assert.Equal(t, http.StatusUnauthorized, do(e, req).Code)

		req = httptest.NewRequest("GET", "/insights/heatmap", nil)
		req.Header.Set("X-Insight-Token", testInsightToken)
		assert.Equal(t, http.StatusOK, do(e, req).Code)
	})
}

func TestInsightsParams(t *testing.T) {
	e := newEnv(t, false)

	req := httptest.NewRequest("GET", "/insights/divergence?window=0", nil)
	assert.Equal(t, http.StatusBadRequest, do(e, req).Code)

	req = httptest.NewRequest("GET", "/insights/event-impact?window=48&min_k=10", nil)
	assert.Equal(t, http.StatusOK, do(e, req).Code)
}
