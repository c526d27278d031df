package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vouch/internal/replay"
	"vouch/internal/transport/http/mocks"
	trustservice "vouch/internal/trust/service"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// TrustHandlerSuite covers the error paths the full-router tests do not
// reach: service-layer failures must render the opaque internal envelope.
type TrustHandlerSuite struct {
	suite.Suite
}

func TestTrustHandlerSuite(t *testing.T) {
	suite.Run(t, new(TrustHandlerSuite))
}

func (s *TrustHandlerSuite) newHandler(t *testing.T) (*mocks.MockTrustService, chi.Router) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockTrustService(ctrl)
	handler := NewTrustHandler(mockService, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Get("/trust/identities/{id}", handler.handleIdentityView)
	r.Get("/trust/volatile", handler.handleVolatile)
	r.Post("/internal/credibility", handler.handleCredibilityBatch)
	return mockService, r
}

func (s *TrustHandlerSuite) decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func (s *TrustHandlerSuite) TestHandler_IdentityView() {
	s.T().Run("store failure - 500 without detail", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		identity := newIdentity(t)
		mockService.EXPECT().View(gomock.Any(), identity).Return(trustservice.IdentityView{}, errors.New("pq: connection refused"))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trust/identities/"+identity.String(), nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := s.decodeError(t, rec)
		assert.Equal(t, "internal_error", body["error"])
		assert.NotContains(t, body, "error_description")
	})

	s.T().Run("wrapped not-found - 404", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		identity := newIdentity(t)
		wrapped := errors.Join(errors.New("list trust nodes"), sentinel.ErrNotFound)
		mockService.EXPECT().View(gomock.Any(), identity).Return(trustservice.IdentityView{}, wrapped)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trust/identities/"+identity.String(), nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func (s *TrustHandlerSuite) TestHandler_Volatile() {
	s.T().Run("store failure - 500", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Volatile(gomock.Any(), 5.0).Return(nil, errors.New("pq: timeout"))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trust/volatile", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal_error", s.decodeError(t, rec)["error"])
	})
}

func (s *TrustHandlerSuite) TestHandler_CredibilityBatch() {
	s.T().Run("store failure - 500", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		identity := newIdentity(t)
		mockService.EXPECT().Scores(gomock.Any(), []domain.IdentityID{identity}).Return(nil, errors.New("pq: timeout"))

		rec := httptest.NewRecorder()
		body := `{"identity_ids":["` + identity.String() + `"]}`
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/internal/credibility", strings.NewReader(body)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	s.T().Run("malformed body - 400", func(t *testing.T) {
		_, router := s.newHandler(t)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/internal/credibility", strings.NewReader("{")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

type AdminHandlerSuite struct {
	suite.Suite
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerSuite))
}

func (s *AdminHandlerSuite) newHandler(t *testing.T) (*mocks.MockRecomputer, chi.Router) {
	ctrl := gomock.NewController(t)
	mockEngine := mocks.NewMockRecomputer(ctrl)
	handler := NewAdminHandler(mockEngine, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Post("/admin/recompute", handler.handleRecompute)
	return mockEngine, r
}

func (s *AdminHandlerSuite) TestHandler_Recompute() {
	s.T().Run("replay already running - 409", func(t *testing.T) {
		mockEngine, router := s.newHandler(t)
		mockEngine.EXPECT().Run(gomock.Any(), domain.Cohort(""), false).
			Return(replay.Report{}, sentinel.ErrReplayActive)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/recompute", strings.NewReader("{}")))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	s.T().Run("engine failure - 500", func(t *testing.T) {
		mockEngine, router := s.newHandler(t)
		mockEngine.EXPECT().Run(gomock.Any(), domain.Cohort("gen-z"), true).
			Return(replay.Report{}, errors.New("event log unreadable"))

		rec := httptest.NewRecorder()
		body := `{"cohort":"gen-z","dry_run":true}`
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/recompute", strings.NewReader(body)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
