package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
	"github.com/johnik1293-hash/baby-tracker-bot/internal/timeline"
)

func testServer(t *testing.T) *http.Server {
	t.Helper()
	agg := timeline.New(zap.NewNop())
	now := time.Now().UTC()
	agg.Register(domain.KindFeeding, timeline.SourceFunc(
		func(_ context.Context, scope domain.Scope, w domain.Window, _ int) ([]domain.CareEvent, error) {
			if scope.ChildID != 7 {
				return nil, nil
			}
			ev := domain.CareEvent{Kind: domain.KindFeeding, ChildID: 7, OccurredAt: now.Add(-time.Hour)}
			if !w.Contains(ev.OccurredAt) {
				return nil, nil
			}
			return []domain.CareEvent{ev}, nil
		}), timeline.RenderFeeding)
	return NewServer(":0", zap.NewNop(), agg)
}

func TestTimelineEndpoint(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/timeline?child=7&hours=24", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Entries []timeline.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Entries, 1)
	require.Equal(t, domain.KindFeeding, body.Entries[0].Kind)
}

func TestTimelineEndpoint_EmptyScopeIsOKNotError(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/timeline?child=99", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"entries":[]}`, rec.Body.String())
}

func TestTimelineEndpoint_Validation(t *testing.T) {
	srv := testServer(t)

	for _, target := range []string{
		"/api/timeline",
		"/api/timeline?child=0",
		"/api/timeline?child=7&hours=0",
		"/api/timeline?child=7&hours=999",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
