package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/omarshaarawi/legacybot/internal/analytics/drafts"
	"github.com/omarshaarawi/legacybot/internal/analytics/grade"
	"github.com/omarshaarawi/legacybot/internal/analytics/lineage"
	"github.com/omarshaarawi/legacybot/internal/analytics/records"
	"github.com/omarshaarawi/legacybot/internal/analytics/trades"
	"github.com/omarshaarawi/legacybot/internal/analytics/trajectory"
	"github.com/omarshaarawi/legacybot/internal/config"
	"github.com/omarshaarawi/legacybot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	err   error
	calls []string
}

func (f *fakeHistory) GetLineages(_ context.Context, username string) (service.User, []lineage.Lineage, error) {
	f.calls = append(f.calls, "lineages")
	if f.err != nil {
		return service.User{}, nil, f.err
	}
	return service.User{UserID: "u1", Username: username, DisplayName: "Alice"},
		[]lineage.Lineage{{Name: "Dynasty League", RootLeagueID: "L23", Seasons: []lineage.SeasonRef{{LeagueID: "L23", Season: 2023}}}}, nil
}

func (f *fakeHistory) GetOverview(_ context.Context, _, name string) (*service.Overview, error) {
	f.calls = append(f.calls, "overview:"+name)
	return &service.Overview{League: name}, f.err
}

func (f *fakeHistory) GetRecords(context.Context, string, string) (records.Book, error) {
	f.calls = append(f.calls, "records")
	return records.Book{}, f.err
}

func (f *fakeHistory) GetLuck(context.Context, string, string) (*service.LuckReport, error) {
	f.calls = append(f.calls, "luck")
	return &service.LuckReport{}, f.err
}

func (f *fakeHistory) GetTrades(context.Context, string, string) (*service.TradeReport, error) {
	f.calls = append(f.calls, "trades")
	band := grade.Default.Grade(10)
	return &service.TradeReport{
		Valued:   true,
		Managers: []trades.ManagerSummary{{UserID: "u1", Name: "Alice", Valued: true, Grade: &band}},
	}, f.err
}

func (f *fakeHistory) GetDrafts(context.Context, string, string) (drafts.LineageDrafts, error) {
	f.calls = append(f.calls, "drafts")
	return drafts.LineageDrafts{}, f.err
}

func (f *fakeHistory) GetTrajectory(context.Context, string, string) ([]trajectory.Trajectory, error) {
	f.calls = append(f.calls, "trajectory")
	return []trajectory.Trajectory{}, f.err
}

func (f *fakeHistory) GetOutlook(context.Context, string, string) (*service.OutlookReport, error) {
	f.calls = append(f.calls, "outlook")
	return &service.OutlookReport{}, f.err
}

func (f *fakeHistory) GetWeeklyRecap(context.Context, string, string) (*service.WeeklyRecap, error) {
	f.calls = append(f.calls, "recap")
	return &service.WeeklyRecap{}, f.err
}

func newTestServer(h History) *Server {
	return New(config.Server{Mode: gin.TestMode}, h)
}

func get(t *testing.T, s *Server, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeHistory{})
	rec := get(t, s, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = get(t, s, "/healthz", http.Header{requestIDHeader: {"abc"}})
	assert.Equal(t, "abc", rec.Header().Get(requestIDHeader))
}

func TestLineages(t *testing.T) {
	s := newTestServer(&fakeHistory{})
	rec := get(t, s, "/users/alice/lineages", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		User     service.User      `json:"user"`
		Lineages []lineage.Lineage `json:"lineages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alice", body.User.Username)
	require.Len(t, body.Lineages, 1)
	assert.Equal(t, "L23", body.Lineages[0].RootLeagueID)

	rec = get(t, s, "/users/alice/lineages?format=markdown", nil)
	assert.Contains(t, rec.Body.String(), "Dynasty League (2023)")
}

func TestSectionsAreLazy(t *testing.T) {
	for _, name := range []string{"records", "luck", "trades", "drafts", "trajectory", "outlook", "recap"} {
		t.Run(name, func(t *testing.T) {
			h := &fakeHistory{}
			s := newTestServer(h)
			rec := get(t, s, "/users/alice/lineages/Dynasty/"+name, nil)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, []string{name}, h.calls, "only the requested section is computed")
		})
	}
}

func TestLineageNameIsUnescaped(t *testing.T) {
	h := &fakeHistory{}
	s := newTestServer(h)
	rec := get(t, s, "/users/alice/lineages/Dynasty%20League/overview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"overview:Dynasty League"}, h.calls)
}

func TestTradesJSONIncludesGrade(t *testing.T) {
	s := newTestServer(&fakeHistory{})
	rec := get(t, s, "/users/alice/lineages/Dynasty/trades", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"label":"F"`)

	rec = get(t, s, "/users/alice/lineages/Dynasty/trades?format=markdown", nil)
	assert.Contains(t, rec.Body.String(), "Alice: F")
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("bob: %w", service.ErrUserNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", service.ErrLineageNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: timeout", service.ErrUpstreamUnavailable), http.StatusBadGateway},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			s := newTestServer(&fakeHistory{err: tt.err})
			rec := get(t, s, "/users/bob/lineages/Dynasty/records", http.Header{requestIDHeader: {"req-1"}})
			assert.Equal(t, tt.code, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, "req-1", body.RequestID)
			assert.Equal(t, tt.err.Error(), body.Message)
		})
	}
}
