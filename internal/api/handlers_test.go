package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/timetracker/internal/auth"
	"example.com/timetracker/internal/domain"
	"example.com/timetracker/internal/ledger"
	"example.com/timetracker/internal/remote"
)

const testDay = "2026-08-28"

func newTestHandler() (*Handler, *remote.InMemoryStore) {
	store := remote.NewInMemoryStore()
	sessions := ledger.NewSessionManager(func() *ledger.Ledger {
		return ledger.New(store, nil)
	})
	return NewHandler(sessions), store
}

func withClaims(r *http.Request, scopes ...string) *http.Request {
	claims := &auth.Claims{
		Subject:   "user-1",
		Scopes:    make(map[string]struct{}, len(scopes)),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	for _, scope := range scopes {
		claims.Scopes[scope] = struct{}{}
	}
	return r.WithContext(auth.WithClaims(r.Context(), claims))
}

func seedActivity(t *testing.T, store *remote.InMemoryStore, name, category string, duration int, createdAt int64) string {
	t.Helper()
	id, err := store.Create(context.Background(), domain.Scope{UserID: "user-1", Day: testDay}, domain.Activity{
		Name:        name,
		Category:    category,
		DurationMin: duration,
		CreatedAt:   createdAt,
	})
	require.NoError(t, err)
	return id
}

func TestDayViewReturnsActivitiesAndTotals(t *testing.T) {
	handler, store := newTestHandler()
	seedActivity(t, store, "Sleep", "Rest", 480, 100)
	seedActivity(t, store, "Work", "Work", 500, 200)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/v1/day?date="+testDay, nil), auth.ScopeTrackerRead)
	rr := httptest.NewRecorder()
	handler.day(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var view DayView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Equal(t, "user-1", view.UserID)
	require.Equal(t, testDay, view.Date)
	require.False(t, view.Provisional)
	require.Len(t, view.Activities, 2)
	require.Equal(t, "Sleep", view.Activities[0].Name)
	require.Equal(t, 980, view.TotalMinutes)
	require.Equal(t, 460, view.RemainingMinutes)
}

func TestDayRequiresReadScope(t *testing.T) {
	handler, _ := newTestHandler()

	req := withClaims(httptest.NewRequest(http.MethodGet, "/v1/day?date="+testDay, nil))
	rr := httptest.NewRecorder()
	handler.day(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDayRejectsInvalidDate(t *testing.T) {
	handler, _ := newTestHandler()

	req := withClaims(httptest.NewRequest(http.MethodGet, "/v1/day?date=28-08-2026", nil), auth.ScopeTrackerRead)
	rr := httptest.NewRecorder()
	handler.day(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateActivity(t *testing.T) {
	handler, store := newTestHandler()

	body := strings.NewReader(`{"date":"` + testDay + `","name":"Sleep","category":"Rest","duration_min":480}`)
	req := withClaims(httptest.NewRequest(http.MethodPost, "/v1/activities", body), auth.ScopeTrackerWrite)
	rr := httptest.NewRecorder()
	handler.activities(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var view ActivityView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.NotEmpty(t, view.ID)
	require.Equal(t, "Sleep", view.Name)
	require.Equal(t, 480, view.DurationMin)

	stored, err := store.List(context.Background(), domain.Scope{UserID: "user-1", Day: testDay})
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestCreateActivityRejectsOverCap(t *testing.T) {
	handler, store := newTestHandler()
	seedActivity(t, store, "Work", "Work", 500, 100)

	body := strings.NewReader(`{"date":"` + testDay + `","name":"Binge","duration_min":1000}`)
	req := withClaims(httptest.NewRequest(http.MethodPost, "/v1/activities", body), auth.ScopeTrackerWrite)
	rr := httptest.NewRecorder()
	handler.activities(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "validation_failed")

	stored, err := store.List(context.Background(), domain.Scope{UserID: "user-1", Day: testDay})
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestCreateActivityRequiresWriteScope(t *testing.T) {
	handler, _ := newTestHandler()

	body := strings.NewReader(`{"name":"Sleep","duration_min":480}`)
	req := withClaims(httptest.NewRequest(http.MethodPost, "/v1/activities", body), auth.ScopeTrackerRead)
	rr := httptest.NewRecorder()
	handler.activities(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUpdateActivity(t *testing.T) {
	handler, store := newTestHandler()
	id := seedActivity(t, store, "Sleep", "Rest", 480, 100)

	body := strings.NewReader(`{"date":"` + testDay + `","name":"Nap","duration_min":30}`)
	req := withClaims(httptest.NewRequest(http.MethodPatch, "/v1/activities/"+id, body), auth.ScopeTrackerWrite)
	rr := httptest.NewRecorder()
	handler.activityByID(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var view ActivityView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Equal(t, "Nap", view.Name)
	require.Equal(t, 30, view.DurationMin)
}

func TestUpdateMissingActivityIs404(t *testing.T) {
	handler, _ := newTestHandler()

	body := strings.NewReader(`{"date":"` + testDay + `","name":"Nap","duration_min":30}`)
	req := withClaims(httptest.NewRequest(http.MethodPatch, "/v1/activities/nope", body), auth.ScopeTrackerWrite)
	rr := httptest.NewRecorder()
	handler.activityByID(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteActivity(t *testing.T) {
	handler, store := newTestHandler()
	id := seedActivity(t, store, "Sleep", "Rest", 480, 100)

	req := withClaims(httptest.NewRequest(http.MethodDelete, "/v1/activities/"+id+"?date="+testDay, nil), auth.ScopeTrackerWrite)
	rr := httptest.NewRecorder()
	handler.activityByID(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)

	stored, err := store.List(context.Background(), domain.Scope{UserID: "user-1", Day: testDay})
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestDashboard(t *testing.T) {
	handler, store := newTestHandler()
	seedActivity(t, store, "Work", "Work", 500, 100)
	seedActivity(t, store, "Sleep", "Rest", 480, 200)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/v1/dashboard?date="+testDay, nil), auth.ScopeTrackerRead)
	rr := httptest.NewRecorder()
	handler.dashboard(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var view DashboardView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Equal(t, 980, view.TotalMinutes)
	require.Equal(t, 2, view.ActivityCount)
	require.Equal(t, "Work", view.TopCategory)
	require.Equal(t, 500, view.TopCategoryMinutes)
	require.Len(t, view.CategoryTotals, 2)
	require.Len(t, view.Timeline, 2)
}

func TestDashboardEmptyDay(t *testing.T) {
	handler, _ := newTestHandler()

	req := withClaims(httptest.NewRequest(http.MethodGet, "/v1/dashboard?date="+testDay, nil), auth.ScopeTrackerRead)
	rr := httptest.NewRecorder()
	handler.dashboard(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var view DashboardView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Zero(t, view.TotalMinutes)
	require.Zero(t, view.ActivityCount)
	require.Empty(t, view.TopCategory)
}

func TestSignOutEvictsSession(t *testing.T) {
	handler, store := newTestHandler()
	seedActivity(t, store, "Sleep", "Rest", 480, 100)

	// Prime the session.
	req := withClaims(httptest.NewRequest(http.MethodGet, "/v1/day?date="+testDay, nil), auth.ScopeTrackerRead)
	rr := httptest.NewRecorder()
	handler.day(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = withClaims(httptest.NewRequest(http.MethodPost, "/v1/signout", nil), auth.ScopeTrackerRead)
	rr = httptest.NewRecorder()
	handler.signOut(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestMissingClaimsIsUnauthorized(t *testing.T) {
	handler, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/v1/day?date="+testDay, nil)
	rr := httptest.NewRecorder()
	handler.day(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
