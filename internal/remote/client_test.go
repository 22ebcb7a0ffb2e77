package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/timetracker/internal/domain"
)

var testScope = domain.Scope{UserID: "user-1", Day: "2026-08-28"}

func TestListDecodesAndOrdersSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/time/users/user-1/days/2026-08-28/activities", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"b2": {"name": "Work", "category": "Work", "duration": 500, "createdAt": 200},
			"a1": {"name": "Sleep", "category": "Rest", "duration": 480, "createdAt": 100}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/time")
	activities, err := client.List(context.Background(), testScope)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	require.Equal(t, "a1", activities[0].ID)
	require.Equal(t, "Sleep", activities[0].Name)
	require.Equal(t, 480, activities[0].DurationMin)
	require.Equal(t, "b2", activities[1].ID)
}

func TestListEmptyDay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("null"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	activities, err := client.List(context.Background(), testScope)
	require.NoError(t, err)
	require.Empty(t, activities)
}

func TestCreatePostsFieldsAndReturnsID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/users/user-1/days/2026-08-28/activities", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		require.Equal(t, "Sleep", payload["name"])
		require.Equal(t, "Rest", payload["category"])
		require.EqualValues(t, 480, payload["duration"])
		require.EqualValues(t, 1756371600000, payload["createdAt"])

		_, _ = w.Write([]byte(`{"id": "generated-key"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	id, err := client.Create(context.Background(), testScope, domain.Activity{
		Name:        "Sleep",
		Category:    "Rest",
		DurationMin: 480,
		CreatedAt:   1756371600000,
	})
	require.NoError(t, err)
	require.Equal(t, "generated-key", id)
}

func TestUpdatePatchesItemPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/users/user-1/days/2026-08-28/activities/act-1", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "Nap", payload["name"])
		require.EqualValues(t, 30, payload["duration"])

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Update(context.Background(), testScope, "act-1", domain.ActivityUpdate{Name: "Nap", DurationMin: 30})
	require.NoError(t, err)
}

func TestDeleteTargetsItemPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/users/user-1/days/2026-08-28/activities/act-1", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	require.NoError(t, client.Delete(context.Background(), testScope, "act-1"))
}

func TestNonSuccessStatusBecomesTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.List(context.Background(), testScope)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, http.StatusServiceUnavailable, terr.Status)
	require.Equal(t, "list", terr.Op)
}

func TestNetworkFailureBecomesTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewClient(server.URL)
	_, err := client.List(context.Background(), testScope)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	require.NotNil(t, terr.Err)
}

func TestInMemoryStoreRoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, testScope, domain.Activity{Name: "Sleep", Category: "Rest", DurationMin: 480, CreatedAt: 100})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, store.Update(ctx, testScope, id, domain.ActivityUpdate{Name: "Nap", DurationMin: 30}))

	activities, err := store.List(ctx, testScope)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	require.Equal(t, "Nap", activities[0].Name)
	require.Equal(t, 30, activities[0].DurationMin)

	require.NoError(t, store.Delete(ctx, testScope, id))
	activities, err = store.List(ctx, testScope)
	require.NoError(t, err)
	require.Empty(t, activities)

	var terr *TransportError
	err = store.Delete(ctx, testScope, id)
	require.ErrorAs(t, err, &terr)
	require.Equal(t, http.StatusNotFound, terr.Status)
}
