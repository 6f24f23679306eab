package balldontlie

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtside/internal/entity"
	"github.com/fortuna/courtside/internal/provider"
)

// memoryIDCache is the test double for the Redis-backed id cache.
type memoryIDCache struct {
	ids  map[string]string
	sets int
	gets int
}

func newMemoryIDCache() *memoryIDCache {
	return &memoryIDCache{ids: map[string]string{}}
}

func (m *memoryIDCache) GetPlayerID(_ context.Context, source, name string) (string, bool) {
	m.gets++
	id, ok := m.ids[source+"/"+name]
	return id, ok
}

func (m *memoryIDCache) SetPlayerID(_ context.Context, source, name, id string) {
	m.sets++
	m.ids[source+"/"+name] = id
}

func brunson() *entity.Entity {
	return &entity.Entity{
		CanonicalName:   "Jalen Brunson",
		Kind:            entity.KindPlayer,
		TeamAffiliation: "New York Knicks",
	}
}

func statRows() []map[string]interface{} {
	recent := time.Now().AddDate(0, 0, -2).Format("2006-01-02")
	old := time.Now().AddDate(0, 0, -40).Format("2006-01-02")
	row := func(date string, pts int) map[string]interface{} {
		return map[string]interface{}{
			"player": map[string]interface{}{"id": 666786, "first_name": "Jalen", "last_name": "Brunson"},
			"team":   map[string]interface{}{"id": 20, "full_name": "New York Knicks"},
			"game": map[string]interface{}{
				"id": 1, "date": date + "T00:00:00.000Z",
				"home_team":    map[string]interface{}{"id": 20, "full_name": "New York Knicks"},
				"visitor_team": map[string]interface{}{"id": 22, "full_name": "Orlando Magic"},
			},
			"pts": pts, "reb": 4, "ast": 7, "stl": 2, "blk": 0,
		}
	}
	return []map[string]interface{}{row(recent, 32), row(old, 18)}
}

func newStubServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	searches := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/players", func(w http.ResponseWriter, r *http.Request) {
		searches++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": 666786, "first_name": "Jalen", "last_name": "Brunson"},
				{"id": 12345, "first_name": "Jalen", "last_name": "Green"},
			},
		})
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "666786", r.URL.Query().Get("player_ids[]"))
		json.NewEncoder(w).Encode(map[string]interface{}{"data": statRows()})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &searches
}

func TestFetchPlayerStatsDiscoversAndCachesID(t *testing.T) {
	server, searches := newStubServer(t)
	idCache := newMemoryIDCache()
	adapter := NewAdapter(NewClient(server.URL, "", time.Second), idCache, nil)

	observations, err := adapter.FetchPlayerStats(context.Background(), brunson(), "", 14)
	require.NoError(t, err)

	// Only the row inside the window survives.
	require.Len(t, observations, 1)
	line := observations[0].Payload.(provider.PlayerLine)
	assert.Equal(t, "Jalen Brunson", line.PlayerName)
	assert.Equal(t, 32, line.Points)
	assert.Equal(t, "Orlando Magic", line.Opponent)

	// The discovered id must have been written back.
	assert.Equal(t, 1, *searches)
	assert.Equal(t, "666786", idCache.ids["balldontlie/Jalen Brunson"])
}

func TestFetchPlayerStatsUsesCachedID(t *testing.T) {
	server, searches := newStubServer(t)
	idCache := newMemoryIDCache()
	idCache.ids["balldontlie/Jalen Brunson"] = "666786"
	adapter := NewAdapter(NewClient(server.URL, "", time.Second), idCache, nil)

	_, err := adapter.FetchPlayerStats(context.Background(), brunson(), "", 14)
	require.NoError(t, err)
	assert.Equal(t, 0, *searches)
}

func TestFetchPlayerStatsHintSkipsSearch(t *testing.T) {
	server, searches := newStubServer(t)
	adapter := NewAdapter(NewClient(server.URL, "", time.Second), nil, nil)

	_, err := adapter.FetchPlayerStats(context.Background(), brunson(), "666786", 14)
	require.NoError(t, err)
	assert.Equal(t, 0, *searches)
}

func TestFetchPlayerStatsDropsWrongPlayerRows(t *testing.T) {
	// A stale cached id, or an id minted by another provider, can make the
	// stats endpoint answer with a different player's season. Every row must
	// be dropped rather than served under the subject's name.
	recent := time.Now().AddDate(0, 0, -2).Format("2006-01-02")
	searches := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/players", func(w http.ResponseWriter, r *http.Request) {
		searches++
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{
				"player": map[string]interface{}{"id": 1966, "first_name": "Garrett", "last_name": "Temple"},
				"team":   map[string]interface{}{"id": 28, "full_name": "Toronto Raptors"},
				"game": map[string]interface{}{
					"id": 9, "date": recent + "T00:00:00.000Z",
					"home_team":    map[string]interface{}{"id": 28, "full_name": "Toronto Raptors"},
					"visitor_team": map[string]interface{}{"id": 22, "full_name": "Orlando Magic"},
				},
				"pts": 6, "reb": 2, "ast": 1, "stl": 0, "blk": 0,
			}},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	adapter := NewAdapter(NewClient(server.URL, "", time.Second), nil, nil)

	_, err := adapter.FetchPlayerStats(context.Background(), brunson(), "1966", 14)
	require.Error(t, err)
	fetchErr, ok := err.(*provider.FetchError)
	require.True(t, ok)
	assert.Equal(t, provider.FailEmpty, fetchErr.Reason)
	// The numeric hint was trusted for the fetch, so no search happened.
	assert.Equal(t, 0, searches)
}

func TestFetchPlayerStatsLeagueWideUnavailable(t *testing.T) {
	server, _ := newStubServer(t)
	adapter := NewAdapter(NewClient(server.URL, "", time.Second), nil, nil)

	_, err := adapter.FetchPlayerStats(context.Background(), nil, "", 14)
	require.Error(t, err)
	fetchErr, ok := err.(*provider.FetchError)
	require.True(t, ok)
	assert.Equal(t, provider.FailEmpty, fetchErr.Reason)
}

func TestFetchPlayerStatsRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)
	adapter := NewAdapter(NewClient(server.URL, "", time.Second), nil, nil)

	_, err := adapter.FetchPlayerStats(context.Background(), brunson(), "666786", 14)
	require.Error(t, err)
	fetchErr, ok := err.(*provider.FetchError)
	require.True(t, ok)
	assert.Equal(t, provider.FailRateLimited, fetchErr.Reason)
}

func TestFetchTeamResult(t *testing.T) {
	finalDate := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/games", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("team_ids[]"))
		fmt.Fprintf(w, `{"data": [
			{"id": 1, "date": "%sT00:00:00.000Z", "status": "Final",
			 "home_team": {"id": 20, "full_name": "New York Knicks"},
			 "visitor_team": {"id": 22, "full_name": "Orlando Magic"},
			 "home_team_score": 112, "visitor_team_score": 98}
		]}`, finalDate)
	}))
	t.Cleanup(server.Close)
	adapter := NewAdapter(NewClient(server.URL, "", time.Second), nil, nil)

	subject := &entity.Entity{CanonicalName: "New York Knicks", Kind: entity.KindTeam, Abbreviation: "NYK"}
	obs, err := adapter.FetchTeamResult(context.Background(), subject, 7)
	require.NoError(t, err)

	game := obs.Payload.(provider.GameResult)
	assert.Equal(t, "New York Knicks", game.Winner)
	assert.Equal(t, 112, game.HomeScore)
	assert.Equal(t, "Final", game.Status)
}

func TestFetchUpcomingGame(t *testing.T) {
	today := time.Now().Format("2006-01-02")
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/games", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("team_ids[]"))
		// Tonight's game already went final; tomorrow's fixture carries the
		// tip-off time in its status until it starts.
		fmt.Fprintf(w, `{"data": [
			{"id": 1, "date": "%sT00:00:00.000Z", "status": "Final",
			 "home_team": {"id": 20, "full_name": "New York Knicks"},
			 "visitor_team": {"id": 22, "full_name": "Orlando Magic"},
			 "home_team_score": 112, "visitor_team_score": 98},
			{"id": 2, "date": "%sT00:00:00.000Z", "status": "7:30 PM ET",
			 "home_team": {"id": 2, "full_name": "Boston Celtics"},
			 "visitor_team": {"id": 20, "full_name": "New York Knicks"},
			 "home_team_score": 0, "visitor_team_score": 0}
		]}`, today, tomorrow)
	}))
	t.Cleanup(server.Close)
	adapter := NewAdapter(NewClient(server.URL, "", time.Second), nil, nil)

	subject := &entity.Entity{CanonicalName: "New York Knicks", Kind: entity.KindTeam, Abbreviation: "NYK"}
	obs, err := adapter.FetchUpcomingGame(context.Background(), subject, 7)
	require.NoError(t, err)

	game := obs.Payload.(provider.GameResult)
	assert.Equal(t, "Boston Celtics", game.HomeTeam)
	assert.Equal(t, "7:30 PM ET", game.Status)
	assert.Equal(t, tomorrow, obs.ObservedAt.Format("2006-01-02"))
}

func TestCurrentSeason(t *testing.T) {
	assert.Equal(t, 2024, currentSeason(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2025, currentSeason(time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)))
}
