package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xpd/internal/controllers"
	"xpd/internal/models"
	"xpd/internal/providers"
	"xpd/internal/structures"
)

// --- minimal mocks for routes test ---

type routeTestLogger struct{}

func (m *routeTestLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *routeTestLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *routeTestLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *routeTestLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *routeTestLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *routeTestLogger) Close()                                                  {}

type routeTestCache struct{}

func (m *routeTestCache) Get(_ string) ([]byte, bool) { return nil, false }
func (m *routeTestCache) Set(_ string, _ []byte)      {}

type routeTestAccrual struct{}

func (m *routeTestAccrual) HandleMessage(_ context.Context, _ *models.MessageEvent) (*models.AccrualResult, error) {
	return &models.AccrualResult{Granted: true}, nil
}

type routeTestRank struct{}

func (m *routeTestRank) Profile(_ context.Context, _, _ string) (*models.ProfileView, error) {
	return nil, nil
}

func (m *routeTestRank) Leaderboard(_ context.Context, guildID string, _ int) (*models.LeaderboardView, error) {
	return &models.LeaderboardView{GuildID: guildID}, nil
}

func (m *routeTestRank) Rank(_ context.Context, _, _ string) (*models.RankView, error) {
	return nil, nil
}

func (m *routeTestRank) Guilds(_ context.Context) ([]string, error) { return nil, nil }

func (m *routeTestRank) RecentAwards(_ context.Context, _ string, _ int) ([]*models.Award, error) {
	return nil, nil
}

func (m *routeTestRank) Activity(guildID string, days int) *models.ActivityView {
	return &models.ActivityView{GuildID: guildID, Days: days}
}

type routeTestSettings struct{}

func (m *routeTestSettings) Effective(_ context.Context, guildID string) models.GuildSettings {
	return models.GuildSettings{GuildID: guildID}
}

func (m *routeTestSettings) Get(_ context.Context, guildID string) (*models.GuildSettings, error) {
	return &models.GuildSettings{GuildID: guildID, CooldownSeconds: 60}, nil
}

func (m *routeTestSettings) Update(_ context.Context, settings *models.GuildSettings) (*models.GuildSettings, error) {
	return settings, nil
}

func (m *routeTestSettings) MaxCooldown() time.Duration { return time.Minute }

func newRouteTestController() *controllers.ApiController {
	return controllers.NewApiController(&routeTestLogger{}, &routeTestAccrual{}, &routeTestRank{}, &routeTestSettings{}, &routeTestCache{})
}

func TestInitRoutes_RegistersAllRoutes(t *testing.T) {
	router := InitRoutes(newRouteTestController(), &structures.Config{})
	routes := router.GetRoutes()

	// /settings carries both GET and POST on one route.
	require.Len(t, routes, 8)

	urls := make([]string, len(routes))
	for i, r := range routes {
		urls[i] = r.Url
	}

	assert.Contains(t, urls, "/events")
	assert.Contains(t, urls, "/profile")
	assert.Contains(t, urls, "/leaderboard")
	assert.Contains(t, urls, "/rank")
	assert.Contains(t, urls, "/guilds")
	assert.Contains(t, urls, "/awards")
	assert.Contains(t, urls, "/activity")
	assert.Contains(t, urls, "/settings")
}

func TestInitRoutes_MethodEnforcement(t *testing.T) {
	router := InitRoutes(newRouteTestController(), &structures.Config{})

	mux := http.NewServeMux()
	for _, r := range router.GetRoutes() {
		mux.Handle(r.Url, r.Handler)
	}

	// POST-only ingest rejects GET
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	// GET-only read rejects POST
	req = httptest.NewRequest(http.MethodPost, "/leaderboard", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestInitRoutes_SettingsSharedPath(t *testing.T) {
	router := InitRoutes(newRouteTestController(), &structures.Config{})

	mux := http.NewServeMux()
	for _, r := range router.GetRoutes() {
		mux.Handle(r.Url, r.Handler)
	}

	req := httptest.NewRequest(http.MethodGet, "/settings?g=g1", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/settings?g=g1", strings.NewReader(`{"cooldown_seconds":90}`))
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodDelete, "/settings?g=g1", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
