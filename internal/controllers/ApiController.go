package controllers

import (
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"
	"github.com/spf13/cast"

	"xpd/internal/models"
	"xpd/internal/providers"
	"xpd/internal/services"
)

const maxRequestBodySize = 1 << 20 // 1 MB

const (
	defaultBoardSize  = 10
	maxBoardSize      = 100
	defaultAwardsSize = 50
	maxAwardsSize     = 500
	defaultActivity   = 7
)

type ApiController struct {
	logger   providers.Logger
	accrual  services.AccrualServiceInterface
	rank     services.RankServiceInterface
	settings services.SettingsServiceInterface
	cache    providers.CacheProviderInterface
}

func NewApiController(
	logger providers.Logger,
	accrual services.AccrualServiceInterface,
	rank services.RankServiceInterface,
	settings services.SettingsServiceInterface,
	cache providers.CacheProviderInterface,
) *ApiController {
	return &ApiController{
		logger:   logger,
		accrual:  accrual,
		rank:     rank,
		settings: settings,
		cache:    cache,
	}
}

func (ac *ApiController) writeJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		ac.writeJSON(w, data)
		return
	}

	result, err := compute()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)
	ac.writeJSON(w, gson)
}

// ReceiveEvent ingests one message event. Malformed bodies are the only
// 400; events with bad fields come back 200 with granted=false so the
// sender never retries them.
func (ac *ApiController) ReceiveEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var event models.MessageEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	result, err := ac.accrual.HandleMessage(r.Context(), &event)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ac.writeJSON(w, gson)
}

func (ac *ApiController) GetProfile(w http.ResponseWriter, r *http.Request) {
	guildID := r.URL.Query().Get("g")
	userID := r.URL.Query().Get("u")
	if guildID == "" || userID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	cacheKey := "profile:" + guildID + ":" + userID
	if data, ok := ac.cache.Get(cacheKey); ok {
		ac.writeJSON(w, data)
		return
	}

	view, err := ac.rank.Profile(r.Context(), guildID, userID)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if view == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	gson, err := json.Marshal(view)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ac.cache.Set(cacheKey, gson)
	ac.writeJSON(w, gson)
}

func (ac *ApiController) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	guildID := r.URL.Query().Get("g")
	if guildID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	n := cast.ToInt(r.URL.Query().Get("n"))
	if n <= 0 {
		n = defaultBoardSize
	}
	if n > maxBoardSize {
		n = maxBoardSize
	}

	ac.serveFromCacheOrCompute(w, "board:"+guildID+":"+strconv.Itoa(n), func() (any, error) {
		return ac.rank.Leaderboard(r.Context(), guildID, n)
	})
}

func (ac *ApiController) GetRank(w http.ResponseWriter, r *http.Request) {
	guildID := r.URL.Query().Get("g")
	userID := r.URL.Query().Get("u")
	if guildID == "" || userID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	view, err := ac.rank.Rank(r.Context(), guildID, userID)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if view == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	gson, err := json.Marshal(view)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ac.writeJSON(w, gson)
}

func (ac *ApiController) GetGuilds(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "guilds", func() (any, error) {
		return ac.rank.Guilds(r.Context())
	})
}

func (ac *ApiController) GetRecentAwards(w http.ResponseWriter, r *http.Request) {
	guildID := r.URL.Query().Get("g")
	if guildID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	n := cast.ToInt(r.URL.Query().Get("n"))
	if n <= 0 {
		n = defaultAwardsSize
	}
	if n > maxAwardsSize {
		n = maxAwardsSize
	}

	ac.serveFromCacheOrCompute(w, "awards:"+guildID+":"+strconv.Itoa(n), func() (any, error) {
		return ac.rank.RecentAwards(r.Context(), guildID, n)
	})
}

func (ac *ApiController) GetActivity(w http.ResponseWriter, r *http.Request) {
	guildID := r.URL.Query().Get("g")
	if guildID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	days := cast.ToInt(r.URL.Query().Get("d"))
	if days <= 0 {
		days = defaultActivity
	}

	ac.serveFromCacheOrCompute(w, "activity:"+guildID+":"+strconv.Itoa(days), func() (any, error) {
		return ac.rank.Activity(guildID, days), nil
	})
}

// GetSettings returns the effective settings for a guild. Not cached:
// updates must be visible immediately.
func (ac *ApiController) GetSettings(w http.ResponseWriter, r *http.Request) {
	guildID := r.URL.Query().Get("g")
	if guildID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	settings, err := ac.settings.Get(r.Context(), guildID)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(settings)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ac.writeJSON(w, gson)
}

type settingsRequest struct {
	CooldownSeconds int64 `json:"cooldown_seconds" validate:"min:0|max:604800"`
	Paused          bool  `json:"paused"`
}

func (ac *ApiController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	guildID := r.URL.Query().Get("g")
	if guildID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if v := validate.Struct(&payload); !v.Validate() {
		ac.logger.Debugf(providers.TypePost, "Rejected settings for guild %s: %s", guildID, v.Errors.One())
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	updated, err := ac.settings.Update(r.Context(), &models.GuildSettings{
		GuildID:         guildID,
		CooldownSeconds: payload.CooldownSeconds,
		Paused:          payload.Paused,
	})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(updated)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ac.writeJSON(w, gson)
}
