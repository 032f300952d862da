package internal

import (
	"net/http"

	"xpd/internal/controllers"
	"xpd/internal/providers"
	"xpd/internal/structures"
)

func InitRoutes(apiController *controllers.ApiController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/events", http.HandlerFunc(apiController.ReceiveEvent))
	routers.Get("/profile", http.HandlerFunc(apiController.GetProfile))
	routers.Get("/leaderboard", http.HandlerFunc(apiController.GetLeaderboard))
	routers.Get("/rank", http.HandlerFunc(apiController.GetRank))
	routers.Get("/guilds", http.HandlerFunc(apiController.GetGuilds))
	routers.Get("/awards", http.HandlerFunc(apiController.GetRecentAwards))
	routers.Get("/activity", http.HandlerFunc(apiController.GetActivity))
	routers.Get("/settings", http.HandlerFunc(apiController.GetSettings))
	routers.Post("/settings", http.HandlerFunc(apiController.UpdateSettings))
	return routers
}
