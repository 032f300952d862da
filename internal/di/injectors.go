//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"xpd/internal"
	"xpd/internal/controllers"
	"xpd/internal/ledger"
	"xpd/internal/models"
	"xpd/internal/providers"
	"xpd/internal/services"
	"xpd/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		models.NewProgression,
		models.NewCooldownTracker,
		models.NewActivityTracker,

		ledger.NewZstdCompressor,
		ledger.NewStore,
		ledger.NewFileManager,
		ledger.NewScheduler,

		services.NewSettingsService,
		services.NewAccrualService,
		services.NewRankService,

		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
