package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"xpd/internal/ledger/interfaces"
	"xpd/internal/models"
	"xpd/internal/providers"
	"xpd/internal/services"
	"xpd/internal/structures"
)

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	store       models.LedgerStore
	cooldowns   *models.CooldownTracker
	activity    *models.ActivityTracker
	settings    services.SettingsServiceInterface
	metrics     providers.MetricsProviderInterface
	fileManager *FileManager
	cron        *cron.Cron
	opsMu       sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = cron.New()

	_, _ = s.cron.AddFunc("@every "+s.config.Persistence.SaveInterval.String(), s.persistJob)
	_, _ = s.cron.AddFunc("@every "+s.config.Maintenance.Interval.String(), s.maintenanceJob)

	s.cron.Start()
}

func (s *Scheduler) persistJob() {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	start := time.Now()
	if err := s.save(); err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return
	}
	s.metrics.ObservePersistenceDuration(time.Since(start))
	s.logger.Infof(providers.TypeApp, "Persisted data to file %s", s.config.Persistence.FilePath)
}

// maintenanceJob sweeps expired cooldown windows, ages out activity bitmaps
// and old awards, and refreshes the per-guild member gauges.
func (s *Scheduler) maintenanceJob() {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	ctx := context.Background()
	now := time.Now()

	// Twice the largest interval in play: a swept entry must never cut a
	// live window short.
	retention := 2 * s.settings.MaxCooldown()
	if retention < time.Minute {
		retention = time.Minute
	}
	swept := s.cooldowns.Sweep(now, retention)

	prunedDays := s.activity.Prune(now, s.config.Accrual.ActivityDays)

	prunedAwards := 0
	if ttl := s.config.Accrual.AwardsTTL; ttl > 0 {
		n, err := s.store.PruneAwards(ctx, now.Add(-ttl))
		if err != nil {
			s.logger.Errorf(providers.TypeStore, "Failed to prune awards: %s", err)
		}
		prunedAwards = n
	}

	counts, err := s.store.MemberCounts(ctx)
	if err != nil {
		s.logger.Errorf(providers.TypeStore, "Failed to count members: %s", err)
	}
	for guildID, count := range counts {
		s.metrics.SetMembersTotal(guildID, count)
	}

	s.logger.Debugf(providers.TypeApp, "Maintenance: swept %d cooldowns, pruned %d activity days, pruned %d awards", swept, prunedDays, prunedAwards)
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Restore loads the snapshot and activity files at startup. The snapshot
// import only runs into an empty store, so a populated sqlite database
// always wins over a stale snapshot left behind by the memory driver.
func (s *Scheduler) Restore() error {
	if s.store.Stats().Members == 0 {
		if err := s.fileManager.LoadFromFile(s.config.Persistence.FilePath); err != nil {
			return err
		}
	} else {
		s.logger.Debugf(providers.TypeApp, "Store is not empty, skipping snapshot restore")
	}
	return s.fileManager.LoadActivity(s.config.Persistence.ActivityPath)
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "Persisting ledger to file...")
	if err := s.save(); err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}
	return nil
}

// save writes the snapshot and the activity file. The sqlite driver is its
// own durability, so only the memory driver snapshots the ledger.
func (s *Scheduler) save() error {
	if s.config.Storage.Driver == "memory" {
		if err := s.fileManager.SaveToFile(s.config.Persistence.FilePath); err != nil {
			return err
		}
	}
	return s.fileManager.SaveActivity(s.config.Persistence.ActivityPath)
}

func NewScheduler(
	config *structures.Config,
	logger providers.Logger,
	store models.LedgerStore,
	cooldowns *models.CooldownTracker,
	activity *models.ActivityTracker,
	settings services.SettingsServiceInterface,
	metrics providers.MetricsProviderInterface,
	fileManager *FileManager,
) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		store:       store,
		cooldowns:   cooldowns,
		activity:    activity,
		settings:    settings,
		metrics:     metrics,
		fileManager: fileManager,
	}
}
