package ledger

import (
	"fmt"

	"xpd/internal/ledger/interfaces"
	"xpd/internal/models"
	"xpd/internal/providers"
	"xpd/internal/structures"
)

// NewStore builds the ledger store for the configured driver. The memory
// driver gets an award archive when persistence.archiveDir is set.
func NewStore(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger) (models.LedgerStore, error) {
	switch conf.Storage.Driver {
	case "memory":
		var archive *Archive
		if conf.Persistence.ArchiveDir != "" {
			archive = NewArchive(conf.Persistence.ArchiveDir, conf.Accrual.AwardsTTL, compressor, logger)
			if err := archive.RestoreIndex(); err != nil {
				return nil, fmt.Errorf("failed to restore archive index: %w", err)
			}
		}
		return NewMemoryStore(conf, archive, logger), nil
	case "sqlite":
		return NewSqliteStore(conf)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}
