package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"xpd/internal/ledger/interfaces"
	"xpd/internal/models"
	"xpd/internal/providers"
)

// ArchiveFile is the on-disk format for one guild's archived awards,
// oldest first.
type ArchiveFile struct {
	Awards []models.Award `json:"awards"`
}

// Archive persists awards evicted from the in-memory rings. Evictions land
// in a pending buffer with no disk I/O; Flush merges them into per-guild
// zstd files and applies the retention cutoff.
type Archive struct {
	mu         sync.RWMutex
	dir        string
	ttl        time.Duration
	index      map[string]struct{}       // guilds with an archive file on disk
	pending    map[string][]models.Award // guild → awards awaiting flush, oldest first
	loaded     map[string]*ArchiveFile   // guild → cached archive file
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewArchive(dir string, ttl time.Duration, compressor interfaces.CompressorInterface, logger providers.Logger) *Archive {
	return &Archive{
		dir:        dir,
		ttl:        ttl,
		index:      make(map[string]struct{}),
		pending:    make(map[string][]models.Award),
		loaded:     make(map[string]*ArchiveFile),
		compressor: compressor,
		logger:     logger,
	}
}

// Has reports whether the guild has archived awards (on disk or pending).
func (a *Archive) Has(guildID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if _, ok := a.index[guildID]; ok {
		return true
	}
	return len(a.pending[guildID]) > 0
}

// Evict buffers an award evicted from a guild's ring. No disk I/O.
func (a *Archive) Evict(guildID string, award models.Award) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending[guildID] = append(a.pending[guildID], award)
}

// Awards returns up to n archived awards for the guild, newest first.
// Pending entries are newer than anything on disk, so they come first.
func (a *Archive) Awards(guildID string, n int) ([]*models.Award, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	result := make([]*models.Award, 0, n)
	pend := a.pending[guildID]
	for i := len(pend) - 1; i >= 0 && len(result) < n; i-- {
		cp := pend[i]
		result = append(result, &cp)
	}
	if len(result) >= n {
		return result, nil
	}

	if _, ok := a.index[guildID]; !ok {
		return result, nil
	}
	af, err := a.getOrLoadArchiveFile(guildID)
	if err != nil {
		return result, err
	}
	if af == nil {
		return result, nil
	}
	for i := len(af.Awards) - 1; i >= 0 && len(result) < n; i-- {
		cp := af.Awards[i]
		result = append(result, &cp)
	}
	return result, nil
}

// Flush writes all pending awards to disk and applies the retention TTL.
func (a *Archive) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	guilds := make(map[string]struct{}, len(a.pending))
	for guildID := range a.pending {
		guilds[guildID] = struct{}{}
	}
	_, err := a.flushGuilds(guilds, a.cutoff(time.Now()))
	return err
}

// Prune rewrites every known guild file dropping awards at or before the
// cutoff, and returns how many were removed.
func (a *Archive) Prune(olderThan time.Time) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	guilds := make(map[string]struct{}, len(a.index)+len(a.pending))
	for guildID := range a.index {
		guilds[guildID] = struct{}{}
	}
	for guildID := range a.pending {
		guilds[guildID] = struct{}{}
	}
	return a.flushGuilds(guilds, olderThan)
}

// flushGuilds merges pending awards into each guild's file, drops entries
// older than the cutoff and rewrites or removes the file. Caller must hold
// a.mu. A guild whose file cannot be read keeps its pending buffer.
func (a *Archive) flushGuilds(guilds map[string]struct{}, cutoff time.Time) (int, error) {
	removed := 0
	var firstErr error
	for guildID := range guilds {
		af, err := a.getOrLoadArchiveFile(guildID)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if af == nil {
			af = &ArchiveFile{}
		}

		af.Awards = append(af.Awards, a.pending[guildID]...)

		if !cutoff.IsZero() {
			kept := af.Awards[:0]
			for _, award := range af.Awards {
				if award.At.After(cutoff) {
					kept = append(kept, award)
				} else {
					removed++
				}
			}
			af.Awards = kept
		}

		if len(af.Awards) > 0 {
			if err := a.writeArchiveFile(guildID, af); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			a.loaded[guildID] = af
			a.index[guildID] = struct{}{}
		} else {
			_ = os.Remove(a.archiveFilePath(guildID))
			delete(a.loaded, guildID)
			delete(a.index, guildID)
		}

		delete(a.pending, guildID)
	}
	return removed, firstErr
}

// RestoreIndex scans the archive directory and records which guilds have
// archived awards. Called once at startup; files are not loaded here.
func (a *Archive) RestoreIndex() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return err
	}

	files, err := filepath.Glob(filepath.Join(a.dir, "*.awards.zst"))
	if err != nil {
		return err
	}
	for _, file := range files {
		a.index[a.extractGuildName(file)] = struct{}{}
	}
	return nil
}

// Close flushes any pending awards.
func (a *Archive) Close() error {
	return a.Flush()
}

func (a *Archive) cutoff(now time.Time) time.Time {
	if a.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(-a.ttl)
}

// getOrLoadArchiveFile returns the cached archive file or loads it from
// disk. (nil, nil) means the guild has no file. Caller must hold a.mu.
func (a *Archive) getOrLoadArchiveFile(guildID string) (*ArchiveFile, error) {
	if af, ok := a.loaded[guildID]; ok {
		return af, nil
	}
	af, err := a.loadArchiveFileFromDisk(guildID)
	if err != nil || af == nil {
		return nil, err
	}
	a.loaded[guildID] = af
	return af, nil
}

func (a *Archive) loadArchiveFileFromDisk(guildID string) (*ArchiveFile, error) {
	path := a.archiveFilePath(guildID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		a.logger.Errorf(providers.TypeStore, "Failed to read archive file %s: %s", path, err)
		return nil, err
	}

	decompressed, err := a.compressor.Decompress(data)
	if err != nil {
		a.logger.Errorf(providers.TypeStore, "Failed to decompress archive file %s: %s", path, err)
		return nil, err
	}

	var af ArchiveFile
	if err := json.Unmarshal(decompressed, &af); err != nil {
		a.logger.Errorf(providers.TypeStore, "Failed to parse archive file %s: %s", path, err)
		return nil, err
	}
	return &af, nil
}

// writeArchiveFile serializes and atomically writes a guild's archive file.
func (a *Archive) writeArchiveFile(guildID string, af *ArchiveFile) error {
	jsonData, err := json.Marshal(af)
	if err != nil {
		return err
	}

	compressed, err := a.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	path := a.archiveFilePath(guildID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, compressed, 0644); err != nil {
		return err
	}
	return os.Rename(tmpFile, path)
}

func (a *Archive) archiveFilePath(guildID string) string {
	return filepath.Join(a.dir, guildID+".awards.zst")
}

// extractGuildName extracts the guild ID from an archive file path.
// "815649.awards.zst" → "815649"
func (a *Archive) extractGuildName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, ".awards.zst")
}
