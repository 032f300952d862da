package ledger

import (
	"bytes"
	"context"
	"os"

	json "github.com/goccy/go-json"

	"xpd/internal/ledger/interfaces"
	"xpd/internal/models"
	"xpd/internal/providers"
)

type FileManager struct {
	store      models.LedgerStore
	activity   *models.ActivityTracker
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, store models.LedgerStore, activity *models.ActivityTracker, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		store:      store,
		activity:   activity,
		logger:     logger,
	}
}

func (f *FileManager) SaveToFile(fileName string) error {
	snapshot, err := f.store.Export(context.Background())
	if err != nil {
		return err
	}

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}
	return f.writeAtomic(fileName, data)
}

// SaveActivity persists the activity tracker's bitmap state.
func (f *FileManager) SaveActivity(fileName string) error {
	var buf bytes.Buffer
	if err := f.activity.WriteBinaryTo(&buf); err != nil {
		return err
	}
	data, err := f.compressor.Compress(buf.Bytes())
	if err != nil {
		return err
	}
	return f.writeAtomic(fileName, data)
}

func (f *FileManager) writeAtomic(fileName string, data []byte) error {
	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return err
	}

	// Try current format (versioned envelope)
	var snapshot models.LedgerSnapshot
	if err := json.Unmarshal(decompressedData, &snapshot); err == nil && snapshot.Version >= 2 && snapshot.Guilds != nil {
		for _, gs := range snapshot.Guilds {
			if gs.Members == nil {
				gs.Members = make(map[string]models.MemberRecord)
			}
		}
		return f.store.Import(context.Background(), &snapshot)
	}

	// Try old format v1 (bare guild → user → total map, no envelope)
	f.logger.Warnf(providers.TypeApp, "Inconsistent DB found, try to migrate from old data format")
	var totals map[string]map[string]int64
	if err := json.Unmarshal(decompressedData, &totals); err != nil {
		f.logger.Warnf(providers.TypeApp, "Migration failed")
		return err
	}
	f.logger.Warnf(providers.TypeApp, "Migration from v1 format successful")
	return f.store.Import(context.Background(), models.LegacySnapshotV1(totals))
}

func (f *FileManager) LoadActivity(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return err
	}
	return f.activity.ReadBinaryFrom(bytes.NewReader(decompressedData))
}
