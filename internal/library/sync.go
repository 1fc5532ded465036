// Package library keeps the document store in step with the source library
// directory: files dropped into <library>/<source-type>/ are imported, and
// removing a file deletes the document imported from it.
package library

import (
	"context"
	"log/slog"

	"github.com/starford/lectern/internal/storage"
)

// Importer is the document service surface used by sync and the watcher.
type Importer interface {
	// SyncFile imports data from path, reporting false when the file is
	// unchanged since the last import.
	SyncFile(ctx context.Context, path string, data []byte) (bool, error)
	RemoveSource(ctx context.Context, path string) error
	SourceChecksums(ctx context.Context) (map[string]string, error)
}

// Sync walks the library and brings the store up to date:
//   - new/changed files are extracted, parsed and imported
//   - documents whose source file is gone are deleted
func Sync(ctx context.Context, imp Importer, files storage.Provider, logger *slog.Logger) error {
	metas, err := files.List("")
	if err != nil {
		return err
	}

	checksums, err := imp.SourceChecksums(ctx)
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}
		importFile(ctx, imp, files, m.Path, logger)
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := imp.RemoveSource(ctx, p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}
	return nil
}

// importFile reads and imports one library file, logging failures.
func importFile(ctx context.Context, imp Importer, files storage.Provider, path string, logger *slog.Logger) bool {
	data, err := files.Read(path)
	if err != nil {
		logger.Warn("sync: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}
	imported, err := imp.SyncFile(ctx, path, data)
	if err != nil {
		logger.Warn("sync: import failed", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}
	if imported {
		logger.Debug("sync: imported", slog.String("path", path))
	}
	return imported
}
