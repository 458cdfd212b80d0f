package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/de-tools/governance-atlas/pkg/services/assessment"
	"github.com/de-tools/governance-atlas/pkg/store/duckdb"
	duckdbsnapshot "github.com/de-tools/governance-atlas/pkg/store/duckdb/snapshot"
	"github.com/de-tools/governance-atlas/pkg/store/file"
	"github.com/rs/zerolog"
)

// Services is what the entry points run on.
type Services struct {
	Assessment assessment.Service
	Archive    *assessment.Archive
	close      func() error
}

func (s *Services) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenSnapshotStore opens the configured snapshot storage. The returned func
// releases it.
func (c *Config) OpenSnapshotStore(ctx context.Context) (assessment.SnapshotStore, func() error, error) {
	logger := zerolog.Ctx(ctx)

	switch c.Storage.Driver {
	case StorageFile:
		st, err := file.NewSnapshotStore(c.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open snapshot directory: %w", err)
		}
		logger.Debug().Str("dir", c.Storage.Path).Msg("using file snapshot store")
		return st, func() error { return nil }, nil
	case StorageDuckDB:
		db, err := duckdb.NewDB(duckdb.Settings{DbPath: c.Storage.Path})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
		}
		st, err := duckdbsnapshot.NewStore(db)
		if err != nil {
			return nil, nil, errors.Join(fmt.Errorf("failed to create snapshot store: %w", err), db.Close())
		}
		logger.Debug().Str("db", c.Storage.Path).Msg("using DuckDB snapshot store")
		return st, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}
}

// Build wires the assessment service and snapshot archive.
func (c *Config) Build(ctx context.Context) (*Services, error) {
	classifier, err := c.Classifier()
	if err != nil {
		return nil, err
	}
	service, err := assessment.NewService(classifier, c.AssessmentSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to create assessment service: %w", err)
	}

	st, closeStore, err := c.OpenSnapshotStore(ctx)
	if err != nil {
		return nil, err
	}
	archive, err := assessment.NewArchive(st, service)
	if err != nil {
		return nil, errors.Join(err, closeStore())
	}

	return &Services{Assessment: service, Archive: archive, close: closeStore}, nil
}
