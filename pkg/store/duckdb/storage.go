package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const SnapshotTableSchema = `
	CREATE TABLE IF NOT EXISTS snapshots (
		id VARCHAR PRIMARY KEY,
		source_timestamp TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		schema_version INTEGER NOT NULL,
		assignment_count INTEGER NOT NULL,
		exemption_count INTEGER NOT NULL,
		test_count INTEGER NOT NULL,
		payload JSON NOT NULL
	);
`

var bootQueries = []string{
	SnapshotTableSchema,
}

type Settings struct {
	DbPath  string
	Threads int
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(dsn(settings), func(exec driver.ExecerContext) error {
		bootQueries := append([]string{}, bootQueries...)

		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}

func dsn(settings Settings) string {
	threads := settings.Threads
	if threads <= 0 {
		threads = 4
	}
	return fmt.Sprintf("%s?threads=%d", settings.DbPath, threads)
}
