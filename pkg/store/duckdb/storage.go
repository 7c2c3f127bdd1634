package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/duckdb/duckdb-go/v2"
)

const RequestsTableSchema = `
	CREATE TABLE IF NOT EXISTS detection_requests (
		id VARCHAR NOT NULL PRIMARY KEY,
		user_id VARCHAR NOT NULL,
		file_name VARCHAR NOT NULL,
		download_url VARCHAR,
		created_at VARCHAR NOT NULL,
		processing_start_time TIMESTAMP NULL,
		processing_end_time TIMESTAMP NULL,
		status VARCHAR,
		token_id VARCHAR,
		apple_detections VARCHAR,
		tree_detections VARCHAR,
		visualizations VARCHAR,
		session_id VARCHAR NULL
	);
`

const RequestsOwnerIndex = `
	CREATE INDEX IF NOT EXISTS detection_requests_user_created
	ON detection_requests (user_id, created_at);
`

var bootQueries = []string{
	RequestsTableSchema,
	RequestsOwnerIndex,
}

type Settings struct {
	DbPath  string
	Threads int
}

func NewDB(settings Settings) (*sql.DB, error) {
	threads := settings.Threads
	if threads <= 0 {
		threads = 4
	}

	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=%d", settings.DbPath, threads), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("open duckdb %s: %w", settings.DbPath, err)
	}

	db := sql.OpenDB(c)
	return db, nil
}
