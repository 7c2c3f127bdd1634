package requests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/models/store"
	"github.com/de-tools/orchard-atlas/pkg/store/duckdb"
	"github.com/google/uuid"
)

// Store persists detection requests. Every read and delete is scoped to the owning user.
type Store interface {
	// Insert writes records and returns their ids; records without an id get a fresh uuid.
	Insert(ctx context.Context, records []store.RequestRecord) ([]string, error)
	ListByUser(ctx context.Context, userID string) ([]store.RequestRecord, error)
	Delete(ctx context.Context, userID, id string) error
	// DeleteBatch removes all ids in one transaction. If any id is not owned by userID nothing is deleted.
	DeleteBatch(ctx context.Context, userID string, ids []string) error
}

type requestStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &requestStore{
		db: db,
	}, nil
}

func (s *requestStore) Insert(ctx context.Context, records []store.RequestRecord) ([]string, error) {
	if len(records) == 0 {
		return []string{}, nil
	}

	query := `
		INSERT INTO detection_requests (
			id, user_id, file_name, download_url, created_at,
			processing_start_time, processing_end_time, status, token_id,
			apple_detections, tree_detections, visualizations, session_id
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)`

	stmt, err := duckdb.Conn(ctx, s.db).PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	ids := make([]string, 0, len(records))
	for _, record := range records {
		if record.UserID == "" {
			return ids, fmt.Errorf("insert record %q: %w", record.ID, domain.ErrUnauthenticated)
		}
		id := record.ID
		if id == "" {
			id = uuid.NewString()
		}

		_, err = stmt.ExecContext(ctx,
			id,
			record.UserID,
			record.FileName,
			record.DownloadURL,
			record.CreatedAt,
			record.ProcessingStartTime,
			record.ProcessingEndTime,
			record.Status,
			record.TokenID,
			string(record.AppleDetections),
			string(record.TreeDetections),
			string(record.Visualizations),
			record.SessionID,
		)
		if err != nil {
			return ids, fmt.Errorf("insert record: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func (s *requestStore) ListByUser(ctx context.Context, userID string) ([]store.RequestRecord, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	query := `
		SELECT id, user_id, file_name, COALESCE(download_url, ''), created_at,
			processing_start_time, processing_end_time, COALESCE(status, ''), COALESCE(token_id, ''),
			COALESCE(apple_detections, '[]'), COALESCE(tree_detections, '[]'), COALESCE(visualizations, '[]'),
			session_id
		FROM detection_requests
		WHERE user_id = ?
		ORDER BY created_at DESC
	`
	rows, err := duckdb.Conn(ctx, s.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()
	return scanRequestRows(rows)
}

func (s *requestStore) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}

	res, err := duckdb.Conn(ctx, s.db).ExecContext(ctx, deleteQuery, userID, id)
	if err != nil {
		return fmt.Errorf("delete request %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

func (s *requestStore) DeleteBatch(ctx context.Context, userID string, ids []string) (err error) {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	if len(ids) == 0 {
		return nil
	}

	tx := duckdb.GetTransaction(ctx)
	if tx == nil {
		tx, err = s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() {
			if err != nil {
				if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
					err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
				}
				return
			}
			if cErr := tx.Commit(); cErr != nil {
				err = fmt.Errorf("commit transaction: %w", cErr)
			}
		}()
	}

	for _, id := range ids {
		res, execErr := tx.ExecContext(ctx, deleteQuery, userID, id)
		if execErr != nil {
			return fmt.Errorf("delete request %s: %w", id, execErr)
		}
		if err := expectOneRow(res, id); err != nil {
			return err
		}
	}
	return nil
}

const deleteQuery = `DELETE FROM detection_requests WHERE user_id = ? AND id = ?`

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanRequestRows(rows *sql.Rows) ([]store.RequestRecord, error) {
	records := make([]store.RequestRecord, 0)
	for rows.Next() {
		var (
			record                       store.RequestRecord
			apples, trees, visualization string
		)
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.FileName,
			&record.DownloadURL,
			&record.CreatedAt,
			&record.ProcessingStartTime,
			&record.ProcessingEndTime,
			&record.Status,
			&record.TokenID,
			&apples,
			&trees,
			&visualization,
			&record.SessionID,
		); err != nil {
			return nil, err
		}
		record.AppleDetections = []byte(apples)
		record.TreeDetections = []byte(trees)
		record.Visualizations = []byte(visualization)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return records, nil
}
