// internal/repository/postgres/list_record_repo.go
package postgres

import (
	"context"
	"fmt"

	"agentlist-service/internal/domain/list"
	xerrors "agentlist-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

var (
	listRecordsTable   = pgx.Identifier{"list_records"}
	listRecordsColumns = []string{
		"first_name", "phone", "notes", "agent_id", "agent_name", "upload_id", "created_at",
	}
)

const storedRecordSelect = `
	SELECT lr.id, lr.first_name, lr.phone, lr.notes, lr.agent_id, lr.agent_name,
	       lr.upload_id, lr.created_at, COALESCE(a.email, '')
	FROM list_records lr
	LEFT JOIN agents a ON a.id = lr.agent_id
`

type ListRecordRepository struct {
	db DBTX
}

func NewListRecordRepository(db DBTX) *ListRecordRepository {
	return &ListRecordRepository{db: db}
}

// InsertBatch stores all records of one upload or none of them.
func (r *ListRecordRepository) InsertBatch(ctx context.Context, records []list.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return &xerrors.StorageError{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback(ctx)

	rows := make([][]any, len(records))
	for i, rec := range records {
		rows[i] = []any{
			rec.FirstName, rec.Phone, rec.Notes, rec.AgentID, rec.AgentName, rec.UploadID, rec.CreatedAt,
		}
	}

	copied, err := tx.CopyFrom(ctx, listRecordsTable, listRecordsColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return &xerrors.StorageError{Op: "insert batch", Err: err}
	}
	if copied != int64(len(records)) {
		return &xerrors.StorageError{
			Op:  "insert batch",
			Err: fmt.Errorf("copied %d of %d records", copied, len(records)),
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &xerrors.StorageError{Op: "commit batch", Err: err}
	}

	return nil
}

// FindByUpload returns one batch in insertion order.
func (r *ListRecordRepository) FindByUpload(ctx context.Context, uploadID string) ([]list.StoredRecord, error) {
	return r.query(ctx, storedRecordSelect+`WHERE lr.upload_id = $1 ORDER BY lr.id ASC`, uploadID)
}

// FindAll returns every record, newest batch first and insertion order within
// a batch.
func (r *ListRecordRepository) FindAll(ctx context.Context) ([]list.StoredRecord, error) {
	return r.query(ctx, storedRecordSelect+`ORDER BY lr.created_at DESC, lr.id ASC`)
}

func (r *ListRecordRepository) FindByAgent(ctx context.Context, agentID int64) ([]list.StoredRecord, error) {
	return r.query(ctx, storedRecordSelect+`WHERE lr.agent_id = $1 ORDER BY lr.created_at DESC, lr.id ASC`, agentID)
}

func (r *ListRecordRepository) Stats(ctx context.Context) (*list.Stats, error) {
	query := `
		SELECT COUNT(DISTINCT upload_id), COUNT(*), COUNT(DISTINCT agent_id)
		FROM list_records
	`

	var s list.Stats
	if err := r.db.QueryRow(ctx, query).Scan(&s.TotalUploads, &s.TotalRecords, &s.AgentsWithRecords); err != nil {
		return nil, &xerrors.StorageError{Op: "stats", Err: err}
	}
	return &s, nil
}

func (r *ListRecordRepository) query(ctx context.Context, query string, args ...any) ([]list.StoredRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &xerrors.StorageError{Op: "query records", Err: err}
	}
	defer rows.Close()

	records := []list.StoredRecord{}
	for rows.Next() {
		var rec list.StoredRecord
		err := rows.Scan(
			&rec.ID, &rec.FirstName, &rec.Phone, &rec.Notes, &rec.AgentID, &rec.AgentName,
			&rec.UploadID, &rec.CreatedAt, &rec.AgentEmail,
		)
		if err != nil {
			return nil, &xerrors.StorageError{Op: "scan record", Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &xerrors.StorageError{Op: "iterate records", Err: err}
	}

	return records, nil
}
