package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"agentlist-service/internal/domain/list"
	xerrors "agentlist-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

var recordColumns = []string{
	"id", "first_name", "phone", "notes", "agent_id", "agent_name", "upload_id", "created_at", "email",
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func sampleRecords(now time.Time) []list.Record {
	return []list.Record{
		{FirstName: "Ann", Phone: "1", AgentID: 1, AgentName: "A", UploadID: "u1", CreatedAt: now},
		{FirstName: "Bob", Phone: "2", AgentID: 2, AgentName: "B", UploadID: "u1", CreatedAt: now},
		{FirstName: "Cy", Phone: "3", AgentID: 1, AgentName: "A", UploadID: "u1", CreatedAt: now},
	}
}

func TestListRecordRepository_InsertBatch(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("copies the batch inside one transaction", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewListRecordRepository(mock)

		mock.ExpectBegin()
		mock.ExpectCopyFrom(listRecordsTable, listRecordsColumns).WillReturnResult(3)
		mock.ExpectCommit()

		require.NoError(t, repo.InsertBatch(ctx, sampleRecords(now)))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the copy fails", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewListRecordRepository(mock)

		boom := errors.New("connection reset")
		mock.ExpectBegin()
		mock.ExpectCopyFrom(listRecordsTable, listRecordsColumns).WillReturnError(boom)
		mock.ExpectRollback()

		err := repo.InsertBatch(ctx, sampleRecords(now))

		var se *xerrors.StorageError
		require.ErrorAs(t, err, &se)
		require.Equal(t, "insert batch", se.Op)
		require.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("short copy is a storage error", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewListRecordRepository(mock)

		mock.ExpectBegin()
		mock.ExpectCopyFrom(listRecordsTable, listRecordsColumns).WillReturnResult(2)
		mock.ExpectRollback()

		err := repo.InsertBatch(ctx, sampleRecords(now))

		var se *xerrors.StorageError
		require.ErrorAs(t, err, &se)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure stores nothing", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewListRecordRepository(mock)

		mock.ExpectBegin().WillReturnError(errors.New("pool closed"))

		err := repo.InsertBatch(ctx, sampleRecords(now))

		var se *xerrors.StorageError
		require.ErrorAs(t, err, &se)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit failure is a storage error", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewListRecordRepository(mock)

		mock.ExpectBegin()
		mock.ExpectCopyFrom(listRecordsTable, listRecordsColumns).WillReturnResult(3)
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
		mock.ExpectRollback()

		err := repo.InsertBatch(ctx, sampleRecords(now))

		var se *xerrors.StorageError
		require.ErrorAs(t, err, &se)
		require.Equal(t, "commit batch", se.Op)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewListRecordRepository(mock)

		require.NoError(t, repo.InsertBatch(ctx, nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListRecordRepository_Reads(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("find by upload joins the agent email", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewListRecordRepository(mock)

		mock.ExpectQuery(`LEFT JOIN agents a ON a.id = lr.agent_id\s+WHERE lr.upload_id = \$1`).
			WithArgs("u1").
			WillReturnRows(mock.NewRows(recordColumns).
				AddRow(int64(1), "Ann", "1", "", int64(1), "A", "u1", now, "a@x.io").
				AddRow(int64(2), "Bob", "2", "x", int64(2), "B", "u1", now, ""))

		records, err := repo.FindByUpload(ctx, "u1")

		require.NoError(t, err)
		require.Len(t, records, 2)
		require.Equal(t, "a@x.io", records[0].AgentEmail)
		require.Equal(t, "Bob", records[1].FirstName)
		require.Equal(t, "B", records[1].AgentName)
		require.Equal(t, now, records[1].CreatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("find all on an empty table", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewListRecordRepository(mock)

		mock.ExpectQuery(`ORDER BY lr.created_at DESC, lr.id ASC`).
			WillReturnRows(mock.NewRows(recordColumns))

		records, err := repo.FindAll(ctx)

		require.NoError(t, err)
		require.NotNil(t, records)
		require.Empty(t, records)
	})

	t.Run("find by agent filters on agent id", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewListRecordRepository(mock)

		mock.ExpectQuery(`WHERE lr.agent_id = \$1`).
			WithArgs(int64(7)).
			WillReturnRows(mock.NewRows(recordColumns).
				AddRow(int64(9), "Ann", "1", "", int64(7), "G", "u3", now, "g@x.io"))

		records, err := repo.FindByAgent(ctx, 7)

		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, int64(7), records[0].AgentID)
	})

	t.Run("query failure is a storage error", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewListRecordRepository(mock)

		mock.ExpectQuery(`FROM list_records`).WillReturnError(pgx.ErrTxClosed)

		_, err := repo.FindAll(ctx)

		var se *xerrors.StorageError
		require.ErrorAs(t, err, &se)
	})

	t.Run("stats", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewListRecordRepository(mock)

		mock.ExpectQuery(`SELECT COUNT\(DISTINCT upload_id\)`).
			WillReturnRows(mock.NewRows([]string{"uploads", "records", "agents"}).
				AddRow(int64(2), int64(9), int64(3)))

		stats, err := repo.Stats(ctx)

		require.NoError(t, err)
		require.Equal(t, &list.Stats{TotalUploads: 2, TotalRecords: 9, AgentsWithRecords: 3}, stats)
	})
}
