package lists

import (
	"context"
	"errors"
	"strings"
	"testing"

	"agentlist-service/internal/domain/agent"
	"agentlist-service/internal/domain/list"
	xerrors "agentlist-service/internal/pkg/errors"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRoster struct {
	agents []agent.Agent
	err    error
	calls  int
}

func (f *fakeRoster) ListActive(ctx context.Context) ([]agent.Agent, error) {
	f.calls++
	return f.agents, f.err
}

type fakeStore struct {
	inserted  [][]list.Record
	insertErr error
	records   []list.StoredRecord
	stats     *list.Stats
}

func (f *fakeStore) InsertBatch(ctx context.Context, records []list.Record) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, records)
	for _, r := range records {
		f.records = append(f.records, list.StoredRecord{ID: int64(len(f.records) + 1), Record: r})
	}
	return nil
}

func (f *fakeStore) FindByUpload(ctx context.Context, uploadID string) ([]list.StoredRecord, error) {
	var out []list.StoredRecord
	for _, r := range f.records {
		if r.UploadID == uploadID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) FindAll(ctx context.Context) ([]list.StoredRecord, error) {
	return f.records, nil
}

func (f *fakeStore) FindByAgent(ctx context.Context, agentID int64) ([]list.StoredRecord, error) {
	var out []list.StoredRecord
	for _, r := range f.records {
		if r.AgentID == agentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) Stats(ctx context.Context) (*list.Stats, error) {
	return f.stats, nil
}

type fakeNotifier struct {
	results []*list.UploadResult
}

func (f *fakeNotifier) BroadcastUploadDistributed(result *list.UploadResult) {
	f.results = append(f.results, result)
}

const sevenRows = "FirstName,Phone,Notes\n" +
	"a,1,\nb,2,\nc,3,\nd,4,\ne,5,\nf,6,\ng,7,\n"

func newTestService(roster *fakeRoster, store *fakeStore, notifier Notifier) *ListService {
	return NewListService(roster, store, newTestDistributor(), notifier, zap.NewNop())
}

func TestListService_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and reports the distribution", func(t *testing.T) {
		roster := &fakeRoster{agents: makeRoster("A", "B", "C")}
		store := &fakeStore{}
		notifier := &fakeNotifier{}
		svc := newTestService(roster, store, notifier)

		result, err := svc.Upload(ctx, strings.NewReader(sevenRows), FormatCSV)

		require.NoError(t, err)
		require.Equal(t, 7, result.TotalRecords)
		require.Equal(t, 3, result.AgentsCount)
		require.Equal(t, "upload-1", result.UploadID)
		require.Equal(t, []list.AgentShare{
			{AgentID: 1, AgentName: "A", RecordsCount: 3},
			{AgentID: 2, AgentName: "B", RecordsCount: 2},
			{AgentID: 3, AgentName: "C", RecordsCount: 2},
		}, result.Distribution)

		require.Len(t, store.inserted, 1)
		require.Len(t, store.inserted[0], 7)
		require.Equal(t, []*list.UploadResult{result}, notifier.results)
	})

	t.Run("works without a notifier", func(t *testing.T) {
		svc := newTestService(&fakeRoster{agents: makeRoster("A")}, &fakeStore{}, nil)

		_, err := svc.Upload(ctx, strings.NewReader(sevenRows), FormatCSV)

		require.NoError(t, err)
	})

	t.Run("no active agents stores nothing", func(t *testing.T) {
		store := &fakeStore{}
		notifier := &fakeNotifier{}
		svc := newTestService(&fakeRoster{}, store, notifier)

		_, err := svc.Upload(ctx, strings.NewReader(sevenRows), FormatCSV)

		require.ErrorIs(t, err, xerrors.ErrNoEligibleAgents)
		require.Empty(t, store.inserted)
		require.Empty(t, notifier.results)
	})

	t.Run("schema errors stop before the roster is read", func(t *testing.T) {
		roster := &fakeRoster{agents: makeRoster("A")}
		store := &fakeStore{}
		svc := newTestService(roster, store, nil)

		_, err := svc.Upload(ctx, strings.NewReader("FirstName,Phone\na,1\n"), FormatCSV)

		var se *xerrors.SchemaError
		require.ErrorAs(t, err, &se)
		require.Equal(t, []string{"Notes"}, se.Missing)
		require.Zero(t, roster.calls)
		require.Empty(t, store.inserted)
	})

	t.Run("header only file is empty", func(t *testing.T) {
		store := &fakeStore{}
		svc := newTestService(&fakeRoster{agents: makeRoster("A")}, store, nil)

		_, err := svc.Upload(ctx, strings.NewReader("FirstName,Phone,Notes\n"), FormatCSV)

		require.ErrorIs(t, err, xerrors.ErrEmptyUpload)
		require.Empty(t, store.inserted)
	})

	t.Run("roster failure is wrapped", func(t *testing.T) {
		boom := errors.New("connection refused")
		svc := newTestService(&fakeRoster{err: boom}, &fakeStore{}, nil)

		_, err := svc.Upload(ctx, strings.NewReader(sevenRows), FormatCSV)

		require.ErrorIs(t, err, boom)
		require.False(t, xerrors.IsClientError(err))
	})

	t.Run("storage failure is returned and not announced", func(t *testing.T) {
		storageErr := &xerrors.StorageError{Op: "insert batch", Err: errors.New("disk full")}
		store := &fakeStore{insertErr: storageErr}
		notifier := &fakeNotifier{}
		svc := newTestService(&fakeRoster{agents: makeRoster("A", "B")}, store, notifier)

		_, err := svc.Upload(ctx, strings.NewReader(sevenRows), FormatCSV)

		var se *xerrors.StorageError
		require.ErrorAs(t, err, &se)
		require.Empty(t, notifier.results)
	})
}

func TestListService_Queries(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{stats: &list.Stats{TotalUploads: 1, TotalRecords: 7, AgentsWithRecords: 3}}
	svc := newTestService(&fakeRoster{agents: makeRoster("A", "B", "C")}, store, nil)

	_, err := svc.Upload(ctx, strings.NewReader(sevenRows), FormatCSV)
	require.NoError(t, err)

	t.Run("list uploads", func(t *testing.T) {
		resp, err := svc.ListUploads(ctx)

		require.NoError(t, err)
		require.Equal(t, 1, resp.Count)
		require.Equal(t, 7, resp.Uploads[0].TotalRecords)
		require.Equal(t, fixedNow, resp.Uploads[0].UploadDate)
	})

	t.Run("get upload", func(t *testing.T) {
		g, err := svc.GetUpload(ctx, "upload-1")

		require.NoError(t, err)
		require.Len(t, g.Agents, 3)
		require.Len(t, g.Agents["1"].Records, 3)
	})

	t.Run("get unknown upload", func(t *testing.T) {
		_, err := svc.GetUpload(ctx, "nope")

		require.ErrorIs(t, err, xerrors.ErrNotFound)
	})

	t.Run("agent lists", func(t *testing.T) {
		resp, err := svc.AgentLists(ctx, 2)

		require.NoError(t, err)
		require.Equal(t, int64(2), resp.AgentID)
		require.Equal(t, 2, resp.TotalRecords)
		require.Len(t, resp.Uploads, 1)
		require.Equal(t, []string{"b", "e"}, firstNames(resp.Uploads[0].Records))
	})

	t.Run("agent without records", func(t *testing.T) {
		resp, err := svc.AgentLists(ctx, 99)

		require.NoError(t, err)
		require.Zero(t, resp.TotalRecords)
		require.Empty(t, resp.Uploads)
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := svc.Stats(ctx)

		require.NoError(t, err)
		require.Equal(t, int64(7), stats.TotalRecords)
	})
}
