// internal/service/lists/service.go
package lists

import (
	"context"
	"fmt"
	"io"
	"time"

	"agentlist-service/internal/domain/agent"
	"agentlist-service/internal/domain/list"
	"agentlist-service/internal/metrics"

	"go.uber.org/zap"
)

// RosterProvider lists the agents currently eligible to receive records.
type RosterProvider interface {
	ListActive(ctx context.Context) ([]agent.Agent, error)
}

// RecordStore persists distributed records. InsertBatch is all-or-nothing.
type RecordStore interface {
	InsertBatch(ctx context.Context, records []list.Record) error
	FindByUpload(ctx context.Context, uploadID string) ([]list.StoredRecord, error)
	FindAll(ctx context.Context) ([]list.StoredRecord, error)
	FindByAgent(ctx context.Context, agentID int64) ([]list.StoredRecord, error)
	Stats(ctx context.Context) (*list.Stats, error)
}

// Notifier is told about every stored batch.
type Notifier interface {
	BroadcastUploadDistributed(result *list.UploadResult)
}

type ListService struct {
	roster      RosterProvider
	store       RecordStore
	distributor *Distributor
	notifier    Notifier
	logger      *zap.Logger
}

func NewListService(roster RosterProvider, store RecordStore, distributor *Distributor, notifier Notifier, logger *zap.Logger) *ListService {
	if distributor == nil {
		distributor = NewDistributor()
	}
	return &ListService{
		roster:      roster,
		store:       store,
		distributor: distributor,
		notifier:    notifier,
		logger:      logger,
	}
}

// Upload parses, validates, distributes and stores one file. Nothing is
// stored unless every step before InsertBatch succeeds.
func (s *ListService) Upload(ctx context.Context, r io.Reader, format Format) (*list.UploadResult, error) {
	start := time.Now()
	defer func() {
		metrics.UploadDuration.Observe(time.Since(start).Seconds())
	}()

	rows, err := Parse(r, format)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if err := Validate(rows); err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	roster, err := s.roster.ListActive(ctx)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to load active agents: %w", err)
	}

	batch, err := s.distributor.Distribute(rows, roster)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if err := s.store.InsertBatch(ctx, batch.Records); err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		s.logger.Error("failed to store upload batch",
			zap.String("upload_id", batch.UploadID),
			zap.Int("records", len(batch.Records)),
			zap.Error(err),
		)
		return nil, err
	}

	result := &list.UploadResult{
		TotalRecords: len(batch.Records),
		AgentsCount:  len(roster),
		UploadID:     batch.UploadID,
		Distribution: batch.Distribution,
	}

	metrics.UploadsTotal.WithLabelValues("success").Inc()
	metrics.RecordsDistributed.Add(float64(result.TotalRecords))

	s.logger.Info("upload distributed",
		zap.String("upload_id", result.UploadID),
		zap.String("format", string(format)),
		zap.Int("records", result.TotalRecords),
		zap.Int("agents", result.AgentsCount),
	)

	if s.notifier != nil {
		s.notifier.BroadcastUploadDistributed(result)
	}

	return result, nil
}

// ListUploads returns every stored batch grouped by upload and agent.
func (s *ListService) ListUploads(ctx context.Context) (*list.UploadListResponse, error) {
	records, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	uploads := ByUpload(records)
	return &list.UploadListResponse{
		Count:   len(uploads),
		Uploads: uploads,
	}, nil
}

// GetUpload returns one batch grouped by agent or ErrNotFound.
func (s *ListService) GetUpload(ctx context.Context, uploadID string) (*list.UploadGroup, error) {
	records, err := s.store.FindByUpload(ctx, uploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to find upload: %w", err)
	}
	return SingleUpload(uploadID, records)
}

// AgentLists returns the records one agent received, grouped by upload.
func (s *ListService) AgentLists(ctx context.Context, agentID int64) (*list.AgentListsResponse, error) {
	records, err := s.store.FindByAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent records: %w", err)
	}

	return &list.AgentListsResponse{
		AgentID:      agentID,
		TotalRecords: len(records),
		Uploads:      ByAgent(records),
	}, nil
}

func (s *ListService) Stats(ctx context.Context) (*list.Stats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get list stats: %w", err)
	}
	return stats, nil
}

