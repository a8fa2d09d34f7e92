// internal/websocket/handler/upload.go
package handler

import (
	"context"
	"errors"
	"fmt"

	"agentlist-service/internal/domain/list"
	wstypes "agentlist-service/internal/domain/websocket"
	xerrors "agentlist-service/internal/pkg/errors"
	ws "agentlist-service/internal/websocket"
)

// UploadReader loads one upload batch.
type UploadReader interface {
	GetUpload(ctx context.Context, uploadID string) (*list.UploadGroup, error)
}

type UploadHandler struct {
	uploads UploadReader
}

func NewUploadHandler(uploads UploadReader) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

func (h *UploadHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{wstypes.EventTypeUploadGet}
}

func (h *UploadHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypeUploadGet:
		return h.handleGet(ctx, client, msg)
	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
}

func (h *UploadHandler) handleGet(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	var req list.GetUploadRequest
	if err := msg.DecodeData(&req); err != nil || req.UploadID == "" {
		client.SendError("invalid_request", "uploadId is required", "")
		return nil
	}

	group, err := h.uploads.GetUpload(ctx, req.UploadID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			client.SendError("upload_not_found", "Upload not found", req.UploadID)
			return nil
		}
		return fmt.Errorf("failed to load upload: %w", err)
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeUploadDetail, group))
	return nil
}
