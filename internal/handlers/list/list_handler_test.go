package list

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"agentlist-service/internal/domain/list"
	xerrors "agentlist-service/internal/pkg/errors"
	"agentlist-service/internal/service/lists"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeListService struct {
	uploadErr error
	body      string
	format    lists.Format
	groups    map[string]*list.UploadGroup
}

func (f *fakeListService) Upload(ctx context.Context, r io.Reader, format lists.Format) (*list.UploadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.body = string(data)
	f.format = format
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &list.UploadResult{
		TotalRecords: 7,
		AgentsCount:  3,
		UploadID:     "u-1",
		Distribution: []list.AgentShare{{AgentID: 1, AgentName: "A", RecordsCount: 3}},
	}, nil
}

func (f *fakeListService) ListUploads(ctx context.Context) (*list.UploadListResponse, error) {
	out := &list.UploadListResponse{Uploads: []list.UploadGroup{}}
	for _, g := range f.groups {
		out.Uploads = append(out.Uploads, *g)
	}
	out.Count = len(out.Uploads)
	return out, nil
}

func (f *fakeListService) GetUpload(ctx context.Context, uploadID string) (*list.UploadGroup, error) {
	g, ok := f.groups[uploadID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return g, nil
}

func (f *fakeListService) Stats(ctx context.Context) (*list.Stats, error) {
	return &list.Stats{TotalUploads: 1, TotalRecords: 7, AgentsWithRecords: 3}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T, svc *fakeListService, maxSize int64) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	h := NewListHandler(svc, dir, maxSize, zap.NewNop())

	r := gin.New()
	r.POST("/api/lists/upload", h.Upload)
	r.GET("/api/lists", h.ListUploads)
	r.GET("/api/lists/stats", h.Stats)
	r.GET("/api/lists/upload/:uploadId", h.GetUpload)
	return r, dir
}

func multipartRequest(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		hdr.Set("Content-Type", contentType)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/lists/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

const csvBody = "FirstName,Phone,Notes\nAnn,1,x\n"

func TestListHandler_Upload(t *testing.T) {
	t.Run("distributes a csv and removes the temp file", func(t *testing.T) {
		svc := &fakeListService{}
		r, dir := setup(t, svc, 0)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartRequest(t, "file", "contacts.csv", "text/csv", []byte(csvBody)))

		require.Equal(t, http.StatusCreated, w.Code)
		env := decode(t, w)
		require.True(t, env.Success)
		require.Equal(t, "Successfully uploaded and distributed 7 records among 3 agents", env.Message)
		require.JSONEq(t, `{"totalRecords":7,"agentsCount":3,"uploadId":"u-1","distribution":[{"agentId":1,"agentName":"A","recordsCount":3}]}`, string(env.Data))
		require.Equal(t, csvBody, svc.body)
		require.Equal(t, lists.FormatCSV, svc.format)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("missing file", func(t *testing.T) {
		r, _ := setup(t, &fakeListService{}, 0)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartRequest(t, "", "", "", nil))

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "Please upload a file", decode(t, w).Message)
	})

	t.Run("unsupported type is rejected before parsing", func(t *testing.T) {
		svc := &fakeListService{}
		r, _ := setup(t, svc, 0)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartRequest(t, "file", "contacts.pdf", "application/pdf", []byte("%PDF")))

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "Only CSV, XLSX, and XLS files are allowed", decode(t, w).Message)
		require.Empty(t, svc.body)
	})

	t.Run("oversized file", func(t *testing.T) {
		svc := &fakeListService{}
		r, _ := setup(t, svc, 16)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartRequest(t, "file", "contacts.csv", "text/csv", []byte(csvBody)))

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Empty(t, svc.body)
	})

	t.Run("client errors surface their message", func(t *testing.T) {
		svc := &fakeListService{uploadErr: &xerrors.SchemaError{Missing: []string{"Notes"}}}
		r, _ := setup(t, svc, 0)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartRequest(t, "file", "contacts.csv", "text/csv", []byte(csvBody)))

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "Missing required columns: Notes", decode(t, w).Message)
	})

	t.Run("no agents", func(t *testing.T) {
		svc := &fakeListService{uploadErr: xerrors.ErrNoEligibleAgents}
		r, _ := setup(t, svc, 0)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartRequest(t, "file", "contacts.csv", "text/csv", []byte(csvBody)))

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "No active agents found. Please add agents first.", decode(t, w).Message)
	})

	t.Run("empty file", func(t *testing.T) {
		svc := &fakeListService{uploadErr: fmt.Errorf("failed to validate upload: %w", xerrors.ErrEmptyUpload)}
		r, _ := setup(t, svc, 0)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartRequest(t, "file", "contacts.csv", "text/csv", []byte(csvBody)))

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "No valid data found in the file", decode(t, w).Message)
	})

	t.Run("storage failures are generic", func(t *testing.T) {
		svc := &fakeListService{uploadErr: &xerrors.StorageError{Op: "insert batch", Err: errors.New("disk full")}}
		r, _ := setup(t, svc, 0)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartRequest(t, "file", "contacts.csv", "text/csv", []byte(csvBody)))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Equal(t, "Error processing file", decode(t, w).Message)
		require.NotContains(t, w.Body.String(), "disk full")
	})
}

func TestListHandler_Reads(t *testing.T) {
	svc := &fakeListService{groups: map[string]*list.UploadGroup{
		"u-1": {UploadID: "u-1", TotalRecords: 2, Agents: map[string]*list.AgentGroup{}},
	}}
	r, _ := setup(t, svc, 0)

	t.Run("list", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/lists", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var data list.UploadListResponse
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
		require.Equal(t, 1, data.Count)
	})

	t.Run("single upload", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/lists/upload/u-1", nil))

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown upload", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/lists/upload/missing", nil))

		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "Upload not found", decode(t, w).Message)
	})

	t.Run("stats", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/lists/stats", nil))

		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"totalUploads":1,"totalRecords":7,"agentsWithRecords":3}`, string(decode(t, w).Data))
	})
}
