package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/entity-extractor/internal/common"
	"github.com/joseph-ayodele/entity-extractor/internal/entities"
	"github.com/joseph-ayodele/entity-extractor/internal/export"
	"github.com/joseph-ayodele/entity-extractor/internal/extract"
	"github.com/joseph-ayodele/entity-extractor/internal/pipeline"
	"github.com/joseph-ayodele/entity-extractor/internal/repository"
	"github.com/joseph-ayodele/entity-extractor/internal/textract"
)

type janeTagger struct{}

func (janeTagger) Tag(text string) ([]entities.RawEntity, error) {
	if !strings.Contains(text, "Jane Doe") {
		return nil, nil
	}
	return []entities.RawEntity{
		{Text: "Jane Doe", Label: entities.LabelPerson},
		{Text: "Acme Corp", Label: entities.LabelOrg},
	}, nil
}

type testEnv struct {
	router    *gin.Engine
	outputDir string
	drv       *entsql.Driver
}

func newTestEnv(t *testing.T, uploadDir string) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	drv, _, err := repository.InitDatabase(context.Background(), common.DatabaseConfig{Driver: "sqlite", DSN: dsn}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(drv, nil, slog.Default()) })

	logs := repository.NewExtractionLogRepository(drv, nil)
	out := filepath.Join(t.TempDir(), "outputs")
	proc := pipeline.NewProcessor(
		textract.NewExtractor(textract.Config{}, nil),
		extract.NewNERExtractor(nil, extract.WithTagger(janeTagger{}, "test")),
		export.NewExporter(nil),
		out, nil,
		pipeline.WithExtractionLogs(logs),
	)
	s := NewServer(Deps{
		Processor: proc,
		Logs:      logs,
		Feedback:  repository.NewFeedbackRepository(drv, nil),
		DB:        drv,
		UploadDir: uploadDir,
	})
	return testEnv{router: s.SetupRouter(), outputDir: out, drv: drv}
}

func (e testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := mw.CreateFormFile(uploadField, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

type uploadResponse struct {
	BatchID string `json:"batch_id"`
	Summary struct {
		FilesProcessed  int `json:"files_processed"`
		NamesExtracted  int `json:"names_extracted"`
		EmailsExtracted int `json:"emails_extracted"`
		OrgsExtracted   int `json:"orgs_extracted"`
		Results         []map[string]string
	} `json:"summary"`
	Downloads map[string]string `json:"downloads"`
	Files     []pipeline.FileResult
}

func upload(t *testing.T, env testEnv) uploadResponse {
	t.Helper()
	w := env.do(t, multipartRequest(t, map[string]string{
		"jane.txt":  "Jane Doe works at Acme Corp. Mail jane@acme.com.",
		"empty.txt": "",
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp uploadResponse
	decode(t, w, &resp)
	return resp
}

func TestUpload_ProcessesBatchInMemory(t *testing.T) {
	env := newTestEnv(t, "")
	resp := upload(t, env)

	_, err := uuid.Parse(resp.BatchID)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Summary.FilesProcessed)
	require.Len(t, resp.Summary.Results, 1)
	assert.Equal(t, 1, resp.Summary.NamesExtracted)
	assert.Equal(t, 1, resp.Summary.EmailsExtracted)
	assert.Equal(t, 1, resp.Summary.OrgsExtracted)
	assert.Equal(t, "jane.txt", resp.Summary.Results[0]["Filename"])
	assert.Equal(t, resp.BatchID+".xlsx", resp.Downloads["xlsx"])
	assert.Equal(t, resp.BatchID+".csv", resp.Downloads["csv"])
	assert.Len(t, resp.Files, 2)
}

func TestUpload_SavesToUploadDir(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(t, dir)
	resp := upload(t, env)

	matches, err := filepath.Glob(filepath.Join(dir, resp.BatchID+"_*"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestUpload_EmptyBatchIsBadRequest(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.do(t, multipartRequest(t, map[string]string{"empty.txt": "", "notes.md": "Jane Doe"}))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	decode(t, w, &body)
	assert.NotEmpty(t, body["error"])
	assert.Len(t, body["files"], 2)
}

func TestUpload_RequiresFiles(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.do(t, multipartRequest(t, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, env.do(t, req).Code)
}

func TestResultsAndDownload(t *testing.T) {
	env := newTestEnv(t, "")
	resp := upload(t, env)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/results/"+resp.BatchID, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var results struct {
		Preview struct {
			Names  []string `json:"names"`
			Emails []string `json:"emails"`
		} `json:"preview"`
		Downloads map[string]string `json:"downloads"`
	}
	decode(t, w, &results)
	assert.Equal(t, []string{"Jane Doe"}, results.Preview.Names)
	assert.Equal(t, []string{"jane@acme.com"}, results.Preview.Emails)
	assert.Len(t, results.Downloads, 2)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/download/"+resp.Downloads["csv"], nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), resp.Downloads["csv"])
	assert.Contains(t, w.Body.String(), "Jane Doe")
}

func TestResults_UnknownBatch(t *testing.T) {
	env := newTestEnv(t, "")
	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		w := env.do(t, httptest.NewRequest(http.MethodGet, "/results/"+id, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, id)
	}
}

func TestDownload_RejectsBadNames(t *testing.T) {
	env := newTestEnv(t, "")
	for _, name := range []string{"..", ".env", "..%5Csecret.csv"} {
		w := env.do(t, httptest.NewRequest(http.MethodGet, "/download/"+name, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
	w := env.do(t, httptest.NewRequest(http.MethodGet, "/download/missing.csv", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t, "")
	resp := upload(t, env)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/history?page=1&page_size=10", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Items []struct {
			BatchID    string `json:"batch_id"`
			Filename   string `json:"filename"`
			SourceType string `json:"source_type"`
			NameCount  int    `json:"name_count"`
		} `json:"items"`
		Total int `json:"total"`
	}
	decode(t, w, &body)
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Items, 1)
	assert.Equal(t, resp.BatchID, body.Items[0].BatchID)
	assert.Equal(t, "jane.txt", body.Items[0].Filename)
	assert.Equal(t, ".txt", body.Items[0].SourceType)
	assert.Equal(t, 1, body.Items[0].NameCount)

	for _, q := range []string{"page=0", "page_size=101", "page=abc"} {
		w := env.do(t, httptest.NewRequest(http.MethodGet, "/history?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestFeedback(t *testing.T) {
	env := newTestEnv(t, "")
	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return env.do(t, req)
	}

	assert.Equal(t, http.StatusCreated, post(`{"message":"great tool","rating":5}`).Code)
	assert.Equal(t, http.StatusCreated, post(`{"message":"ok"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"message":"  ","rating":3}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"message":"bad","rating":9}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`not json`).Code)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/feedback?sort_by=rating&order=desc", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Items []struct {
			Message string `json:"message"`
			Rating  *int   `json:"rating"`
		} `json:"items"`
		Total int `json:"total"`
	}
	decode(t, w, &body)
	assert.Equal(t, 2, body.Total)
	require.Len(t, body.Items, 2)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/feedback?sort_by=message", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "extractor_system_goroutines")
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := newTestEnv(t, "")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "req-123")
	w := env.do(t, req)
	assert.Equal(t, "req-123", w.Header().Get(headerRequestID))
}
