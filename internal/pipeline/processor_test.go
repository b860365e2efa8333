package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/entity-extractor/constants"
	"github.com/joseph-ayodele/entity-extractor/internal/auditlog"
	"github.com/joseph-ayodele/entity-extractor/internal/common"
	"github.com/joseph-ayodele/entity-extractor/internal/entities"
	"github.com/joseph-ayodele/entity-extractor/internal/entity"
	"github.com/joseph-ayodele/entity-extractor/internal/export"
	"github.com/joseph-ayodele/entity-extractor/internal/textract"
)

type fakeExtractor struct {
	results map[string]entities.ExtractionResult
	fail    map[string]error
}

func (f fakeExtractor) Source() string { return constants.SourceProse }

func (f fakeExtractor) Extract(_ context.Context, text string) (entities.ExtractionResult, error) {
	if err, ok := f.fail[text]; ok {
		return entities.ExtractionResult{}, err
	}
	res, ok := f.results[text]
	if !ok {
		return entities.ExtractionResult{Person: []string{}, Organization: []string{}, Email: []string{}, Source: constants.SourceProse}, nil
	}
	return res, nil
}

type fakeLogs struct {
	mu      sync.Mutex
	entries []*entity.ExtractionLog
}

func (f *fakeLogs) Create(_ context.Context, l *entity.ExtractionLog) (*entity.ExtractionLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, l)
	return l, nil
}

func (f *fakeLogs) List(context.Context, int, int) ([]*entity.ExtractionLog, int, error) {
	return nil, 0, nil
}

func (f *fakeLogs) ListByBatch(context.Context, string) ([]*entity.ExtractionLog, error) {
	return nil, nil
}

type fakeAudit struct{ entries []auditlog.Entry }

func (f *fakeAudit) Append(_ context.Context, e auditlog.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

const (
	janeText = "Jane Doe works at Acme Corp. Reach her at jane@acme.com."
	bobText  = "Bob Smith"
)

func newTestProcessor(t *testing.T, ex fakeExtractor) (*Processor, *fakeLogs, *fakeAudit, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "outputs")
	logs := &fakeLogs{}
	audit := &fakeAudit{}
	p := NewProcessor(textract.NewExtractor(textract.Config{}, nil), ex, export.NewExporter(nil), out, nil,
		WithAudit(audit), WithExtractionLogs(logs))
	return p, logs, audit, out
}

func defaultExtractor() fakeExtractor {
	return fakeExtractor{results: map[string]entities.ExtractionResult{
		janeText: {
			Person:       []string{"Jane Doe", "Jane Doe."},
			Organization: []string{"Acme Corp"},
			Email:        []string{"jane@acme.com"},
			ConfidenceScores: []entities.ConfidenceEntry{
				entities.NewConfidenceEntry("jane@acme.com", entities.LabelEmail, 1.0),
			},
			Source: constants.SourceProse,
		},
		bobText: {Person: []string{"Bob Smith"}, Organization: []string{}, Email: []string{}, Source: constants.SourceProse},
	}}
}

func TestProcessBatch_SkipsEmptyAndExports(t *testing.T) {
	p, logs, audit, out := newTestProcessor(t, defaultExtractor())
	batchID := uuid.NewString()

	outcome, err := p.ProcessBatch(context.Background(), Batch{
		ID:     batchID,
		UserIP: "10.0.0.1",
		Files: []File{
			{Name: "a.txt", ContentType: "text/plain", Data: []byte(janeText)},
			{Name: "b.txt", Data: []byte(bobText)},
			{Name: "empty.txt", Data: []byte{}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, batchID, outcome.BatchID)
	assert.Equal(t, 3, outcome.Summary.FilesProcessed)
	require.Len(t, outcome.Summary.Results, 2)
	assert.Equal(t, 2, outcome.Summary.NamesExtracted)
	assert.Equal(t, 1, outcome.Summary.EmailsExtracted)
	assert.Equal(t, 1, outcome.Summary.OrgsExtracted)

	first := outcome.Summary.Results[0]
	assert.Equal(t, "a.txt", first.Filename)
	assert.Equal(t, ".txt", first.SourceType)
	assert.Equal(t, "Jane Doe", first.Names)
	assert.Equal(t, "1.00", first.EmailConfidences)
	assert.Equal(t, constants.SourceProse, first.ModelSource)

	assert.Equal(t, []FileResult{
		{Filename: "a.txt", Status: constants.FileStatusProcessed},
		{Filename: "b.txt", Status: constants.FileStatusProcessed},
		{Filename: "empty.txt", Status: constants.FileStatusEmpty},
	}, outcome.Files)

	assert.Equal(t, map[string]string{"xlsx": batchID + ".xlsx", "csv": batchID + ".csv"}, outcome.Downloads)
	for _, name := range []string{batchID + ".xlsx", batchID + ".csv", batchID + ".json"} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	require.Len(t, logs.entries, 2)
	assert.Equal(t, batchID, logs.entries[0].BatchID)
	require.NotNil(t, logs.entries[0].UserIP)
	assert.Equal(t, "10.0.0.1", *logs.entries[0].UserIP)
	assert.Equal(t, 1, logs.entries[0].NameCount)
	assert.Len(t, audit.entries, 2)

	loaded, err := p.LoadSummary(batchID)
	require.NoError(t, err)
	assert.Equal(t, outcome.Summary, loaded)
}

func TestProcessBatch_IsolatesFailures(t *testing.T) {
	ex := defaultExtractor()
	ex.fail = map[string]error{"explode": errors.New("model down")}
	p, _, _, _ := newTestProcessor(t, ex)

	outcome, err := p.ProcessBatch(context.Background(), Batch{Files: []File{
		{Name: "bad.txt", Data: []byte("explode")},
		{Name: "virus.exe", Data: []byte("MZ")},
		{Name: "image.pdf", ContentType: "image/png", Data: []byte("x")},
		{Name: "ok.txt", Data: []byte(bobText)},
	}})
	require.NoError(t, err)
	_, parseErr := uuid.Parse(outcome.BatchID)
	assert.NoError(t, parseErr)

	assert.Equal(t, 4, outcome.Summary.FilesProcessed)
	require.Len(t, outcome.Summary.Results, 1)
	assert.Equal(t, "ok.txt", outcome.Summary.Results[0].Filename)

	statuses := map[string]constants.FileStatus{}
	for _, f := range outcome.Files {
		statuses[f.Filename] = f.Status
	}
	assert.Equal(t, constants.FileStatusFailed, statuses["bad.txt"])
	assert.Equal(t, constants.FileStatusUnsupported, statuses["virus.exe"])
	assert.Equal(t, constants.FileStatusUnsupported, statuses["image.pdf"])
}

func TestProcessBatch_EmptyBatch(t *testing.T) {
	p, logs, _, out := newTestProcessor(t, defaultExtractor())

	outcome, err := p.ProcessBatch(context.Background(), Batch{Files: []File{
		{Name: "empty.txt", Data: []byte{}},
		{Name: "notes.md", Data: []byte("# hi")},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrEmptyBatch)
	require.NotNil(t, outcome)
	assert.Len(t, outcome.Files, 2)
	assert.Empty(t, logs.entries)
	assert.NoDirExists(t, out)
}

func TestProcessBatch_ReadsFromPath(t *testing.T) {
	p, _, _, _ := newTestProcessor(t, defaultExtractor())
	dir := t.TempDir()
	path := filepath.Join(dir, "bob.txt")
	require.NoError(t, os.WriteFile(path, []byte(bobText), 0o644))

	outcome, err := p.ProcessBatch(context.Background(), Batch{Files: []File{{Name: "bob.txt", Path: path}}})
	require.NoError(t, err)
	require.Len(t, outcome.Summary.Results, 1)
	assert.Equal(t, "Bob Smith", outcome.Summary.Results[0].Names)
}

func TestProcessBatch_Cancelled(t *testing.T) {
	p, _, _, _ := newTestProcessor(t, defaultExtractor())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ProcessBatch(ctx, Batch{Files: []File{{Name: "a.txt", Data: []byte(bobText)}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadSummary_NotFound(t *testing.T) {
	p, _, _, _ := newTestProcessor(t, defaultExtractor())

	_, err := p.LoadSummary("../../etc/passwd")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = p.LoadSummary(uuid.NewString())
	assert.ErrorIs(t, err, common.ErrNotFound)
}
