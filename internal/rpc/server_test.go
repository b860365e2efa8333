package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/entity-extractor/internal/common"
	"github.com/joseph-ayodele/entity-extractor/internal/entity"
)

type fakeLogs struct {
	items []*entity.ExtractionLog
	err   error
}

func (f *fakeLogs) Create(_ context.Context, l *entity.ExtractionLog) (*entity.ExtractionLog, error) {
	f.items = append(f.items, l)
	return l, nil
}

func (f *fakeLogs) List(_ context.Context, page, pageSize int) ([]*entity.ExtractionLog, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	start := (page - 1) * pageSize
	if start >= len(f.items) {
		return nil, len(f.items), nil
	}
	end := min(start+pageSize, len(f.items))
	return f.items[start:end], len(f.items), nil
}

func (f *fakeLogs) ListByBatch(_ context.Context, batchID string) ([]*entity.ExtractionLog, error) {
	var out []*entity.ExtractionLog
	for _, it := range f.items {
		if it.BatchID == batchID {
			out = append(out, it)
		}
	}
	return out, f.err
}

func dial(t *testing.T, logs *fakeLogs) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv, _ := NewServer(logs, nil)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func invoke(t *testing.T, conn *grpc.ClientConn, method string, in map[string]any) (*structpb.Struct, error) {
	t.Helper()
	req, err := structpb.NewStruct(in)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out := new(structpb.Struct)
	err = conn.Invoke(ctx, "/"+ExtractionLogsServiceName+"/"+method, req, out)
	return out, err
}

func sampleLogs(batchID string) *fakeLogs {
	ip := "10.0.0.1"
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &fakeLogs{items: []*entity.ExtractionLog{
		{ID: 3, BatchID: batchID, Filename: "a.txt", SourceType: ".txt", UploadTime: now, NameCount: 2, ModelSource: "prose", UserIP: &ip},
		{ID: 2, BatchID: batchID, Filename: "b.pdf", SourceType: ".pdf", UploadTime: now, OrgCount: 1, ModelSource: "prose"},
		{ID: 1, BatchID: uuid.NewString(), Filename: "c.docx", SourceType: ".docx", UploadTime: now, ModelSource: "gpt"},
	}}
}

func TestHealth(t *testing.T) {
	conn := dial(t, &fakeLogs{})
	client := healthpb.NewHealthClient(conn)
	for _, svc := range []string{"", ExtractionLogsServiceName} {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: svc})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	}
}

func TestList(t *testing.T) {
	batchID := uuid.NewString()
	conn := dial(t, sampleLogs(batchID))

	out, err := invoke(t, conn, "List", map[string]any{"page": 1, "page_size": 2})
	require.NoError(t, err)
	m := out.AsMap()
	assert.EqualValues(t, 3, m["total"])
	assert.EqualValues(t, 2, m["page_size"])
	items := m["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "a.txt", first["filename"])
	assert.Equal(t, "10.0.0.1", first["user_ip"])
	assert.Equal(t, "2024-05-01T12:00:00Z", first["upload_time"])
	assert.NotContains(t, items[1].(map[string]any), "user_ip")

	out, err = invoke(t, conn, "List", map[string]any{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, out.AsMap()["page"])
	assert.Len(t, out.AsMap()["items"], 3)
}

func TestList_InvalidArguments(t *testing.T) {
	conn := dial(t, &fakeLogs{})
	for _, in := range []map[string]any{
		{"page": 0},
		{"page_size": 500},
		{"page": 1.5},
		{"page": "one"},
	} {
		_, err := invoke(t, conn, "List", in)
		assert.Equal(t, codes.InvalidArgument, status.Code(err), in)
	}
}

func TestList_RepositoryErrorIsInternal(t *testing.T) {
	conn := dial(t, &fakeLogs{err: common.NewAppError(common.CodeDatabase, "query failed", common.ErrDatabase)})
	_, err := invoke(t, conn, "List", nil)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestListByBatch(t *testing.T) {
	batchID := uuid.NewString()
	conn := dial(t, sampleLogs(batchID))

	out, err := invoke(t, conn, "ListByBatch", map[string]any{"batch_id": batchID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, out.AsMap()["total"])

	_, err = invoke(t, conn, "ListByBatch", map[string]any{"batch_id": "nope"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
