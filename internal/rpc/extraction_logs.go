package rpc

import (
	"context"
	"log/slog"
	"math"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/entity-extractor/internal/common"
	"github.com/joseph-ayodele/entity-extractor/internal/entity"
	"github.com/joseph-ayodele/entity-extractor/internal/repository"
)

const (
	ExtractionLogsServiceName = "extractor.v1.ExtractionLogs"
	defaultPageSize           = 20
)

// ExtractionLogsServer reads the extraction history. Requests and responses
// are google.protobuf.Struct so no generated stubs are needed.
type ExtractionLogsServer interface {
	List(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListByBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ExtractionLogsServiceDesc describes the service for grpc.Server.RegisterService.
var ExtractionLogsServiceDesc = grpc.ServiceDesc{
	ServiceName: ExtractionLogsServiceName,
	HandlerType: (*ExtractionLogsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "List", Handler: listHandler},
		{MethodName: "ListByBatch", Handler: listByBatchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "extractor/v1/extraction_logs.proto",
}

func RegisterExtractionLogsServer(s grpc.ServiceRegistrar, srv ExtractionLogsServer) {
	s.RegisterService(&ExtractionLogsServiceDesc, srv)
}

func listHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractionLogsServer).List(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ExtractionLogsServiceName + "/List"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExtractionLogsServer).List(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listByBatchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractionLogsServer).ListByBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ExtractionLogsServiceName + "/ListByBatch"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExtractionLogsServer).ListByBatch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type ExtractionLogsService struct {
	logs   repository.ExtractionLogRepository
	logger *slog.Logger
}

func NewExtractionLogsService(logs repository.ExtractionLogRepository, logger *slog.Logger) *ExtractionLogsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionLogsService{logs: logs, logger: logger}
}

// List takes {page, page_size} and returns {items, total, page, page_size}.
func (s *ExtractionLogsService) List(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	page, ok := intField(req, "page", 1)
	if !ok {
		return nil, common.InvalidArgumentError("page must be an integer")
	}
	size, ok := intField(req, "page_size", defaultPageSize)
	if !ok {
		return nil, common.InvalidArgumentError("page_size must be an integer")
	}
	v := common.NewValidator().
		Field("page", page, common.IntRange(1, math.MaxInt32)).
		Field("page_size", size, common.IntRange(1, 100))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	items, total, err := s.logs.List(ctx, page, size)
	if err != nil {
		s.logger.Error("rpc.logs.list_failed", "error", err)
		return nil, toStatus(err)
	}
	return buildResponse(items, map[string]any{
		"total":     total,
		"page":      page,
		"page_size": size,
	})
}

// ListByBatch takes {batch_id} and returns {items, total}.
func (s *ExtractionLogsService) ListByBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	batchID := req.GetFields()["batch_id"].GetStringValue()
	if err := common.ValidateAndReturnError(common.NewValidator().Field("batch_id", batchID, common.UUID)); err != nil {
		return nil, err
	}
	items, err := s.logs.ListByBatch(ctx, batchID)
	if err != nil {
		s.logger.Error("rpc.logs.list_by_batch_failed", "batch_id", batchID, "error", err)
		return nil, toStatus(err)
	}
	return buildResponse(items, map[string]any{"total": len(items)})
}

// intField reads a whole number from req, or def when the key is absent.
func intField(req *structpb.Struct, key string, def int) (int, bool) {
	v, ok := req.GetFields()[key]
	if !ok {
		return def, true
	}
	n, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, false
	}
	return int(n.NumberValue), true
}

func buildResponse(items []*entity.ExtractionLog, extra map[string]any) (*structpb.Struct, error) {
	list := make([]any, 0, len(items))
	for _, it := range items {
		list = append(list, logToMap(it))
	}
	extra["items"] = list
	out, err := structpb.NewStruct(extra)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}

func logToMap(l *entity.ExtractionLog) map[string]any {
	m := map[string]any{
		"id":           l.ID,
		"batch_id":     l.BatchID,
		"filename":     l.Filename,
		"source_type":  l.SourceType,
		"upload_time":  l.UploadTime.UTC().Format(time.RFC3339Nano),
		"name_count":   l.NameCount,
		"email_count":  l.EmailCount,
		"org_count":    l.OrgCount,
		"model_source": l.ModelSource,
	}
	if l.UserIP != nil {
		m["user_ip"] = *l.UserIP
	}
	return m
}
