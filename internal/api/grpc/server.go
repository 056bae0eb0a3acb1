// Package grpcapi exposes the translation pipeline over gRPC. Messages are
// google.protobuf.Struct values carrying the same fields as the HTTP JSON
// body, so clients need no generated stubs.
package grpcapi

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"speech-translation-service/internal/observability"
	"speech-translation-service/internal/observability/metrics"
	"speech-translation-service/internal/pipeline"
)

const (
	// ServiceName is the fully-qualified gRPC service name.
	ServiceName = "speech.translation.v1.TranslationService"
	// TranslateMethod is the full method name of Translate.
	TranslateMethod = "/" + ServiceName + "/Translate"
	// UserIDMetadataKey carries the caller identity set by the gateway.
	UserIDMetadataKey = "x-user-id"
)

// TranslationServer is the server API for TranslationService.
type TranslationServer interface {
	Translate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes TranslationService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TranslationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Translate", Handler: translateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "speech/translation/v1/translation.proto",
}

func translateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TranslationServer).Translate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: TranslateMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TranslationServer).Translate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Server implements TranslationServer on top of the pipeline.
type Server struct {
	pipeline *pipeline.Pipeline
	logger   zerolog.Logger
}

// NewServer builds a grpc.Server with the translation, health and
// reflection services registered.
func NewServer(p *pipeline.Pipeline, m *metrics.Metrics, logger zerolog.Logger) (*grpc.Server, *health.Server) {
	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(observability.UnaryServerInterceptor(m, logger)),
		grpc.ChainStreamInterceptor(observability.StreamServerInterceptor(m, logger)),
	)

	// Register gRPC health check service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	Register(server, p, logger)

	// Enable gRPC reflection for debugging tools like grpcurl
	reflection.Register(server)

	return server, healthServer
}

// Register registers the translation service on g.
func Register(g grpc.ServiceRegistrar, p *pipeline.Pipeline, logger zerolog.Logger) *Server {
	s := &Server{pipeline: p, logger: logger}
	g.RegisterService(&ServiceDesc, s)
	return s
}

// Translate runs one request through the pipeline. The request struct holds
// "text" and an optional "roomId"; the response holds "text", "cached",
// "processingTime" and, when suppressed, "filtered".
func (s *Server) Translate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID := userFromContext(ctx)
	if userID == "" {
		return nil, status.Error(codes.Unauthenticated, "missing caller identity")
	}

	fields := req.GetFields()

	var text string
	if v, ok := fields["text"]; ok {
		sv, isString := v.GetKind().(*structpb.Value_StringValue)
		if !isString {
			return nil, status.Error(codes.InvalidArgument, "text must be a string")
		}
		text = sv.StringValue
	}

	var roomID string
	if v, ok := fields["roomId"]; ok {
		switch k := v.GetKind().(type) {
		case *structpb.Value_NullValue:
		case *structpb.Value_StringValue:
			roomID = k.StringValue
		default:
			return nil, status.Error(codes.InvalidArgument, "roomId must be a string")
		}
	}

	resp, err := s.pipeline.Translate(ctx, pipeline.Request{
		Text:      text,
		RoomID:    roomID,
		UserID:    userID,
		RequestID: requestIDFromContext(ctx),
		Transport: "grpc",
	})
	if err != nil {
		return nil, toStatus(err)
	}

	out := map[string]interface{}{
		"text":           resp.Text,
		"cached":         resp.Cached,
		"processingTime": float64(resp.ProcessingTime),
	}
	if resp.Filtered {
		out["filtered"] = true
	}
	return structpb.NewStruct(out)
}

func toStatus(err error) error {
	var verr *pipeline.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Message)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "Error processing translation: "+err.Error())
	case errors.Is(err, pipeline.ErrUpstream):
		return status.Error(codes.Unavailable, "Error processing translation: "+err.Error())
	default:
		return status.Error(codes.Internal, "Error processing translation: "+err.Error())
	}
}

func userFromContext(ctx context.Context) string {
	return firstMetadata(ctx, UserIDMetadataKey)
}

func requestIDFromContext(ctx context.Context) string {
	return firstMetadata(ctx, "x-request-id")
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
