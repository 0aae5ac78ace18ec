package trigger

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/oshokin/release-packager/internal/domain/pipeline"
	"github.com/oshokin/release-packager/internal/logger"
	pb "github.com/oshokin/release-packager/internal/pb/v1"
)

var (
	// ErrRunInProgress means a run is already executing.
	ErrRunInProgress = errors.New("a pipeline run is already in progress")
	// ErrNoRuns means nothing has run yet.
	ErrNoRuns = errors.New("no pipeline runs yet")
)

// Service abstracts the operations the transport layer depends on.
type Service interface {
	// Trigger executes one run. A failed step still returns the run record.
	Trigger(ctx context.Context, trigger *pipeline.Trigger) (*pipeline.Run, error)
	// LastRun returns the most recent run.
	LastRun(ctx context.Context) (*pipeline.Run, error)
}

// Server implements the TriggerService gRPC API.
type Server struct {
	pb.UnimplementedTriggerServiceServer

	// service runs the pipeline.
	service Service
}

// NewServer wires service into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// Trigger starts a run. Runs that fail at a step are returned with their
// failed status rather than as an RPC error.
func (s *Server) Trigger(ctx context.Context, req *pb.TriggerRequest) (*pb.Run, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	trigger := TriggerFromProto(req)
	if trigger != nil && trigger.Event == "" {
		return nil, status.Error(codes.InvalidArgument, "event is required")
	}

	run, err := s.service.Trigger(ctx, trigger)
	if run == nil {
		if err == nil {
			err = errors.New("service returned no run")
		}

		return nil, toStatus(err)
	}

	if err != nil {
		logger.WarnKV(ctx, "Triggered run failed", "run_id", run.ID, "error", err)
	}

	return RunToProto(run), nil
}

// GetLastRun returns the most recent run.
func (s *Server) GetLastRun(ctx context.Context, _ *emptypb.Empty) (*pb.Run, error) {
	run, err := s.service.LastRun(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	return RunToProto(run), nil
}

// toStatus maps service errors to gRPC codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, pipeline.ErrTriggerIgnored):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrRunInProgress):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, ErrNoRuns):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, "pipeline run could not start")
	}
}
