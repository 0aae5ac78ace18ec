package trigger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/oshokin/release-packager/internal/domain/pipeline"
	pb "github.com/oshokin/release-packager/internal/pb/v1"
)

// fakeService implements Service for unit testing the transport.
type fakeService struct {
	// triggerFn replaces the default behavior when set.
	triggerFn func(ctx context.Context, trigger *pipeline.Trigger) (*pipeline.Run, error)
	// last is returned by LastRun.
	last *pipeline.Run
	// received is the last trigger passed to Trigger.
	received *pipeline.Trigger
}

// Trigger records the request and returns a succeeded run.
func (f *fakeService) Trigger(ctx context.Context, trigger *pipeline.Trigger) (*pipeline.Run, error) {
	f.received = trigger

	if f.triggerFn != nil {
		return f.triggerFn(ctx, trigger)
	}

	run := pipeline.NewRun(trigger)
	run.Record(pipeline.StepCheckout, time.Now(), nil)
	run.Finish(nil)
	f.last = run

	return run, nil
}

// LastRun returns the stored run or ErrNoRuns.
func (f *fakeService) LastRun(context.Context) (*pipeline.Run, error) {
	if f.last == nil {
		return nil, ErrNoRuns
	}

	return f.last, nil
}

// TestServer_Trigger_Validation rejects nil requests and requests without an event.
func TestServer_Trigger_Validation(t *testing.T) {
	t.Parallel()

	s := NewServer(new(fakeService))

	_, err := s.Trigger(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.Trigger(context.Background(), &pb.TriggerRequest{BaseBranch: "master"})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_Roundtrip triggers a run and reads it back with GetLastRun.
func TestServer_Roundtrip(t *testing.T) {
	t.Parallel()

	svc := new(fakeService)
	s := NewServer(svc)

	_, err := s.GetLastRun(context.Background(), new(emptypb.Empty))
	require.Equal(t, codes.NotFound, status.Code(err))

	request := TriggerToProto(&pipeline.Trigger{
		Event:      pipeline.EventPullRequest,
		BaseBranch: "master",
		Actor:      &pipeline.Actor{Hostname: "ci-runner", Username: "octocat"},
	})

	response, err := s.Trigger(context.Background(), request)
	require.NoError(t, err)

	run := RunFromProto(response)
	require.Equal(t, pipeline.StatusSucceeded, run.Status)
	require.Equal(t, "octocat", svc.received.Actor.Username)
	require.Equal(t, "master", run.Trigger.BaseBranch)

	response, err = s.GetLastRun(context.Background(), new(emptypb.Empty))
	require.NoError(t, err)
	require.Equal(t, run.ID, RunFromProto(response).ID)
}

// TestServer_Trigger_FailedRunIsNotAnRPCError returns the failed run as data.
func TestServer_Trigger_FailedRunIsNotAnRPCError(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeService{
		triggerFn: func(_ context.Context, trigger *pipeline.Trigger) (*pipeline.Run, error) {
			err := pipeline.NewStepError(pipeline.StepCreateRelease, errors.New("tag exists"))
			run := pipeline.NewRun(trigger)
			run.Finish(err)

			return run, err
		},
	})

	response, err := s.Trigger(context.Background(), new(pb.TriggerRequest))
	require.NoError(t, err)

	run := RunFromProto(response)
	require.Equal(t, pipeline.StatusFailed, run.Status)
	require.Equal(t, pipeline.StepCreateRelease, run.FailedStep)
	require.Equal(t, pipeline.CategoryRemote, run.Category)
	require.Nil(t, run.Trigger)
}

// TestServer_Trigger_ErrorCodes maps service errors without a run to status codes.
func TestServer_Trigger_ErrorCodes(t *testing.T) {
	t.Parallel()

	cases := map[error]codes.Code{
		pipeline.ErrTriggerIgnored: codes.FailedPrecondition,
		ErrRunInProgress:           codes.Aborted,
		errors.New("disk is full"): codes.Internal,
	}

	for serviceErr, code := range cases {
		s := NewServer(&fakeService{
			triggerFn: func(context.Context, *pipeline.Trigger) (*pipeline.Run, error) {
				return nil, serviceErr
			},
		})

		_, err := s.Trigger(context.Background(), new(pb.TriggerRequest))
		require.Equal(t, code, status.Code(err), serviceErr)
	}
}

// TestRunProto_PreservesFields converts a failed run with steps both ways.
func TestRunProto_PreservesFields(t *testing.T) {
	t.Parallel()

	run := pipeline.NewRun(&pipeline.Trigger{Event: "pull_request", BaseBranch: "master", HeadRef: "feature"})
	run.Version = "1.4.2"
	run.Record(pipeline.StepCheckout, time.Now().Add(-2*time.Second), nil)
	run.Record(pipeline.StepProvisionRuntime, time.Now(), errors.New("python missing"))
	run.Finish(pipeline.NewStepError(pipeline.StepProvisionRuntime, errors.New("python missing")))

	encoded, err := proto.Marshal(RunToProto(run))
	require.NoError(t, err)

	wire := new(pb.Run)
	require.NoError(t, proto.Unmarshal(encoded, wire))

	decoded := RunFromProto(wire)
	require.Equal(t, run.ID, decoded.ID)
	require.Equal(t, run.Status, decoded.Status)
	require.Equal(t, run.FailedStep, decoded.FailedStep)
	require.Equal(t, run.Category, decoded.Category)
	require.Equal(t, run.Version, decoded.Version)
	require.Equal(t, "feature", decoded.Trigger.HeadRef)
	require.Nil(t, decoded.Trigger.Actor)
	require.True(t, run.StartedAt.Equal(decoded.StartedAt))
	require.Len(t, decoded.Steps, 2)
	require.Equal(t, pipeline.StatusFailed, decoded.Steps[1].Status)
	require.GreaterOrEqual(t, decoded.Steps[0].Duration, time.Second)
	require.True(t, run.Steps[1].FinishedAt.Equal(decoded.Steps[1].FinishedAt))
	require.True(t, decoded.FinishedAt.Equal(run.FinishedAt))
}

// TestTriggerProto_EmptyIsManual maps an empty request to a manual run and back.
func TestTriggerProto_EmptyIsManual(t *testing.T) {
	t.Parallel()

	require.Nil(t, TriggerFromProto(nil))
	require.Nil(t, TriggerFromProto(new(pb.TriggerRequest)))
	require.Zero(t, proto.Size(TriggerToProto(nil)))

	trigger := TriggerFromProto(&pb.TriggerRequest{Actor: &pb.Actor{Username: "octocat"}})
	require.NotNil(t, trigger)
	require.Empty(t, trigger.Event)
	require.Equal(t, "octocat", trigger.Actor.Username)
}
