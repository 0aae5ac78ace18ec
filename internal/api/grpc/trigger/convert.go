package trigger

import (
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/oshokin/release-packager/internal/domain/pipeline"
	pb "github.com/oshokin/release-packager/internal/pb/v1"
)

// TriggerToProto converts a domain trigger to a request. A nil trigger
// becomes an empty request, which the server runs manually.
func TriggerToProto(t *pipeline.Trigger) *pb.TriggerRequest {
	if t == nil {
		return new(pb.TriggerRequest)
	}

	req := &pb.TriggerRequest{
		Event:      t.Event,
		BaseBranch: t.BaseBranch,
		HeadRef:    t.HeadRef,
	}

	if t.Actor != nil {
		req.Actor = &pb.Actor{
			Hostname: t.Actor.Hostname,
			Username: t.Actor.Username,
		}
	}

	return req
}

// TriggerFromProto converts a request to a domain trigger.
// An empty request is a manual run and yields nil.
func TriggerFromProto(req *pb.TriggerRequest) *pipeline.Trigger {
	if req == nil || proto.Size(req) == 0 {
		return nil
	}

	t := &pipeline.Trigger{
		Event:      req.GetEvent(),
		BaseBranch: req.GetBaseBranch(),
		HeadRef:    req.GetHeadRef(),
	}

	if actor := req.GetActor(); actor != nil {
		t.Actor = &pipeline.Actor{
			Hostname: actor.GetHostname(),
			Username: actor.GetUsername(),
		}
	}

	return t
}

// RunToProto converts a run record to its wire form.
func RunToProto(run *pipeline.Run) *pb.Run {
	out := &pb.Run{
		Id:          run.ID,
		Status:      string(run.Status),
		FailedStep:  string(run.FailedStep),
		Category:    string(run.Category),
		Error:       run.Error,
		StartedAt:   toTimestamp(run.StartedAt),
		FinishedAt:  toTimestamp(run.FinishedAt),
		Version:     run.Version,
		ArtifactKey: run.ArtifactKey,
		ReleaseUrl:  run.ReleaseURL,
		AssetUrl:    run.AssetURL,
		Steps:       make([]*pb.StepResult, 0, len(run.Steps)),
	}

	if run.Trigger != nil {
		out.Trigger = TriggerToProto(run.Trigger)
	}

	for _, step := range run.Steps {
		out.Steps = append(out.Steps, &pb.StepResult{
			Step:       string(step.Step),
			Status:     string(step.Status),
			Duration:   durationpb.New(step.Duration),
			StartedAt:  toTimestamp(step.StartedAt),
			FinishedAt: toTimestamp(step.FinishedAt),
		})
	}

	return out
}

// RunFromProto converts a wire run back to the domain record.
func RunFromProto(in *pb.Run) *pipeline.Run {
	run := &pipeline.Run{
		ID:          in.GetId(),
		Trigger:     TriggerFromProto(in.GetTrigger()),
		Status:      pipeline.Status(in.GetStatus()),
		FailedStep:  pipeline.Step(in.GetFailedStep()),
		Category:    pipeline.Category(in.GetCategory()),
		Error:       in.GetError(),
		StartedAt:   fromTimestamp(in.GetStartedAt()),
		FinishedAt:  fromTimestamp(in.GetFinishedAt()),
		Version:     in.GetVersion(),
		ArtifactKey: in.GetArtifactKey(),
		ReleaseURL:  in.GetReleaseUrl(),
		AssetURL:    in.GetAssetUrl(),
	}

	for _, step := range in.GetSteps() {
		run.Steps = append(run.Steps, pipeline.StepResult{
			Step:       pipeline.Step(step.GetStep()),
			Status:     pipeline.Status(step.GetStatus()),
			Duration:   step.GetDuration().AsDuration(),
			StartedAt:  fromTimestamp(step.GetStartedAt()),
			FinishedAt: fromTimestamp(step.GetFinishedAt()),
		})
	}

	return run
}

// toTimestamp leaves zero times unset on the wire.
func toTimestamp(t time.Time) *timestamppb.Timestamp {
	if t.IsZero() {
		return nil
	}

	return timestamppb.New(t)
}

func fromTimestamp(ts *timestamppb.Timestamp) time.Time {
	if ts == nil {
		return time.Time{}
	}

	return ts.AsTime().UTC()
}
