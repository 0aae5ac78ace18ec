package trigger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/domain/pipeline"
	"github.com/oshokin/release-packager/internal/logger"
	"github.com/oshokin/release-packager/internal/render"
	"github.com/oshokin/release-packager/internal/service/common"
)

// Options configures the trigger client.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides the server address from the configuration.
	ServerAddress string
	// Trigger describes the event; nil reads the CI environment and falls back to a manual run.
	Trigger *pipeline.Trigger
	// Wait keeps retrying while the server is unreachable or busy.
	Wait bool
	// LastRun only prints the most recent run.
	LastRun bool
}

// ErrRunFailed is returned when the server finished the run with a failure.
var ErrRunFailed = errors.New("pipeline run failed")

// defaultRetryInterval is the delay between attempts when waiting.
const defaultRetryInterval = 5 * time.Second

// Run sends one trigger to the server and reports the resulting run.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "release-trigger")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	serverAddress := cfg.Server.Address
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress,
		common.WithCallTimeout(cfg.Server.Timeout), common.WithToken(cfg.Server.Token))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	if opts.LastRun {
		run, lastErr := client.LastRun(ctx)
		if lastErr != nil {
			return lastErr
		}

		logger.Infof(ctx, "Last run:\n%s", render.RunSummary(run))

		return nil
	}

	trigger, err := resolveTrigger(opts.Trigger)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Requesting pipeline run",
		"server_address", serverAddress, "event", trigger.Event, "actor", trigger.Actor.String())

	run, err := send(ctx, client, trigger, opts.Wait)
	if err != nil {
		return err
	}

	return report(ctx, run)
}

// resolveTrigger completes trigger from the CI environment and the local actor.
func resolveTrigger(trigger *pipeline.Trigger) (*pipeline.Trigger, error) {
	if trigger == nil {
		trigger = pipeline.TriggerFromEnvironment()
	}

	if trigger == nil {
		trigger = &pipeline.Trigger{Event: pipeline.EventManual}
	}

	if trigger.Actor == nil {
		actor, err := common.DetectActor()
		if err != nil {
			return nil, err
		}

		trigger.Actor = actor
	}

	return trigger, nil
}

// runClient is the part of common.Client send depends on.
type runClient interface {
	Trigger(ctx context.Context, trigger *pipeline.Trigger) (*pipeline.Run, error)
}

// send triggers a run. With wait it retries while the server is unavailable or busy.
func send(ctx context.Context, client runClient, trigger *pipeline.Trigger, wait bool) (*pipeline.Run, error) {
	return sendEvery(ctx, client, trigger, wait, defaultRetryInterval)
}

func sendEvery(
	ctx context.Context,
	client runClient,
	trigger *pipeline.Trigger,
	wait bool,
	interval time.Duration,
) (*pipeline.Run, error) {
	attempt := func() (*pipeline.Run, bool, error) {
		run, err := client.Trigger(ctx, trigger)
		if err == nil {
			return run, true, nil
		}

		if wait && retryable(err) {
			logger.WarnKV(ctx, "Server not ready, retrying", "error", err)

			return nil, false, nil
		}

		return nil, false, err
	}

	if run, done, err := attempt(); err != nil || done {
		return run, err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			if run, done, err := attempt(); err != nil || done {
				return run, err
			}
		}
	}
}

func retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.Aborted:
		return true
	default:
		return false
	}
}

// report logs the run and turns a failed run into ErrRunFailed.
func report(ctx context.Context, run *pipeline.Run) error {
	logger.Infof(ctx, "Run finished:\n%s", render.RunSummary(run))

	if run.Status != pipeline.StatusSucceeded {
		return fmt.Errorf("%w at %s (%s): %s", ErrRunFailed, run.FailedStep, run.Category, run.Error)
	}

	return nil
}
