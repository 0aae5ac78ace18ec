package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"

	api "github.com/oshokin/release-packager/internal/api/grpc/trigger"
	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/logger"
	pb "github.com/oshokin/release-packager/internal/pb/v1"
	"github.com/oshokin/release-packager/internal/service/packager"
)

// Options controls the release-server process.
type Options struct {
	// ConfigPath specifies the path to the pipeline YAML file.
	ConfigPath string
	// ListenAddress overrides the listen address derived from the configuration.
	ListenAddress string
	// Pipeline holds extra pipeline options, e.g. a scripted toolchain runner.
	Pipeline []packager.Option
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the trigger agent and blocks until ctx is canceled or the server stops.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "release-server")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	listenAddress, err := resolveListenAddress(cfg.Server.Address, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	interceptors, err := authInterceptors(ctx, cfg.Server)
	if err != nil {
		return err
	}

	p, err := packager.NewPipeline(ctx, cfg, opts.Pipeline...)
	if err != nil {
		return fmt.Errorf("initialise pipeline: %w", err)
	}

	defer func() {
		if closeErr := p.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close run history", "error", closeErr)
		}
	}()

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	pb.RegisterTriggerServiceServer(grpcServer, api.NewServer(newService(p, p.History())))

	logger.InfoKV(ctx, "Release server listening",
		"listen_address", listenAddress, "source", cfg.Source.Path, "authenticated", len(interceptors) > 0)

	// Closed after GracefulStop finishes so Run returns only once the
	// server, including an in-flight run, has stopped.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// authInterceptors picks OIDC verification when an issuer is configured and
// a shared token otherwise.
func authInterceptors(ctx context.Context, cfg config.ServerConfig) ([]grpc.UnaryServerInterceptor, error) {
	switch {
	case cfg.OIDCIssuer != "":
		verifier, err := api.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCAudience)
		if err != nil {
			return nil, fmt.Errorf("initialise token verification: %w", err)
		}

		return []grpc.UnaryServerInterceptor{api.AuthInterceptor(verifier)}, nil
	case cfg.Token != "":
		return []grpc.UnaryServerInterceptor{api.AuthInterceptor(api.NewSharedTokenVerifier(cfg.Token))}, nil
	default:
		logger.Warn(ctx, "No trigger authentication configured, accepting every caller")

		return nil, nil
	}
}

// resolveListenAddress returns override when set, otherwise the port of
// configAddr bound on all interfaces.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return ":" + port, nil
}
