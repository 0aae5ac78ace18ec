//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"

	api "github.com/oshokin/release-packager/internal/api/grpc/trigger"
	"github.com/oshokin/release-packager/internal/domain/pipeline"
	pb "github.com/oshokin/release-packager/internal/pb/v1"
)

// defaultCallTimeout bounds a call when no timeout is configured. A run
// includes a full build, so it is generous.
const defaultCallTimeout = time.Hour

// Client wraps the TriggerService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the release server.
	conn *grpc.ClientConn
	// api is the generated TriggerService client.
	api pb.TriggerServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// token is sent as a bearer token when set.
	token string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithToken authenticates every call with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the release server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	client := &Client{
		callTimeout: defaultCallTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	dialOptions := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if client.token != "" {
		dialOptions = append(dialOptions, grpc.WithPerRPCCredentials(api.NewTokenCredentials(client.token)))
	}

	conn, err := grpc.NewClient(address, dialOptions...)
	if err != nil {
		return nil, fmt.Errorf("dial release server: %w", err)
	}

	client.conn = conn
	client.api = pb.NewTriggerServiceClient(conn)

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Trigger asks the server to run the pipeline and waits for the run record.
// A nil trigger requests a manual run.
func (c *Client) Trigger(ctx context.Context, trigger *pipeline.Trigger) (*pipeline.Run, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.Trigger(callCtx, api.TriggerToProto(trigger))
	if err != nil {
		return nil, fmt.Errorf("trigger run: %w", err)
	}

	return api.RunFromProto(response), nil
}

// LastRun retrieves the most recent run.
func (c *Client) LastRun(ctx context.Context) (*pipeline.Run, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.GetLastRun(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get last run: %w", err)
	}

	return api.RunFromProto(response), nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
