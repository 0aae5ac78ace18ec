package trigger

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oshokin/release-packager/internal/logger"
)

// ErrUnauthenticated means the request carried no valid bearer token.
var ErrUnauthenticated = errors.New("unauthenticated")

const (
	authorizationHeader = "authorization"
	bearerPrefix        = "bearer "
)

// TokenVerifier checks a raw bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) error
}

// OIDCVerifier accepts ID tokens signed by an OIDC issuer for one audience.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers issuer's keys and verifies tokens for audience.
func NewOIDCVerifier(ctx context.Context, issuer, audience string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}

	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: audience}),
	}, nil
}

// NewOIDCVerifierWithKeySet verifies tokens against a known key set without discovery.
func NewOIDCVerifierWithKeySet(issuer, audience string, keySet oidc.KeySet) *OIDCVerifier {
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{ClientID: audience}),
	}
}

// Verify implements TokenVerifier.
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) error {
	if _, err := v.verifier.Verify(ctx, rawToken); err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	return nil
}

// SharedTokenVerifier accepts one preconfigured token.
type SharedTokenVerifier struct {
	token []byte
}

// NewSharedTokenVerifier returns a verifier for token.
func NewSharedTokenVerifier(token string) *SharedTokenVerifier {
	return &SharedTokenVerifier{token: []byte(token)}
}

// Verify implements TokenVerifier.
func (v *SharedTokenVerifier) Verify(_ context.Context, rawToken string) error {
	if subtle.ConstantTimeCompare(v.token, []byte(rawToken)) != 1 {
		return ErrUnauthenticated
	}

	return nil
}

// AuthInterceptor rejects calls without a bearer token accepted by verifier.
func AuthInterceptor(verifier TokenVerifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		rawToken, ok := bearerToken(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "bearer token required")
		}

		if err := verifier.Verify(ctx, rawToken); err != nil {
			logger.WarnKV(ctx, "Rejected call", "method", info.FullMethod, "error", err)

			return nil, status.Error(codes.Unauthenticated, "invalid bearer token")
		}

		return handler(ctx, req)
	}
}

func bearerToken(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}

	for _, value := range md.Get(authorizationHeader) {
		if len(value) > len(bearerPrefix) && strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix) {
			return strings.TrimSpace(value[len(bearerPrefix):]), true
		}
	}

	return "", false
}

// TokenCredentials attaches a bearer token from an oauth2 token source to every call.
type TokenCredentials struct {
	source oauth2.TokenSource
}

// NewTokenCredentials returns per-RPC credentials for a static token.
func NewTokenCredentials(token string) *TokenCredentials {
	return &TokenCredentials{
		source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
	}
}

// GetRequestMetadata implements credentials.PerRPCCredentials.
func (c *TokenCredentials) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	token, err := c.source.Token()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		authorizationHeader: token.Type() + " " + token.AccessToken,
	}, nil
}

// RequireTransportSecurity implements credentials.PerRPCCredentials. The
// server is deployed next to the CI runner on a trusted network.
func (c *TokenCredentials) RequireTransportSecurity() bool {
	return false
}

var _ credentials.PerRPCCredentials = (*TokenCredentials)(nil)
