package trigger

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	pb "github.com/oshokin/release-packager/internal/pb/v1"
)

const (
	testIssuer   = "https://token.actions.githubusercontent.com"
	testAudience = "release-packager"
)

func signToken(t *testing.T, key *rsa.PrivateKey, claims map[string]any) string {
	t.Helper()

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(t, err)

	token, err := jwt.Signed(signer).Claims(claims).Serialize()
	require.NoError(t, err)

	return token
}

func callWithToken(t *testing.T, verifier TokenVerifier, header string) error {
	t.Helper()

	ctx := context.Background()
	if header != "" {
		ctx = metadata.NewIncomingContext(ctx, metadata.Pairs(authorizationHeader, header))
	}

	handler := func(context.Context, any) (any, error) {
		return "ok", nil
	}

	_, err := AuthInterceptor(verifier)(ctx, nil, &grpc.UnaryServerInfo{FullMethod: pb.TriggerService_Trigger_FullMethodName}, handler)

	return err
}

// TestAuthInterceptor_OIDC accepts a token from the issuer and rejects other audiences and expired tokens.
func TestAuthInterceptor_OIDC(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	verifier := NewOIDCVerifierWithKeySet(testIssuer, testAudience, &oidc.StaticKeySet{
		PublicKeys: []crypto.PublicKey{&key.PublicKey},
	})

	now := time.Now()
	valid := signToken(t, key, map[string]any{
		"iss": testIssuer,
		"aud": testAudience,
		"sub": "repo:oshokin/game-updater:pull_request",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})

	require.NoError(t, callWithToken(t, verifier, "Bearer "+valid))

	wrongAudience := signToken(t, key, map[string]any{
		"iss": testIssuer,
		"aud": "someone-else",
		"exp": now.Add(time.Hour).Unix(),
	})
	require.Equal(t, codes.Unauthenticated, status.Code(callWithToken(t, verifier, "Bearer "+wrongAudience)))

	expired := signToken(t, key, map[string]any{
		"iss": testIssuer,
		"aud": testAudience,
		"exp": now.Add(-time.Hour).Unix(),
	})
	require.Equal(t, codes.Unauthenticated, status.Code(callWithToken(t, verifier, "Bearer "+expired)))

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	forged := signToken(t, otherKey, map[string]any{
		"iss": testIssuer,
		"aud": testAudience,
		"exp": now.Add(time.Hour).Unix(),
	})
	require.Equal(t, codes.Unauthenticated, status.Code(callWithToken(t, verifier, "Bearer "+forged)))
}

// TestAuthInterceptor_SharedToken checks header parsing and constant token comparison.
func TestAuthInterceptor_SharedToken(t *testing.T) {
	t.Parallel()

	verifier := NewSharedTokenVerifier("s3cret")

	require.NoError(t, callWithToken(t, verifier, "Bearer s3cret"))
	require.NoError(t, callWithToken(t, verifier, "bearer s3cret"))
	require.Equal(t, codes.Unauthenticated, status.Code(callWithToken(t, verifier, "")))
	require.Equal(t, codes.Unauthenticated, status.Code(callWithToken(t, verifier, "Basic s3cret")))
	require.Equal(t, codes.Unauthenticated, status.Code(callWithToken(t, verifier, "Bearer wrong")))
}

// TestTokenCredentials_Metadata produces the header the interceptor reads.
func TestTokenCredentials_Metadata(t *testing.T) {
	t.Parallel()

	creds := NewTokenCredentials("s3cret")
	require.False(t, creds.RequireTransportSecurity())

	md, err := creds.GetRequestMetadata(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer s3cret", md[authorizationHeader])

	require.NoError(t, callWithToken(t, NewSharedTokenVerifier("s3cret"), md[authorizationHeader]))
}
