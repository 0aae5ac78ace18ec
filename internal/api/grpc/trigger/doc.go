// Package trigger exposes pipeline runs over gRPC.
//
// It adapts domain runs and triggers to the generated protobuf messages of
// releasepackager.v1.TriggerService and implements its server. Requests may
// be authenticated with a bearer token checked by AuthInterceptor.
package trigger
