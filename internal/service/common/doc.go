// Package common holds helpers shared by several services.
//
// It provides a gRPC client for the release server with timeouts and bearer
// authentication, and detects the current system actor for run records.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
