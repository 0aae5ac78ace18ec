// Package trigger implements the release-trigger client: it asks a running
// release-server to execute the pipeline and reports the outcome.
package trigger
