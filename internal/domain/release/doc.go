// Package release models release records and their binary assets as the
// release host exposes them.
package release
