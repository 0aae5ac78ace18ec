// Package manifest describes a packaged release: the application version,
// the archive checksum and a checksum per distributed file. The description
// travels as the release body so the fetcher can verify what it downloads.
package manifest
