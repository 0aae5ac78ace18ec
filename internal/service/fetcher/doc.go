// Package fetcher installs a published release on a player machine: it reads
// the release description, downloads the archive asset, checks it against the
// published checksum and unpacks the distribution folder.
package fetcher
