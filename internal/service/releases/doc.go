// Package releases implements the maintenance commands of release-packager:
// listing and deleting releases, checking a built archive and showing run history.
package releases
