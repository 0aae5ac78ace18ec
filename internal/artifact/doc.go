// Package artifact stores build archives inside the pipeline, separately from
// the public release. Archives live either in a local directory or in an
// S3-compatible bucket.
package artifact
