// Package workspace owns the ephemeral build directory of a pipeline run:
// clean checkout of the repository, removal afterwards, and the PID lock
// that keeps two runs from sharing one source.
package workspace
