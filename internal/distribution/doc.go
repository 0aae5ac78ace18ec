// Package distribution turns the packaging tool's output directory into the
// fixed-name folder that users download: the executable plus the auxiliary
// files copied from the repository.
package distribution
