// Package pipeline holds the release pipeline's domain vocabulary: the ordered
// steps, the failure taxonomy, the triggering event and the run record.
package pipeline
