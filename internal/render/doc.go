// Package render formats releases, run history and run summaries for the
// terminal.
package render
