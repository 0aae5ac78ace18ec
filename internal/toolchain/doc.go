// Package toolchain drives the external build tools: it checks the pinned
// interpreter, creates an isolated environment, installs the packaging tool
// and the manifest dependencies, and packages the entry point into a single
// standalone executable.
package toolchain
