// Package github is a small client for the GitHub releases REST API: create,
// look up, list and delete releases, and upload or download their assets.
// Requests are authorized through an oauth2 token source; the token itself
// never leaves the transport.
package github
