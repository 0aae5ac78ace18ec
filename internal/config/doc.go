// Package config defines the release pipeline definition and helpers to load,
// validate and save it as YAML.
//
// Secrets (release host token, storage keys, database URL, trigger token)
// are only ever read from the environment and are never written back.
package config
