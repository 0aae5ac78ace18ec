// Package history persists pipeline run records.
//
// FileRepository keeps the most recent runs in a YAML file next to the
// configuration; PostgresRepository stores them in a table for deployments
// that run the trigger server. Both satisfy Repository.
package history
