// Package packager runs the release pipeline: it checks out the repository,
// builds a standalone executable, assembles and archives the distribution,
// stores the archive as a build artifact and publishes it as a release asset.
//
// Steps run strictly in order and the first failure stops the run. Nothing
// completed earlier is rolled back.
package packager
