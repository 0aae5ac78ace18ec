//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"

	"github.com/oshokin/release-packager/internal/domain/pipeline"
)

// DetectActor gathers host and user information for the run record.
func DetectActor() (*pipeline.Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &pipeline.Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
