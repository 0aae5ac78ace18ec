package version

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// TestVersionStrings ensures Short, Full and UserAgent agree on the version.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
	require.True(t, strings.HasSuffix(UserAgent(), "/"+Short()))
}

// TestAttachCobraVersionCommand runs the attached subcommand in both output modes.
func TestAttachCobraVersionCommand(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "tool"}
	AttachCobraVersionCommand(root)

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetArgs([]string{"version", "--short"})
	require.NoError(t, root.Execute())
	require.Equal(t, Short()+"\n", out.String())
}
