package runner

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecCapturesStdout(t *testing.T) {
	t.Parallel()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	out, err := NewExec(nil).Run(context.Background(), t.TempDir(), "sh", "-c", "echo hello; echo oops 1>&2")
	require.NoError(t, err)
	require.Equal(t, "hello\n", out.Stdout)
	require.Equal(t, "oops\n", out.Stderr)
	require.Zero(t, out.ExitCode)
}

func TestExecReportsExitCode(t *testing.T) {
	t.Parallel()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	out, err := NewExec(nil).Run(context.Background(), "", "sh", "-c", "echo broken 1>&2; exit 3")
	require.Error(t, err)
	require.Equal(t, 3, out.ExitCode)
	require.Contains(t, err.Error(), "broken")
}

func TestExecMissingBinary(t *testing.T) {
	t.Parallel()

	out, err := NewExec(nil).Run(context.Background(), "", "definitely-not-a-real-tool-xyz")
	require.Error(t, err)
	require.Equal(t, -1, out.ExitCode)
}
