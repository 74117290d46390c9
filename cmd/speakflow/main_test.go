package main

import (
	"errors"
	"os"
	"os/exec"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMainHelp(t *testing.T) {
	output, err := runMainSubprocess(t, "--help")
	require.NoError(t, err, string(output))
	require.Contains(t, string(output), "Usage:")
}

func TestMainVersion(t *testing.T) {
	output, err := runMainSubprocess(t, "version")
	require.NoError(t, err, string(output))
	require.Contains(t, string(output), "speakflow")
}

func TestMainInvalidCommandExitsWithUsageCode(t *testing.T) {
	output, err := runMainSubprocess(t, "not-a-command")

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "expected exit error, got %v", err)
	require.Equal(t, 2, exitErr.ExitCode())
	require.Contains(t, string(output), "unknown command")
}

// TestMainHelperProcess runs main with the arguments after "--" when invoked
// by runMainSubprocess.
func TestMainHelperProcess(t *testing.T) {
	if os.Getenv("SPEAKFLOW_HELPER_PROCESS") != "1" {
		return
	}

	args := []string{"speakflow"}
	if i := slices.Index(os.Args, "--"); i >= 0 {
		args = append(args, os.Args[i+1:]...)
	}
	os.Args = args
	main()
}

func runMainSubprocess(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()

	cmd := exec.Command(os.Args[0], append([]string{"-test.run=^TestMainHelperProcess$", "--"}, args...)...)
	cmd.Env = append(os.Environ(), "SPEAKFLOW_HELPER_PROCESS=1")
	return cmd.CombinedOutput()
}
