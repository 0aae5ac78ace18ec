package fetcher

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/release-packager/internal/logger"
)

// stopProcesses kills running copies of executable so its folder can be replaced.
func stopProcesses(ctx context.Context, executable string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID || !sameExecutable(process.Executable(), executable) {
			continue
		}

		runningProcess, err := os.FindProcess(process.Pid())
		if err != nil {
			return err
		}

		logger.InfoKV(ctx, "Stopping running executable", "executable", process.Executable(), "pid", process.Pid())

		if err = runningProcess.Kill(); err != nil {
			return err
		}
	}

	return nil
}

// sameExecutable compares process names, ignoring the .exe suffix and case on Windows.
func sameExecutable(running, executable string) bool {
	if runtime.GOOS != "windows" {
		return running == executable
	}

	return strings.EqualFold(strings.TrimSuffix(strings.ToLower(running), ".exe"),
		strings.TrimSuffix(strings.ToLower(executable), ".exe"))
}
