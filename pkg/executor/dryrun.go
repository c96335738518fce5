package executor

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// DryRun is an Executor that never creates a process. The assembled command
// line is still logged, which keeps command assembly observable in tests and
// on clusters where the caller has no allocation.
type DryRun struct {
}

// NewDryRun returns a DryRun instance.
func NewDryRun() DryRun {
	return DryRun{}
}

// Name returns user-friendly name of the executor.
func (d DryRun) Name() string {
	return "DryRun"
}

// Execute logs the command and returns a nil handle without spawning anything.
func (d DryRun) Execute(command Command) (TaskHandle, error) {
	log.Debug("Dry run, not executing: ", strings.Join(command.Argv, " "))
	return nil, nil
}
