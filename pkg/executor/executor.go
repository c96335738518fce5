// Package executor provides the process execution environment for benchmark
// tools. Commands are fully assembled argument vectors; the executor only
// starts them and hands back a handle for waiting.
package executor

import (
	"os"
)

// Command describes a single subprocess invocation. Stdout and Stderr may be
// nil, in which case the subprocess output is discarded.
type Command struct {
	Argv   []string
	Stdout *os.File
	Stderr *os.File
}

// Executor is responsible for creating the execution environment for a given
// benchmark invocation. It returns a TaskHandle when the subprocess started
// gracefully. The subprocess runs asynchronously.
//
// A nil TaskHandle with a nil error means the executor intentionally did not
// create a process (dry run).
type Executor interface {
	// Execute starts the command on the underlying platform.
	Execute(command Command) (TaskHandle, error)
	// Name returns user-friendly name of the executor.
	Name() string
}
