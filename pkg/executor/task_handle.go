package executor

// TaskState is an enum presenting current task state.
type TaskState int

const (
	// RUNNING task state means that task is still running.
	RUNNING TaskState = iota
	// TERMINATED task state means that task completed or stopped.
	TERMINATED
)

// TaskHandle represents a launched subprocess which can be waited for.
// Exit codes are recorded but never interpreted: a benchmark that fails
// surfaces its failure through whatever it wrote to its output files.
type TaskHandle interface {
	// Wait blocks until the task terminates.
	Wait() error
	// ExitCode returns the exit code. If the task is not terminated it returns an error.
	ExitCode() (int, error)
	// Status returns the state of the task.
	Status() TaskState
	// String returns the command line the task was started with.
	String() string
}
