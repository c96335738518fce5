package executor

import (
	"os/exec"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Local is responsible for providing the execution environment on the local
// machine via exec.Command. It runs the command as the current user.
type Local struct {
}

// NewLocal returns a Local instance.
func NewLocal() Local {
	return Local{}
}

// Name returns user-friendly name of the executor.
func (l Local) Name() string {
	return "Local"
}

// Execute runs the command given as input.
// The returned TaskHandle is able to wait for the provisioned process.
func (l Local) Execute(command Command) (TaskHandle, error) {
	if len(command.Argv) == 0 {
		return nil, errors.New("cannot execute empty command")
	}

	cmd := exec.Command(command.Argv[0], command.Argv[1:]...)

	// An own process group lets the launched tool fan out helper processes
	// without them outliving an interactive ^C of the experiment.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if command.Stdout != nil {
		cmd.Stdout = command.Stdout
	}
	if command.Stderr != nil {
		cmd.Stderr = command.Stderr
	}

	err := cmd.Start()
	if err != nil {
		return nil, errors.Wrapf(err, "could not start %q", strings.Join(command.Argv, " "))
	}

	log.Debug("Started with pid ", cmd.Process.Pid)

	t := &localTask{
		cmdline: strings.Join(command.Argv, " "),
		done:    make(chan struct{}),
	}

	// Reap the process in a goroutine. Wait errors for non-zero exits are
	// recorded as the exit code and otherwise ignored.
	go func() {
		cmd.Wait()

		if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok {
			if ws.Exited() {
				t.exitCode = ws.ExitStatus()
			} else {
				t.exitCode = -int(ws.Signal())
			}
		}

		log.Debug("Ended ", t.cmdline, " with status code ", t.exitCode)
		close(t.done)
	}()

	return t, nil
}

// localTask implements TaskHandle interface.
type localTask struct {
	cmdline  string
	exitCode int
	done     chan struct{}
}

// Wait blocks until the process terminates. The error is always nil for a
// process that ran to completion, whatever its exit code.
func (task *localTask) Wait() error {
	<-task.done
	return nil
}

// ExitCode returns the exit code. If the task is still running it returns an error.
func (task *localTask) ExitCode() (int, error) {
	select {
	case <-task.done:
		return task.exitCode, nil
	default:
		return 0, errors.Errorf("task %q is still running", task.cmdline)
	}
}

// Status returns the state of the task.
func (task *localTask) Status() TaskState {
	select {
	case <-task.done:
		return TERMINATED
	default:
		return RUNNING
	}
}

// String returns the command line the task was started with.
func (task *localTask) String() string {
	return task.cmdline
}
