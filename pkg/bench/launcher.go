// Package bench implements the benchmark launcher contract: one interface for
// preflight/run/teardown of a storage benchmark tool, backed by a closed set
// of tool variants that differ in host enumeration, output directory shape
// and service lifecycle.
package bench

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/glennklockwood/iopup/pkg/executor"
	"github.com/glennklockwood/iopup/pkg/toolconfig"
)

// Kind tags the behavior variant of a benchmark tool.
type Kind int

const (
	// KindInline marks a single-shot tool that takes its host list on its
	// own command line.
	KindInline Kind = iota
	// KindJobLauncher marks a single-shot tool started under the
	// distributed job launcher, which also carries the node list.
	KindJobLauncher
	// KindService marks a tool backed by a persistent per-node service that
	// must be started before and shut down after the measured runs.
	KindService
)

// toolKinds is the closed set of supported tools.
var toolKinds = map[string]Kind{
	"elbencho":     KindInline,
	"ior":          KindJobLauncher,
	"md-workbench": KindService,
}

// cleanAccess is the access mode the service variant uses for file cleanup
// during teardown.
const cleanAccess = "clean"

// ServiceSettleDelay is how long the service variant pauses after starting
// and after shutting down its persistent service.
var ServiceSettleDelay = 5 * time.Second

// ErrUnimplemented is returned when a tool variant lacks a capability the
// contract marks as abstract.
var ErrUnimplemented = errors.New("capability not implemented for this tool variant")

// Launcher drives one benchmark tool on a fixed set of hosts.
//
// A Launcher instance belongs to exactly one workload within exactly one
// scheduler invocation at a time; concurrent reuse is a caller error.
// Preflight and Teardown may return nil handles when there is nothing to
// wait for; Run returns a nil handle only in dry-run mode.
type Launcher interface {
	// Name returns the tool identifier this launcher drives.
	Name() string

	// Preflight runs the tool's setup phase. The returned handle, when
	// non-nil, should be waited on before the measured run starts.
	Preflight() (executor.TaskHandle, error)

	// Run assembles the command line for the given access mode and I/O
	// pattern and starts the benchmark. Non-blocking.
	Run(access, pattern string) (executor.TaskHandle, error)

	// Teardown runs the tool's cleanup phase for the given access mode and
	// pattern. The returned handle, when non-nil, should be waited on.
	Teardown(access, pattern string) (executor.TaskHandle, error)

	// Hosts returns the node list the benchmark runs on.
	Hosts() []string

	// SetStdout redirects the benchmark's stdout. Manipulating this outside
	// of construction lets teardown and preflight run the tool without
	// polluting the output of the measured run.
	SetStdout(*os.File)
	Stdout() *os.File

	// SetStderr redirects the benchmark's stderr.
	SetStderr(*os.File)
	Stderr() *os.File

	// SetRandomData toggles incompressible data generation.
	SetRandomData(bool)
	RandomData() bool
}

// Options carries the per-instance launcher identity: where to run, how hard,
// for how long, and where the tool performs its I/O.
type Options struct {
	// Hosts is the node list the benchmark runs on.
	Hosts []string
	// PPN is the number of parallel threads or processes per node.
	PPN int
	// OutputDirs is where the benchmark performs its I/O.
	OutputDirs []string
	// TimeLimit bounds the benchmark runtime in seconds; 0 means no limit.
	TimeLimit int
	// RandomData requests incompressible data instead of a repeating pattern.
	RandomData bool
	// DryRun logs command lines without creating any process.
	DryRun bool
	// ExtraArgs are additional tool flags: a true bool emits a bare flag,
	// any other value emits flag plus value.
	ExtraArgs map[string]interface{}
}

// launcher is the single implementation behind the Launcher interface,
// specialized by Kind.
type launcher struct {
	tool string
	kind Kind
	args argTables

	hosts       []string
	ppn         int
	outputDirs  []string
	timeLimit   int
	randomData  bool
	dryRun      bool
	extra       map[string]interface{}
	jobLauncher string

	stdout *os.File
	stderr *os.File

	exec executor.Executor
}

// NewLauncher constructs the launcher variant registered for the given tool
// id. Configuration problems (unknown tool, missing argument tables) are
// reported here, before any process can be launched.
func NewLauncher(tool string, config toolconfig.Config, opts Options) (Launcher, error) {
	kind, ok := toolKinds[tool]
	if !ok {
		known := make([]string, 0, len(toolKinds))
		for name := range toolKinds {
			known = append(known, name)
		}
		return nil, errors.Errorf("unsupported tool %q (supported: %s)", tool, strings.Join(known, ", "))
	}

	toolCfg, err := config.Tool(tool)
	if err != nil {
		return nil, err
	}

	args, err := newArgTables(tool, kind, toolCfg)
	if err != nil {
		return nil, err
	}

	if (kind == KindJobLauncher || kind == KindService) && config.Mpirun == "" {
		return nil, errors.Errorf("tool %q needs a distributed job launcher but the config names none", tool)
	}

	l := &launcher{
		tool:        tool,
		kind:        kind,
		args:        args,
		hosts:       opts.Hosts,
		ppn:         opts.PPN,
		outputDirs:  opts.OutputDirs,
		timeLimit:   opts.TimeLimit,
		randomData:  opts.RandomData,
		dryRun:      opts.DryRun,
		extra:       opts.ExtraArgs,
		jobLauncher: config.Mpirun,
	}

	if l.ppn < 1 {
		l.ppn = 1
	}

	if kind == KindInline || kind == KindService {
		l.args.applyThreadCount(l.ppn)
	}

	if opts.DryRun {
		l.exec = executor.NewDryRun()
	} else {
		l.exec = executor.NewLocal()
	}

	return l, nil
}

// Name returns the tool identifier this launcher drives.
func (l *launcher) Name() string {
	return l.tool
}

// Hosts returns the node list the benchmark runs on.
func (l *launcher) Hosts() []string {
	return l.hosts
}

// SetStdout redirects the benchmark's stdout.
func (l *launcher) SetStdout(f *os.File) { l.stdout = f }

// Stdout returns the benchmark's stdout destination.
func (l *launcher) Stdout() *os.File { return l.stdout }

// SetStderr redirects the benchmark's stderr.
func (l *launcher) SetStderr(f *os.File) { l.stderr = f }

// Stderr returns the benchmark's stderr destination.
func (l *launcher) Stderr() *os.File { return l.stderr }

// SetRandomData toggles incompressible data generation.
func (l *launcher) SetRandomData(enabled bool) { l.randomData = enabled }

// RandomData reports whether incompressible data generation is requested.
func (l *launcher) RandomData() bool { return l.randomData }

// Run assembles the command line from scratch and starts the benchmark.
func (l *launcher) Run(access, pattern string) (executor.TaskHandle, error) {
	argv, err := l.assemble(access, pattern)
	if err != nil {
		return nil, err
	}

	log.Info("Executing: ", strings.Join(argv, " "))
	return l.exec.Execute(executor.Command{
		Argv:   argv,
		Stdout: l.stdout,
		Stderr: l.stderr,
	})
}

// Preflight starts the persistent service for the service variant and is a
// no-op for single-shot variants.
func (l *launcher) Preflight() (executor.TaskHandle, error) {
	if l.kind != KindService {
		return nil, nil
	}

	argv := l.serviceLaunchArgs()
	log.Info("Launching preflight: ", strings.Join(argv, " "))

	if _, err := l.exec.Execute(executor.Command{Argv: argv}); err != nil {
		return nil, err
	}

	// The service keeps running; the handle is deliberately not returned so
	// preflight does not block the scheduler.
	l.settle()
	return nil, nil
}

// Teardown cleans up benchmark files and shuts the persistent service down
// for the service variant; single-shot variants have nothing to tear down.
func (l *launcher) Teardown(access, pattern string) (executor.TaskHandle, error) {
	if l.kind != KindService {
		return nil, nil
	}

	log.Info("Launching teardown - file cleanup")

	// Suppress the measured run's output targets so cleanup cannot clobber
	// its results files.
	stdout, stderr := l.stdout, l.stderr
	l.stdout, l.stderr = nil, nil
	handle, err := l.Run(cleanAccess, pattern)
	l.stdout, l.stderr = stdout, stderr
	if err != nil {
		return nil, errors.Wrapf(err, "teardown cleanup for tool %q failed", l.tool)
	}
	if handle != nil {
		handle.Wait()
	}

	log.Info("Launching teardown - service shutdown")
	argv := append([]string{l.args.binary}, l.args.shutdown...)
	argv = append(argv, l.hostArgs()...)
	log.Info("Executing: ", strings.Join(argv, " "))

	shutdownHandle, err := l.exec.Execute(executor.Command{Argv: argv})
	if err != nil {
		return nil, errors.Wrapf(err, "teardown shutdown for tool %q failed", l.tool)
	}

	l.settle()
	return shutdownHandle, nil
}

// serviceLaunchArgs builds the job-launcher invocation that starts one
// service instance on every host.
func (l *launcher) serviceLaunchArgs() []string {
	n := strconv.Itoa(len(l.hosts))
	argv := []string{
		l.jobLauncher,
		"-N", n,
		"-n", n,
		"--nodelist", strings.Join(l.hosts, ","),
		l.args.binary,
	}
	return append(argv, l.args.service...)
}

func (l *launcher) settle() {
	if l.dryRun {
		return
	}
	time.Sleep(ServiceSettleDelay)
}
