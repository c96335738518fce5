// The storage-interference experiment measures how much a probe workload's
// storage performance degrades when a second workload contends for the same
// storage resource. It sweeps the node partition between the two workloads,
// baselining each selected workload in isolation before running both
// concurrently, and leaves one labeled output file per workload and phase for
// the summary tool.
package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/glennklockwood/iopup/pkg/bench"
	"github.com/glennklockwood/iopup/pkg/cluster"
	"github.com/glennklockwood/iopup/pkg/conf"
	"github.com/glennklockwood/iopup/pkg/interference"
	"github.com/glennklockwood/iopup/pkg/metadata"
	"github.com/glennklockwood/iopup/pkg/scheduler"
	"github.com/glennklockwood/iopup/pkg/toolconfig"
	"github.com/glennklockwood/iopup/pkg/utils/errutil"
	"github.com/glennklockwood/iopup/pkg/utils/uuid"
)

var (
	outputDirFlag  = conf.NewStringFlag("output_dir", "Directory in which benchmarks perform their I/O", ".")
	toolConfigFlag = conf.NewStringFlag("tool_config", "Path to the tool configuration YAML", "config.yml")
	dryRunFlag     = conf.NewBoolFlag("dry_run", "Log command lines without launching benchmarks", false)
	ppnFlag        = conf.NewIntFlag("ppn", "Processes per node (0: detect from the allocation)", 0)
	stepFlag       = conf.NewIntFlag("step", "Step between successive primary node counts", 1)
	isolateFlag    = conf.NewStringFlag("isolate", "Workloads to baseline in isolation: primary, secondary or both", "secondary")
	delayFlag      = conf.NewDurationFlag("delay", "Stagger between primary and secondary launch in the noisy phase", 15*time.Second)

	primaryWorkloadFlag  = conf.NewStringFlag("primary_workload", "Primary (sustained) workload tool", "ior")
	primaryAccessFlag    = conf.NewStringFlag("primary_access", "Primary access mode", "write")
	primaryPatternFlag   = conf.NewStringFlag("primary_pattern", "Primary I/O pattern", "bw")
	primaryPPNFlag       = conf.NewIntFlag("primary_ppn", "Processes per node for primary workload (0: use --ppn)", 0)
	primaryTimelimitFlag = conf.NewIntFlag("primary_timelimit", "Seconds to run primary workload", 90)

	secondaryWorkloadFlag  = conf.NewStringFlag("secondary_workload", "Secondary (probe) workload tool", "ior")
	secondaryAccessFlag    = conf.NewStringFlag("secondary_access", "Secondary access mode", "write")
	secondaryPatternFlag   = conf.NewStringFlag("secondary_pattern", "Secondary I/O pattern", "iops")
	secondaryPPNFlag       = conf.NewIntFlag("secondary_ppn", "Processes per node for secondary workload (0: use --ppn)", 0)
	secondaryTimelimitFlag = conf.NewIntFlag("secondary_timelimit", "Seconds to run secondary workload", 45)
)

func pickPPN(roleSpecific int) int {
	if roleSpecific > 0 {
		return roleSpecific
	}
	if ppn := ppnFlag.Value(); ppn > 0 {
		return ppn
	}
	if ppn := cluster.PPN(); ppn > 0 {
		return ppn
	}
	return 1
}

func main() {
	conf.SetAppName("storage-interference")
	conf.SetHelp(`Measures noisy-neighbor storage interference between a sustained primary
workload and a secondary probe workload across a sweep of node partitions.`)

	errutil.Check(conf.ParseFlags())
	logrus.SetLevel(conf.LogLevel())

	config, err := toolconfig.Load(toolConfigFlag.Value())
	errutil.CheckWithContext(err, "loading tool configuration")

	isolate, err := interference.ParseIsolation(isolateFlag.Value())
	errutil.Check(err)

	var recorder interference.PhaseRecorder
	if metadata.Enabled() {
		store := metadata.New(uuid.New(), metadata.DefaultConfig())
		errutil.CheckWithContext(store.Connect(), "connecting to metadata database")
		errutil.Check(store.RecordFlags())
		errutil.Check(store.RecordEnv("SLURM_"))
		recorder = store
	}

	nodes := cluster.Nodes()
	jobID := cluster.JobID()
	step := stepFlag.Value()
	if step < 1 {
		step = 1
	}

	logrus.Infof("Sweeping %d nodes in steps of %d (job %s)", len(nodes), step, jobID)

	for numPrimary := len(nodes) - step; numPrimary >= 1; numPrimary -= step {
		primaryHosts := nodes[:numPrimary]
		secondaryHosts := nodes[numPrimary:]

		primaryDataDir := filepath.Join(outputDirFlag.Value(), fmt.Sprintf("data-primary.%s.out", jobID))
		secondaryDataDir := filepath.Join(outputDirFlag.Value(), fmt.Sprintf("data-secondary.%s.out", jobID))

		primaryLauncher, err := bench.NewLauncher(primaryWorkloadFlag.Value(), config, bench.Options{
			Hosts:      primaryHosts,
			PPN:        pickPPN(primaryPPNFlag.Value()),
			OutputDirs: []string{primaryDataDir},
			TimeLimit:  primaryTimelimitFlag.Value(),
			RandomData: true,
			DryRun:     dryRunFlag.Value(),
		})
		errutil.Check(err)

		secondaryLauncher, err := bench.NewLauncher(secondaryWorkloadFlag.Value(), config, bench.Options{
			Hosts:      secondaryHosts,
			PPN:        pickPPN(secondaryPPNFlag.Value()),
			OutputDirs: []string{secondaryDataDir},
			TimeLimit:  secondaryTimelimitFlag.Value(),
			RandomData: true,
			DryRun:     dryRunFlag.Value(),
		})
		errutil.Check(err)

		driver := interference.Driver{
			Delay:     delayFlag.Value(),
			OutputDir: outputDirFlag.Value(),
			Recorder:  recorder,
		}

		primary := &scheduler.Workload{
			Launcher: primaryLauncher,
			Access:   primaryAccessFlag.Value(),
			Pattern:  primaryPatternFlag.Value(),
			JobID:    jobID,
		}
		secondary := &scheduler.Workload{
			Launcher: secondaryLauncher,
			Access:   secondaryAccessFlag.Value(),
			Pattern:  secondaryPatternFlag.Value(),
			JobID:    jobID,
		}

		errutil.Check(driver.RunAsymmetric(primary, secondary, isolate))
	}
}
