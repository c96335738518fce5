// Package interference composes the scheduler into complete noisy-neighbor
// measurements: each workload is measured in isolation ("quiet") and while
// contending with the other workload ("noisy"), with output files named so
// the downstream aggregation can recover the run's labels.
package interference

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/glennklockwood/iopup/pkg/cluster"
	"github.com/glennklockwood/iopup/pkg/scheduler"
)

// Isolation selects which workloads of an asymmetric pair are baselined in
// isolation before the noisy phase.
type Isolation int

const (
	// IsolatePrimary baselines only the sustained primary workload.
	IsolatePrimary Isolation = iota
	// IsolateSecondary baselines only the secondary probe workload.
	IsolateSecondary
	// IsolateBoth baselines both workloads, primary first.
	IsolateBoth
)

// String returns the selector spelling accepted by ParseIsolation.
func (i Isolation) String() string {
	switch i {
	case IsolatePrimary:
		return "primary"
	case IsolateSecondary:
		return "secondary"
	case IsolateBoth:
		return "both"
	}
	return fmt.Sprintf("Isolation(%d)", int(i))
}

// ParseIsolation converts a selector string into an Isolation value.
func ParseIsolation(s string) (Isolation, error) {
	switch s {
	case "primary":
		return IsolatePrimary, nil
	case "secondary":
		return IsolateSecondary, nil
	case "both":
		return IsolateBoth, nil
	}
	return 0, errors.Errorf("invalid isolation selector %q: must be one of: primary secondary both", s)
}

// OutputFilename names the file that receives one workload's output for one
// contention phase. The aggregation side parses these names back into labels.
func OutputFilename(role, contention string, primaryNodes, secondaryNodes int, jobID string) string {
	return fmt.Sprintf("%s_%s.%dp-%ds.%s.out", role, contention, primaryNodes, secondaryNodes, jobID)
}

// PhaseRecorder persists per-phase outcomes, typically to the experiment
// metadata store. A nil recorder disables recording.
type PhaseRecorder interface {
	RecordPhase(role, contention string, primaryNodes, secondaryNodes int, start, end time.Time) error
}

// Driver runs interference measurements through the scheduler.
type Driver struct {
	// Delay staggers the noisy phase: the secondary probe starts Delay after
	// the sustained primary.
	Delay time.Duration
	// OutputDir receives the per-phase output files. Empty means the
	// current directory.
	OutputDir string
	// Recorder, when non-nil, receives every completed phase.
	Recorder PhaseRecorder
}

// RunAsymmetric measures a secondary probe workload against a sustained
// primary workload. The workloads selected by isolate are first run alone
// ("quiet"), the primary before the secondary; then both run together
// ("noisy") with the configured stagger.
//
// Quiet baselines always precede the noisy phase. That ordering is a
// deliberate configuration choice of this driver, not a property the
// measurements depend on: the aggregation keys on the contention label only.
func (d *Driver) RunAsymmetric(primary, secondary *scheduler.Workload, isolate Isolation) error {
	var isolated []*scheduler.Workload
	switch isolate {
	case IsolatePrimary:
		isolated = []*scheduler.Workload{primary}
	case IsolateSecondary:
		isolated = []*scheduler.Workload{secondary}
	case IsolateBoth:
		isolated = []*scheduler.Workload{primary, secondary}
	default:
		return errors.Errorf("invalid isolation selector %v: must be one of: primary secondary both", isolate)
	}

	primary.Role = scheduler.RolePrimary
	secondary.Role = scheduler.RoleSecondary

	pair := []*scheduler.Workload{primary, secondary}
	d.populateLabels(pair, len(primary.Launcher.Hosts()), len(secondary.Launcher.Hosts()))

	opened := []*os.File{}
	defer closeAll(&opened)

	// Quiet baselines, one scheduler invocation each.
	for _, workload := range isolated {
		workload.Contention = scheduler.ContentionQuiet
		if err := d.openPhaseOutput(workload, &opened); err != nil {
			return err
		}

		logPhaseStart(workload)
		timestamps, err := scheduler.Run([]*scheduler.Workload{workload}, 0)
		if err != nil {
			return err
		}
		d.finishPhase(workload, timestamps[0])
	}

	// Noisy phase: both together, staggered.
	for _, workload := range pair {
		workload.Contention = scheduler.ContentionNoisy
		if err := d.openPhaseOutput(workload, &opened); err != nil {
			return err
		}
		logPhaseStart(workload)
	}

	timestamps, err := scheduler.Run(pair, d.Delay)
	if err != nil {
		return err
	}
	for i, workload := range pair {
		d.finishPhase(workload, timestamps[i])
	}

	return nil
}

// RunSymmetric measures two comparable workloads: each is baselined alone,
// then both run together. Exactly two workloads are supported.
func (d *Driver) RunSymmetric(workloads ...*scheduler.Workload) error {
	if len(workloads) != 2 {
		return errors.Errorf("symmetric interference supports exactly two workloads, got %d", len(workloads))
	}

	d.populateLabels(workloads, len(workloads[0].Launcher.Hosts()), len(workloads[1].Launcher.Hosts()))

	opened := []*os.File{}
	defer closeAll(&opened)

	for _, workload := range workloads {
		workload.Contention = scheduler.ContentionQuiet
		if err := d.openPhaseOutput(workload, &opened); err != nil {
			return err
		}

		logPhaseStart(workload)
		timestamps, err := scheduler.Run([]*scheduler.Workload{workload}, 0)
		if err != nil {
			return err
		}
		d.finishPhase(workload, timestamps[0])
	}

	for _, workload := range workloads {
		workload.Contention = scheduler.ContentionNoisy
		if err := d.openPhaseOutput(workload, &opened); err != nil {
			return err
		}
		logPhaseStart(workload)
	}

	timestamps, err := scheduler.Run(workloads, 0)
	if err != nil {
		return err
	}
	for i, workload := range workloads {
		d.finishPhase(workload, timestamps[i])
	}

	return nil
}

// populateLabels stamps job id and the node counts of both roles onto every
// descriptor before any phase runs.
func (d *Driver) populateLabels(workloads []*scheduler.Workload, primaryNodes, secondaryNodes int) {
	jobID := cluster.JobID()
	for _, workload := range workloads {
		if workload.JobID == "" {
			workload.JobID = jobID
		}
		workload.PrimaryNodes = primaryNodes
		workload.SecondaryNodes = secondaryNodes
	}
}

// openPhaseOutput opens the phase's output file fresh (append mode) and
// points the workload's stdout at it, with stderr mirroring stdout.
func (d *Driver) openPhaseOutput(workload *scheduler.Workload, opened *[]*os.File) error {
	dir := d.OutputDir
	if dir == "" {
		dir = "."
	}

	name := filepath.Join(dir, OutputFilename(
		workload.Role, workload.Contention,
		workload.PrimaryNodes, workload.SecondaryNodes, workload.JobID))

	file, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "could not open output file %q", name)
	}

	*opened = append(*opened, file)
	workload.Launcher.SetStdout(file)
	workload.Launcher.SetStderr(file)
	return nil
}

func (d *Driver) finishPhase(workload *scheduler.Workload, timestamps scheduler.Timestamps) {
	log.Infof("Finished %s %s workload; ran from %s to %s (%.1f seconds)",
		workload.Contention, workload.Role,
		timestamps.Start.Format(time.RFC3339),
		timestamps.End.Format(time.RFC3339),
		timestamps.Duration().Seconds())

	if d.Recorder == nil {
		return
	}
	err := d.Recorder.RecordPhase(
		workload.Role, workload.Contention,
		workload.PrimaryNodes, workload.SecondaryNodes,
		timestamps.Start, timestamps.End)
	if err != nil {
		log.Warnf("could not record phase metadata: %v", err)
	}
}

func logPhaseStart(workload *scheduler.Workload) {
	log.Infof("Launching %s %s %s on %d %s nodes",
		workload.Contention, workload.Access, workload.Pattern,
		len(workload.Launcher.Hosts()), workload.Role)
}

func closeAll(files *[]*os.File) {
	for _, file := range *files {
		file.Close()
	}
}
