// Package scheduler sequences a set of benchmark workloads through a
// preflight/run/teardown cycle. Preflights and teardowns touch shared service
// state and run strictly serially; only the measured run phase is concurrent,
// with a configurable stagger so a sustained workload can ramp up before a
// probe starts.
package scheduler

import (
	"time"

	"github.com/alitto/pond"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/glennklockwood/iopup/pkg/bench"
)

// Role labels for workloads in an interference pair.
const (
	RolePrimary   = "primary"
	RoleSecondary = "secondary"
)

// Contention labels for a workload's isolated vs concurrent runs.
const (
	ContentionQuiet = "quiet"
	ContentionNoisy = "noisy"
)

// SettleDelay is how long Run pauses after all workers finish, before
// teardowns begin, to let the storage system drain.
var SettleDelay = 5 * time.Second

// Workload describes one benchmark to run: the launcher that drives it plus
// the labels that identify its measurement. A Workload is mutated in place as
// an interference run progresses through its quiet and noisy phases.
type Workload struct {
	Launcher bench.Launcher
	Access   string
	Pattern  string

	// Role is RolePrimary or RoleSecondary.
	Role string
	// Contention is ContentionQuiet or ContentionNoisy.
	Contention string

	JobID          string
	PrimaryNodes   int
	SecondaryNodes int
}

// Timestamps records the wall-clock bounds of one workload's measured run.
type Timestamps struct {
	Start time.Time
	End   time.Time
}

// Duration returns the measured run length.
func (t Timestamps) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// Run takes the workloads through a complete preflight-run-teardown cycle.
//
// Preflights run serially in input order, waiting on any blocking handle.
// The run phase launches one worker per workload; worker i sleeps i*delay
// before invoking its workload's run, then blocks on the returned handle.
// Run does not return until every worker has finished and every teardown,
// again serial and in input order, has completed.
//
// The returned timestamps are in input order and bound each workload's run
// phase only.
func Run(workloads []*Workload, delay time.Duration) ([]Timestamps, error) {
	// Serial preflights.
	for _, workload := range workloads {
		handle, err := workload.Launcher.Preflight()
		if err != nil {
			return nil, errors.Wrapf(err, "preflight of %q failed", workload.Launcher.Name())
		}
		if handle != nil {
			handle.Wait()
		}
	}

	// Concurrent, staggered run phase.
	results := make([]Timestamps, len(workloads))
	runErrs := make([]error, len(workloads))

	pool := pond.New(len(workloads), 0, pond.MinWorkers(len(workloads)))
	for i, workload := range workloads {
		i, workload := i, workload
		pool.Submit(func() {
			time.Sleep(time.Duration(i) * delay)

			handle, err := workload.Launcher.Run(workload.Access, workload.Pattern)
			results[i].Start = time.Now()
			if err != nil {
				runErrs[i] = err
				results[i].End = results[i].Start
				return
			}
			if handle != nil {
				handle.Wait()
			}
			results[i].End = time.Now()
		})
	}
	pool.StopAndWait()

	time.Sleep(SettleDelay)

	// Serial teardowns, even when a run failed: the persistent services
	// still need shutting down.
	var teardownErr error
	for _, workload := range workloads {
		handle, err := workload.Launcher.Teardown(workload.Access, workload.Pattern)
		if err != nil {
			log.Errorf("teardown of %q failed: %v", workload.Launcher.Name(), err)
			if teardownErr == nil {
				teardownErr = err
			}
			continue
		}
		if handle != nil {
			handle.Wait()
		}
	}

	for i, err := range runErrs {
		if err != nil {
			return results, errors.Wrapf(err, "run of %q failed", workloads[i].Launcher.Name())
		}
	}
	if teardownErr != nil {
		return results, errors.Wrap(teardownErr, "teardown failed")
	}

	return results, nil
}
