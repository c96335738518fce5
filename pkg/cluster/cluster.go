// Package cluster discovers the node list and job id of the surrounding
// resource manager allocation. The rest of the system consumes both as opaque
// values, so standalone runs fall back to synthetic equivalents.
package cluster

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const fallbackNodeCount = 8

// Nodes returns the ordered host list of the current allocation. Outside an
// allocation it returns a synthetic list suitable for dry runs.
func Nodes() []string {
	nodelist := os.Getenv("SLURM_JOB_NODELIST")
	if nodelist != "" {
		out, err := exec.Command("scontrol", "show", "hostnames", nodelist).Output()
		if err == nil {
			return strings.Fields(string(out))
		}
		log.Warnf("could not expand nodelist %q: %v", nodelist, err)
	}

	hosts := make([]string, fallbackNodeCount)
	for i := range hosts {
		hosts[i] = fmt.Sprintf("node%02d", i)
	}
	return hosts
}

// JobID returns the resource manager's job id, or a timestamp-derived
// fallback for standalone execution.
func JobID() string {
	if jobID := os.Getenv("SLURM_JOBID"); jobID != "" {
		return jobID
	}
	return fmt.Sprintf("%d", time.Now().Unix())
}

// PPN returns the allocation's processes per node when the resource manager
// exposes one, otherwise 0.
func PPN() int {
	var ntasks, nnodes int
	if _, err := fmt.Sscanf(os.Getenv("SLURM_NTASKS"), "%d", &ntasks); err != nil {
		return 0
	}
	if _, err := fmt.Sscanf(os.Getenv("SLURM_JOB_NUM_NODES"), "%d", &nnodes); err != nil {
		return 0
	}
	if nnodes == 0 {
		return 0
	}
	return ntasks / nnodes
}
