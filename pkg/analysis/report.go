package analysis

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/pkg/errors"
)

// Key identifies one node-count partition of the cluster.
type Key struct {
	PrimaryNodes   int
	SecondaryNodes int
}

func (k Key) String() string {
	return fmt.Sprintf("%dp-%ds", k.PrimaryNodes, k.SecondaryNodes)
}

// Cell identifies one column of the performance table.
type Cell struct {
	Contention string
	Workload   string
}

// PerformanceTable is the mean performance per node partition, keyed by
// contention label and workload id.
type PerformanceTable map[Key]map[Cell]float64

// LossTable is the relative performance loss (percent) per node partition
// and workload.
type LossTable map[Key]map[string]float64

// Validate checks the dataset for conditions that make the derived report
// misleading. Problems are returned as warnings; a partial report is still
// worth producing.
func Validate(records []Record) []error {
	var warnings []error

	// Incomplete dataset: some contention x workload combination is missing.
	seen := map[string]map[string]bool{}
	for _, record := range records {
		if seen[record.WorkloadID] == nil {
			seen[record.WorkloadID] = map[string]bool{}
		}
		seen[record.WorkloadID][record.Contention] = true
	}
	workloads := make([]string, 0, len(seen))
	for workload := range seen {
		workloads = append(workloads, workload)
	}
	sort.Strings(workloads)
	for _, workload := range workloads {
		for _, contention := range []string{"quiet", "noisy"} {
			if !seen[workload][contention] {
				warnings = append(warnings, errors.Errorf(
					"incomplete dataset: no %s records for workload %q", contention, workload))
			}
		}
	}

	// Job overlap: two jobs claim the same node-count partition, so the mean
	// would silently blend runs from different allocations.
	jobsByKey := map[Key]map[string]bool{}
	for _, record := range records {
		key := Key{record.PrimaryNodes, record.SecondaryNodes}
		if jobsByKey[key] == nil {
			jobsByKey[key] = map[string]bool{}
		}
		jobsByKey[key][record.JobID] = true
	}
	keys := sortedKeys(jobsByKey)
	for _, key := range keys {
		if len(jobsByKey[key]) > 1 {
			jobs := make([]string, 0, len(jobsByKey[key]))
			for job := range jobsByKey[key] {
				jobs = append(jobs, job)
			}
			sort.Strings(jobs)
			warnings = append(warnings, errors.Errorf(
				"job overlap: node partition %s claimed by jobs %v", key, jobs))
		}
	}

	return warnings
}

// Performance pivots the records into mean performance per node partition,
// contention label and workload.
func Performance(records []Record) PerformanceTable {
	sums := map[Key]map[Cell]float64{}
	counts := map[Key]map[Cell]int{}

	for _, record := range records {
		key := Key{record.PrimaryNodes, record.SecondaryNodes}
		cell := Cell{record.Contention, record.WorkloadID}
		if sums[key] == nil {
			sums[key] = map[Cell]float64{}
			counts[key] = map[Cell]int{}
		}
		sums[key][cell] += record.Performance
		counts[key][cell]++
	}

	table := PerformanceTable{}
	for key, cells := range sums {
		table[key] = map[Cell]float64{}
		for cell, sum := range cells {
			table[key][cell] = sum / float64(counts[key][cell])
		}
	}
	return table
}

// Loss derives the relative performance loss from a performance table:
// 100 * (quiet - noisy) / quiet per node partition and workload. An entry
// exists only when both the quiet and the noisy value do.
func Loss(performance PerformanceTable) LossTable {
	loss := LossTable{}
	for key, cells := range performance {
		for cell := range cells {
			quiet, hasQuiet := cells[Cell{"quiet", cell.Workload}]
			noisy, hasNoisy := cells[Cell{"noisy", cell.Workload}]
			if !hasQuiet || !hasNoisy {
				continue
			}
			if loss[key] == nil {
				loss[key] = map[string]float64{}
			}
			loss[key][cell.Workload] = 100.0 * (quiet - noisy) / quiet
		}
	}
	return loss
}

// RenderPerformance writes the performance table as text, quiet columns
// before noisy ones.
func RenderPerformance(w io.Writer, performance PerformanceTable) {
	workloads := workloadColumns(performance)
	keys := sortedKeys(performance)

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprint(tw, "nodes")
	for _, contention := range []string{"quiet", "noisy"} {
		for _, workload := range workloads {
			fmt.Fprintf(tw, "\t%s/%s", contention, workload)
		}
	}
	fmt.Fprintln(tw)

	for _, key := range keys {
		fmt.Fprint(tw, key)
		for _, contention := range []string{"quiet", "noisy"} {
			for _, workload := range workloads {
				if value, ok := performance[key][Cell{contention, workload}]; ok {
					fmt.Fprintf(tw, "\t%.1f", value)
				} else {
					fmt.Fprint(tw, "\t-")
				}
			}
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

// RenderLoss writes the loss table as text.
func RenderLoss(w io.Writer, loss LossTable) {
	workloads := map[string]bool{}
	for _, cells := range loss {
		for workload := range cells {
			workloads[workload] = true
		}
	}
	columns := make([]string, 0, len(workloads))
	for workload := range workloads {
		columns = append(columns, workload)
	}
	sort.Strings(columns)

	keys := sortedKeys(loss)

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprint(tw, "nodes")
	for _, workload := range columns {
		fmt.Fprintf(tw, "\t%s", workload)
	}
	fmt.Fprintln(tw)

	for _, key := range keys {
		fmt.Fprint(tw, key)
		for _, workload := range columns {
			if value, ok := loss[key][workload]; ok {
				fmt.Fprintf(tw, "\t%.1f", value)
			} else {
				fmt.Fprint(tw, "\t-")
			}
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

func workloadColumns(performance PerformanceTable) []string {
	set := map[string]bool{}
	for _, cells := range performance {
		for cell := range cells {
			set[cell.Workload] = true
		}
	}
	workloads := make([]string, 0, len(set))
	for workload := range set {
		workloads = append(workloads, workload)
	}
	sort.Strings(workloads)
	return workloads
}

func sortedKeys[V any](m map[Key]V) []Key {
	keys := make([]Key, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].PrimaryNodes != keys[j].PrimaryNodes {
			return keys[i].PrimaryNodes < keys[j].PrimaryNodes
		}
		return keys[i].SecondaryNodes < keys[j].SecondaryNodes
	})
	return keys
}
