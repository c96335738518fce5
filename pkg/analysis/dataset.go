// Package analysis turns the output files of interference runs back into
// structured records and derives the performance and loss tables consumed by
// humans. It is deliberately tolerant: files it cannot parse are skipped, and
// dataset problems are surfaced as warnings rather than failures, so a
// partial report is still produced.
package analysis

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Record is one workload measurement recovered from an output file. All
// fields except Performance come from the file name.
type Record struct {
	PrimaryNodes   int
	SecondaryNodes int
	Contention     string
	WorkloadID     string
	JobID          string
	Performance    float64
}

// ErrNoValidInput is returned when none of the given inputs yields a record.
var ErrNoValidInput = errors.New("no valid input data found")

// outputFilenameRe matches the {role}_{contention}.{P}p-{S}s.{jobid}.out
// convention the interference driver writes.
var outputFilenameRe = regexp.MustCompile(`^(primary|secondary)_(quiet|noisy)\.(\d+)p-(\d+)s\.([^.]+)\.out$`)

// performancePatterns extract the headline performance number from the
// summary output of the supported benchmark tools. The last match in a file
// wins, since the tools print their aggregate summary last.
var performancePatterns = []*regexp.Regexp{
	regexp.MustCompile(`Throughput MiB/s\s*:\s*([0-9]+(?:\.[0-9]+)?)`),
	regexp.MustCompile(`Max (?:Write|Read):\s*([0-9]+(?:\.[0-9]+)?)\s*MiB/sec`),
	regexp.MustCompile(`(?i)rate:\s*([0-9]+(?:\.[0-9]+)?)\s*iops`),
}

// LoadDataset parses one output file into a Record.
func LoadDataset(path string) (Record, error) {
	match := outputFilenameRe.FindStringSubmatch(filepath.Base(path))
	if match == nil {
		return Record{}, errors.Errorf("%q does not follow the output filename convention", path)
	}

	record := Record{
		WorkloadID: match[1],
		Contention: match[2],
		JobID:      match[5],
	}
	record.PrimaryNodes, _ = strconv.Atoi(match[3])
	record.SecondaryNodes, _ = strconv.Atoi(match[4])

	file, err := os.Open(path)
	if err != nil {
		return Record{}, errors.Wrapf(err, "could not open %q", path)
	}
	defer file.Close()

	found := false
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		for _, pattern := range performancePatterns {
			if m := pattern.FindStringSubmatch(scanner.Text()); m != nil {
				value, err := strconv.ParseFloat(m[1], 64)
				if err != nil {
					continue
				}
				record.Performance = value
				found = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Record{}, errors.Wrapf(err, "could not read %q", path)
	}
	if !found {
		return Record{}, errors.Errorf("no performance summary found in %q", path)
	}

	return record, nil
}

// LoadDatasets loads records from the given inputs. A directory input expands
// to the primary_*.out and secondary_*.out files inside it; anything else is
// treated as a glob pattern. Files that cannot be parsed are skipped
// silently. When nothing parses, ErrNoValidInput is returned.
func LoadDatasets(inputs ...string) ([]Record, error) {
	var files []string
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err == nil && info.IsDir() {
			for _, prefix := range []string{"primary_*.out", "secondary_*.out"} {
				matches, _ := filepath.Glob(filepath.Join(input, prefix))
				files = append(files, matches...)
			}
			continue
		}
		matches, _ := filepath.Glob(input)
		files = append(files, matches...)
	}

	var records []Record
	for _, file := range files {
		record, err := LoadDataset(file)
		if err != nil {
			log.Debugf("skipping %q: %v", file, err)
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, ErrNoValidInput
	}
	return records, nil
}
