package bench

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/glennklockwood/iopup/pkg/toolconfig"
)

// argTables holds a tool's argument tables tokenized into argument lists.
// They are immutable after construction; command assembly only reads them.
type argTables struct {
	binary        string
	common        []string
	access        map[string][]string
	pattern       map[string][]string
	accessPattern map[string]map[string][]string
	randomData    []string
	timelimit     []string
	service       []string
	shutdown      []string
}

// newArgTables tokenizes and validates a tool's configuration. Missing or
// malformed keys surface here, at adapter construction.
func newArgTables(tool string, kind Kind, cfg toolconfig.Tool) (argTables, error) {
	tables := argTables{}

	if cfg.Binary == "" {
		return tables, errors.Errorf("tool %q config is missing the binary path", tool)
	}
	if len(cfg.AccessArgs) == 0 {
		return tables, errors.Errorf("tool %q config is missing access_args", tool)
	}
	if len(cfg.PatternArgs) == 0 {
		return tables, errors.Errorf("tool %q config is missing pattern_args", tool)
	}
	if cfg.TimelimitArgs == "" {
		return tables, errors.Errorf("tool %q config is missing timelimit_args", tool)
	}
	if kind == KindService {
		if cfg.ServiceArgs == "" {
			return tables, errors.Errorf("tool %q runs a persistent service but its config is missing service_args", tool)
		}
		if cfg.ShutdownArgs == "" {
			return tables, errors.Errorf("tool %q runs a persistent service but its config is missing shutdown_args", tool)
		}
	}

	tables.binary = cfg.Binary
	tables.common = tokenize(cfg.CommonArgs)
	tables.randomData = tokenize(cfg.RandomDataArgs)
	tables.timelimit = tokenize(cfg.TimelimitArgs)
	tables.service = tokenize(cfg.ServiceArgs)
	tables.shutdown = tokenize(cfg.ShutdownArgs)

	tables.access = map[string][]string{}
	for access, args := range cfg.AccessArgs {
		tables.access[access] = tokenize(args)
	}

	tables.pattern = map[string][]string{}
	for pattern, args := range cfg.PatternArgs {
		tables.pattern[pattern] = tokenize(args)
	}

	tables.accessPattern = map[string]map[string][]string{}
	for access, patterns := range cfg.AccessPatternArgs {
		tables.accessPattern[access] = map[string][]string{}
		for pattern, args := range patterns {
			tables.accessPattern[access][pattern] = tokenize(args)
		}
	}

	return tables, nil
}

// applyThreadCount rewrites the thread-count value in the common arguments to
// the configured processes per node, when the tool declares one.
func (t *argTables) applyThreadCount(ppn int) {
	for i, arg := range t.common {
		if (arg == "-t" || arg == "--threads") && i+1 < len(t.common) {
			t.common[i+1] = strconv.Itoa(ppn)
			return
		}
	}
}
