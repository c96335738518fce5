package bench

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// tokenize splits a whitespace-separated argument string from the tool config
// into an argument list. An empty string yields a nil list.
func tokenize(args string) []string {
	return strings.Fields(args)
}

// assemble builds the full command line for one benchmark invocation. It is a
// pure function of the launcher configuration and the call arguments: the
// token sequence is rebuilt from scratch on every call and never accumulates
// state across calls.
//
// Fragment order: job-launcher prefix, binary, hosts, time limit, random
// data, results routing, common args, access args, pattern args,
// access-pattern overrides, extra flags, output directories.
func (l *launcher) assemble(access, pattern string) ([]string, error) {
	accessArgs, ok := l.args.access[access]
	if !ok {
		return nil, errors.Errorf("unknown access mode %q for tool %q", access, l.tool)
	}
	patternArgs, ok := l.args.pattern[pattern]
	if !ok {
		return nil, errors.Errorf("unknown I/O pattern %q for tool %q", pattern, l.tool)
	}

	argv := []string{}
	argv = append(argv, l.prefixArgs()...)
	argv = append(argv, l.args.binary)
	argv = append(argv, l.hostArgs()...)

	if l.timeLimit > 0 {
		argv = append(argv, l.args.timelimit...)
		argv = append(argv, strconv.Itoa(l.timeLimit))
	}
	if l.randomData {
		argv = append(argv, l.args.randomData...)
	}

	argv = append(argv, l.resultsArgs()...)
	argv = append(argv, l.args.common...)
	argv = append(argv, accessArgs...)
	argv = append(argv, patternArgs...)
	// The most specific access/pattern combination wins by being appended,
	// not substituted.
	argv = append(argv, l.args.accessPattern[access][pattern]...)
	argv = append(argv, l.extraFlagArgs()...)
	argv = append(argv, l.outputDirArgs()...)

	return argv, nil
}

// prefixArgs returns the distributed job launcher fragment for tools that run
// under it, with the node list placed directly after the launcher binary.
func (l *launcher) prefixArgs() []string {
	if l.kind != KindJobLauncher {
		return nil
	}

	nodes := len(l.hosts)
	return []string{
		l.jobLauncher,
		"--nodelist", strings.Join(l.hosts, ","),
		"-N", strconv.Itoa(nodes),
		"-n", strconv.Itoa(nodes * l.ppn),
	}
}

// hostArgs returns the host enumeration fragment for tools that take their
// node list inline.
func (l *launcher) hostArgs() []string {
	switch l.kind {
	case KindInline, KindService:
		if len(l.hosts) == 0 {
			return nil
		}
		return []string{"--hosts", strings.Join(l.hosts, ",")}
	case KindJobLauncher:
		// Hosts travel in the job launcher prefix.
		return nil
	}
	panic(ErrUnimplemented)
}

// resultsArgs derives machine-readable results routing from the current
// stdout destination, when that destination is a real file. Only the inline
// single-shot variant supports it.
func (l *launcher) resultsArgs() []string {
	if l.kind != KindInline || l.stdout == nil {
		return nil
	}

	name := l.stdout.Name()
	info, err := os.Stat(name)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}

	return []string{
		"--resfile", name + ".results",
		"--csvfile", name + ".csv",
	}
}

// extraFlagArgs renders the caller-supplied extra flags in deterministic
// (sorted) order. A true bool emits a bare flag; any other value emits the
// flag followed by its value.
func (l *launcher) extraFlagArgs() []string {
	if len(l.extra) == 0 {
		return nil
	}

	keys := make([]string, 0, len(l.extra))
	for key := range l.extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	argv := []string{}
	for _, key := range keys {
		value := l.extra[key]
		if boolean, ok := value.(bool); ok && boolean {
			argv = append(argv, "--"+key)
			continue
		}
		argv = append(argv, "--"+key, fmt.Sprintf("%v", value))
	}
	return argv
}

// outputDirArgs returns the output directory fragment, always last on the
// command line.
func (l *launcher) outputDirArgs() []string {
	if len(l.outputDirs) == 0 {
		return nil
	}

	switch l.kind {
	case KindInline, KindService:
		return l.outputDirs
	case KindJobLauncher:
		// The tool accepts a single target directory.
		return []string{"-o", l.outputDirs[0]}
	}
	panic(ErrUnimplemented)
}
