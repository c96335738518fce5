package bench

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/glennklockwood/iopup/pkg/toolconfig"
)

func testToolConfig() toolconfig.Config {
	return toolconfig.Config{
		Mpirun: "srun",
		Tools: map[string]toolconfig.Tool{
			"elbencho": {
				Binary:        "/usr/bin/elbencho",
				CommonArgs:    "--threads 1 --sync",
				TimelimitArgs: "--timelimit",
				AccessArgs: map[string]string{
					"write": "--write",
					"read":  "--read",
					"clean": "--delfiles",
				},
				PatternArgs: map[string]string{
					"bw":   "--size 1t --block 1m",
					"iops": "--size 1t --block 4k --rand",
				},
				AccessPatternArgs: map[string]map[string]string{
					"write": {"iops": "--backlog 16"},
				},
				RandomDataArgs: "--blockvaralgo fast",
			},
			"ior": {
				Binary:        "/usr/bin/ior",
				CommonArgs:    "-v -C",
				TimelimitArgs: "-D",
				AccessArgs: map[string]string{
					"write": "-w",
					"read":  "-r",
				},
				PatternArgs: map[string]string{
					"bw":   "-t 1m -b 16g",
					"iops": "-t 4k -b 1g -z",
				},
			},
			"md-workbench": {
				Binary:        "/usr/bin/md-workbench",
				CommonArgs:    "--threads 1",
				TimelimitArgs: "-W",
				AccessArgs: map[string]string{
					"write": "-2",
					"clean": "-3",
				},
				PatternArgs: map[string]string{
					"iops": "-I 1000",
				},
				ServiceArgs:  "-1",
				ShutdownArgs: "--quit",
			},
		},
	}
}

func mustLauncher(t *testing.T, tool string, opts Options) *launcher {
	t.Helper()
	l, err := NewLauncher(tool, testToolConfig(), opts)
	if err != nil {
		t.Fatalf("constructing %s launcher: %v", tool, err)
	}
	return l.(*launcher)
}

func TestCommandAssembly(t *testing.T) {
	Convey("With an inline-hosts launcher", t, func() {
		l := mustLauncher(t, "elbencho", Options{
			Hosts:      []string{"node01", "node02"},
			PPN:        4,
			OutputDirs: []string{"/scratch/a", "/scratch/b"},
			TimeLimit:  60,
			RandomData: true,
			DryRun:     true,
			ExtraArgs:  map[string]interface{}{"verify": true, "iodepth": 8},
		})

		Convey("Assembly follows the documented fragment order", func() {
			argv, err := l.assemble("write", "bw")
			So(err, ShouldBeNil)
			So(argv, ShouldResemble, []string{
				"/usr/bin/elbencho",
				"--hosts", "node01,node02",
				"--timelimit", "60",
				"--blockvaralgo", "fast",
				"--threads", "4", "--sync",
				"--write",
				"--size", "1t", "--block", "1m",
				"--iodepth", "8",
				"--verify",
				"/scratch/a", "/scratch/b",
			})
		})

		Convey("Access-pattern overrides are appended after pattern args", func() {
			argv, err := l.assemble("write", "iops")
			So(err, ShouldBeNil)

			idx := indexOf(argv, "--backlog")
			So(idx, ShouldBeGreaterThan, indexOf(argv, "--rand"))
			So(argv[idx+1], ShouldEqual, "16")
		})

		Convey("Assembly is deterministic and keeps no state across calls", func() {
			first, err := l.assemble("write", "bw")
			So(err, ShouldBeNil)

			// A run in between must not leak tokens into later assemblies.
			_, err = l.Run("read", "iops")
			So(err, ShouldBeNil)

			second, err := l.assemble("write", "bw")
			So(err, ShouldBeNil)
			So(reflect.DeepEqual(first, second), ShouldBeTrue)
		})

		Convey("Unknown access mode fails before anything launches", func() {
			_, err := l.assemble("scribble", "bw")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown access mode")
		})

		Convey("Unknown pattern fails before anything launches", func() {
			_, err := l.assemble("write", "sideways")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown I/O pattern")
		})
	})

	Convey("With a job-launcher-prefixed launcher", t, func() {
		l := mustLauncher(t, "ior", Options{
			Hosts:      []string{"node01", "node02", "node03"},
			PPN:        8,
			OutputDirs: []string{"/scratch/a", "/scratch/b"},
			TimeLimit:  45,
			DryRun:     true,
		})

		Convey("The node list travels in the prefix and only the first output dir is used", func() {
			argv, err := l.assemble("write", "bw")
			So(err, ShouldBeNil)
			So(argv, ShouldResemble, []string{
				"srun",
				"--nodelist", "node01,node02,node03",
				"-N", "3",
				"-n", "24",
				"/usr/bin/ior",
				"-D", "45",
				"-v", "-C",
				"-w",
				"-t", "1m", "-b", "16g",
				"-o", "/scratch/a",
			})
		})
	})

	Convey("With a service launcher", t, func() {
		l := mustLauncher(t, "md-workbench", Options{
			Hosts:      []string{"node01"},
			PPN:        2,
			OutputDirs: []string{"/scratch/a"},
			DryRun:     true,
		})

		Convey("Hosts are inline and all output dirs are appended", func() {
			argv, err := l.assemble("write", "iops")
			So(err, ShouldBeNil)
			So(argv[0], ShouldEqual, "/usr/bin/md-workbench")
			So(indexOf(argv, "--hosts"), ShouldEqual, 1)
			So(argv[len(argv)-1], ShouldEqual, "/scratch/a")
		})
	})
}

func TestResultsRouting(t *testing.T) {
	Convey("With an inline-hosts launcher and a real output file", t, func() {
		l := mustLauncher(t, "elbencho", Options{
			Hosts:      []string{"node01"},
			OutputDirs: []string{"/scratch/a"},
			DryRun:     true,
		})

		path := filepath.Join(t.TempDir(), "primary_quiet.4p-2s.123.out")
		file, err := os.Create(path)
		So(err, ShouldBeNil)
		defer file.Close()

		Convey("Stdout pointing at the file derives results routing flags", func() {
			l.SetStdout(file)
			argv, err := l.assemble("write", "bw")
			So(err, ShouldBeNil)
			So(argv, ShouldContain, "--resfile")
			So(argv, ShouldContain, path+".results")
			So(argv, ShouldContain, "--csvfile")
			So(argv, ShouldContain, path+".csv")
		})

		Convey("No stdout destination means no routing flags", func() {
			argv, err := l.assemble("write", "bw")
			So(err, ShouldBeNil)
			So(argv, ShouldNotContain, "--resfile")
		})

		Convey("The service variant never routes results", func() {
			svc := mustLauncher(t, "md-workbench", Options{
				Hosts:      []string{"node01"},
				OutputDirs: []string{"/scratch/a"},
				DryRun:     true,
			})
			svc.SetStdout(file)
			argv, err := svc.assemble("write", "iops")
			So(err, ShouldBeNil)
			So(argv, ShouldNotContain, "--resfile")
		})
	})
}

func TestDryRunLifecycle(t *testing.T) {
	Convey("With a dry-run service launcher", t, func() {
		l := mustLauncher(t, "md-workbench", Options{
			Hosts:      []string{"node01", "node02"},
			OutputDirs: []string{"/scratch/a"},
			DryRun:     true,
		})

		Convey("Preflight creates no process handle", func() {
			handle, err := l.Preflight()
			So(err, ShouldBeNil)
			So(handle, ShouldBeNil)
		})

		Convey("Run creates no process handle", func() {
			handle, err := l.Run("write", "iops")
			So(err, ShouldBeNil)
			So(handle, ShouldBeNil)
		})

		Convey("Teardown creates no process handle and restores output targets", func() {
			path := filepath.Join(t.TempDir(), "out")
			file, err := os.Create(path)
			So(err, ShouldBeNil)
			defer file.Close()
			l.SetStdout(file)
			l.SetStderr(file)

			handle, err := l.Teardown("write", "iops")
			So(err, ShouldBeNil)
			So(handle, ShouldBeNil)
			So(l.Stdout(), ShouldEqual, file)
			So(l.Stderr(), ShouldEqual, file)
		})
	})

	Convey("Single-shot variants have identity preflight and teardown", t, func() {
		l := mustLauncher(t, "elbencho", Options{
			Hosts:      []string{"node01"},
			OutputDirs: []string{"/scratch/a"},
			DryRun:     true,
		})

		handle, err := l.Preflight()
		So(err, ShouldBeNil)
		So(handle, ShouldBeNil)

		handle, err = l.Teardown("write", "bw")
		So(err, ShouldBeNil)
		So(handle, ShouldBeNil)
	})
}

func TestConstructionErrors(t *testing.T) {
	Convey("Constructing launchers from broken configuration", t, func() {
		config := testToolConfig()

		Convey("An unknown tool id is rejected", func() {
			_, err := NewLauncher("fio", config, Options{})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unsupported tool")
		})

		Convey("A tool absent from the config is rejected", func() {
			delete(config.Tools, "ior")
			_, err := NewLauncher("ior", config, Options{})
			So(err, ShouldNotBeNil)
		})

		Convey("Missing timelimit_args is a construction error", func() {
			tool := config.Tools["elbencho"]
			tool.TimelimitArgs = ""
			config.Tools["elbencho"] = tool

			_, err := NewLauncher("elbencho", config, Options{})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "timelimit_args")
		})

		Convey("The service variant requires service and shutdown args", func() {
			tool := config.Tools["md-workbench"]
			tool.ServiceArgs = ""
			config.Tools["md-workbench"] = tool

			_, err := NewLauncher("md-workbench", config, Options{})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "service_args")
		})

		Convey("Job-launcher tools need the launcher binary configured", func() {
			config.Mpirun = ""
			_, err := NewLauncher("ior", config, Options{})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "job launcher")
		})
	})
}

func indexOf(argv []string, token string) int {
	for i, arg := range argv {
		if arg == token {
			return i
		}
	}
	return -1
}
