package executor

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLocal(t *testing.T) {
	Convey("With the local executor", t, func() {
		local := NewLocal()
		So(local.Name(), ShouldEqual, "Local")

		Convey("A successful command terminates with exit code zero", func() {
			handle, err := local.Execute(Command{Argv: []string{"sh", "-c", "exit 0"}})
			So(err, ShouldBeNil)
			So(handle, ShouldNotBeNil)

			So(handle.Wait(), ShouldBeNil)
			So(handle.Status(), ShouldEqual, TERMINATED)

			exitCode, err := handle.ExitCode()
			So(err, ShouldBeNil)
			So(exitCode, ShouldEqual, 0)
		})

		Convey("A failing command reports its exit code after Wait", func() {
			handle, err := local.Execute(Command{Argv: []string{"sh", "-c", "exit 5"}})
			So(err, ShouldBeNil)

			So(handle.Wait(), ShouldBeNil)
			exitCode, err := handle.ExitCode()
			So(err, ShouldBeNil)
			So(exitCode, ShouldEqual, 5)
		})

		Convey("Asking a running task for its exit code is an error", func() {
			handle, err := local.Execute(Command{Argv: []string{"sleep", "2"}})
			So(err, ShouldBeNil)
			So(handle.Status(), ShouldEqual, RUNNING)

			_, err = handle.ExitCode()
			So(err, ShouldNotBeNil)

			handle.Wait()
		})

		Convey("Stdout is routed to the given file", func() {
			path := filepath.Join(t.TempDir(), "out")
			file, err := os.Create(path)
			So(err, ShouldBeNil)
			defer file.Close()

			handle, err := local.Execute(Command{
				Argv:   []string{"sh", "-c", "echo hello"},
				Stdout: file,
			})
			So(err, ShouldBeNil)
			So(handle.Wait(), ShouldBeNil)

			content, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(content), ShouldEqual, "hello\n")
		})

		Convey("The handle remembers its command line", func() {
			handle, err := local.Execute(Command{Argv: []string{"sh", "-c", "exit 0"}})
			So(err, ShouldBeNil)
			So(handle.String(), ShouldEqual, "sh -c exit 0")
			handle.Wait()
		})

		Convey("An empty command is rejected", func() {
			_, err := local.Execute(Command{})
			So(err, ShouldNotBeNil)
		})

		Convey("A nonexistent binary fails at start", func() {
			_, err := local.Execute(Command{Argv: []string{"/no/such/binary"}})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestDryRun(t *testing.T) {
	Convey("With the dry-run executor", t, func() {
		dry := NewDryRun()
		So(dry.Name(), ShouldEqual, "DryRun")

		Convey("Execute returns neither a handle nor an error", func() {
			handle, err := dry.Execute(Command{Argv: []string{"/usr/bin/ior", "-w"}})
			So(err, ShouldBeNil)
			So(handle, ShouldBeNil)
		})
	})
}
